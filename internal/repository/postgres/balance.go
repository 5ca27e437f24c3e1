package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vicidash-backend/internal/domain"
	"vicidash-backend/internal/logger"
	"vicidash-backend/internal/repository"
)

type balanceRepository struct {
	db *sql.DB
}

func NewBalanceRepository(db *sql.DB) repository.BalanceRepository {
	return &balanceRepository{db: db}
}

const ensureBalanceQuery = `INSERT INTO balances (user_id, initial_balance, current_balance, last_reset_date)
	          VALUES ($1, $2, $2, $3) ON CONFLICT (user_id) DO NOTHING`

func (r *balanceRepository) GetOrCreate(ctx context.Context, userID int32, startingBalance float64, today string) (*domain.Balance, error) {
	if _, err := r.db.ExecContext(ctx, ensureBalanceQuery, userID, startingBalance, today); err != nil {
		return nil, err
	}

	query := `SELECT id, user_id, initial_balance, current_balance, last_reset_date, updated_on
	          FROM balances WHERE user_id = $1`
	return scanBalance(r.db.QueryRowContext(ctx, query, userID))
}

// UpdateUnderLock serializes all mutations of one user's balance behind a row
// lock, so a live report and a finalization can never interleave.
func (r *balanceRepository) UpdateUnderLock(ctx context.Context, userID int32, startingBalance float64, today string, fn func(balance *domain.Balance, ltx repository.LedgerTx) error) error {
	logger.DatabaseCall("TX", "balances FOR UPDATE", "userID", userID)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin balance tx: %w", err)
	}
	defer tx.Rollback()

	// The insert guarantees the row exists so the lock below always lands.
	if _, err := tx.ExecContext(ctx, ensureBalanceQuery, userID, startingBalance, today); err != nil {
		return fmt.Errorf("ensure balance row: %w", err)
	}

	query := `SELECT id, user_id, initial_balance, current_balance, last_reset_date, updated_on
	          FROM balances WHERE user_id = $1 FOR UPDATE`
	balance, err := scanBalance(tx.QueryRowContext(ctx, query, userID))
	if err != nil {
		return fmt.Errorf("lock balance row: %w", err)
	}

	if err := fn(balance, &ledgerTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit balance tx: %w", err)
	}
	return nil
}

func scanBalance(row *sql.Row) (*domain.Balance, error) {
	b := &domain.Balance{}
	var lastReset sql.NullTime
	if err := row.Scan(&b.ID, &b.UserID, &b.InitialBalance, &b.CurrentBalance, &lastReset, &b.UpdatedOn); err != nil {
		return nil, err
	}
	if lastReset.Valid {
		b.LastResetDate = lastReset.Time.Format("2006-01-02")
	}
	return b, nil
}

// ledgerTx implements repository.LedgerTx on the lock-holding transaction.
type ledgerTx struct {
	tx *sql.Tx
}

func (l *ledgerTx) SaveBalance(ctx context.Context, b *domain.Balance) error {
	query := `UPDATE balances SET initial_balance=$1, current_balance=$2, last_reset_date=$3, updated_on=now() WHERE user_id=$4`

	var lastReset interface{}
	if b.LastResetDate != "" {
		lastReset = b.LastResetDate
	}

	_, err := l.tx.ExecContext(ctx, query, b.InitialBalance, b.CurrentBalance, lastReset, b.UserID)
	return err
}

func (l *ledgerTx) GetDayDeduction(ctx context.Context, userID int32, from, to time.Time) (*domain.Payment, error) {
	p := &domain.Payment{}
	query := `SELECT id, user_id, amount, payment_type, COALESCE(description, ''), previous_balance, new_balance, transaction_id, timestamp
	          FROM payment_history
	          WHERE user_id = $1 AND payment_type = $2 AND timestamp >= $3 AND timestamp < $4
	          ORDER BY timestamp LIMIT 1`
	err := l.tx.QueryRowContext(ctx, query, userID, domain.PaymentTypeDeduction, from, to).Scan(
		&p.ID, &p.UserID, &p.Amount, &p.Type, &p.Description,
		&p.PreviousBalance, &p.NewBalance, &p.TransactionID, &p.Timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (l *ledgerTx) DeleteDayDeductions(ctx context.Context, userID int32, from, to time.Time) (int64, error) {
	query := `DELETE FROM payment_history
	          WHERE user_id = $1 AND payment_type = $2 AND timestamp >= $3 AND timestamp < $4`
	res, err := l.tx.ExecContext(ctx, query, userID, domain.PaymentTypeDeduction, from, to)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (l *ledgerTx) InsertPayment(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payment_history (user_id, amount, payment_type, description, previous_balance, new_balance, transaction_id, timestamp)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	return l.tx.QueryRowContext(ctx, query, p.UserID, p.Amount, p.Type, p.Description,
		p.PreviousBalance, p.NewBalance, p.TransactionID, p.Timestamp).Scan(&p.ID)
}

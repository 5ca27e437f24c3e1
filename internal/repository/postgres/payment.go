package postgres

import (
	"context"
	"database/sql"

	"vicidash-backend/internal/domain"
	"vicidash-backend/internal/repository"
)

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) List(ctx context.Context, userID int32, limit, offset int) ([]domain.Payment, int, error) {
	var total int
	countQuery := `SELECT count(*) FROM payment_history WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, user_id, amount, payment_type, COALESCE(description, ''), previous_balance, new_balance, transaction_id, timestamp
	          FROM payment_history WHERE user_id = $1 ORDER BY timestamp DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.Amount, &p.Type, &p.Description,
			&p.PreviousBalance, &p.NewBalance, &p.TransactionID, &p.Timestamp); err != nil {
			return nil, 0, err
		}
		payments = append(payments, p)
	}
	return payments, total, rows.Err()
}

func (r *paymentRepository) Stats(ctx context.Context, userID int32) (*domain.PaymentStats, error) {
	stats := &domain.PaymentStats{}

	rows, err := r.db.QueryContext(ctx, `
		SELECT payment_type, count(*), COALESCE(sum(amount), 0)
		FROM payment_history
		WHERE user_id = $1
		GROUP BY payment_type`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var paymentType domain.PaymentType
		var count int
		var sum float64
		if err := rows.Scan(&paymentType, &count, &sum); err != nil {
			return nil, err
		}
		stats.TotalTransactions += count
		switch paymentType {
		case domain.PaymentTypeRecharge:
			stats.TotalRecharges = count
			stats.TotalRechargedAmount = sum
		case domain.PaymentTypeDeduction:
			stats.TotalDeductions = count
			stats.TotalDeductedAmount = sum
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	last := &domain.Payment{}
	lastQuery := `SELECT id, user_id, amount, payment_type, COALESCE(description, ''), previous_balance, new_balance, transaction_id, timestamp
	              FROM payment_history WHERE user_id = $1 ORDER BY timestamp DESC LIMIT 1`
	err = r.db.QueryRowContext(ctx, lastQuery, userID).Scan(&last.ID, &last.UserID, &last.Amount, &last.Type,
		&last.Description, &last.PreviousBalance, &last.NewBalance, &last.TransactionID, &last.Timestamp)
	if err == nil {
		stats.LastTransaction = last
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	return stats, nil
}

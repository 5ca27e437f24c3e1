package repository

import (
	"context"
	"time"

	"vicidash-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Count(ctx context.Context) (int, error)
	ListIDs(ctx context.Context) ([]int32, error)
}

// LedgerTx exposes the ledger writes available while a user's balance row is
// locked. Every call runs inside the transaction that holds the lock.
type LedgerTx interface {
	SaveBalance(ctx context.Context, balance *domain.Balance) error
	GetDayDeduction(ctx context.Context, userID int32, from, to time.Time) (*domain.Payment, error)
	DeleteDayDeductions(ctx context.Context, userID int32, from, to time.Time) (int64, error)
	InsertPayment(ctx context.Context, payment *domain.Payment) error
}

type BalanceRepository interface {
	// GetOrCreate returns the user's balance row, creating it with the
	// starting amount on first sight.
	GetOrCreate(ctx context.Context, userID int32, startingBalance float64, today string) (*domain.Balance, error)
	// UpdateUnderLock runs fn with the user's balance row locked, creating the
	// row first when absent. An error from fn rolls the whole unit back.
	UpdateUnderLock(ctx context.Context, userID int32, startingBalance float64, today string, fn func(balance *domain.Balance, tx LedgerTx) error) error
}

type PaymentRepository interface {
	List(ctx context.Context, userID int32, limit, offset int) ([]domain.Payment, int, error)
	Stats(ctx context.Context, userID int32) (*domain.PaymentStats, error)
}

type ReportRepository interface {
	// Get returns the cached report for the exact range, or nil on a miss.
	Get(ctx context.Context, campaign, startDate, endDate string) (*domain.Report, error)
	// Save stores a report snapshot once; saving an existing range is a no-op.
	Save(ctx context.Context, report *domain.Report) error
}

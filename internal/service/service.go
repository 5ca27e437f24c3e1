package service

import (
	"context"
	"errors"
	"fmt"

	"vicidash-backend/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrAmountNotPositive  = errors.New("amount must be greater than 0")
	ErrNegativeBalance    = errors.New("balance cannot be negative")
	ErrInvalidDateRange   = errors.New("start_date must be before or equal to end_date")
)

// NegativeBalanceError rejects an adjustment that would take the balance
// below zero. Attempted carries the balance the caller asked for.
type NegativeBalanceError struct {
	Attempted float64
}

func (e *NegativeBalanceError) Error() string {
	return fmt.Sprintf("adjustment would result in negative balance ($%.2f)", e.Attempted)
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *domain.User, error) // token, user
	CreateUser(ctx context.Context, username, password, fullName string) (*domain.User, error)
	Me(ctx context.Context, userID int32) (*domain.User, error)
}

type LedgerService interface {
	GetBalance(ctx context.Context, userID int32) (*domain.Balance, error)
	ApplyLiveReport(ctx context.Context, userID int32, totalCost float64, connectedCalls int) (*domain.Balance, bool, error) // balance, deductionPending
	FinalizeDay(ctx context.Context, userID int32, totalCost float64, connectedCalls int, day string) (*domain.DeductionResult, error)
	AddFunds(ctx context.Context, userID int32, amount float64, description string, transactionID *string) (*domain.BalanceChange, error)
	SetBalance(ctx context.Context, userID int32, newBalance float64, description string, transactionID *string) (*domain.BalanceChange, error)
	AdjustBalance(ctx context.Context, userID int32, adjustment float64, description string, transactionID *string) (*domain.BalanceChange, error)
	PaymentHistory(ctx context.Context, userID int32, limit, offset int) ([]domain.Payment, int, error)
	PaymentStats(ctx context.Context, userID int32) (*domain.PaymentStats, error)
}

type ReportService interface {
	GetReport(ctx context.Context, userID int32, campaign, startDate, endDate string) (*domain.CallReport, error)
	TodayStats(ctx context.Context, campaign string) (int, int, float64, error) // totalCalls, connectedCalls, totalCost
}

type AlertService interface {
	SendLowBalanceAlert(ctx context.Context, userID int32, previousBalance, currentBalance float64) error
	SendDailyStatement(ctx context.Context, userID int32, day string, result *domain.DeductionResult) error
}

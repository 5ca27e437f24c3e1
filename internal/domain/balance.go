package domain

import "time"

// Balance tracks one user's prepaid funds. InitialBalance anchors the day's
// spend; CurrentBalance never rises between resets.
type Balance struct {
	ID             int32     `json:"id"`
	UserID         int32     `json:"user_id"`
	InitialBalance float64   `json:"initial_balance"`
	CurrentBalance float64   `json:"current_balance"`
	LastResetDate  string    `json:"last_reset_date"` // YYYY-MM-DD in dialer-local time
	UpdatedOn      time.Time `json:"updated_on"`
}

// SpentToday derives the cost already applied since the last reset.
func (b *Balance) SpentToday() float64 {
	spent := b.InitialBalance - b.CurrentBalance
	if spent < 0 {
		return 0
	}
	return spent
}

const (
	AdjustmentIncrease = "increase"
	AdjustmentDecrease = "decrease"
	AdjustmentNoChange = "no_change"
)

// BalanceChange reports the outcome of a manual balance operation.
type BalanceChange struct {
	PreviousBalance float64   `json:"previous_balance"`
	NewBalance      float64   `json:"new_balance"`
	Adjustment      float64   `json:"adjustment"`
	AdjustmentType  string    `json:"adjustment_type"`
	Timestamp       time.Time `json:"timestamp"`
}

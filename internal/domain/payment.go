package domain

import "time"

type PaymentType string

const (
	PaymentTypeRecharge   PaymentType = "recharge"
	PaymentTypeDeduction  PaymentType = "deduction"
	PaymentTypeAdjustment PaymentType = "adjustment"
	PaymentTypeSetBalance PaymentType = "set_balance"
)

// Payment is one append-only balance history row. Rows are immutable once
// written, except that a same-day pending deduction is replaced at
// finalization.
type Payment struct {
	ID              int32       `json:"id"`
	UserID          int32       `json:"user_id"`
	Amount          float64     `json:"amount"`
	Type            PaymentType `json:"payment_type"`
	Description     string      `json:"description"`
	PreviousBalance float64     `json:"previous_balance"`
	NewBalance      float64     `json:"new_balance"`
	TransactionID   *string     `json:"transaction_id,omitempty"`
	Timestamp       time.Time   `json:"timestamp"`
}

// PaymentStats aggregates a user's history for the stats endpoint.
type PaymentStats struct {
	TotalTransactions    int      `json:"total_transactions"`
	TotalRecharges       int      `json:"total_recharges"`
	TotalRechargedAmount float64  `json:"total_recharged_amount"`
	TotalDeductions      int      `json:"total_deductions"`
	TotalDeductedAmount  float64  `json:"total_deducted_amount"`
	LastTransaction      *Payment `json:"last_transaction"`
}

// DeductionResult reports one end-of-day finalization attempt.
type DeductionResult struct {
	AlreadyRecorded bool    `json:"already_recorded"`
	Amount          float64 `json:"amount"`
	ConnectedCalls  int     `json:"connected_calls"`
	NewBalance      float64 `json:"new_balance"`
}

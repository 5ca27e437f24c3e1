package domain

import "time"

type ReportSource string

const (
	ReportSourceLive       ReportSource = "live"
	ReportSourceHistorical ReportSource = "historical"
)

// Report is a write-once snapshot of call statistics for a closed date range.
type Report struct {
	ID             int32          `json:"id"`
	Campaign       string         `json:"campaign"`
	StartDate      string         `json:"start_date"`
	EndDate        string         `json:"end_date"`
	TotalCalls     int            `json:"total_calls"`
	ConnectedCalls int            `json:"connected_calls"`
	ASRPercent     float64        `json:"asr_percent"`
	ACDSeconds     float64        `json:"acd_seconds"`
	TotalCost      float64        `json:"total_cost"`
	Dispositions   map[string]int `json:"dispositions"`
	CreatedOn      time.Time      `json:"created_on"`
}

// CallReport is the assembled answer for one report request. TotalCalls == 0
// means the range had no data; the remaining metric fields are zero then and
// only Balance carries information.
type CallReport struct {
	Campaign         string         `json:"campaign"`
	StartDate        string         `json:"start_date"`
	EndDate          string         `json:"end_date"`
	TotalCalls       int            `json:"total_calls"`
	ConnectedCalls   int            `json:"connected_calls"`
	ASRPercent       float64        `json:"asr_percent"`
	ACDSeconds       float64        `json:"acd_seconds"`
	RatePerCall      float64        `json:"rate_per_call"`
	TotalCost        float64        `json:"total_cost"`
	Dispositions     map[string]int `json:"dispositions"`
	Balance          float64        `json:"balance"`
	Source           ReportSource   `json:"source"`
	Cached           bool           `json:"cached"`
	DeductionPending bool           `json:"deduction_pending"`
	VicidialDate     string         `json:"vicidial_date"`
	QueryDate        string         `json:"query_date"`
}

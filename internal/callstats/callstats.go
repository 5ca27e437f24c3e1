package callstats

import "math"

// Round2 rounds half away from zero to two decimals. Every monetary value
// passes through it at computation and response boundaries.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Classifier buckets disposition codes into connected or not. The code set is
// fixed at construction.
type Classifier struct {
	connected map[string]struct{}
}

func NewClassifier(connectedCodes []string) *Classifier {
	set := make(map[string]struct{}, len(connectedCodes))
	for _, code := range connectedCodes {
		set[code] = struct{}{}
	}
	return &Classifier{connected: set}
}

// IsConnected reports whether a disposition code counts as an answered call.
func (c *Classifier) IsConnected(code string) bool {
	_, ok := c.connected[code]
	return ok
}

// ConnectedCalls sums the histogram counts of connected codes. The histogram
// itself is never filtered; display keeps every code verbatim.
func (c *Classifier) ConnectedCalls(dispositions map[string]int) int {
	connected := 0
	for code, count := range dispositions {
		if c.IsConnected(code) {
			connected += count
		}
	}
	return connected
}

// ASRPercent computes the answer-seizure ratio as a percentage, zero when the
// range had no calls.
func ASRPercent(connectedCalls, totalCalls int) float64 {
	if totalCalls == 0 {
		return 0.0
	}
	return Round2(float64(connectedCalls) / float64(totalCalls) * 100)
}

// BillableCalls picks the rating basis for a range.
func BillableCalls(totalCalls, connectedCalls int, connectedOnly bool) int {
	if connectedOnly {
		return connectedCalls
	}
	return totalCalls
}

// TotalCost prices the billable calls at the per-call rate.
func TotalCost(billableCalls int, ratePerCall float64) float64 {
	return Round2(float64(billableCalls) * ratePerCall)
}

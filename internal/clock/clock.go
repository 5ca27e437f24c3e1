package clock

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate marks a date string that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("expected YYYY-MM-DD")

const (
	// DateLayout is the wire format for civil dates throughout the API.
	DateLayout = "2006-01-02"
	// TimestampLayout is the wire format for timestamps in responses.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Clock reports dialer-local time. Every "today" and end-of-day decision in
// the ledger goes through it so the boundary is the dialer's midnight, not the
// server's.
type Clock struct {
	loc       *time.Location
	eodHour   int
	eodMinute int
	now       func() time.Time // swappable so tests can pin the day boundary
}

// New builds a clock for the given IANA timezone and end-of-day cutoff.
func New(timezone string, eodHour, eodMinute int) (*Clock, error) {
	return NewAt(timezone, eodHour, eodMinute, time.Now)
}

// NewAt builds a clock with a custom time source.
func NewAt(timezone string, eodHour, eodMinute int, now func() time.Time) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc, eodHour: eodHour, eodMinute: eodMinute, now: now}, nil
}

// Now returns the current dialer-local time.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the current dialer-local date as YYYY-MM-DD.
func (c *Clock) Today() string {
	return c.Now().Format(DateLayout)
}

// TodayDate returns dialer-local midnight of the current date.
func (c *Clock) TodayDate() time.Time {
	t := c.Now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// ParseDate parses a YYYY-MM-DD string as a dialer-local date.
func (c *Clock) ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, ErrInvalidDate)
	}
	return t, nil
}

// IsEndOfDay reports whether the current time-of-day has reached the cutoff.
func (c *Clock) IsEndOfDay() bool {
	t := c.Now()
	return t.Hour() > c.eodHour || (t.Hour() == c.eodHour && t.Minute() >= c.eodMinute)
}

// Location returns the dialer timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Period is the reporting granularity of a throughput report.
type Period string

const (
	PeriodNone    Period = ""
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly" // reserved, dates pass through unchanged
)

var (
	// ErrDateNotSet is returned when a boundary date is reconciled before it was supplied.
	ErrDateNotSet = errors.New("required date not set")
	// ErrUnknownPeriod is returned by ParsePeriod for anything outside the known periods.
	ErrUnknownPeriod = errors.New("unknown report period")
)

// Periods lists every accepted period value, in display order.
func Periods() []Period {
	return []Period{PeriodDaily, PeriodWeekly, PeriodMonthly}
}

// ParsePeriod validates user input at the edges of the system (flags, config, tools).
// An empty string is accepted and means "no reconciliation".
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PeriodNone, PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q (expected daily, weekly or monthly)", ErrUnknownPeriod, s)
}

// BucketLabel is the header of the bucket column. Buckets are always a week wide.
func (p Period) BucketLabel() string {
	return "Week"
}

func (p Period) String() string {
	if p == PeriodNone {
		return "none"
	}
	return string(p)
}

// ReconcileStart snaps a start date back to the first day of its period.
// Only weekly periods snap (to Sunday); the time of day is preserved.
func ReconcileStart(t time.Time, period Period) (time.Time, error) {
	if t.IsZero() {
		return t, fmt.Errorf("start date: %w", ErrDateNotSet)
	}
	if period != PeriodWeekly {
		return t, nil
	}
	for t.Weekday() != time.Sunday {
		t = t.AddDate(0, 0, -1)
	}
	return t, nil
}

// ReconcileEnd snaps an end date forward to the last day of its period.
// Only weekly periods snap (to Saturday); the time of day is preserved.
func ReconcileEnd(t time.Time, period Period) (time.Time, error) {
	if t.IsZero() {
		return t, fmt.Errorf("end date: %w", ErrDateNotSet)
	}
	if period != PeriodWeekly {
		return t, nil
	}
	for t.Weekday() != time.Saturday {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

// dateOf drops the time of day. Bucket identity is a calendar date, kept in UTC so
// that consecutive buckets are exactly 7*24h apart regardless of DST.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Package report turns analyzed tickets into period-bucketed throughput reports.
package report

import (
	"fmt"
	"iter"
	"time"
)

// DateLayout is how bucket dates are written out.
const DateLayout = "2006-01-02"

// Report is the result of a single ReportOn call.
// Table[0] is the header; every following row is [bucket start date, completed count].
type Report struct {
	Table   [][]any `json:"table"`
	Summary Summary `json:"summary"`
}

// Summary describes the configuration a report was produced with.
type Summary struct {
	Title     string    `json:"title"`
	Period    Period    `json:"period"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Bucket is one reporting interval and the number of tickets completed in it.
type Bucket struct {
	Start     time.Time `json:"start"`
	Completed int       `json:"completed"`
}

// Header returns the header row of the table.
func (r Report) Header() []string {
	if len(r.Table) == 0 {
		return nil
	}
	header := make([]string, 0, len(r.Table[0]))
	for _, cell := range r.Table[0] {
		header = append(header, fmt.Sprint(cell))
	}
	return header
}

// Strings renders every cell as text, dates as YYYY-MM-DD.
func (r Report) Strings() [][]string {
	rows := make([][]string, len(r.Table))
	for i, row := range r.Table {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = FormatCell(cell)
		}
	}
	return rows
}

// FormatCell renders a single table cell.
func FormatCell(cell any) string {
	if t, ok := cell.(time.Time); ok {
		return t.Format(DateLayout)
	}
	return fmt.Sprint(cell)
}

// Buckets returns the data rows of the table as typed values.
func (r Report) Buckets() []Bucket {
	if len(r.Table) < 2 {
		return nil
	}
	buckets := make([]Bucket, 0, len(r.Table)-1)
	for _, row := range r.Table[1:] {
		if len(row) < 2 {
			continue
		}
		start, _ := row[0].(time.Time)
		count, _ := row[1].(int)
		buckets = append(buckets, Bucket{Start: start, Completed: count})
	}
	return buckets
}

// Total is the number of completed tickets across all buckets.
func (r Report) Total() int {
	total := 0
	for _, b := range r.Buckets() {
		total += b.Completed
	}
	return total
}

// ThroughputReporter counts completed tickets per week within a date range.
//
// Start and End hold the caller's raw dates. The effective dates are derived from
// them on every read, so Period may be changed before or after the dates are set.
type ThroughputReporter struct {
	Title  string
	Period Period
	Start  time.Time
	End    time.Time
}

// NewThroughputReporter creates a reporter. Zero dates may be filled in later.
func NewThroughputReporter(title string, period Period, start, end time.Time) *ThroughputReporter {
	return &ThroughputReporter{
		Title:  title,
		Period: period,
		Start:  start,
		End:    end,
	}
}

// StartDate is the reconciled start of the report window.
func (r *ThroughputReporter) StartDate() (time.Time, error) {
	return ReconcileStart(r.Start, r.Period)
}

// EndDate is the reconciled end of the report window.
func (r *ThroughputReporter) EndDate() (time.Time, error) {
	return ReconcileEnd(r.End, r.Period)
}

func (r *ThroughputReporter) window() (time.Time, time.Time, error) {
	start, err := r.StartDate()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := r.EndDate()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// WeekStarts yields the calendar date of every bucket in the window, 7 days apart.
// The returned sequence can be ranged over any number of times.
func (r *ThroughputReporter) WeekStarts() (iter.Seq[time.Time], error) {
	start, end, err := r.window()
	if err != nil {
		return nil, err
	}
	first, last := dateOf(start), dateOf(end)

	return func(yield func(time.Time) bool) {
		for week := first; !week.After(last); week = week.AddDate(0, 0, 7) {
			if !yield(week) {
				return
			}
		}
	}, nil
}

// FilterIssues keeps the tickets that ended inside the window, both ends inclusive.
func (r *ThroughputReporter) FilterIssues(tickets []Ticket) ([]Ticket, error) {
	start, end, err := r.window()
	if err != nil {
		return nil, err
	}

	var filtered []Ticket
	for _, t := range tickets {
		ended, ok, err := endOf(t)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if ended.Before(start) || ended.After(end) {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered, nil
}

// CountByWeek counts tickets into the buckets of the window, in ascending order.
// Every bucket is present, with zero when nothing completed in it.
func (r *ThroughputReporter) CountByWeek(tickets []Ticket) ([]Bucket, error) {
	weeks, err := r.WeekStarts()
	if err != nil {
		return nil, err
	}

	var buckets []Bucket
	for week := range weeks {
		buckets = append(buckets, Bucket{Start: week})
	}
	if len(buckets) == 0 {
		return buckets, nil
	}

	first := buckets[0].Start
	for _, t := range tickets {
		ended, ok, err := endOf(t)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		// Most recent bucket start at or before the completion date
		days := int(dateOf(ended).Sub(first).Hours() / 24)
		if days < 0 {
			continue
		}
		idx := days / 7
		if idx >= len(buckets) {
			continue
		}
		buckets[idx].Completed++
	}
	return buckets, nil
}

// ReportOn builds the throughput report for the given tickets.
// Neither the reporter nor the tickets are modified.
func (r *ThroughputReporter) ReportOn(tickets []Ticket) (Report, error) {
	start, end, err := r.window()
	if err != nil {
		return Report{}, err
	}

	filtered, err := r.FilterIssues(tickets)
	if err != nil {
		return Report{}, err
	}
	buckets, err := r.CountByWeek(filtered)
	if err != nil {
		return Report{}, err
	}

	table := make([][]any, 0, len(buckets)+1)
	table = append(table, []any{r.Period.BucketLabel(), "Completed"})
	for _, b := range buckets {
		table = append(table, []any{b.Start, b.Completed})
	}

	return Report{
		Table: table,
		Summary: Summary{
			Title:     r.Title,
			Period:    r.Period,
			StartDate: start,
			EndDate:   end,
		},
	}, nil
}

func endOf(t Ticket) (time.Time, bool, error) {
	ended, ok := t.Ended()
	if !ok {
		return time.Time{}, false, nil
	}
	if ended.EnteredAt.IsZero() {
		return time.Time{}, false, fmt.Errorf("%w: %s has an end state %q without a timestamp", ErrMalformedTicket, t.IssueKey(), ended.State)
	}
	return ended.EnteredAt, true, nil
}

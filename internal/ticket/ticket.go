// Package ticket holds the work item model shared by the fetcher, the analyzer and the reporter.
package ticket

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"agile-analytics/internal/report"
)

// FlowEntry is one entry of a ticket's status history.
type FlowEntry struct {
	State     string    `json:"state"`
	EnteredAt time.Time `json:"entered_at"`
}

// AgileTicket is a work item as fetched from the tracking system.
type AgileTicket struct {
	Key     string      `json:"key"`
	Title   string      `json:"title,omitempty"`
	Type    string      `json:"type,omitempty"`
	Created time.Time   `json:"created"`
	Updated time.Time   `json:"updated"`
	FlowLog []FlowEntry `json:"flow_log"`
}

// CurrentState returns the state the ticket is in now (last flow log entry).
func (t AgileTicket) CurrentState() string {
	if len(t.FlowLog) == 0 {
		return ""
	}
	return t.FlowLog[len(t.FlowLog)-1].State
}

// AnalyzedTicket is a ticket annotated with when it was committed to, started and finished.
type AnalyzedTicket struct {
	Key       string             `json:"key"`
	Committed *report.Transition `json:"committed,omitempty"`
	Start     *report.Transition `json:"started,omitempty"`
	End       *report.Transition `json:"ended,omitempty"`
}

// IssueKey returns the tracker key, e.g. PROJ-123.
func (t AnalyzedTicket) IssueKey() string { return t.Key }

// Started reports when work began; false when Start is nil or an empty mapping.
func (t AnalyzedTicket) Started() (report.Transition, bool) {
	if t.Start == nil || t.Start.IsEmpty() {
		return report.Transition{}, false
	}
	return *t.Start, true
}

// Ended reports when the ticket was completed; false when End is nil or an empty mapping.
func (t AnalyzedTicket) Ended() (report.Transition, bool) {
	if t.End == nil || t.End.IsEmpty() {
		return report.Transition{}, false
	}
	return *t.End, true
}

// LeadTime is the time from start to end, or zero for unfinished tickets.
func (t AnalyzedTicket) LeadTime() time.Duration {
	if t.Start == nil || t.End == nil {
		return 0
	}
	return t.End.EnteredAt.Sub(t.Start.EnteredAt)
}

// LoadAnalyzed reads a JSON array of analyzed tickets.
func LoadAnalyzed(path string) ([]AnalyzedTicket, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tickets file: %w", err)
	}
	var tickets []AnalyzedTicket
	if err := json.Unmarshal(data, &tickets); err != nil {
		return nil, fmt.Errorf("failed to decode tickets file %s: %w", path, err)
	}
	return tickets, nil
}

// SaveAnalyzed writes tickets as an indented JSON array.
func SaveAnalyzed(path string, tickets []AnalyzedTicket) error {
	data, err := json.MarshalIndent(tickets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

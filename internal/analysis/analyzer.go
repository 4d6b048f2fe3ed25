// Package analysis classifies raw ticket histories into start and end transitions.
package analysis

import (
	"errors"
	"strings"

	"agile-analytics/internal/report"
	"agile-analytics/internal/ticket"
)

// ErrNoStates is returned when an analyzer is built without start or end states.
var ErrNoStates = errors.New("start and end states are required")

// DateAnalyzer decides when each ticket started and when it finished.
type DateAnalyzer struct {
	StartStates []string
	EndStates   []string
}

// NewDateAnalyzer validates the state lists. State names compare case-insensitively.
func NewDateAnalyzer(startStates, endStates []string) (*DateAnalyzer, error) {
	if len(startStates) == 0 || len(endStates) == 0 {
		return nil, ErrNoStates
	}
	return &DateAnalyzer{StartStates: startStates, EndStates: endStates}, nil
}

// Analyze annotates every ticket that has a history. Tickets with an empty flow
// log cannot be placed in time and are returned separately as ignored.
func (a *DateAnalyzer) Analyze(tickets []ticket.AgileTicket) ([]ticket.AnalyzedTicket, []ticket.AgileTicket) {
	var analyzed []ticket.AnalyzedTicket
	var ignored []ticket.AgileTicket

	for _, t := range tickets {
		if len(t.FlowLog) == 0 {
			ignored = append(ignored, t)
			continue
		}
		analyzed = append(analyzed, a.analyzeOne(t))
	}
	return analyzed, ignored
}

func (a *DateAnalyzer) analyzeOne(t ticket.AgileTicket) ticket.AnalyzedTicket {
	out := ticket.AnalyzedTicket{Key: t.Key}

	// 1. Committed: first entry into the first start state
	for _, entry := range t.FlowLog {
		if strings.EqualFold(entry.State, a.StartStates[0]) {
			out.Committed = transitionOf(entry)
			break
		}
	}

	// 2. Started: first entry into any start state
	for _, entry := range t.FlowLog {
		if matches(entry.State, a.StartStates) {
			out.Start = transitionOf(entry)
			break
		}
	}

	// 3. Ended: the entry that began the trailing run of end states, only while the
	// ticket is still there. A reopened ticket is not done.
	if matches(t.CurrentState(), a.EndStates) {
		for i := len(t.FlowLog) - 1; i >= 0; i-- {
			if !matches(t.FlowLog[i].State, a.EndStates) {
				break
			}
			out.End = transitionOf(t.FlowLog[i])
		}
	}

	// 4. Tickets that jumped straight to done started when they ended
	if out.End != nil && out.Start == nil {
		out.Start = out.End
	}
	if out.Start != nil && out.End != nil && out.End.EnteredAt.Before(out.Start.EnteredAt) {
		out.Start = out.End
	}

	return out
}

func transitionOf(entry ticket.FlowEntry) *report.Transition {
	return &report.Transition{State: entry.State, EnteredAt: entry.EnteredAt}
}

func matches(state string, states []string) bool {
	for _, s := range states {
		if strings.EqualFold(state, s) {
			return true
		}
	}
	return false
}

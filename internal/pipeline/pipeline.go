// Package pipeline ties the stages of a throughput run together:
// fetch raw tickets, analyze their flow, build reports and store them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agile-analytics/internal/analysis"
	"agile-analytics/internal/config"
	"agile-analytics/internal/report"
	"agile-analytics/internal/ticket"

	"github.com/rs/zerolog/log"
)

// ErrNoJQL is returned when a fetch is requested without a query.
var ErrNoJQL = errors.New("no JQL query configured")

// Source yields raw tickets for a JQL query. *jira.Fetcher satisfies it.
type Source interface {
	FetchAll(ctx context.Context, jql string) ([]ticket.AgileTicket, error)
}

// Sink receives finished reports. *sheets.Store satisfies it.
type Sink interface {
	Upsert(ctx context.Context, sheet string, rep report.Report) (string, error)
}

// Definition is one resolved report request.
type Definition struct {
	Title  string
	Period report.Period
	Start  time.Time
	End    time.Time
	Sheet  string
}

// DefinitionFrom resolves a configured report against now.
func DefinitionFrom(rc config.ReportConfig, now time.Time) (Definition, error) {
	period, err := report.ParsePeriod(rc.Period)
	if err != nil {
		return Definition{}, err
	}
	start, err := config.ParseStartDate(rc.StartDate, now)
	if err != nil {
		return Definition{}, fmt.Errorf("report %q start date: %w", rc.Title, err)
	}
	end, err := config.ParseEndDate(rc.EndDate, now)
	if err != nil {
		return Definition{}, fmt.Errorf("report %q end date: %w", rc.Title, err)
	}
	return Definition{Title: rc.Title, Period: period, Start: start, End: end, Sheet: rc.Sheet}, nil
}

// Build produces the throughput report for def over tickets.
func Build(def Definition, tickets []ticket.AnalyzedTicket) (report.Report, error) {
	r := report.NewThroughputReporter(def.Title, def.Period, def.Start, def.End)
	return r.ReportOn(report.AsTickets(tickets))
}

// Pipeline fetches and analyzes tickets.
type Pipeline struct {
	source   Source
	analyzer *analysis.DateAnalyzer
}

// New creates a pipeline. A nil source restricts it to offline input.
func New(source Source, analyzer *analysis.DateAnalyzer) *Pipeline {
	return &Pipeline{source: source, analyzer: analyzer}
}

// Analyzed fetches the tickets matching jql and resolves their flow dates.
func (p *Pipeline) Analyzed(ctx context.Context, jql string) ([]ticket.AnalyzedTicket, error) {
	if strings.TrimSpace(jql) == "" {
		return nil, ErrNoJQL
	}
	if p.source == nil {
		return nil, errors.New("no ticket source configured")
	}

	raw, err := p.source.FetchAll(ctx, jql)
	if err != nil {
		return nil, fmt.Errorf("fetch tickets: %w", err)
	}

	analyzed, ignored := p.analyzer.Analyze(raw)
	if len(ignored) > 0 {
		log.Warn().Int("count", len(ignored)).Msg("Tickets without flow history were ignored")
	}
	log.Info().Int("tickets", len(analyzed)).Msg("Tickets analyzed")
	return analyzed, nil
}

// Result is a finished report and where it was stored.
type Result struct {
	Definition Definition
	Report     report.Report
	RunID      string
}

// RunAll builds every definition over the same tickets. Reports with a sheet
// name are upserted into sink when it is not nil.
func RunAll(ctx context.Context, defs []Definition, tickets []ticket.AnalyzedTicket, sink Sink) ([]Result, error) {
	results := make([]Result, 0, len(defs))
	for _, def := range defs {
		rep, err := Build(def, tickets)
		if err != nil {
			return results, fmt.Errorf("report %q: %w", def.Title, err)
		}

		res := Result{Definition: def, Report: rep}
		if sink != nil && def.Sheet != "" {
			runID, err := sink.Upsert(ctx, def.Sheet, rep)
			if err != nil {
				return results, fmt.Errorf("report %q: store sheet %q: %w", def.Title, def.Sheet, err)
			}
			res.RunID = runID
			log.Info().Str("sheet", def.Sheet).Str("run", runID).Msg("Report stored")
		}
		results = append(results, res)
	}
	return results, nil
}

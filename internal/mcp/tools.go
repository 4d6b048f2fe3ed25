package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agile-analytics/internal/config"
	"agile-analytics/internal/pipeline"
	"agile-analytics/internal/report"
	"agile-analytics/internal/ticket"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameThroughput  = "throughput_report"
	ToolNameListPeriods = "list_periods"
)

// Sentinel errors for tool input validation.
var (
	// ErrNoTicketSource indicates neither tickets nor a JQL query were given.
	ErrNoTicketSource = errors.New("either tickets or jql is required")
	// ErrFetchUnavailable indicates a JQL request on a server without Jira access.
	ErrFetchUnavailable = errors.New("jira access is not configured; pass tickets inline")
	// ErrSheetUnavailable indicates a sheet was requested with no store configured.
	ErrSheetUnavailable = errors.New("sheet storage is not configured")
)

// ThroughputInput is the input schema for the throughput_report tool.
type ThroughputInput struct {
	Title     string        `json:"title,omitempty"   jsonschema:"report title shown in the summary"`
	Period    string        `json:"period"            jsonschema:"bucketing period: weekly, monthly or daily"`
	StartDate string        `json:"start_date"        jsonschema:"window start as YYYY-MM-DD or a relative offset such as -12w"`
	EndDate   string        `json:"end_date"          jsonschema:"window end as YYYY-MM-DD, today or a relative offset"`
	JQL       string        `json:"jql,omitempty"     jsonschema:"JQL query used to fetch tickets when none are given inline"`
	Tickets   []TicketInput `json:"tickets,omitempty" jsonschema:"analyzed tickets to report on"`
	Sheet     string        `json:"sheet,omitempty"   jsonschema:"optional sheet name to store the table in"`
}

// TicketInput is one analyzed ticket passed inline.
type TicketInput struct {
	Key        string `json:"key"                   jsonschema:"issue key"`
	StartState string `json:"start_state,omitempty" jsonschema:"state the ticket started in"`
	Started    string `json:"started,omitempty"     jsonschema:"RFC 3339 time the ticket started"`
	EndState   string `json:"end_state,omitempty"   jsonschema:"state the ticket completed in"`
	Ended      string `json:"ended,omitempty"       jsonschema:"RFC 3339 time the ticket completed; omit when not done"`
}

// ListPeriodsInput is the (empty) input schema for the list_periods tool.
type ListPeriodsInput struct{}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// ThroughputResult is the payload of a throughput_report call.
type ThroughputResult struct {
	Summary report.Summary `json:"summary"`
	Table   [][]string     `json:"table"`
	Total   int            `json:"total"`
	RunID   string         `json:"run_id,omitempty"`
}

// PeriodInfo describes one accepted period.
type PeriodInfo struct {
	Name        string `json:"name"`
	BucketLabel string `json:"bucket_label"`
}

func (s *Server) handleThroughput(ctx context.Context, _ *mcpsdk.CallToolRequest, in ThroughputInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	def, err := pipeline.DefinitionFrom(config.ReportConfig{
		Title:     in.Title,
		Period:    in.Period,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Sheet:     in.Sheet,
	}, s.now())
	if err != nil {
		return errorResult(err)
	}
	if def.Sheet != "" && s.sink == nil {
		return errorResult(ErrSheetUnavailable)
	}

	tickets, err := s.resolveTickets(ctx, in)
	if err != nil {
		return errorResult(err)
	}

	results, err := pipeline.RunAll(ctx, []pipeline.Definition{def}, tickets, s.sink)
	if err != nil {
		return errorResult(err)
	}
	res := results[0]

	return jsonResult(ThroughputResult{
		Summary: res.Report.Summary,
		Table:   res.Report.Strings(),
		Total:   res.Report.Total(),
		RunID:   res.RunID,
	})
}

func (s *Server) resolveTickets(ctx context.Context, in ThroughputInput) ([]ticket.AnalyzedTicket, error) {
	if len(in.Tickets) > 0 {
		return convertTickets(in.Tickets)
	}
	if in.JQL == "" {
		return nil, ErrNoTicketSource
	}
	if s.pipeline == nil {
		return nil, ErrFetchUnavailable
	}
	return s.pipeline.Analyzed(ctx, in.JQL)
}

func (s *Server) handleListPeriods(context.Context, *mcpsdk.CallToolRequest, ListPeriodsInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	periods := report.Periods()
	infos := make([]PeriodInfo, 0, len(periods))
	for _, p := range periods {
		infos = append(infos, PeriodInfo{Name: p.String(), BucketLabel: p.BucketLabel()})
	}
	return jsonResult(infos)
}

func convertTickets(in []TicketInput) ([]ticket.AnalyzedTicket, error) {
	out := make([]ticket.AnalyzedTicket, 0, len(in))
	for _, t := range in {
		if t.Key == "" {
			return nil, errors.New("ticket key is required")
		}
		at := ticket.AnalyzedTicket{Key: t.Key}

		started, err := parseTime(t.Key, "started", t.Started)
		if err != nil {
			return nil, err
		}
		if !started.IsZero() {
			at.Start = &report.Transition{State: t.StartState, EnteredAt: started}
		}

		ended, err := parseTime(t.Key, "ended", t.Ended)
		if err != nil {
			return nil, err
		}
		// An end state without a timestamp is kept so the reporter rejects it as malformed.
		if !ended.IsZero() || t.EndState != "" {
			at.End = &report.Transition{State: t.EndState, EnteredAt: ended}
		}
		out = append(out, at)
	}
	return out, nil
}

func parseTime(key, field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		if t, err = time.Parse(report.DateLayout, value); err != nil {
			return time.Time{}, fmt.Errorf("ticket %s: invalid %s time %q", key, field, value)
		}
	}
	return t, nil
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

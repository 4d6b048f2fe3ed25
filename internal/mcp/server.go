// Package mcp exposes throughput reporting as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"agile-analytics/internal/pipeline"

	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const serverName = "agile-analytics"

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields disable the features that need them.
type ServerDeps struct {
	// Pipeline fetches tickets for jql requests. Nil allows inline tickets only.
	Pipeline *pipeline.Pipeline
	// Sink stores reports that name a sheet. Nil disables storing.
	Sink pipeline.Sink
	// Version is reported to clients during initialization.
	Version string
	// Now overrides the clock used for relative dates.
	Now func() time.Time
}

// Server wraps the MCP SDK server with the reporting tools.
type Server struct {
	inner    *mcpsdk.Server
	pipeline *pipeline.Pipeline
	sink     pipeline.Sink
	now      func() time.Time

	mu    sync.RWMutex
	tools []string
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(deps ServerDeps) (*Server, error) {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	srv := &Server{
		inner: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    serverName,
			Version: version,
		}, nil),
		pipeline: deps.Pipeline,
		sink:     deps.Sink,
		now:      now,
	}

	if err := srv.registerTools(); err != nil {
		return nil, err
	}
	return srv, nil
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)
	return names
}

// Run serves on stdio until the context is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on the given transport.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	log.Info().Strs("tools", s.ListToolNames()).Msg("MCP server starting")
	if err := s.inner.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (s *Server) registerTools() error {
	throughputSchema, err := jsonschema.For[ThroughputInput](nil)
	if err != nil {
		return fmt.Errorf("throughput_report schema: %w", err)
	}
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameThroughput,
		Description: throughputToolDescription,
		InputSchema: throughputSchema,
	}, withLogging(ToolNameThroughput, s.handleThroughput))
	s.trackTool(ToolNameThroughput)

	periodsSchema, err := jsonschema.For[ListPeriodsInput](nil)
	if err != nil {
		return fmt.Errorf("list_periods schema: %w", err)
	}
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameListPeriods,
		Description: listPeriodsToolDescription,
		InputSchema: periodsSchema,
	}, withLogging(ToolNameListPeriods, s.handleListPeriods))
	s.trackTool(ToolNameListPeriods)

	return nil
}

// withLogging wraps a tool handler with a structured log line per invocation.
func withLogging[Input any](
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()
		result, output, err := handler(ctx, req, input)

		status := "ok"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}
		log.Info().
			Str("tool", toolName).
			Str("status", status).
			Dur("duration", time.Since(start)).
			Msg("MCP tool call")

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = append(s.tools, name)
}

const (
	throughputToolDescription = "Count the tickets completed in each bucket of a reporting window. " +
		"Weekly windows are widened to whole Sunday-to-Saturday weeks. " +
		"Supply either analyzed tickets inline or a JQL query to fetch them from Jira. " +
		"Returns the report table (first row is the header) and its summary."

	listPeriodsToolDescription = "List the reporting periods accepted by throughput_report."
)

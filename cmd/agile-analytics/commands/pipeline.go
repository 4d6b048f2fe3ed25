package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"agile-analytics/internal/analysis"
	"agile-analytics/internal/config"
	"agile-analytics/internal/jira"
	"agile-analytics/internal/output"
	"agile-analytics/internal/pipeline"
	"agile-analytics/internal/sheets"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// reportFlags are shared by the commands that produce reports.
type reportFlags struct {
	title       string
	period      string
	start       string
	end         string
	jql         string
	startStates []string
	endStates   []string
	format      string
	outputFile  string
	open        bool
	sheet       string
}

func (f *reportFlags) register(cmd *cobra.Command, withFetch bool) {
	fs := cmd.Flags()
	fs.StringVar(&f.title, "title", "Throughput", "report title")
	fs.StringVar(&f.period, "period", "weekly", "report period: daily, weekly or monthly")
	fs.StringVar(&f.start, "start", "-12w", "window start (YYYY-MM-DD, today, -Nd or -Nw)")
	fs.StringVar(&f.end, "end", "today", "window end (YYYY-MM-DD, today, -Nd or -Nw)")
	if withFetch {
		fs.StringVar(&f.jql, "jql", "", "JQL selecting the tickets (defaults to the config file)")
		fs.StringSliceVar(&f.startStates, "start-state", nil, "state(s) that mark work as started")
		fs.StringSliceVar(&f.endStates, "end-state", nil, "state(s) that mark work as done")
	}
	f.registerOutput(cmd)
	fs.StringVar(&f.sheet, "sheet", "", "store the table in this sheet")
}

func (f *reportFlags) registerOutput(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.format, "output", "o", "", "output format: table, csv, json, yaml, html, parquet or mermaid (defaults to the config file)")
	fs.StringVar(&f.outputFile, "output-file", "", "write the report to this file instead of stdout")
	fs.BoolVar(&f.open, "open", false, "open the written HTML report in a browser")
}

func (f *reportFlags) definition() config.ReportConfig {
	return config.ReportConfig{
		Title:     f.title,
		Period:    f.period,
		StartDate: f.start,
		EndDate:   f.end,
		Sheet:     f.sheet,
	}
}

func (f *reportFlags) outputFormat() (output.Format, error) {
	if f.format != "" {
		return output.ParseFormat(f.format)
	}
	return output.ParseFormat(cfg.Output)
}

func (f *reportFlags) outputPath() string {
	if f.outputFile != "" {
		return f.outputFile
	}
	return cfg.OutputFile
}

func newPipeline(startStates, endStates []string) (*pipeline.Pipeline, error) {
	if len(startStates) == 0 {
		startStates = cfg.StartStates
	}
	if len(endStates) == 0 {
		endStates = cfg.EndStates
	}
	analyzer, err := analysis.NewDateAnalyzer(startStates, endStates)
	if err != nil {
		return nil, err
	}

	var source pipeline.Source
	if cfg.Jira.BaseURL != "" {
		source = jira.NewFetcher(jira.NewClient(cfg.Jira), cfg.Jira.PageSize, cfg.Jira.Workers)
	}
	return pipeline.New(source, analyzer), nil
}

// openSink opens the configured sheet store. It returns a nil sink for the none backend.
func openSink(ctx context.Context) (pipeline.Sink, func(), error) {
	backend, err := sheets.ParseBackend(cfg.Sheets.Backend)
	if err != nil {
		return nil, func() {}, err
	}
	if backend == sheets.NoneBackend {
		return nil, func() {}, nil
	}

	store, err := sheets.Open(ctx, backend, cfg.Sheets.DSN)
	if err != nil {
		return nil, func() {}, err
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close sheet store")
		}
	}
	return store, closeFn, nil
}

func resolveDefinitions(rcs []config.ReportConfig) ([]pipeline.Definition, error) {
	now := time.Now()
	defs := make([]pipeline.Definition, 0, len(rcs))
	for _, rc := range rcs {
		def, err := pipeline.DefinitionFrom(rc, now)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// emit prints every result. With several results and one output file, each
// report gets the file name suffixed with its position.
func emit(results []pipeline.Result, f *reportFlags) error {
	format, err := f.outputFormat()
	if err != nil {
		return err
	}
	path := f.outputPath()

	for i, res := range results {
		target := path
		if target != "" && len(results) > 1 {
			ext := filepath.Ext(target)
			target = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(target, ext), i+1, ext)
		}
		if err := output.Print(res.Report, format, target); err != nil {
			return err
		}
		if f.open && format == output.HTMLOut && target != "" {
			if err := browser.OpenFile(target); err != nil {
				log.Warn().Err(err).Str("path", target).Msg("Failed to open report in browser")
			}
		}
	}
	return nil
}

// Package output renders throughput reports for people and for other tools.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"agile-analytics/internal/report"
)

// Format selects how a report is rendered.
type Format string

const (
	TableOut   Format = "table"
	CSVOut     Format = "csv"
	JSONOut    Format = "json"
	HTMLOut    Format = "html"
	ParquetOut Format = "parquet"
	MermaidOut Format = "mermaid"
	YAMLOut    Format = "yaml"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported output formats.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates a format name. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return TableOut, nil
	case TableOut, CSVOut, JSONOut, HTMLOut, ParquetOut, MermaidOut, YAMLOut:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q (expected table, csv, json, yaml, html, parquet or mermaid)", ErrUnknownFormat, s)
}

// Binary formats cannot be written to a terminal.
func (f Format) Binary() bool {
	return f == ParquetOut
}

// Write renders the report in the given format.
func Write(w io.Writer, rep report.Report, format Format) error {
	switch format {
	case CSVOut:
		return writeCSV(w, rep)
	case JSONOut:
		return writeJSON(w, rep)
	case YAMLOut:
		return writeYAML(w, rep)
	case HTMLOut:
		return writeHTML(w, rep)
	case ParquetOut:
		return writeParquet(w, rep)
	case MermaidOut:
		_, err := io.WriteString(w, MermaidChart(rep)+"\n")
		return err
	default:
		return writeTable(w, rep)
	}
}

// Print writes the report to path, or to stdout when path is empty.
func Print(rep report.Report, format Format, path string) error {
	if path == "" && format.Binary() {
		return fmt.Errorf("%s output needs an output file", format)
	}
	return writeWithFile(path, func(w io.Writer) error {
		return Write(w, rep, format)
	}, fmt.Sprintf("Wrote %s throughput report", format))
}

func writeWithFile(path string, writeFunc func(io.Writer) error, successMsg string) error {
	if path == "" {
		return writeFunc(os.Stdout)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	if err := writeFunc(file); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg(successMsg)
	return nil
}

func formatDate(t time.Time) string {
	return t.Format(report.DateLayout)
}

package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"agile-analytics/internal/config"
	"agile-analytics/internal/pipeline"
	"agile-analytics/internal/report"
	"agile-analytics/internal/ticket"
)

func sampleTickets() []ticket.AnalyzedTicket {
	return []ticket.AnalyzedTicket{
		{Key: "A-1", End: &report.Transition{State: "Done", EnteredAt: time.Date(2016, 5, 23, 10, 0, 0, 0, time.UTC)}},
		{Key: "A-2", End: &report.Transition{State: "Done", EnteredAt: time.Date(2016, 6, 2, 10, 0, 0, 0, time.UTC)}},
	}
}

func TestEmit_SuffixesFilesForSeveralReports(t *testing.T) {
	cfg = &config.AppConfig{Output: "csv"}
	dir := t.TempDir()

	defs := []pipeline.Definition{
		{Title: "A", Period: report.PeriodWeekly, Start: time.Date(2016, 5, 21, 0, 0, 0, 0, time.UTC), End: time.Date(2016, 6, 21, 0, 0, 0, 0, time.UTC)},
		{Title: "B", Period: report.PeriodWeekly, Start: time.Date(2016, 5, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2016, 5, 31, 0, 0, 0, 0, time.UTC)},
	}
	results, err := pipeline.RunAll(t.Context(), defs, sampleTickets(), nil)
	if err != nil {
		t.Fatal(err)
	}

	f := &reportFlags{outputFile: filepath.Join(dir, "throughput.csv")}
	if err := emit(results, f); err != nil {
		t.Fatalf("emit: %v", err)
	}

	for _, name := range []string{"throughput-1.csv", "throughput-2.csv"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Expected %s: %v", name, err)
		}
		if !strings.HasPrefix(string(data), "Week,Completed\n") {
			t.Errorf("%s: unexpected content %q", name, data)
		}
	}
}

func TestEmit_FlagOverridesConfigFormat(t *testing.T) {
	cfg = &config.AppConfig{Output: "table"}
	f := &reportFlags{format: "xlsx"}
	if _, err := f.outputFormat(); err == nil {
		t.Error("Expected an error for an unknown format flag")
	}
}

func TestAnalyzeFileCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("AGILE_OUTPUT", "csv")

	ticketsPath := filepath.Join(dir, "tickets.json")
	if err := ticket.SaveAnalyzed(ticketsPath, sampleTickets()); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "out.csv")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{
		"analyze-file", ticketsPath,
		"--config", filepath.Join(dir, "none.yaml"),
		"--start", "2016-05-21", "--end", "2016-06-21",
		"--output-file", outPath,
	})

	// A missing explicit config file is an error.
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("Expected an error for a missing config file")
	}

	if err := os.WriteFile(filepath.Join(dir, "none.yaml"), []byte("output: csv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	rootCmd.SetArgs([]string{
		"analyze-file", ticketsPath,
		"--config", filepath.Join(dir, "none.yaml"),
		"--start", "2016-05-21", "--end", "2016-06-21",
		"--output-file", outPath,
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("analyze-file: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "Week,Completed\n2016-05-15,0\n2016-05-22,1\n2016-05-29,1\n2016-06-05,0\n2016-06-12,0\n2016-06-19,0\n"
	if string(data) != want {
		t.Errorf("Unexpected report:\n%s\nwant:\n%s", data, want)
	}
}

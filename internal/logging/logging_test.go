package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_WritesToRotatingFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer devNull.Close()

	logger, err := New(devNull, dir, zerolog.InfoLevel)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Debug().Msg("hidden")
	logger.Info().Str("report", "Weekly").Msg("report written")

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("Expected log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"report":"Weekly"`) {
		t.Errorf("Expected structured field in log file, got %q", content)
	}
	if strings.Contains(content, "hidden") {
		t.Errorf("Debug line should be filtered at info level, got %q", content)
	}
}

func TestNew_UnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(os.Stderr, filepath.Join(blocker, "logs"), zerolog.InfoLevel); err == nil {
		t.Error("Expected an error when the log directory cannot be created")
	}
}

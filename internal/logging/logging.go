package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the rotating log file inside the logs folder.
const FileName = "agile-analytics.log"

// Init initializes the global logger with dual sinks: os.Stderr and a rotating file.
// Stdout is left untouched so that reports (and the MCP stdio transport) own it.
func Init(verbose bool) error {
	// Init runs before config.Load, so LOGS_FOLDER may still live in the binary's .env.
	exePath, err := os.Executable()
	if err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}

	logDir := os.Getenv("LOGS_FOLDER")
	if logDir == "" {
		switch {
		case os.Getenv("DATA_PATH") != "":
			logDir = filepath.Join(os.Getenv("DATA_PATH"), "logs")
		case err == nil:
			logDir = filepath.Join(filepath.Dir(exePath), "logs")
		default:
			logDir = "logs"
		}
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	logger, err := New(os.Stderr, logDir, level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	return nil
}

// New builds a logger writing human-readable lines to console and JSON lines
// to a rotating file in logDir.
func New(console *os.File, logDir string, level zerolog.Level) (zerolog.Logger, error) {
	if err := ensureWritable(logDir); err != nil {
		return zerolog.Nop(), err
	}

	isTerminal := isatty.IsTerminal(console.Fd()) || isatty.IsCygwinTerminal(console.Fd())
	consoleWriter := zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, FileName),
		MaxSize:    16, // megabytes
		MaxBackups: 8,
		MaxAge:     90, // days
		Compress:   true,
	}

	multi := zerolog.MultiLevelWriter(io.Writer(consoleWriter), fileWriter)
	return zerolog.New(multi).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

func ensureWritable(logDir string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %q: %w", logDir, err)
	}

	testFile := filepath.Join(logDir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return fmt.Errorf("log directory %q is not writable: %w", logDir, err)
	}
	_ = os.Remove(testFile)
	return nil
}

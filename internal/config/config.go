package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"agile-analytics/internal/jira"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Jira     jira.Config
	DataPath string
	LogDir   string
	CacheDir string

	// Report definitions, read from the YAML config file
	JQL         string         `mapstructure:"jql"`
	StartStates []string       `mapstructure:"start_states"`
	EndStates   []string       `mapstructure:"end_states"`
	Reports     []ReportConfig `mapstructure:"reports"`
	Sheets      SheetsConfig   `mapstructure:"sheets"`
	Output      string         `mapstructure:"output"`
	OutputFile  string         `mapstructure:"output_file"`
}

// ReportConfig describes one throughput report to produce.
type ReportConfig struct {
	Title     string `mapstructure:"title"`
	Period    string `mapstructure:"period"`
	StartDate string `mapstructure:"start_date"` // YYYY-MM-DD, or -Nd / -Nw relative to today
	EndDate   string `mapstructure:"end_date"`
	Sheet     string `mapstructure:"sheet"`
}

// SheetsConfig selects where report tables are upserted.
type SheetsConfig struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
}

// Load loads the configuration from .env files, environment variables and the
// optional YAML file at configFile (or .agile-analytics.yaml in cwd / $HOME).
func Load(configFile string) (*AppConfig, error) {
	// 1. Try to load from the executable's directory
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	cacheDir := getEnv("CACHE_DIR", filepath.Join(dataPath, "cache"))

	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	cfg := &AppConfig{
		Jira: jira.Config{
			BaseURL:           getEnv("JIRA_URL", ""),
			Token:             getEnv("JIRA_TOKEN", ""),
			XsrfToken:         getEnv("JIRA_XSRF_TOKEN", ""),
			SessionID:         getEnv("JIRA_SESSION_ID", ""),
			RememberMe:        getEnv("JIRA_REMEMBERME_COOKIE", ""),
			GCILB:             getEnv("JIRA_GCILB", ""),
			GCLB:              getEnv("JIRA_GCLB", ""),
			RequestsPerSecond: getEnvFloat("JIRA_REQUESTS_PER_SECOND", 1),
			PageSize:          getEnvInt("JIRA_PAGE_SIZE", 100),
			Workers:           getEnvInt("JIRA_FETCH_WORKERS", 4),
			CacheTTL:          time.Duration(getEnvInt("JIRA_CACHE_TTL_MINUTES", 10)) * time.Minute,
		},
		DataPath: dataPath,
		LogDir:   logDir,
		CacheDir: cacheDir,
	}

	if err := loadReports(cfg, configFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadReports(cfg *AppConfig, configFile string) error {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".agile-analytics")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix("AGILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("output", "table")
	v.SetDefault("sheets.backend", "none")
	v.SetDefault("sheets.dsn", filepath.Join(cfg.DataPath, "sheets.db"))
	v.SetDefault("start_states", []string{"In Progress"})
	v.SetDefault("end_states", []string{"Done"})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return err
		}
		log.Debug().Msg("No report config file found, using defaults")
	} else {
		log.Debug().Str("path", v.ConfigFileUsed()).Msg("Loaded report configuration")
	}

	return v.Unmarshal(cfg)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

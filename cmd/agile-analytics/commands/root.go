package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"agile-analytics/internal/config"
	"agile-analytics/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose    bool
	configFile string
	cfg        *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "agile-analytics",
	Short: "Throughput reports from Jira ticket history",
	Long: `agile-analytics reads ticket status history from Jira, works out when each ticket
started and finished, and reports how many tickets were completed per week.
Reports can be printed, exported, stored in a sheet database, or served over MCP and HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("command", cmd.Name()).
			Msg("agile-analytics starting")
		return nil
	},
}

// Execute runs the root command, canceling its context on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "report definition file (default .agile-analytics.yaml in . or $HOME)")
}

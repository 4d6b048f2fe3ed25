package commands

import (
	"fmt"

	"agile-analytics/internal/config"
	"agile-analytics/internal/pipeline"
	"agile-analytics/internal/ticket"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	throughputFlags reportFlags
	saveTickets     string

	reportFlagsAll reportFlags

	analyzeFileFlags reportFlags
)

var throughputCmd = &cobra.Command{
	Use:   "throughput",
	Short: "Fetch tickets from Jira and report completions per period",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := newPipeline(throughputFlags.startStates, throughputFlags.endStates)
		if err != nil {
			return err
		}
		jql := throughputFlags.jql
		if jql == "" {
			jql = cfg.JQL
		}
		tickets, err := p.Analyzed(ctx, jql)
		if err != nil {
			return err
		}
		if saveTickets != "" {
			if err := ticket.SaveAnalyzed(saveTickets, tickets); err != nil {
				return fmt.Errorf("save tickets: %w", err)
			}
			log.Info().Str("path", saveTickets).Int("tickets", len(tickets)).Msg("Analyzed tickets saved")
		}

		return runReports(cmd, []config.ReportConfig{throughputFlags.definition()}, tickets, &throughputFlags)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run every report defined in the config file",
	Long: `Fetches the tickets selected by the configured JQL once, then builds each report
listed under "reports" and stores it in its sheet when one is named.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Reports) == 0 {
			return fmt.Errorf("no reports defined in the config file")
		}

		p, err := newPipeline(nil, nil)
		if err != nil {
			return err
		}
		tickets, err := p.Analyzed(cmd.Context(), cfg.JQL)
		if err != nil {
			return err
		}
		return runReports(cmd, cfg.Reports, tickets, &reportFlagsAll)
	},
}

var analyzeFileCmd = &cobra.Command{
	Use:   "analyze-file <tickets.json>",
	Short: "Report on analyzed tickets saved to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tickets, err := ticket.LoadAnalyzed(args[0])
		if err != nil {
			return err
		}
		log.Info().Str("path", args[0]).Int("tickets", len(tickets)).Msg("Loaded analyzed tickets")

		return runReports(cmd, []config.ReportConfig{analyzeFileFlags.definition()}, tickets, &analyzeFileFlags)
	},
}

func runReports(cmd *cobra.Command, rcs []config.ReportConfig, tickets []ticket.AnalyzedTicket, f *reportFlags) error {
	defs, err := resolveDefinitions(rcs)
	if err != nil {
		return err
	}

	sink, closeSink, err := openSink(cmd.Context())
	if err != nil {
		return err
	}
	defer closeSink()

	results, err := pipeline.RunAll(cmd.Context(), defs, tickets, sink)
	if err != nil {
		return err
	}
	return emit(results, f)
}

func init() {
	throughputFlags.register(throughputCmd, true)
	throughputCmd.Flags().StringVar(&saveTickets, "save-tickets", "", "also write the analyzed tickets to this JSON file")

	reportFlagsAll.registerOutput(reportCmd)

	analyzeFileFlags.register(analyzeFileCmd, false)

	rootCmd.AddCommand(throughputCmd, reportCmd, analyzeFileCmd)
}

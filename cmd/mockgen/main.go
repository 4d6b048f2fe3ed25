package main

import (
	"fmt"
	"os"
	"time"

	"agile-analytics/cmd/mockgen/engine"

	"github.com/spf13/cobra"
)

func main() {
	var (
		cfg    engine.GeneratorConfig
		outDir string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "mockgen",
		Short: "Generate synthetic ticket histories for analyze-file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Now = time.Now()
			if cfg.Seed == 0 {
				cfg.Seed = cfg.Now.UnixNano()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Generating scenario '%s' (Distribution: %s, Count: %d) to %s...\n", cfg.Scenario, cfg.Distribution, cfg.Count, outDir)

			path, err := engine.Save(outDir, name, engine.Generate(cfg))
			if err != nil {
				return fmt.Errorf("failed to save mock data: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Done. Run: agile-analytics analyze-file %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Scenario, "scenario", "mild", "scenario to generate: mild, chaos, drift")
	cmd.Flags().StringVar(&cfg.Distribution, "distribution", "uniform", "cycle time distribution: uniform, weibull")
	cmd.Flags().IntVar(&cfg.Count, "count", 200, "number of tickets to generate")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 0, "random seed (0 picks one from the clock)")
	cmd.Flags().StringVar(&outDir, "out", "./.cache", "output directory for mock files")
	cmd.Flags().StringVar(&name, "name", "MOCK", "base name of the generated files")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package commands

import (
	"agile-analytics/internal/httpapi"
	"agile-analytics/internal/mcp"

	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveOrigins []string
	serveRPS     float64
	serveProxy   bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the reporting tools over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(nil, nil)
		if err != nil {
			return err
		}
		sink, closeSink, err := openSink(cmd.Context())
		if err != nil {
			return err
		}
		defer closeSink()

		server, err := mcp.NewServer(mcp.ServerDeps{
			Pipeline: p,
			Sink:     sink,
			Version:  Version,
		})
		if err != nil {
			return err
		}
		return server.Run(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the throughput report API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sink, closeSink, err := openSink(cmd.Context())
		if err != nil {
			return err
		}
		defer closeSink()

		return httpapi.ListenAndServe(cmd.Context(), httpapi.Options{
			Addr:              serveAddr,
			AllowedOrigins:    serveOrigins,
			RequestsPerSecond: serveRPS,
			Burst:             int(serveRPS * 2),
			TrustProxy:        serveProxy,
			Version:           Version,
			Sink:              sink,
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "allowed-origin", nil, "CORS allowed origin (repeatable, default any)")
	serveCmd.Flags().Float64Var(&serveRPS, "rate", 10, "requests per second allowed per client")
	serveCmd.Flags().BoolVar(&serveProxy, "trust-proxy", false, "identify clients by X-Forwarded-For / X-Real-IP (only behind a trusted proxy)")

	rootCmd.AddCommand(mcpCmd, serveCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/integrator/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and MCP over streamable HTTP",
	Long: `Start the HTTP server on INTEGRATOR_LISTEN_PORT.

Routes:
  /api/inbox, /api/calendar, /api/tasks, /api/briefing, /api/search, /api/health
  /services   registered backends
  /mcp        MCP streamable HTTP endpoint
  /healthz    liveness
  /readyz     readiness`,
	RunE: func(_ *cobra.Command, _ []string) error {
		a, err := app.New()
		if err != nil {
			return err
		}
		return a.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

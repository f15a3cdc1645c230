package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/integrator/internal/app"
)

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve MCP over stdin/stdout",
	Long: `Serve the integrator tools over the MCP stdio transport, for clients
that launch the server as a subprocess. Logs are written to stderr.

Client configuration:
  {
    "mcpServers": {
      "integrator": {
        "command": "/path/to/integrator",
        "args": ["stdio"]
      }
    }
  }`,
	RunE: func(_ *cobra.Command, _ []string) error {
		a, err := app.New()
		if err != nil {
			return err
		}
		return a.RunStdio()
	},
}

func init() {
	rootCmd.AddCommand(stdioCmd)
}

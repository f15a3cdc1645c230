package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "integrator",
	Short: "Unified inbox, calendar, tasks and search across MCP backends",
	Long: `Integrator fans each request out to every configured MCP backend
(mail, chat, calendar, task and note services), waits for all of them under
one deadline, and merges what came back. Backends that fail or time out are
reported next to the partial result instead of failing the request.

Backends are configured through MCP_<SERVICE>_URL variables and an optional
services file (INTEGRATOR_SERVICES_FILE, YAML or TOML).`,
	SilenceUsage: true,
}

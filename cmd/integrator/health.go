package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/integrator/internal/app"
	"github.com/MrSnakeDoc/integrator/internal/integrator"
)

var healthStrict bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe every backend once and print the report as JSON",
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthStrict, "strict", false, "exit non-zero when a backend is unreachable")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	a, err := app.New()
	if err != nil {
		return err
	}

	report, err := a.Health(cmd.Context())
	if err != nil {
		return err
	}
	return printHealth(cmd, report, healthStrict)
}

func printHealth(cmd *cobra.Command, report integrator.HealthView, strict bool) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if strict && report.UnhealthyServices > 0 {
		return fmt.Errorf("%d of %d backends unhealthy", report.UnhealthyServices, report.TotalServices)
	}
	return nil
}

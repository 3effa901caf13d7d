package cmd

import (
	"fmt"

	"github.com/frahmantamala/budget-analytics/internal/alert"
	"github.com/spf13/cobra"
)

var sweepWorkers int

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Budget alert maintenance",
}

var alertsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Evaluate every active budget once",
	Long:  `Recompute every active budget from live spend and raise the alerts that are due.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lg, err := bootstrap()
		if err != nil {
			return err
		}

		deps, err := initializeDependencies(cfg, lg, true)
		if err != nil {
			return err
		}
		defer deps.Close()

		workers := getIntFlag(sweepWorkers, cfg.Alerts.SweepWorkers)
		report, err := alert.NewSweeper(deps.Alerts, workers, lg).Sweep(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "evaluated=%d alerts=%d exceeded=%d suppressed=%d failed=%d duration=%s\n",
			report.Evaluated, report.Alerts, report.Exceeded, report.Suppressed, report.Failed, report.Duration)
		return nil
	},
}

var alertsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired notifications and revoked tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lg, err := bootstrap()
		if err != nil {
			return err
		}

		deps, err := initializeDependencies(cfg, lg, false)
		if err != nil {
			return err
		}
		defer deps.Close()

		ctx := cmd.Context()
		notifications, err := deps.Notifications.DeleteExpired(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete expired notifications: %w", err)
		}
		tokens, err := deps.Auth.PurgeRevoked(ctx)
		if err != nil {
			return fmt.Errorf("failed to purge revoked tokens: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired notifications and %d revoked tokens\n", notifications, tokens)
		return nil
	},
}

func init() {
	alertsSweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "Number of sweep workers (overrides config)")

	alertsCmd.AddCommand(alertsSweepCmd)
	alertsCmd.AddCommand(alertsCleanupCmd)
}

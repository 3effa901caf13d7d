package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/budget-analytics/internal/alert"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start long running workers",
	Long:  `Start the periodic budget sweep or the notification delivery consumer.`,
}

var alertWorkerCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Sweep active budgets periodically",
	Long:  `Run the budget sweep on an interval until SIGINT or SIGTERM`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startAlertWorker()
	},
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Consume the notification delivery queue",
	Long:  `Mark notifications delivered as they arrive on the AMQP delivery queue`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startNotificationWorker()
	},
}

var (
	sweepInterval time.Duration
	maxWorkers    int
)

func startAlertWorker() error {
	cfg, lg, err := bootstrap()
	if err != nil {
		return err
	}

	deps, err := initializeDependencies(cfg, lg, true)
	if err != nil {
		return err
	}
	defer deps.Close()

	interval := sweepInterval
	if interval <= 0 {
		interval = cfg.Alerts.SweepInterval
	}
	workers := getIntFlag(maxWorkers, cfg.Alerts.SweepWorkers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg.Info("starting alert worker", "interval", interval, "workers", workers)
	return alert.NewSweeper(deps.Alerts, workers, lg).Run(ctx, interval)
}

func startNotificationWorker() error {
	cfg, lg, err := bootstrap()
	if err != nil {
		return err
	}
	if cfg.Messaging.AMQPURL == "" {
		return errors.New("messaging.amqp_url is not configured")
	}

	deps, err := initializeDependencies(cfg, lg, true)
	if err != nil {
		return err
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg.Info("notification worker is running. Press Ctrl+C to stop.")
	err = deps.Broker.Consume(ctx, deps.Notifications.Deliver)
	if errors.Is(err, context.Canceled) {
		lg.Info("notification worker shutdown complete")
		return nil
	}
	return err
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	alertWorkerCmd.Flags().DurationVar(&sweepInterval, "interval", 0, "Sweep interval (overrides config)")
	alertWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Number of sweep workers (overrides config)")

	workerCmd.AddCommand(alertWorkerCmd)
	workerCmd.AddCommand(notificationWorkerCmd)
}

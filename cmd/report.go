package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/frahmantamala/budget-analytics/internal/analytics"
	"github.com/frahmantamala/budget-analytics/internal/notification"
	"github.com/frahmantamala/budget-analytics/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	reportUser   int64
	reportYear   int
	reportMonth  int
	reportMonths int
	reportNotify bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print analytics payloads for one user",
}

var monthlyReportCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Print the monthly report",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := reportDependencies()
		if err != nil {
			return err
		}
		defer deps.Close()

		today := deps.Analytics.Today()
		year, month := reportYear, time.Month(reportMonth)
		if year == 0 {
			year = today.Year()
		}
		if month == 0 {
			month = today.Month()
		}

		report, err := deps.Analytics.MonthlyReport(cmd.Context(), reportUser, year, month)
		if err != nil {
			return err
		}
		if reportNotify {
			n := notification.NewMonthlyReport(reportUser, year, month,
				decimal.NewFromFloat(report.Report.TotalSpent), report.TopCategory())
			if _, err := deps.Notifications.Create(cmd.Context(), n); err != nil {
				return fmt.Errorf("failed to store monthly report notification: %w", err)
			}
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

var forecastReportCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Print the spending forecast",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := reportDependencies()
		if err != nil {
			return err
		}
		defer deps.Close()

		forecast, err := deps.Forecast.Forecast(cmd.Context(), reportUser, reportMonths)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), forecast)
	},
}

var warningsReportCmd = &cobra.Command{
	Use:   "warnings",
	Short: "Print this month's spending warnings",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := reportDependencies()
		if err != nil {
			return err
		}
		defer deps.Close()

		warnings, err := deps.Analytics.SpendingWarnings(cmd.Context(), reportUser)
		if err != nil {
			return err
		}
		if reportNotify {
			if err := notifyWarnings(cmd, deps, warnings); err != nil {
				return err
			}
		}
		return printJSON(cmd.OutOrStdout(), warnings)
	},
}

// notifyWarnings stores one spending warning notification per projected
// overspend. Budget warnings are left to the alert engine.
func notifyWarnings(cmd *cobra.Command, deps *Dependencies, warnings *analytics.SpendingWarnings) error {
	for _, w := range warnings.Warnings {
		if w.Type != analytics.WarningHighProjection || w.CurrentSpending == nil || w.ProjectedSpending == nil {
			continue
		}
		n := notification.NewSpendingWarning(reportUser, w.Category,
			decimal.NewFromFloat(*w.CurrentSpending), decimal.NewFromFloat(*w.ProjectedSpending))
		if _, err := deps.Notifications.Create(cmd.Context(), n); err != nil {
			return fmt.Errorf("failed to store spending warning for %s: %w", w.Category, err)
		}
	}
	return nil
}

func reportDependencies() (*Dependencies, error) {
	if reportUser <= 0 {
		return nil, errors.New("--user is required")
	}
	// stdout carries the JSON payload
	cfg, lg, err := bootstrap(logger.WithOutput(os.Stderr))
	if err != nil {
		return nil, err
	}
	return initializeDependencies(cfg, lg, reportNotify)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	reportCmd.PersistentFlags().Int64Var(&reportUser, "user", 0, "user id to report on")

	monthlyReportCmd.Flags().IntVar(&reportYear, "year", 0, "report year (defaults to the current year)")
	monthlyReportCmd.Flags().IntVar(&reportMonth, "month", 0, "report month 1-12 (defaults to the current month)")
	monthlyReportCmd.Flags().BoolVar(&reportNotify, "notify", false, "also store a monthly report notification")

	forecastReportCmd.Flags().IntVar(&reportMonths, "months", 3, "months to project")

	warningsReportCmd.Flags().BoolVar(&reportNotify, "notify", false, "also store spending warning notifications")

	reportCmd.AddCommand(monthlyReportCmd)
	reportCmd.AddCommand(forecastReportCmd)
	reportCmd.AddCommand(warningsReportCmd)
}

package cmd

import (
	"fmt"

	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/core/common/date"
	"github.com/frahmantamala/budget-analytics/internal/core/events"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish expense events to drive the alert engine without touching expenses`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish an expense event",
	Long:      `Publish an expense event on the bus and wait for the alert engine to evaluate the budgets it touches`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.EventTypeExpenseCreated, events.EventTypeExpenseUpdated, events.EventTypeExpenseDeleted},
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishExpenseEvent(cmd, args[0])
	},
}

var (
	eventUser     int64
	eventCategory string
	eventDate     string
)

func publishExpenseEvent(cmd *cobra.Command, eventType string) error {
	switch eventType {
	case events.EventTypeExpenseCreated, events.EventTypeExpenseUpdated, events.EventTypeExpenseDeleted:
	default:
		return fmt.Errorf("unsupported event type %q", eventType)
	}
	if eventUser <= 0 {
		return fmt.Errorf("--user is required")
	}

	cfg, lg, err := bootstrap()
	if err != nil {
		return err
	}
	deps, err := initializeDependencies(cfg, lg, true)
	if err != nil {
		return err
	}
	defer deps.Close()

	day := date.New(deps.Budgets.Today())
	if eventDate != "" {
		if day, err = date.Parse(eventDate); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	event := events.NewExpenseChangedEvent(eventType, 0, eventUser, events.SpendTarget{
		Category: category.Normalize(eventCategory),
		Date:     day.Time,
	})

	lg.Info("publishing expense event", "event_type", eventType, "event_id", event.EventID())
	if err := deps.Bus.PublishSync(cmd.Context(), event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "event handled:", event.EventID())
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventUser, "user", 0, "user whose budgets are evaluated")
	publishEventCmd.Flags().StringVar(&eventCategory, "category", category.Other, "expense category")
	publishEventCmd.Flags().StringVar(&eventDate, "date", "", "expense date YYYY-MM-DD (defaults to today)")

	eventCmd.AddCommand(publishEventCmd)
}

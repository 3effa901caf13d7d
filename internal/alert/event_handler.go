package alert

import (
	"context"
	"fmt"

	"github.com/frahmantamala/budget-analytics/internal/core/events"
)

// HandleExpenseChanged runs after the expense mutation has committed, so an
// error here is logged by the bus and never reaches the mutation.
func (e *Engine) HandleExpenseChanged(ctx context.Context, event events.Event) error {
	changed, ok := event.(*events.ExpenseChangedEvent)
	if !ok {
		e.logger.Error("invalid event type for expense changed handler", "event_type", event.EventType())
		return fmt.Errorf("expected ExpenseChangedEvent, got %T", event)
	}

	e.logger.Debug("evaluating budgets for expense change",
		"event_type", changed.EventType(),
		"event_id", changed.EventID(),
		"expense_id", changed.ExpenseID,
		"user_id", changed.UserID,
		"targets", len(changed.Touched))

	results, err := e.EvaluateTargets(ctx, changed.UserID, changed.Touched)
	created := 0
	for _, r := range results {
		if r.Created() {
			created++
		}
	}
	if err != nil {
		return fmt.Errorf("alert evaluation for expense %d: %w", changed.ExpenseID, err)
	}

	e.logger.Info("budgets evaluated for expense change",
		"expense_id", changed.ExpenseID,
		"budgets", len(results),
		"notifications", created)
	return nil
}

func (e *Engine) RegisterEventHandlers(bus *events.EventBus) {
	types := []string{
		events.EventTypeExpenseCreated,
		events.EventTypeExpenseUpdated,
		events.EventTypeExpenseDeleted,
	}
	for _, t := range types {
		bus.Subscribe(t, e.HandleExpenseChanged)
	}

	e.logger.Info("alert event handlers registered", "handlers", types)
}

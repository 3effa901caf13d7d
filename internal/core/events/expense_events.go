package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeExpenseCreated = "expense.created"
	EventTypeExpenseUpdated = "expense.updated"
	EventTypeExpenseDeleted = "expense.deleted"
)

// ExpenseChangedEvent carries every (category, date) pair whose budgets may
// have moved. An update that changes category or date touches two.
type ExpenseChangedEvent struct {
	BaseEvent
	ExpenseID int64         `json:"expense_id"`
	UserID    int64         `json:"user_id"`
	Touched   []SpendTarget `json:"touched"`
}

type SpendTarget struct {
	Category string    `json:"category"`
	Date     time.Time `json:"date"`
}

func NewExpenseChangedEvent(eventType string, expenseID, userID int64, touched ...SpendTarget) *ExpenseChangedEvent {
	return &ExpenseChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"expense_id": expenseID,
				"user_id":    userID,
				"touched":    touched,
			},
		},
		ExpenseID: expenseID,
		UserID:    userID,
		Touched:   touched,
	}
}

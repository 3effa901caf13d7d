package alert

import (
	"sync"

	"github.com/frahmantamala/budget-analytics/internal/budget"
	"github.com/frahmantamala/budget-analytics/internal/notification"
)

type Decision string

const (
	DecisionNone     Decision = "none"
	DecisionAlert    Decision = "budget_alert"
	DecisionExceeded Decision = "budget_exceeded"
)

// Decide applies the precedence exceeded > alert > none. At most one
// notification follows from a single usage.
func Decide(u budget.Usage) Decision {
	switch {
	case u.IsOverBudget:
		return DecisionExceeded
	case u.ShouldAlert:
		return DecisionAlert
	default:
		return DecisionNone
	}
}

// Result is the outcome of evaluating one budget.
type Result struct {
	BudgetID     int64
	UserID       int64
	Decision     Decision
	Usage        budget.Usage
	Notification *notification.Notification
	Suppressed   bool
}

// Created reports whether the evaluation stored a new notification.
func (r Result) Created() bool {
	return r.Notification != nil
}

// keyedMutex serialises work per budget id. Entries are dropped once no
// goroutine holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*refLock)}
}

func (k *keyedMutex) Lock(key int64) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

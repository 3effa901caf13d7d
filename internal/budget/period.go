package budget

import "time"

const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
	PeriodCustom  = "custom"
)

var Periods = []string{PeriodWeekly, PeriodMonthly, PeriodYearly, PeriodCustom}

// Day truncates t to its calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Window) Intersects(o Window) bool {
	return !w.Start.After(o.End) && !o.Start.After(w.End)
}

// Days is the number of calendar days covered, both ends included.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// MonthWindow covers the whole calendar month.
func MonthWindow(year int, month time.Month) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// day 0 of the next month normalises to the last day of this one,
	// December included
	end := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: end}
}

// PeriodWindow derives the budget window for a period kind around anchor.
// Custom and unknown kinds fall back to the monthly window.
func PeriodWindow(period string, anchor time.Time) Window {
	a := Day(anchor)
	switch period {
	case PeriodWeekly:
		// Monday-based week
		offset := (int(a.Weekday()) + 6) % 7
		start := a.AddDate(0, 0, -offset)
		return Window{Start: start, End: start.AddDate(0, 0, 6)}
	case PeriodYearly:
		return Window{
			Start: time.Date(a.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(a.Year(), time.December, 31, 0, 0, 0, 0, time.UTC),
		}
	default:
		return MonthWindow(a.Year(), a.Month())
	}
}

// ResolveWindow prefers explicit dates when both are given.
func ResolveWindow(period string, anchor time.Time, start, end *time.Time) Window {
	if start != nil && end != nil {
		return Window{Start: Day(*start), End: Day(*end)}
	}
	return PeriodWindow(period, anchor)
}

package core

import "time"

// Window is the date range a budget's spend is evaluated over. Both bounds
// are inclusive: the spend query matches date >= Start AND date <= End.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// BudgetWindow derives the current evaluation window for a budget period at
// the given instant. It is pure and must be re-derived on every evaluation;
// now advances continuously, so a cached window goes stale.
//
//   - MONTHLY and YEARLY track the calendar month/year of now.
//   - WEEKLY is anchored to startDate, not the calendar week: the window is
//     the current 7-day bucket counted from startDate.
//   - CUSTOM (and any unknown period) passes through [startDate, endDate],
//     with now standing in for a zero endDate.
func BudgetWindow(period BudgetPeriod, startDate, endDate, now time.Time) Window {
	switch period {
	case PeriodWeekly:
		daysSinceStart := int(now.Sub(startDate).Hours() / 24)
		if daysSinceStart < 0 {
			daysSinceStart = 0
		}
		weeksComplete := daysSinceStart / 7
		start := startDate.Add(time.Duration(weeksComplete) * 7 * 24 * time.Hour)
		return Window{Start: start, End: start.Add(7 * 24 * time.Hour)}

	case PeriodMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end := time.Date(now.Year(), now.Month()+1, 0, 23, 59, 59, 0, now.Location())
		return Window{Start: start, End: end}

	case PeriodYearly:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		end := time.Date(now.Year(), time.December, 31, 23, 59, 59, 0, now.Location())
		return Window{Start: start, End: end}

	default:
		// CUSTOM and anything unrecognized: the budget's own bounds.
		end := endDate
		if end.IsZero() {
			end = now
		}
		return Window{Start: startDate, End: end}
	}
}

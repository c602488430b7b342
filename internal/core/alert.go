package core

import (
	"fmt"
	"time"
)

// AlertLevel is the discrete severity of a budget's spend-to-limit ratio.
type AlertLevel string

const (
	AlertSafe     AlertLevel = "safe"
	AlertWarning  AlertLevel = "warning"
	AlertDanger   AlertLevel = "danger"
	AlertExceeded AlertLevel = "exceeded"
)

// Thresholds as percentages of the budget limit.
const (
	warningThreshold = 75.0
	dangerThreshold  = 90.0
)

// Rank orders levels from most to least critical, for sorting alert reports.
func (l AlertLevel) Rank() int {
	switch l {
	case AlertExceeded:
		return 0
	case AlertDanger:
		return 1
	case AlertWarning:
		return 2
	default:
		return 3
	}
}

// Percentage returns spent as a percentage of limit, or 0 when the limit is
// not positive. Comparisons always use the unrounded value; rounding to one
// decimal place happens only at display time.
func Percentage(spent, limit Money) float64 {
	if limit.Cents <= 0 {
		return 0
	}
	return spent.Float() / limit.Float() * 100
}

// Classify maps a (spent, limit) pair to an alert level. Precedence matters:
// exceeded wins over danger wins over warning. A non-positive limit with
// nothing spent is safe.
func Classify(spent, limit Money) AlertLevel {
	if spent.Cents > limit.Cents {
		return AlertExceeded
	}
	pct := Percentage(spent, limit)
	switch {
	case pct >= dangerThreshold:
		return AlertDanger
	case pct >= warningThreshold:
		return AlertWarning
	default:
		return AlertSafe
	}
}

// BudgetAlert is the derived, never-persisted view of a budget evaluated
// against its current window.
type BudgetAlert struct {
	Budget       Budget
	CategoryName string
	Window       Window
	Spent        Money
	Percentage   float64
	Remaining    Money
	IsOverBudget bool
	Level        AlertLevel
}

// NewBudgetAlert assembles the alert view from a budget and the spend total
// computed over its window.
func NewBudgetAlert(b Budget, categoryName string, w Window, spent Money) BudgetAlert {
	return BudgetAlert{
		Budget:       b,
		CategoryName: categoryName,
		Window:       w,
		Spent:        spent,
		Percentage:   Percentage(spent, b.Amount),
		Remaining:    b.Amount.Sub(spent),
		IsOverBudget: spent.Cents > b.Amount.Cents,
		Level:        Classify(spent, b.Amount),
	}
}

// FormatPeriod renders a human label for a budget window, e.g.
// "Monthly (2024-01-01 - 2024-01-31)". A zero end reads as "current".
func FormatPeriod(period BudgetPeriod, start, end time.Time) string {
	labels := map[BudgetPeriod]string{
		PeriodWeekly:  "Weekly",
		PeriodMonthly: "Monthly",
		PeriodYearly:  "Yearly",
		PeriodCustom:  "Custom",
	}
	label, ok := labels[period]
	if !ok {
		label = string(period)
	}
	endLabel := "current"
	if !end.IsZero() {
		endLabel = end.Format("2006-01-02")
	}
	return fmt.Sprintf("%s (%s - %s)", label, start.Format("2006-01-02"), endLabel)
}

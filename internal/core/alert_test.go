package core

import (
	"testing"
	"time"
)

func cents(units float64) Money {
	return Money{Cents: int64(units * 100)}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		spent Money
		limit Money
		want  AlertLevel
	}{
		{name: "just under warning", spent: cents(74), limit: cents(100), want: AlertSafe},
		{name: "warning threshold", spent: cents(75), limit: cents(100), want: AlertWarning},
		{name: "between thresholds", spent: cents(89.99), limit: cents(100), want: AlertWarning},
		{name: "danger threshold", spent: cents(90), limit: cents(100), want: AlertDanger},
		{name: "at limit is danger not exceeded", spent: cents(100), limit: cents(100), want: AlertDanger},
		{name: "one cent over", spent: cents(100.01), limit: cents(100), want: AlertExceeded},
		{name: "zero limit zero spend", spent: cents(0), limit: cents(0), want: AlertSafe},
		{name: "zero limit with spend", spent: cents(1), limit: cents(0), want: AlertExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.spent, tt.limit); got != tt.want {
				t.Errorf("Classify(%v, %v) = %q, want %q", tt.spent, tt.limit, got, tt.want)
			}
		})
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name  string
		spent Money
		limit Money
		want  float64
	}{
		{name: "simple", spent: cents(40), limit: cents(100), want: 40},
		{name: "over", spent: cents(150), limit: cents(100), want: 150},
		{name: "zero limit", spent: cents(50), limit: cents(0), want: 0},
		{name: "negative limit", spent: cents(50), limit: Money{Cents: -100}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentage(tt.spent, tt.limit); got != tt.want {
				t.Errorf("Percentage(%v, %v) = %v, want %v", tt.spent, tt.limit, got, tt.want)
			}
		})
	}
}

func TestNewBudgetAlert(t *testing.T) {
	b := Budget{
		Name:   "Food",
		Amount: cents(500),
		Period: PeriodMonthly,
	}
	w := Window{Start: date(2024, time.May, 1), End: date(2024, time.May, 31)}

	alert := NewBudgetAlert(b, "Food", w, cents(460))

	if alert.Level != AlertDanger {
		t.Errorf("level = %q, want %q", alert.Level, AlertDanger)
	}
	if alert.Percentage != 92 {
		t.Errorf("percentage = %v, want 92", alert.Percentage)
	}
	if alert.Remaining.Cents != 4000 {
		t.Errorf("remaining = %d cents, want 4000", alert.Remaining.Cents)
	}
	if alert.IsOverBudget {
		t.Error("IsOverBudget = true for under-limit spend")
	}
}

func TestAlertLevelRank(t *testing.T) {
	order := []AlertLevel{AlertExceeded, AlertDanger, AlertWarning, AlertSafe}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("%q should rank before %q", order[i-1], order[i])
		}
	}
}

func TestFormatPeriod(t *testing.T) {
	start := date(2024, time.January, 1)
	end := date(2024, time.January, 31)

	tests := []struct {
		name   string
		period BudgetPeriod
		end    time.Time
		want   string
	}{
		{name: "monthly", period: PeriodMonthly, end: end, want: "Monthly (2024-01-01 - 2024-01-31)"},
		{name: "custom open", period: PeriodCustom, end: time.Time{}, want: "Custom (2024-01-01 - current)"},
		{name: "unknown period passes through", period: BudgetPeriod("QUARTERLY"), end: end, want: "QUARTERLY (2024-01-01 - 2024-01-31)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPeriod(tt.period, start, tt.end); got != tt.want {
				t.Errorf("FormatPeriod = %q, want %q", got, tt.want)
			}
		})
	}
}

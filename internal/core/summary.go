package core

// CategoryTotal is one slice of the dashboard expense breakdown.
type CategoryTotal struct {
	CategoryName string
	Total        Money
	Color        string
}

// DashboardSummary is the read-only projection backing the summary view.
// Building it never mutates stored balances.
type DashboardSummary struct {
	TotalBalance       Money
	MonthlyIncome      Money
	MonthlyExpenses    Money
	AccountsCount      int
	RecentTransactions []Transaction
	ExpensesByCategory []CategoryTotal
}

// AlertReport is the on-demand alert view over all of an owner's active
// budgets, ordered most critical first.
type AlertReport struct {
	Budgets      []BudgetAlert
	AlertCount   int
	DangerCount  int
	WarningCount int
}

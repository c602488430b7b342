package http

import (
	"net/http"
	"time"

	"saldo/internal/core"
)

type categoryExpenseView struct {
	CategoryName string `json:"categoryName"`
	Total        string `json:"total"`
	Color        string `json:"color,omitempty"`
}

type dashboardView struct {
	Currency           string                `json:"currency"`
	TotalBalance       string                `json:"totalBalance"`
	MonthlyIncome      string                `json:"monthlyIncome"`
	MonthlyExpenses    string                `json:"monthlyExpenses"`
	AccountsCount      int                   `json:"accountsCount"`
	RecentTransactions []transactionView     `json:"recentTransactions"`
	ExpensesByCategory []categoryExpenseView `json:"expensesByCategory"`
}

func toDashboardView(s core.DashboardSummary, currency string) dashboardView {
	v := dashboardView{
		Currency:           currency,
		TotalBalance:       s.TotalBalance.String(),
		MonthlyIncome:      s.MonthlyIncome.String(),
		MonthlyExpenses:    s.MonthlyExpenses.String(),
		AccountsCount:      s.AccountsCount,
		RecentTransactions: make([]transactionView, 0, len(s.RecentTransactions)),
		ExpensesByCategory: make([]categoryExpenseView, 0, len(s.ExpensesByCategory)),
	}
	for _, t := range s.RecentTransactions {
		v.RecentTransactions = append(v.RecentTransactions, toTransactionView(t))
	}
	for _, e := range s.ExpensesByCategory {
		v.ExpensesByCategory = append(v.ExpensesByCategory, categoryExpenseView{
			CategoryName: e.CategoryName,
			Total:        e.Total.String(),
			Color:        e.Color,
		})
	}
	return v
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if summary, ok := s.summaryCache.Get(owner); ok {
		writeJSON(w, http.StatusOK, toDashboardView(summary, s.currency))
		return
	}

	summary, err := s.dashboard.Summarize(r.Context(), owner, time.Now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Set(owner, summary)
	writeJSON(w, http.StatusOK, toDashboardView(summary, s.currency))
}

type budgetAlertView struct {
	BudgetID     string  `json:"budgetId"`
	BudgetName   string  `json:"budgetName"`
	CategoryName string  `json:"categoryName"`
	Period       string  `json:"period"`
	WindowStart  string  `json:"windowStart"`
	WindowEnd    string  `json:"windowEnd"`
	Limit        string  `json:"limit"`
	Spent        string  `json:"spent"`
	Percentage   float64 `json:"percentage"`
	Remaining    string  `json:"remaining"`
	IsOverBudget bool    `json:"isOverBudget"`
	Level        string  `json:"level"`
}

type alertReportView struct {
	Budgets      []budgetAlertView `json:"budgets"`
	AlertCount   int               `json:"alertCount"`
	DangerCount  int               `json:"dangerCount"`
	WarningCount int               `json:"warningCount"`
}

func toAlertReportView(report core.AlertReport) alertReportView {
	v := alertReportView{
		Budgets:      make([]budgetAlertView, 0, len(report.Budgets)),
		AlertCount:   report.AlertCount,
		DangerCount:  report.DangerCount,
		WarningCount: report.WarningCount,
	}
	for _, a := range report.Budgets {
		v.Budgets = append(v.Budgets, budgetAlertView{
			BudgetID:     a.Budget.ID,
			BudgetName:   a.Budget.Name,
			CategoryName: a.CategoryName,
			Period:       string(a.Budget.Period),
			WindowStart:  a.Window.Start.Format("2006-01-02"),
			WindowEnd:    a.Window.End.Format("2006-01-02"),
			Limit:        a.Budget.Amount.String(),
			Spent:        a.Spent.String(),
			Percentage:   a.Percentage,
			Remaining:    a.Remaining.String(),
			IsOverBudget: a.IsOverBudget,
			Level:        string(a.Level),
		})
	}
	return v
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if report, ok := s.alertCache.Get(owner); ok {
		writeJSON(w, http.StatusOK, toAlertReportView(report))
		return
	}

	report, err := s.budgets.Alerts(r.Context(), owner, time.Now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.alertCache.Set(owner, report)
	writeJSON(w, http.StatusOK, toAlertReportView(report))
}

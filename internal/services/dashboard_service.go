package services

import (
	"context"
	"fmt"
	"time"

	"saldo/internal/core"
	"saldo/internal/storage"
)

const recentTransactionsLimit = 10

// DashboardService builds the read-only summary view. It never writes.
type DashboardService struct {
	storage *storage.SQLiteRepository
}

func NewDashboardService(storage *storage.SQLiteRepository) *DashboardService {
	return &DashboardService{storage: storage}
}

// Summarize assembles the dashboard projection for one owner at the given
// instant. Income/expense totals and the category breakdown cover the
// calendar month containing now; the total balance covers active accounts
// only.
func (s *DashboardService) Summarize(ctx context.Context, ownerID string, now time.Time) (core.DashboardSummary, error) {
	var sum core.DashboardSummary

	accounts, err := s.storage.ListActiveAccounts(ctx, ownerID)
	if err != nil {
		return sum, fmt.Errorf("dashboard accounts: %w", err)
	}
	sum.AccountsCount = len(accounts)
	for _, a := range accounts {
		sum.TotalBalance = sum.TotalBalance.Add(a.Balance)
	}

	month := core.BudgetWindow(core.PeriodMonthly, time.Time{}, time.Time{}, now)

	sum.MonthlyIncome, err = s.storage.SumByType(ctx, ownerID, core.TransactionIncome, month)
	if err != nil {
		return sum, fmt.Errorf("dashboard income: %w", err)
	}
	sum.MonthlyExpenses, err = s.storage.SumByType(ctx, ownerID, core.TransactionExpense, month)
	if err != nil {
		return sum, fmt.Errorf("dashboard expenses: %w", err)
	}

	sum.RecentTransactions, err = s.storage.RecentTransactions(ctx, ownerID, recentTransactionsLimit)
	if err != nil {
		return sum, fmt.Errorf("dashboard recent transactions: %w", err)
	}

	sum.ExpensesByCategory, err = s.storage.ExpensesByCategory(ctx, ownerID, month)
	if err != nil {
		return sum, fmt.Errorf("dashboard category breakdown: %w", err)
	}

	return sum, nil
}

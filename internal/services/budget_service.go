package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"saldo/internal/core"
	"saldo/internal/storage"
)

// BudgetService manages budgets and evaluates them against recorded spending.
type BudgetService struct {
	storage *storage.SQLiteRepository
}

func NewBudgetService(storage *storage.SQLiteRepository) *BudgetService {
	return &BudgetService{storage: storage}
}

// Create verifies the category belongs to the owner before recording the
// budget, so a budget can never watch someone else's category.
func (s *BudgetService) Create(ctx context.Context, ownerID string, b core.Budget) (core.Budget, error) {
	b.OwnerID = ownerID
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if _, err := s.storage.GetCategory(ctx, ownerID, b.CategoryID); err != nil {
		return core.Budget{}, fmt.Errorf("budget category: %w", err)
	}

	created, err := s.storage.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}
	slog.InfoContext(ctx, "Budget created",
		"id", created.ID,
		"name", created.Name,
		"period", created.Period,
		"limit_cents", created.Amount.Cents)
	return created, nil
}

func (s *BudgetService) Get(ctx context.Context, ownerID, id string) (core.Budget, error) {
	return s.storage.GetBudget(ctx, ownerID, id)
}

func (s *BudgetService) List(ctx context.Context, ownerID string) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx, ownerID)
}

func (s *BudgetService) Update(ctx context.Context, ownerID, id string, p core.BudgetPatch) (core.Budget, error) {
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return core.Budget{}, err
		}
	}
	if p.Period != nil && !p.Period.Valid() {
		return core.Budget{}, core.ErrInvalidPeriod
	}
	if p.CategoryID != nil {
		if _, err := s.storage.GetCategory(ctx, ownerID, *p.CategoryID); err != nil {
			return core.Budget{}, fmt.Errorf("budget category: %w", err)
		}
	}
	return s.storage.UpdateBudget(ctx, ownerID, id, p)
}

func (s *BudgetService) Delete(ctx context.Context, ownerID, id string) error {
	return s.storage.DeleteBudget(ctx, ownerID, id)
}

// Evaluate classifies one active budget against its current window.
func (s *BudgetService) Evaluate(ctx context.Context, ab storage.ActiveBudget, now time.Time) (core.BudgetAlert, error) {
	w := core.BudgetWindow(ab.Period, ab.StartDate, ab.EndDate, now)
	spent, err := s.storage.SumExpenses(ctx, ab.OwnerID, ab.CategoryID, w)
	if err != nil {
		return core.BudgetAlert{}, fmt.Errorf("evaluate budget %s: %w", ab.ID, err)
	}
	return core.NewBudgetAlert(ab.Budget, ab.CategoryName, w, spent), nil
}

// Alerts builds the on-demand report over every active budget the owner has,
// most critical first.
func (s *BudgetService) Alerts(ctx context.Context, ownerID string, now time.Time) (core.AlertReport, error) {
	budgets, err := s.storage.ListActiveBudgets(ctx, ownerID)
	if err != nil {
		return core.AlertReport{}, err
	}

	report := core.AlertReport{Budgets: make([]core.BudgetAlert, 0, len(budgets))}
	for _, ab := range budgets {
		alert, err := s.Evaluate(ctx, ab, now)
		if err != nil {
			return core.AlertReport{}, err
		}
		report.Budgets = append(report.Budgets, alert)

		switch alert.Level {
		case core.AlertExceeded, core.AlertDanger:
			report.DangerCount++
			report.AlertCount++
		case core.AlertWarning:
			report.WarningCount++
			report.AlertCount++
		}
	}

	sort.SliceStable(report.Budgets, func(i, j int) bool {
		return report.Budgets[i].Level.Rank() < report.Budgets[j].Level.Rank()
	})
	return report, nil
}

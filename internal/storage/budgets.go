package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"saldo/internal/core"
)

const budgetColumns = `id, user_id, category_id, name, amount_cents, period,
	start_date, end_date, is_active, created_at, updated_at`

func scanBudget(row interface{ Scan(...any) error }, extra ...any) (core.Budget, error) {
	var b core.Budget
	var amount int64
	var endDate sql.NullTime
	dest := []any{&b.ID, &b.OwnerID, &b.CategoryID, &b.Name, &amount, &b.Period,
		&b.StartDate, &endDate, &b.IsActive, &b.CreatedAt, &b.UpdatedAt}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return core.Budget{}, err
	}
	b.Amount = core.Money{Cents: amount}
	b.EndDate = fromNullTime(endDate)
	return b, nil
}

// nullableTime maps the zero time to NULL so open-ended budgets store no
// end date at all.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ID = newID()
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category_id, name, amount_cents, period,
			start_date, end_date, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.CategoryID, b.Name, b.Amount.Cents, b.Period,
		b.StartDate, nullableTime(b.EndDate), b.IsActive, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, ownerID, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, ownerID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, ownerID, id string, p core.BudgetPatch) (core.Budget, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if p.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *p.CategoryID)
	}
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, p.Amount.Cents)
	}
	if p.Period != nil {
		sets = append(sets, "period = ?")
		args = append(args, *p.Period)
	}
	if p.StartDate != nil {
		sets = append(sets, "start_date = ?")
		args = append(args, *p.StartDate)
	}
	if p.EndDate != nil {
		sets = append(sets, "end_date = ?")
		args = append(args, nullableTime(*p.EndDate))
	}
	if p.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *p.IsActive)
	}

	args = append(args, id, ownerID)
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Budget{}, core.ErrNotFound
	}
	return r.GetBudget(ctx, ownerID, id)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ActiveBudget pairs a budget with the denormalized bits its alerts need.
type ActiveBudget struct {
	core.Budget
	CategoryName string
	OwnerEmail   string
}

// ListActiveBudgets returns one owner's active budgets with category names
// resolved, for the on-demand alert report.
func (r *SQLiteRepository) ListActiveBudgets(ctx context.Context, ownerID string) ([]ActiveBudget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.user_id, b.category_id, b.name, b.amount_cents, b.period,
			b.start_date, b.end_date, b.is_active, b.created_at, b.updated_at,
			c.name
		FROM budgets b
		JOIN categories c ON c.id = b.category_id
		WHERE b.user_id = ? AND b.is_active = 1
		ORDER BY b.created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list active budgets: %w", err)
	}
	defer rows.Close()
	return collectActiveBudgets(rows, false)
}

// ListActiveBudgetsAllOwners returns every active budget in the store with
// the owner's email attached. Owners without a stored profile come back with
// an empty email. The alert sweep walks this list.
func (r *SQLiteRepository) ListActiveBudgetsAllOwners(ctx context.Context) ([]ActiveBudget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.user_id, b.category_id, b.name, b.amount_cents, b.period,
			b.start_date, b.end_date, b.is_active, b.created_at, b.updated_at,
			c.name, COALESCE(u.email, '')
		FROM budgets b
		JOIN categories c ON c.id = b.category_id
		LEFT JOIN users u ON u.id = b.user_id
		WHERE b.is_active = 1
		ORDER BY b.user_id, b.created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active budgets for sweep: %w", err)
	}
	defer rows.Close()
	return collectActiveBudgets(rows, true)
}

func collectActiveBudgets(rows *sql.Rows, withEmail bool) ([]ActiveBudget, error) {
	var out []ActiveBudget
	for rows.Next() {
		var ab ActiveBudget
		extra := []any{&ab.CategoryName}
		if withEmail {
			extra = append(extra, &ab.OwnerEmail)
		}
		b, err := scanBudget(rows, extra...)
		if err != nil {
			return nil, fmt.Errorf("scan active budget: %w", err)
		}
		ab.Budget = b
		out = append(out, ab)
	}
	return out, rows.Err()
}

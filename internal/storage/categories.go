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

const categoryColumns = `id, user_id, name, type, color, icon, description, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Type, &c.Color, &c.Icon,
		&c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.ID = newID()
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, type, color, icon, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Type, c.Color, c.Icon, c.Description, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, ownerID, id string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, ownerID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, ownerID, id string, p core.CategoryPatch) (core.Category, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, *p.Type)
	}
	if p.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *p.Color)
	}
	if p.Icon != nil {
		sets = append(sets, "icon = ?")
		args = append(args, *p.Icon)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}

	args = append(args, id, ownerID)
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Category{}, core.ErrNotFound
	}
	return r.GetCategory(ctx, ownerID, id)
}

// DeleteCategory removes a category. Deletion is refused while any budget
// still references the category; the budget must go first.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, ownerID, id string) error {
	var refs int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budgets WHERE category_id = ? AND user_id = ?`, id, ownerID).Scan(&refs)
	if err != nil {
		return fmt.Errorf("count budget references: %w", err)
	}
	if refs > 0 {
		return core.ErrCategoryInUse
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

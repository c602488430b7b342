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

const transactionColumns = `id, user_id, account_id, category_id, type, amount_cents,
	date, description, notes, tags, is_recurring, recurring_frequency,
	transfer_from_account_id, transfer_to_account_id, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var amount int64
	var categoryID, transferFrom, transferTo sql.NullString
	err := row.Scan(&t.ID, &t.OwnerID, &t.AccountID, &categoryID, &t.Type, &amount,
		&t.Date, &t.Description, &t.Notes, &t.Tags, &t.IsRecurring, &t.RecurringFrequency,
		&transferFrom, &transferTo, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Amount = core.Money{Cents: amount}
	t.CategoryID = fromNull(categoryID)
	t.TransferFromAccountID = fromNull(transferFrom)
	t.TransferToAccountID = fromNull(transferTo)
	return t, nil
}

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	AccountID  string
	CategoryID string
	Type       core.TransactionType
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// ---- transaction-scoped writes, driven by the ledger engine ----

func (t *Tx) InsertTransaction(ctx context.Context, txn core.Transaction) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, account_id, category_id, type, amount_cents,
			date, description, notes, tags, is_recurring, recurring_frequency,
			transfer_from_account_id, transfer_to_account_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.OwnerID, txn.AccountID, nullable(txn.CategoryID), txn.Type, txn.Amount.Cents,
		txn.Date, txn.Description, txn.Notes, txn.Tags, txn.IsRecurring, txn.RecurringFrequency,
		nullable(txn.TransferFromAccountID), nullable(txn.TransferToAccountID),
		txn.CreatedAt, txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (t *Tx) UpdateTransaction(ctx context.Context, txn core.Transaction) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE transactions SET account_id = ?, category_id = ?, type = ?, amount_cents = ?,
			date = ?, description = ?, notes = ?, tags = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		txn.AccountID, nullable(txn.CategoryID), txn.Type, txn.Amount.Cents,
		txn.Date, txn.Description, txn.Notes, txn.Tags, txn.UpdatedAt,
		txn.ID, txn.OwnerID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (t *Tx) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// GetTransaction inside a write transaction, so amend and retract read the
// stored row in the same snapshot they reverse it in.
func (t *Tx) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, ownerID)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return txn, nil
}

// ---- reads ----

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, ownerID)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return txn, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string, f TransactionFilter) ([]core.Transaction, error) {
	conds := []string{"user_id = ?"}
	args := []any{ownerID}

	if f.AccountID != "" {
		conds = append(conds, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.CategoryID != "" {
		conds = append(conds, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, f.Type)
	}
	if !f.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, f.To)
	}

	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func (r *SQLiteRepository) RecentTransactions(ctx context.Context, ownerID string, limit int) ([]core.Transaction, error) {
	return r.ListTransactions(ctx, ownerID, TransactionFilter{Limit: limit})
}

// SumExpenses totals EXPENSE transactions for one category inside a window.
// Window bounds are inclusive on both ends.
func (r *SQLiteRepository) SumExpenses(ctx context.Context, ownerID, categoryID string, w core.Window) (core.Money, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT SUM(amount_cents) FROM transactions
		WHERE user_id = ? AND category_id = ? AND type = ? AND date >= ? AND date <= ?`,
		ownerID, categoryID, core.TransactionExpense, w.Start, w.End).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: total.Int64}, nil
}

// SumByType totals transactions of one type inside a window, across all
// categories and accounts.
func (r *SQLiteRepository) SumByType(ctx context.Context, ownerID string, typ core.TransactionType, w core.Window) (core.Money, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT SUM(amount_cents) FROM transactions
		WHERE user_id = ? AND type = ? AND date >= ? AND date <= ?`,
		ownerID, typ, w.Start, w.End).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum by type: %w", err)
	}
	return core.Money{Cents: total.Int64}, nil
}

// ExpensesByCategory groups a window's EXPENSE totals by category name,
// largest first. Uncategorized spending gets its own bucket instead of
// disappearing from the breakdown.
func (r *SQLiteRepository) ExpensesByCategory(ctx context.Context, ownerID string, w core.Window) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(c.name, 'Uncategorized'), COALESCE(c.color, ''), SUM(t.amount_cents)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.type = ? AND t.date >= ? AND t.date <= ?
		GROUP BY t.category_id
		ORDER BY SUM(t.amount_cents) DESC`,
		ownerID, core.TransactionExpense, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("expenses by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ce core.CategoryTotal
		var total int64
		if err := rows.Scan(&ce.CategoryName, &ce.Color, &total); err != nil {
			return nil, fmt.Errorf("scan category expense: %w", err)
		}
		ce.Total = core.Money{Cents: total}
		out = append(out, ce)
	}
	return out, rows.Err()
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"saldo/internal/core"
)

const accountColumns = `id, user_id, name, type, currency, balance_cents,
	initial_balance_cents, is_active, color, icon, description, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var a core.Account
	var balance, initial int64
	err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Type, &a.Currency, &balance,
		&initial, &a.IsActive, &a.Color, &a.Icon, &a.Description, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return core.Account{}, err
	}
	a.Balance = core.Money{Cents: balance}
	a.InitialBalance = core.Money{Cents: initial}
	return a, nil
}

// CreateAccount persists a new account. The cached balance starts at the
// initial balance; from then on only the ledger engine touches it.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.ID = newID()
	a.Balance = a.InitialBalance
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, type, currency, balance_cents,
			initial_balance_cents, is_active, color, icon, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, a.Name, a.Type, a.Currency, a.Balance.Cents,
		a.InitialBalance.Cents, a.IsActive, a.Color, a.Icon, a.Description, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account created",
		"id", a.ID,
		"name", a.Name,
		"type", a.Type,
		"initial_balance_cents", a.InitialBalance.Cents)

	return a, nil
}

// GetAccount loads an account scoped by owner. A record owned by someone
// else is reported as not found.
func (r *SQLiteRepository) GetAccount(ctx context.Context, ownerID, id string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`, id, ownerID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, ownerID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) ListActiveAccounts(ctx context.Context, ownerID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? AND is_active = 1`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list active accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount applies a patch. The balance is not patchable here: it only
// moves through the ledger engine.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, ownerID, id string, p core.AccountPatch) (core.Account, error) {
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
	if p.Currency != nil {
		sets = append(sets, "currency = ?")
		args = append(args, *p.Currency)
	}
	if p.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *p.IsActive)
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
		`UPDATE accounts SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Account{}, core.ErrNotFound
	}
	return r.GetAccount(ctx, ownerID, id)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Account deleted", "id", id)
	return nil
}

// ---- balance mutation, transaction-scoped ----

// AccountOwned verifies ownership inside a ledger transaction.
func (t *Tx) AccountOwned(ctx context.Context, ownerID, id string) error {
	var one int
	err := t.tx.QueryRowContext(ctx,
		`SELECT 1 FROM accounts WHERE id = ? AND user_id = ?`, id, ownerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check account ownership: %w", err)
	}
	return nil
}

// AdjustBalance applies a relative balance change. Being relative rather
// than read-modify-write is what keeps concurrent ledger operations against
// the same account from losing updates.
func (t *Tx) AdjustBalance(ctx context.Context, accountID string, delta core.Money) error {
	if delta.Cents == 0 {
		return nil
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ?, updated_at = ? WHERE id = ?`,
		delta.Cents, time.Now().UTC(), accountID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

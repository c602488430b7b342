package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"saldo/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "saldo_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *SQLiteRepository, email string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), core.User{Email: email, Name: "Test User"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func seedAccount(t *testing.T, repo *SQLiteRepository, ownerID string, initial int64) core.Account {
	t.Helper()
	a, err := repo.CreateAccount(context.Background(), core.Account{
		OwnerID:        ownerID,
		Name:           "Checking",
		Type:           core.AccountChecking,
		Currency:       "EUR",
		InitialBalance: core.Money{Cents: initial},
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	return a
}

func seedCategory(t *testing.T, repo *SQLiteRepository, ownerID string, name string) core.Category {
	t.Helper()
	c, err := repo.CreateCategory(context.Background(), core.Category{
		OwnerID: ownerID,
		Name:    name,
		Type:    core.CategoryExpense,
	})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	return c
}

func insertExpense(t *testing.T, repo *SQLiteRepository, ownerID, accountID, categoryID string, cents int64, date time.Time) core.Transaction {
	t.Helper()
	txn := core.Transaction{
		ID:          newID(),
		OwnerID:     ownerID,
		AccountID:   accountID,
		CategoryID:  categoryID,
		Type:        core.TransactionExpense,
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: "test expense",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	err := repo.WithTx(context.Background(), func(tx *Tx) error {
		return tx.InsertTransaction(context.Background(), txn)
	})
	if err != nil {
		t.Fatalf("InsertTransaction() error = %v", err)
	}
	return txn
}

func TestAccountCreateSeedsBalance(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, "a@example.com")

	a := seedAccount(t, repo, user.ID, 100_000)
	if a.Balance.Cents != 100_000 {
		t.Errorf("Balance = %d, want initial balance 100000", a.Balance.Cents)
	}

	got, err := repo.GetAccount(context.Background(), user.ID, a.ID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if got.Balance.Cents != 100_000 {
		t.Errorf("stored Balance = %d, want 100000", got.Balance.Cents)
	}
}

func TestAccountOwnerScoping(t *testing.T) {
	repo := newTestRepo(t)
	owner := seedUser(t, repo, "owner@example.com")
	other := seedUser(t, repo, "other@example.com")
	a := seedAccount(t, repo, owner.ID, 0)

	if _, err := repo.GetAccount(context.Background(), other.ID, a.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetAccount() with wrong owner error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteAccount(context.Background(), other.ID, a.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteAccount() with wrong owner error = %v, want ErrNotFound", err)
	}
	// the real owner still sees it
	if _, err := repo.GetAccount(context.Background(), owner.ID, a.ID); err != nil {
		t.Errorf("GetAccount() with owner error = %v", err)
	}
}

func TestAdjustBalanceIsRelative(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, "a@example.com")
	a := seedAccount(t, repo, user.ID, 50_000)
	ctx := context.Background()

	err := repo.WithTx(ctx, func(tx *Tx) error {
		if err := tx.AdjustBalance(ctx, a.ID, core.Money{Cents: -12_500}); err != nil {
			return err
		}
		return tx.AdjustBalance(ctx, a.ID, core.Money{Cents: 2_500})
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	got, err := repo.GetAccount(ctx, user.ID, a.ID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if got.Balance.Cents != 40_000 {
		t.Errorf("Balance = %d, want 40000", got.Balance.Cents)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, "a@example.com")
	a := seedAccount(t, repo, user.ID, 10_000)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(tx *Tx) error {
		if err := tx.AdjustBalance(ctx, a.ID, core.Money{Cents: -5_000}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	got, _ := repo.GetAccount(ctx, user.ID, a.ID)
	if got.Balance.Cents != 10_000 {
		t.Errorf("Balance after rollback = %d, want 10000", got.Balance.Cents)
	}
}

func TestSumExpensesWindowBoundsInclusive(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, "a@example.com")
	a := seedAccount(t, repo, user.ID, 0)
	cat := seedCategory(t, repo, user.ID, "Groceries")
	ctx := context.Background()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)

	insertExpense(t, repo, user.ID, a.ID, cat.ID, 1_000, start)                       // on start bound
	insertExpense(t, repo, user.ID, a.ID, cat.ID, 2_000, end)                         // on end bound
	insertExpense(t, repo, user.ID, a.ID, cat.ID, 4_000, start.AddDate(0, 0, -1))     // before
	insertExpense(t, repo, user.ID, a.ID, cat.ID, 8_000, end.Add(time.Second))        // after
	insertExpense(t, repo, user.ID, a.ID, "", 16_000, start.AddDate(0, 0, 10))        // uncategorized

	got, err := repo.SumExpenses(ctx, user.ID, cat.ID, core.Window{Start: start, End: end})
	if err != nil {
		t.Fatalf("SumExpenses() error = %v", err)
	}
	if got.Cents != 3_000 {
		t.Errorf("SumExpenses() = %d, want 3000", got.Cents)
	}
}

func TestSumExpensesEmptyWindowIsZero(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, "a@example.com")
	cat := seedCategory(t, repo, user.ID, "Travel")

	w := core.Window{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
	}
	got, err := repo.SumExpenses(context.Background(), user.ID, cat.ID, w)
	if err != nil {
		t.Fatalf("SumExpenses() error = %v", err)
	}
	if got.Cents != 0 {
		t.Errorf("SumExpenses() on empty window = %d, want 0", got.Cents)
	}
}

func TestExpensesByCategoryUncategorizedBucket(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, "a@example.com")
	a := seedAccount(t, repo, user.ID, 0)
	cat := seedCategory(t, repo, user.ID, "Groceries")
	ctx := context.Background()

	day := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	insertExpense(t, repo, user.ID, a.ID, cat.ID, 5_000, day)
	insertExpense(t, repo, user.ID, a.ID, "", 9_000, day)

	w := core.Window{
		Start: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC),
	}
	got, err := repo.ExpensesByCategory(ctx, user.ID, w)
	if err != nil {
		t.Fatalf("ExpensesByCategory() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 buckets", len(got))
	}
	// largest first
	if got[0].CategoryName != "Uncategorized" || got[0].Total.Cents != 9_000 {
		t.Errorf("first bucket = %s/%d, want Uncategorized/9000", got[0].CategoryName, got[0].Total.Cents)
	}
	if got[1].CategoryName != "Groceries" || got[1].Total.Cents != 5_000 {
		t.Errorf("second bucket = %s/%d, want Groceries/5000", got[1].CategoryName, got[1].Total.Cents)
	}
}

func TestListTransactionsFilters(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, "a@example.com")
	a := seedAccount(t, repo, user.ID, 0)
	b := seedAccount(t, repo, user.ID, 0)
	cat := seedCategory(t, repo, user.ID, "Dining")
	ctx := context.Background()

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	insertExpense(t, repo, user.ID, a.ID, cat.ID, 1_000, day)
	insertExpense(t, repo, user.ID, b.ID, cat.ID, 2_000, day.AddDate(0, 0, 1))
	insertExpense(t, repo, user.ID, b.ID, "", 3_000, day.AddDate(0, 0, 2))

	byAccount, err := repo.ListTransactions(ctx, user.ID, TransactionFilter{AccountID: b.ID})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(byAccount) != 2 {
		t.Errorf("account filter: len = %d, want 2", len(byAccount))
	}

	byCategory, err := repo.ListTransactions(ctx, user.ID, TransactionFilter{CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(byCategory) != 2 {
		t.Errorf("category filter: len = %d, want 2", len(byCategory))
	}

	limited, err := repo.ListTransactions(ctx, user.ID, TransactionFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit filter: len = %d, want 1", len(limited))
	}
	// newest first
	if limited[0].Amount.Cents != 3_000 {
		t.Errorf("newest transaction amount = %d, want 3000", limited[0].Amount.Cents)
	}
}

func TestBudgetEndDateRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, "a@example.com")
	cat := seedCategory(t, repo, user.ID, "Groceries")
	ctx := context.Background()

	open, err := repo.CreateBudget(ctx, core.Budget{
		OwnerID:    user.ID,
		CategoryID: cat.ID,
		Name:       "Open-ended",
		Amount:     core.Money{Cents: 30_000},
		Period:     core.PeriodMonthly,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("CreateBudget() error = %v", err)
	}

	got, err := repo.GetBudget(ctx, user.ID, open.ID)
	if err != nil {
		t.Fatalf("GetBudget() error = %v", err)
	}
	if !got.EndDate.IsZero() {
		t.Errorf("EndDate = %v, want zero for open-ended budget", got.EndDate)
	}
}

func TestListActiveBudgetsAllOwners(t *testing.T) {
	repo := newTestRepo(t)
	alice := seedUser(t, repo, "alice@example.com")
	bob := seedUser(t, repo, "bob@example.com")
	aliceCat := seedCategory(t, repo, alice.ID, "Groceries")
	bobCat := seedCategory(t, repo, bob.ID, "Travel")
	ctx := context.Background()

	mk := func(ownerID, categoryID, name string, active bool) {
		_, err := repo.CreateBudget(ctx, core.Budget{
			OwnerID:    ownerID,
			CategoryID: categoryID,
			Name:       name,
			Amount:     core.Money{Cents: 10_000},
			Period:     core.PeriodMonthly,
			StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			IsActive:   active,
		})
		if err != nil {
			t.Fatalf("CreateBudget(%s) error = %v", name, err)
		}
	}
	mk(alice.ID, aliceCat.ID, "Alice groceries", true)
	mk(bob.ID, bobCat.ID, "Bob travel", true)
	mk(bob.ID, bobCat.ID, "Bob paused", false)

	got, err := repo.ListActiveBudgetsAllOwners(ctx)
	if err != nil {
		t.Fatalf("ListActiveBudgetsAllOwners() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 active budgets", len(got))
	}
	emails := map[string]string{}
	for _, ab := range got {
		emails[ab.Name] = ab.OwnerEmail
		if ab.CategoryName == "" {
			t.Errorf("budget %s has no category name", ab.Name)
		}
	}
	if emails["Alice groceries"] != "alice@example.com" {
		t.Errorf("alice email = %q", emails["Alice groceries"])
	}
	if emails["Bob travel"] != "bob@example.com" {
		t.Errorf("bob email = %q", emails["Bob travel"])
	}
}

func TestListActiveBudgetsAllOwnersWithoutUserRow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Owners are minted from the request header, so a budget can exist
	// with no matching users row. The sweep listing must still return it.
	const ghost = "header-only-owner"
	cat := seedCategory(t, repo, ghost, "Groceries")
	_, err := repo.CreateBudget(ctx, core.Budget{
		OwnerID:    ghost,
		CategoryID: cat.ID,
		Name:       "Ghost groceries",
		Amount:     core.Money{Cents: 10_000},
		Period:     core.PeriodMonthly,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("CreateBudget() error = %v", err)
	}

	got, err := repo.ListActiveBudgetsAllOwners(ctx)
	if err != nil {
		t.Fatalf("ListActiveBudgetsAllOwners() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].OwnerEmail != "" {
		t.Errorf("OwnerEmail = %q, want empty", got[0].OwnerEmail)
	}
}

func TestDeleteCategoryReferencedByBudget(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, "a@example.com")
	cat := seedCategory(t, repo, user.ID, "Groceries")
	ctx := context.Background()

	budget, err := repo.CreateBudget(ctx, core.Budget{
		OwnerID:    user.ID,
		CategoryID: cat.ID,
		Name:       "Groceries",
		Amount:     core.Money{Cents: 10_000},
		Period:     core.PeriodMonthly,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("CreateBudget() error = %v", err)
	}

	if err := repo.DeleteCategory(ctx, user.ID, cat.ID); !errors.Is(err, core.ErrCategoryInUse) {
		t.Fatalf("DeleteCategory() error = %v, want ErrCategoryInUse", err)
	}
	if _, err := repo.GetCategory(ctx, user.ID, cat.ID); err != nil {
		t.Fatalf("category gone after refused delete: %v", err)
	}

	if err := repo.DeleteBudget(ctx, user.ID, budget.ID); err != nil {
		t.Fatalf("DeleteBudget() error = %v", err)
	}
	if err := repo.DeleteCategory(ctx, user.ID, cat.ID); err != nil {
		t.Errorf("DeleteCategory() after budget removal error = %v", err)
	}
}

func TestUpdateAccountPatch(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, "a@example.com")
	a := seedAccount(t, repo, user.ID, 1_000)
	ctx := context.Background()

	name := "Renamed"
	inactive := false
	got, err := repo.UpdateAccount(ctx, user.ID, a.ID, core.AccountPatch{Name: &name, IsActive: &inactive})
	if err != nil {
		t.Fatalf("UpdateAccount() error = %v", err)
	}
	if got.Name != "Renamed" || got.IsActive {
		t.Errorf("patched account = %+v", got)
	}
	// untouched fields survive
	if got.Balance.Cents != 1_000 || got.Type != core.AccountChecking {
		t.Errorf("unpatched fields changed: %+v", got)
	}
}

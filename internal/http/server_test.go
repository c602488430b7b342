package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"saldo/internal/core"
	"saldo/internal/services"
	"saldo/internal/storage"
)

type testEnv struct {
	srv  *Server
	repo *storage.SQLiteRepository
	user core.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "saldo_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	user, err := repo.CreateUser(context.Background(), core.User{Email: "test@example.com", Name: "Test"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	srv := NewServer(":0", Deps{
		Accounts:   services.NewAccountService(repo),
		Categories: services.NewCategoryService(repo),
		Ledger:     services.NewLedgerService(repo),
		Budgets:    services.NewBudgetService(repo),
		Dashboard:  services.NewDashboardService(repo),
		Currency:   "EUR",
	})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	return &testEnv{srv: srv, repo: repo, user: user}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return e.doAs(t, e.user.ID, method, path, body)
}

func (e *testEnv) doAs(t *testing.T, owner, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if owner != "" {
		req.Header.Set(ownerHeader, owner)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func (e *testEnv) createAccount(t *testing.T, name, initial string) accountView {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":"CHECKING","initialBalance":%q}`, name, initial)
	rr := e.do(t, http.MethodPost, "/api/accounts", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create account status=%d body=%s", rr.Code, rr.Body.String())
	}
	var v accountView
	decodeBody(t, rr, &v)
	return v
}

func (e *testEnv) createCategory(t *testing.T, name, typ string) categoryView {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":%q}`, name, typ)
	rr := e.do(t, http.MethodPost, "/api/categories", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create category status=%d body=%s", rr.Code, rr.Body.String())
	}
	var v categoryView
	decodeBody(t, rr, &v)
	return v
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.doAs(t, "", http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestMissingOwnerHeaderIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doAs(t, "", http.MethodGet, "/api/accounts", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAccountLifecycle(t *testing.T) {
	env := newTestEnv(t)

	account := env.createAccount(t, "Checking", "100.00")
	if account.Balance != "100.00" {
		t.Fatalf("Balance = %q, want 100.00", account.Balance)
	}

	rr := env.do(t, http.MethodGet, "/api/accounts/"+account.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status=%d", rr.Code)
	}

	rr = env.do(t, http.MethodPatch, "/api/accounts/"+account.ID, `{"name":"Main"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status=%d body=%s", rr.Code, rr.Body.String())
	}
	var updated accountView
	decodeBody(t, rr, &updated)
	if updated.Name != "Main" {
		t.Fatalf("Name = %q, want Main", updated.Name)
	}

	rr = env.do(t, http.MethodDelete, "/api/accounts/"+account.ID, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/api/accounts/"+account.ID, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", rr.Code)
	}
}

func TestAccountOwnerIsolation(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "Checking", "50.00")

	other, err := env.repo.CreateUser(context.Background(), core.User{Email: "other@example.com"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	rr := env.doAs(t, other.ID, http.MethodGet, "/api/accounts/"+account.ID, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("foreign get status=%d, want 404", rr.Code)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/accounts", `{"name":"","type":"CHECKING"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty name status=%d, want 422", rr.Code)
	}

	rr = env.do(t, http.MethodPost, "/api/accounts", `{"name":"X","type":"WALLET"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad type status=%d, want 422", rr.Code)
	}

	rr = env.do(t, http.MethodPost, "/api/accounts", `{"name":"X","type":"CHECKING","bogus":1}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status=%d, want 400", rr.Code)
	}
}

func TestPostTransactionMovesBalance(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "Checking", "100.00")
	category := env.createCategory(t, "Groceries", "EXPENSE")

	body := fmt.Sprintf(`{"accountId":%q,"categoryId":%q,"type":"EXPENSE","amount":"12.50","date":"2024-06-15","description":"market"}`,
		account.ID, category.ID)
	rr := env.do(t, http.MethodPost, "/api/transactions", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("post status=%d body=%s", rr.Code, rr.Body.String())
	}
	var txn transactionView
	decodeBody(t, rr, &txn)
	if txn.Amount != "12.50" {
		t.Fatalf("Amount = %q, want 12.50", txn.Amount)
	}

	rr = env.do(t, http.MethodGet, "/api/accounts/"+account.ID, "")
	var after accountView
	decodeBody(t, rr, &after)
	if after.Balance != "87.50" {
		t.Fatalf("Balance = %q, want 87.50", after.Balance)
	}

	// Retract restores the balance.
	rr = env.do(t, http.MethodDelete, "/api/transactions/"+txn.ID, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("retract status=%d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/api/accounts/"+account.ID, "")
	decodeBody(t, rr, &after)
	if after.Balance != "100.00" {
		t.Fatalf("Balance after retract = %q, want 100.00", after.Balance)
	}
}

func TestPostTransactionValidation(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "Checking", "100.00")

	cases := []struct {
		name string
		body string
		want int
	}{
		{
			name: "bad amount",
			body: fmt.Sprintf(`{"accountId":%q,"type":"EXPENSE","amount":"abc","date":"2024-06-15","description":"x"}`, account.ID),
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "zero amount",
			body: fmt.Sprintf(`{"accountId":%q,"type":"EXPENSE","amount":"0","date":"2024-06-15","description":"x"}`, account.ID),
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "missing description",
			body: fmt.Sprintf(`{"accountId":%q,"type":"EXPENSE","amount":"1.00","date":"2024-06-15","description":""}`, account.ID),
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad date",
			body: fmt.Sprintf(`{"accountId":%q,"type":"EXPENSE","amount":"1.00","date":"June 15","description":"x"}`, account.ID),
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "malformed json",
			body: `{`,
			want: http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/transactions", tc.body)
			if rr.Code != tc.want {
				t.Fatalf("status=%d, want %d (body=%s)", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestTransferEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	src := env.createAccount(t, "Checking", "100.00")
	dst := env.createAccount(t, "Savings", "20.00")

	body := fmt.Sprintf(`{"type":"TRANSFER","amount":"30.00","date":"2024-06-15","description":"stash","transferFromAccountId":%q,"transferToAccountId":%q}`,
		src.ID, dst.ID)
	rr := env.do(t, http.MethodPost, "/api/transactions", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("transfer status=%d body=%s", rr.Code, rr.Body.String())
	}

	var after accountView
	rr = env.do(t, http.MethodGet, "/api/accounts/"+src.ID, "")
	decodeBody(t, rr, &after)
	if after.Balance != "70.00" {
		t.Fatalf("source balance = %q, want 70.00", after.Balance)
	}
	rr = env.do(t, http.MethodGet, "/api/accounts/"+dst.ID, "")
	decodeBody(t, rr, &after)
	if after.Balance != "50.00" {
		t.Fatalf("destination balance = %q, want 50.00", after.Balance)
	}
}

func TestAmendTransaction(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "Checking", "100.00")

	body := fmt.Sprintf(`{"accountId":%q,"type":"EXPENSE","amount":"40.00","date":"2024-06-15","description":"dinner"}`, account.ID)
	rr := env.do(t, http.MethodPost, "/api/transactions", body)
	var txn transactionView
	decodeBody(t, rr, &txn)

	rr = env.do(t, http.MethodPatch, "/api/transactions/"+txn.ID, `{"amount":"10.00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("amend status=%d body=%s", rr.Code, rr.Body.String())
	}

	var after accountView
	rr = env.do(t, http.MethodGet, "/api/accounts/"+account.ID, "")
	decodeBody(t, rr, &after)
	if after.Balance != "90.00" {
		t.Fatalf("balance after amend = %q, want 90.00", after.Balance)
	}

	// An expense cannot become a transfer.
	rr = env.do(t, http.MethodPatch, "/api/transactions/"+txn.ID, `{"type":"TRANSFER"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("type change status=%d, want 422", rr.Code)
	}
}

func TestListTransactionsFilterByQuery(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "Checking", "500.00")
	category := env.createCategory(t, "Groceries", "EXPENSE")

	for _, date := range []string{"2024-06-01", "2024-06-15", "2024-07-01"} {
		body := fmt.Sprintf(`{"accountId":%q,"categoryId":%q,"type":"EXPENSE","amount":"5.00","date":%q,"description":"spend"}`,
			account.ID, category.ID, date)
		if rr := env.do(t, http.MethodPost, "/api/transactions", body); rr.Code != http.StatusCreated {
			t.Fatalf("post status=%d", rr.Code)
		}
	}

	rr := env.do(t, http.MethodGet, "/api/transactions?from=2024-06-01&to=2024-06-30", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status=%d", rr.Code)
	}
	var txns []transactionView
	decodeBody(t, rr, &txns)
	if len(txns) != 2 {
		t.Fatalf("len = %d, want 2", len(txns))
	}

	rr = env.do(t, http.MethodGet, "/api/transactions?limit=oops", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status=%d, want 400", rr.Code)
	}
}

func TestBudgetAndAlertReport(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "Checking", "500.00")
	category := env.createCategory(t, "Groceries", "EXPENSE")

	budgetBody := fmt.Sprintf(`{"categoryId":%q,"name":"Food","amount":"100.00","period":"MONTHLY","startDate":"2024-01-01"}`, category.ID)
	rr := env.do(t, http.MethodPost, "/api/budgets", budgetBody)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create budget status=%d body=%s", rr.Code, rr.Body.String())
	}

	// Spend in the current month so the window picks it up.
	today := timeNowDate()
	txnBody := fmt.Sprintf(`{"accountId":%q,"categoryId":%q,"type":"EXPENSE","amount":"95.00","date":%q,"description":"groceries"}`,
		account.ID, category.ID, today)
	if rr := env.do(t, http.MethodPost, "/api/transactions", txnBody); rr.Code != http.StatusCreated {
		t.Fatalf("post status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/alerts", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("alerts status=%d", rr.Code)
	}
	var report alertReportView
	decodeBody(t, rr, &report)
	if len(report.Budgets) != 1 {
		t.Fatalf("budgets = %d, want 1", len(report.Budgets))
	}
	if report.Budgets[0].Level != "danger" {
		t.Fatalf("level = %q, want danger", report.Budgets[0].Level)
	}
	if report.DangerCount != 1 || report.AlertCount != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", report.DangerCount, report.AlertCount)
	}
}

func TestBudgetRequiresOwnCategory(t *testing.T) {
	env := newTestEnv(t)

	other, err := env.repo.CreateUser(context.Background(), core.User{Email: "other@example.com"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	foreign, err := env.repo.CreateCategory(context.Background(), core.Category{
		OwnerID: other.ID, Name: "Theirs", Type: core.CategoryExpense,
	})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	body := fmt.Sprintf(`{"categoryId":%q,"name":"Sneaky","amount":"10.00","period":"MONTHLY","startDate":"2024-01-01"}`, foreign.ID)
	rr := env.do(t, http.MethodPost, "/api/budgets", body)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("foreign category status=%d, want 404", rr.Code)
	}
}

func TestDashboardReflectsMutations(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "Checking", "100.00")

	rr := env.do(t, http.MethodGet, "/api/dashboard", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	var dash dashboardView
	decodeBody(t, rr, &dash)
	if dash.TotalBalance != "100.00" || dash.Currency != "EUR" {
		t.Fatalf("dashboard = %q %q, want 100.00 EUR", dash.TotalBalance, dash.Currency)
	}

	// The cached summary must be purged by the mutation, not served stale.
	body := fmt.Sprintf(`{"accountId":%q,"type":"EXPENSE","amount":"25.00","date":%q,"description":"spend"}`, account.ID, timeNowDate())
	if rr := env.do(t, http.MethodPost, "/api/transactions", body); rr.Code != http.StatusCreated {
		t.Fatalf("post status=%d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/dashboard", "")
	decodeBody(t, rr, &dash)
	if dash.TotalBalance != "75.00" {
		t.Fatalf("TotalBalance = %q, want 75.00", dash.TotalBalance)
	}
}

func TestLRUCache(t *testing.T) {
	cache := newLRUCache[string](2, time.Minute)

	cache.Set("a", "1")
	cache.Set("b", "2")
	cache.Set("c", "3") // evicts a

	if _, ok := cache.Get("a"); ok {
		t.Fatal("expected a to be evicted")
	}
	if v, ok := cache.Get("b"); !ok || v != "2" {
		t.Fatalf("Get(b) = %q/%v", v, ok)
	}

	cache.Delete("b")
	if _, ok := cache.Get("b"); ok {
		t.Fatal("expected b to be deleted")
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	cache := newLRUCache[int](10, -time.Second)
	cache.Set("k", 42)
	if _, ok := cache.Get("k"); ok {
		t.Fatal("expected expired entry to miss")
	}
	cache.Set("k", 42)
	if removed := cache.CleanExpired(); removed != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", removed)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < rateLimitRequests; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d unexpectedly limited", i)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("expected request over the limit to be rejected")
	}
	if !rl.allow("10.0.0.2") {
		t.Fatal("limits must be per client")
	}
}

// timeNowDate formats today as the API's date-only wire format.
func timeNowDate() string {
	return time.Now().UTC().Format("2006-01-02")
}

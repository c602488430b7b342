package core

import (
	"strings"
	"time"
)

type (
	AccountType     string
	CategoryType    string
	TransactionType string
	BudgetPeriod    string
)

const (
	AccountChecking   AccountType = "CHECKING"
	AccountSavings    AccountType = "SAVINGS"
	AccountCreditCard AccountType = "CREDIT_CARD"
	AccountCash       AccountType = "CASH"
	AccountInvestment AccountType = "INVESTMENT"
	AccountOther      AccountType = "OTHER"
)

const (
	CategoryIncome  CategoryType = "INCOME"
	CategoryExpense CategoryType = "EXPENSE"
)

const (
	TransactionIncome   TransactionType = "INCOME"
	TransactionExpense  TransactionType = "EXPENSE"
	TransactionTransfer TransactionType = "TRANSFER"
)

const (
	PeriodWeekly  BudgetPeriod = "WEEKLY"
	PeriodMonthly BudgetPeriod = "MONTHLY"
	PeriodYearly  BudgetPeriod = "YEARLY"
	PeriodCustom  BudgetPeriod = "CUSTOM"
)

// User is the owner identity every entity hangs off. Authentication is
// handled upstream; the ledger only needs the id and, for alerts, the email.
type User struct {
	ID    string
	Email string
	Name  string
}

// Account is a monetary account with a cached balance. The balance is
// mutated only through the ledger engine, never written directly.
type Account struct {
	ID             string
	OwnerID        string
	Name           string
	Type           AccountType
	Currency       string
	Balance        Money
	InitialBalance Money
	IsActive       bool
	Color          string
	Icon           string
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Category classifies transactions and budgets as income or expense.
// Transfers are never categorized.
type Category struct {
	ID          string
	OwnerID     string
	Name        string
	Type        CategoryType
	Color       string
	Icon        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Transaction is a single ledger entry. Amount is a non-negative magnitude;
// the sign of the balance effect is implied by Type. Transfer legs are only
// populated when Type is TRANSFER.
type Transaction struct {
	ID                    string
	OwnerID               string
	AccountID             string
	CategoryID            string // empty = uncategorized
	Type                  TransactionType
	Amount                Money
	Date                  time.Time
	Description           string
	Notes                 string
	Tags                  string
	IsRecurring           bool
	RecurringFrequency    string
	TransferFromAccountID string
	TransferToAccountID   string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Budget is a per-category spending limit. Its evaluation window is derived
// from Period/StartDate at read time, never stored.
type Budget struct {
	ID         string
	OwnerID    string
	CategoryID string
	Name       string
	Amount     Money
	Period     BudgetPeriod
	StartDate  time.Time
	EndDate    time.Time // zero = open-ended
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TransactionDraft is the input to LedgerService.Post.
type TransactionDraft struct {
	AccountID             string
	CategoryID            string
	Type                  TransactionType
	Amount                Money
	Date                  time.Time
	Description           string
	Notes                 string
	Tags                  string
	IsRecurring           bool
	RecurringFrequency    string
	TransferFromAccountID string
	TransferToAccountID   string
}

// Patch structs carry partial updates. Nil means "leave unchanged". Owner id
// and creation time have no patch field on purpose: they are immutable.
type (
	AccountPatch struct {
		Name        *string
		Type        *AccountType
		Currency    *string
		IsActive    *bool
		Color       *string
		Icon        *string
		Description *string
	}

	CategoryPatch struct {
		Name        *string
		Type        *CategoryType
		Color       *string
		Icon        *string
		Description *string
	}

	TransactionPatch struct {
		AccountID   *string
		CategoryID  *string
		Type        *TransactionType
		Amount      *Money
		Date        *time.Time
		Description *string
		Notes       *string
		Tags        *string
	}

	BudgetPatch struct {
		CategoryID *string
		Name       *string
		Amount     *Money
		Period     *BudgetPeriod
		StartDate  *time.Time
		EndDate    *time.Time
		IsActive   *bool
	}
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCreditCard, AccountCash, AccountInvestment, AccountOther:
		return true
	}
	return false
}

func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionIncome, TransactionExpense, TransactionTransfer:
		return true
	}
	return false
}

func (p BudgetPeriod) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly, PeriodCustom:
		return true
	}
	return false
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// Validate checks a draft before anything touches the store, so a rejected
// draft never leaves partial writes behind.
func (d TransactionDraft) Validate() error {
	if !d.Type.Valid() {
		return ErrInvalidType
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if d.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(d.Description) == "" {
		return ErrEmptyDescription
	}
	if d.Type == TransactionTransfer {
		if d.TransferFromAccountID == "" || d.TransferToAccountID == "" {
			return ErrMissingTransferLegs
		}
		if d.TransferFromAccountID == d.TransferToAccountID {
			return ErrSameTransferAccount
		}
		if d.CategoryID != "" {
			return ErrTransferCategorized
		}
	} else if d.TransferFromAccountID != "" || d.TransferToAccountID != "" {
		return ErrTransferFieldsSet
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	if b.StartDate.IsZero() {
		return ErrInvalidDate
	}
	if !b.EndDate.IsZero() && b.EndDate.Before(b.StartDate) {
		return ErrInvalidDate
	}
	return nil
}

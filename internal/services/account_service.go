package services

import (
	"context"

	"saldo/internal/core"
	"saldo/internal/storage"
)

// AccountService handles account CRUD. Balances are read-only here; only the
// ledger engine moves them.
type AccountService struct {
	storage *storage.SQLiteRepository
}

func NewAccountService(storage *storage.SQLiteRepository) *AccountService {
	return &AccountService{storage: storage}
}

func (s *AccountService) Create(ctx context.Context, ownerID string, a core.Account) (core.Account, error) {
	a.OwnerID = ownerID
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if a.Currency == "" {
		a.Currency = "EUR"
	}
	return s.storage.CreateAccount(ctx, a)
}

func (s *AccountService) Get(ctx context.Context, ownerID, id string) (core.Account, error) {
	return s.storage.GetAccount(ctx, ownerID, id)
}

func (s *AccountService) List(ctx context.Context, ownerID string) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx, ownerID)
}

func (s *AccountService) Update(ctx context.Context, ownerID, id string, p core.AccountPatch) (core.Account, error) {
	if p.Type != nil && !p.Type.Valid() {
		return core.Account{}, core.ErrInvalidType
	}
	if p.Name != nil && *p.Name == "" {
		return core.Account{}, core.ErrEmptyName
	}
	return s.storage.UpdateAccount(ctx, ownerID, id, p)
}

func (s *AccountService) Delete(ctx context.Context, ownerID, id string) error {
	return s.storage.DeleteAccount(ctx, ownerID, id)
}

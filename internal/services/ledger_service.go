// Package services holds the business logic between the HTTP layer and the
// record store.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"saldo/internal/core"
	"saldo/internal/storage"
)

// LedgerService is the only writer of transactions and account balances.
// Every operation runs in one SQL transaction, so a transaction row and its
// balance effect commit or roll back together.
type LedgerService struct {
	storage *storage.SQLiteRepository
}

func NewLedgerService(storage *storage.SQLiteRepository) *LedgerService {
	return &LedgerService{storage: storage}
}

// balanceEffect returns the signed balance delta a transaction applies to
// its primary account. Transfers handle the counterpart account separately.
func balanceEffect(typ core.TransactionType, amount core.Money) core.Money {
	if typ == core.TransactionIncome {
		return amount
	}
	// EXPENSE debits; a TRANSFER debits its source account.
	return amount.Neg()
}

// apply posts a transaction's balance effect. For transfers the primary
// account is the source and the counterpart account is credited.
func apply(ctx context.Context, tx *storage.Tx, txn core.Transaction) error {
	if err := tx.AdjustBalance(ctx, txn.AccountID, balanceEffect(txn.Type, txn.Amount)); err != nil {
		return err
	}
	if txn.Type == core.TransactionTransfer {
		return tx.AdjustBalance(ctx, txn.TransferToAccountID, txn.Amount)
	}
	return nil
}

// reverse undoes apply for the stored transaction.
func reverse(ctx context.Context, tx *storage.Tx, txn core.Transaction) error {
	if err := tx.AdjustBalance(ctx, txn.AccountID, balanceEffect(txn.Type, txn.Amount).Neg()); err != nil {
		return err
	}
	if txn.Type == core.TransactionTransfer {
		return tx.AdjustBalance(ctx, txn.TransferToAccountID, txn.Amount.Neg())
	}
	return nil
}

// Post validates a draft and records it, updating the affected balances.
func (s *LedgerService) Post(ctx context.Context, ownerID string, draft core.TransactionDraft) (core.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, err
	}

	now := time.Now().UTC()
	txn := core.Transaction{
		OwnerID:               ownerID,
		AccountID:             draft.AccountID,
		CategoryID:            draft.CategoryID,
		Type:                  draft.Type,
		Amount:                draft.Amount,
		Date:                  draft.Date,
		Description:           draft.Description,
		Notes:                 draft.Notes,
		Tags:                  draft.Tags,
		IsRecurring:           draft.IsRecurring,
		RecurringFrequency:    draft.RecurringFrequency,
		TransferFromAccountID: draft.TransferFromAccountID,
		TransferToAccountID:   draft.TransferToAccountID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	// A transfer's primary account is its source leg.
	if txn.Type == core.TransactionTransfer {
		txn.AccountID = draft.TransferFromAccountID
	}
	if txn.AccountID == "" {
		return core.Transaction{}, core.ErrInvalidType
	}
	txn.ID = storage.NewID()

	err := s.storage.WithTx(ctx, func(tx *storage.Tx) error {
		if err := tx.AccountOwned(ctx, ownerID, txn.AccountID); err != nil {
			return err
		}
		if txn.Type == core.TransactionTransfer {
			if err := tx.AccountOwned(ctx, ownerID, txn.TransferToAccountID); err != nil {
				return err
			}
		}
		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}
		return apply(ctx, tx, txn)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("post transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction posted",
		"id", txn.ID,
		"type", txn.Type,
		"amount_cents", txn.Amount.Cents)
	return txn, nil
}

// Amend rewrites a stored transaction. The stored balance effect is reversed
// and the amended one applied, in the same SQL transaction, so the cached
// balances stay consistent no matter which fields changed.
func (s *LedgerService) Amend(ctx context.Context, ownerID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	var amended core.Transaction

	err := s.storage.WithTx(ctx, func(tx *storage.Tx) error {
		stored, err := tx.GetTransaction(ctx, ownerID, id)
		if err != nil {
			return err
		}

		amended = stored
		if patch.AccountID != nil {
			amended.AccountID = *patch.AccountID
			// A transfer's primary account is its source leg.
			if stored.Type == core.TransactionTransfer {
				amended.TransferFromAccountID = *patch.AccountID
			}
		}
		if patch.CategoryID != nil {
			amended.CategoryID = *patch.CategoryID
		}
		if patch.Type != nil {
			amended.Type = *patch.Type
		}
		if patch.Amount != nil {
			amended.Amount = *patch.Amount
		}
		if patch.Date != nil {
			amended.Date = *patch.Date
		}
		if patch.Description != nil {
			amended.Description = *patch.Description
		}
		if patch.Notes != nil {
			amended.Notes = *patch.Notes
		}
		if patch.Tags != nil {
			amended.Tags = *patch.Tags
		}
		amended.UpdatedAt = time.Now().UTC()

		// An amend cannot move a transaction into or out of the transfer
		// shape; that requires a retract plus a fresh post.
		if (stored.Type == core.TransactionTransfer) != (amended.Type == core.TransactionTransfer) {
			return core.ErrTransferTypeChange
		}
		if err := validateAmended(amended); err != nil {
			return err
		}
		if amended.AccountID != stored.AccountID {
			if err := tx.AccountOwned(ctx, ownerID, amended.AccountID); err != nil {
				return err
			}
		}

		if err := reverse(ctx, tx, stored); err != nil {
			return err
		}
		if err := tx.UpdateTransaction(ctx, amended); err != nil {
			return err
		}
		return apply(ctx, tx, amended)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction amended", "id", id)
	return amended, nil
}

// Retract deletes a transaction and reverses its balance effect.
func (s *LedgerService) Retract(ctx context.Context, ownerID, id string) error {
	err := s.storage.WithTx(ctx, func(tx *storage.Tx) error {
		stored, err := tx.GetTransaction(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, ownerID, id); err != nil {
			return err
		}
		return reverse(ctx, tx, stored)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction retracted", "id", id)
	return nil
}

func (s *LedgerService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, ownerID, id)
}

func (s *LedgerService) List(ctx context.Context, ownerID string, f storage.TransactionFilter) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, ownerID, f)
}

func validateAmended(txn core.Transaction) error {
	draft := core.TransactionDraft{
		AccountID:             txn.AccountID,
		CategoryID:            txn.CategoryID,
		Type:                  txn.Type,
		Amount:                txn.Amount,
		Date:                  txn.Date,
		Description:           txn.Description,
		TransferFromAccountID: txn.TransferFromAccountID,
		TransferToAccountID:   txn.TransferToAccountID,
	}
	return draft.Validate()
}

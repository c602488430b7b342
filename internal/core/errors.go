package core

import "errors"

var (
	// ErrNotFound covers both a missing record and a record owned by
	// someone other than the acting owner. The two cases are deliberately
	// indistinguishable to callers.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned when an operation is attempted without an
	// acting owner.
	ErrUnauthorized = errors.New("no authenticated owner")

	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyName            = errors.New("empty name")
	ErrEmptyDescription     = errors.New("empty description")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidType          = errors.New("invalid type")
	ErrInvalidPeriod        = errors.New("invalid budget period")
	ErrSameTransferAccount  = errors.New("transfer source and destination must differ")
	ErrMissingTransferLegs  = errors.New("transfer requires both source and destination accounts")
	ErrTransferTypeChange   = errors.New("transaction type cannot change to or from transfer")
	ErrTransferFieldsSet    = errors.New("transfer accounts only apply to transfer transactions")
	ErrTransferCategorized  = errors.New("transfers cannot be categorized")
	ErrCategoryInUse        = errors.New("category is referenced by a budget")
)

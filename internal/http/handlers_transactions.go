package http

import (
	"net/http"
	"strconv"
	"time"

	"saldo/internal/core"
	"saldo/internal/storage"
)

type transactionView struct {
	ID                    string    `json:"id"`
	AccountID             string    `json:"accountId"`
	CategoryID            string    `json:"categoryId,omitempty"`
	Type                  string    `json:"type"`
	Amount                string    `json:"amount"`
	Date                  string    `json:"date"`
	Description           string    `json:"description"`
	Notes                 string    `json:"notes,omitempty"`
	Tags                  string    `json:"tags,omitempty"`
	IsRecurring           bool      `json:"isRecurring,omitempty"`
	RecurringFrequency    string    `json:"recurringFrequency,omitempty"`
	TransferFromAccountID string    `json:"transferFromAccountId,omitempty"`
	TransferToAccountID   string    `json:"transferToAccountId,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func toTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:                    t.ID,
		AccountID:             t.AccountID,
		CategoryID:            t.CategoryID,
		Type:                  string(t.Type),
		Amount:                t.Amount.String(),
		Date:                  t.Date.Format("2006-01-02"),
		Description:           t.Description,
		Notes:                 t.Notes,
		Tags:                  t.Tags,
		IsRecurring:           t.IsRecurring,
		RecurringFrequency:    t.RecurringFrequency,
		TransferFromAccountID: t.TransferFromAccountID,
		TransferToAccountID:   t.TransferToAccountID,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}

type postTransactionRequest struct {
	AccountID             string `json:"accountId"`
	CategoryID            string `json:"categoryId"`
	Type                  string `json:"type"`
	Amount                string `json:"amount"`
	Date                  string `json:"date"`
	Description           string `json:"description"`
	Notes                 string `json:"notes"`
	Tags                  string `json:"tags"`
	IsRecurring           bool   `json:"isRecurring"`
	RecurringFrequency    string `json:"recurringFrequency"`
	TransferFromAccountID string `json:"transferFromAccountId"`
	TransferToAccountID   string `json:"transferToAccountId"`
}

func (s *Server) handlePostTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req postTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txn, err := s.ledger.Post(r.Context(), owner, core.TransactionDraft{
		AccountID:             req.AccountID,
		CategoryID:            req.CategoryID,
		Type:                  core.TransactionType(req.Type),
		Amount:                amount,
		Date:                  date,
		Description:           req.Description,
		Notes:                 req.Notes,
		Tags:                  req.Tags,
		IsRecurring:           req.IsRecurring,
		RecurringFrequency:    req.RecurringFrequency,
		TransferFromAccountID: req.TransferFromAccountID,
		TransferToAccountID:   req.TransferToAccountID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.purgeOwner(owner)
	writeJSON(w, http.StatusCreated, toTransactionView(txn))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txn, err := s.ledger.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionView(txn))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter, err := transactionFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txns, err := s.ledger.List(r.Context(), owner, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]transactionView, 0, len(txns))
	for _, t := range txns {
		views = append(views, toTransactionView(t))
	}
	writeJSON(w, http.StatusOK, views)
}

func transactionFilterFromQuery(r *http.Request) (storage.TransactionFilter, error) {
	q := r.URL.Query()
	f := storage.TransactionFilter{
		AccountID:  q.Get("accountId"),
		CategoryID: q.Get("categoryId"),
		Type:       core.TransactionType(q.Get("type")),
	}

	var err error
	if f.From, err = parseDate(q.Get("from")); err != nil {
		return storage.TransactionFilter{}, err
	}
	if f.To, err = parseDate(q.Get("to")); err != nil {
		return storage.TransactionFilter{}, err
	}
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit < 0 {
			return storage.TransactionFilter{}, errBadRequest
		}
	}
	if v := q.Get("offset"); v != "" {
		if f.Offset, err = strconv.Atoi(v); err != nil || f.Offset < 0 {
			return storage.TransactionFilter{}, errBadRequest
		}
	}
	return f, nil
}

type amendTransactionRequest struct {
	AccountID   *string `json:"accountId"`
	CategoryID  *string `json:"categoryId"`
	Type        *string `json:"type"`
	Amount      *string `json:"amount"`
	Date        *string `json:"date"`
	Description *string `json:"description"`
	Notes       *string `json:"notes"`
	Tags        *string `json:"tags"`
}

func (s *Server) handleAmendTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req amendTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := core.TransactionPatch{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Notes:       req.Notes,
		Tags:        req.Tags,
	}
	if req.Type != nil {
		t := core.TransactionType(*req.Type)
		patch.Type = &t
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Amount = &amount
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Date = &date
	}

	txn, err := s.ledger.Amend(r.Context(), owner, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.purgeOwner(owner)
	writeJSON(w, http.StatusOK, toTransactionView(txn))
}

func (s *Server) handleRetractTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.ledger.Retract(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	s.purgeOwner(owner)
	w.WriteHeader(http.StatusNoContent)
}

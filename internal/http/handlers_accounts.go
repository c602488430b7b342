package http

import (
	"net/http"
	"time"

	"saldo/internal/core"
)

type accountView struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Currency       string    `json:"currency"`
	Balance        string    `json:"balance"`
	InitialBalance string    `json:"initialBalance"`
	IsActive       bool      `json:"isActive"`
	Color          string    `json:"color,omitempty"`
	Icon           string    `json:"icon,omitempty"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toAccountView(a core.Account) accountView {
	return accountView{
		ID:             a.ID,
		Name:           a.Name,
		Type:           string(a.Type),
		Currency:       a.Currency,
		Balance:        a.Balance.String(),
		InitialBalance: a.InitialBalance.String(),
		IsActive:       a.IsActive,
		Color:          a.Color,
		Icon:           a.Icon,
		Description:    a.Description,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

type createAccountRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Currency       string `json:"currency"`
	InitialBalance string `json:"initialBalance"`
	Color          string `json:"color"`
	Icon           string `json:"icon"`
	Description    string `json:"description"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var initial core.Money
	if req.InitialBalance != "" {
		initial, err = parseAmount(req.InitialBalance)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	account, err := s.accounts.Create(r.Context(), owner, core.Account{
		Name:           req.Name,
		Type:           core.AccountType(req.Type),
		Currency:       req.Currency,
		InitialBalance: initial,
		IsActive:       true,
		Color:          req.Color,
		Icon:           req.Icon,
		Description:    req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.purgeOwner(owner)
	writeJSON(w, http.StatusCreated, toAccountView(account))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	account, err := s.accounts.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountView(account))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	accounts, err := s.accounts.List(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, toAccountView(a))
	}
	writeJSON(w, http.StatusOK, views)
}

type updateAccountRequest struct {
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	Currency    *string `json:"currency"`
	IsActive    *bool   `json:"isActive"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
	Description *string `json:"description"`
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := core.AccountPatch{
		Name:        req.Name,
		Currency:    req.Currency,
		IsActive:    req.IsActive,
		Color:       req.Color,
		Icon:        req.Icon,
		Description: req.Description,
	}
	if req.Type != nil {
		t := core.AccountType(*req.Type)
		patch.Type = &t
	}

	account, err := s.accounts.Update(r.Context(), owner, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.purgeOwner(owner)
	writeJSON(w, http.StatusOK, toAccountView(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.accounts.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	s.purgeOwner(owner)
	w.WriteHeader(http.StatusNoContent)
}

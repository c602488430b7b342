package http

import (
	"net/http"
	"time"

	"saldo/internal/core"
)

type budgetView struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"categoryId"`
	Name       string    `json:"name"`
	Amount     string    `json:"amount"`
	Period     string    `json:"period"`
	StartDate  string    `json:"startDate"`
	EndDate    string    `json:"endDate,omitempty"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toBudgetView(b core.Budget) budgetView {
	v := budgetView{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Name:       b.Name,
		Amount:     b.Amount.String(),
		Period:     string(b.Period),
		StartDate:  b.StartDate.Format("2006-01-02"),
		IsActive:   b.IsActive,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
	if !b.EndDate.IsZero() {
		v.EndDate = b.EndDate.Format("2006-01-02")
	}
	return v
}

type createBudgetRequest struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Period     string `json:"period"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	budget, err := s.budgets.Create(r.Context(), owner, core.Budget{
		CategoryID: req.CategoryID,
		Name:       req.Name,
		Amount:     amount,
		Period:     core.BudgetPeriod(req.Period),
		StartDate:  start,
		EndDate:    end,
		IsActive:   true,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.purgeOwner(owner)
	writeJSON(w, http.StatusCreated, toBudgetView(budget))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	budget, err := s.budgets.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetView(budget))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	budgets, err := s.budgets.List(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]budgetView, 0, len(budgets))
	for _, b := range budgets {
		views = append(views, toBudgetView(b))
	}
	writeJSON(w, http.StatusOK, views)
}

type updateBudgetRequest struct {
	CategoryID *string `json:"categoryId"`
	Name       *string `json:"name"`
	Amount     *string `json:"amount"`
	Period     *string `json:"period"`
	StartDate  *string `json:"startDate"`
	EndDate    *string `json:"endDate"`
	IsActive   *bool   `json:"isActive"`
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := core.BudgetPatch{
		CategoryID: req.CategoryID,
		Name:       req.Name,
		IsActive:   req.IsActive,
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Amount = &amount
	}
	if req.Period != nil {
		p := core.BudgetPeriod(*req.Period)
		patch.Period = &p
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.EndDate = &end
	}

	budget, err := s.budgets.Update(r.Context(), owner, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.purgeOwner(owner)
	writeJSON(w, http.StatusOK, toBudgetView(budget))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.budgets.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	s.purgeOwner(owner)
	w.WriteHeader(http.StatusNoContent)
}

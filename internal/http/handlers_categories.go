package http

import (
	"net/http"
	"time"

	"saldo/internal/core"
)

type categoryView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Color       string    `json:"color,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toCategoryView(c core.Category) categoryView {
	return categoryView{
		ID:          c.ID,
		Name:        c.Name,
		Type:        string(c.Type),
		Color:       c.Color,
		Icon:        c.Icon,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	category, err := s.categories.Create(r.Context(), owner, core.Category{
		Name:        req.Name,
		Type:        core.CategoryType(req.Type),
		Color:       req.Color,
		Icon:        req.Icon,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.purgeOwner(owner)
	writeJSON(w, http.StatusCreated, toCategoryView(category))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	category, err := s.categories.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryView(category))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	categories, err := s.categories.List(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, toCategoryView(c))
	}
	writeJSON(w, http.StatusOK, views)
}

type updateCategoryRequest struct {
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
	Description *string `json:"description"`
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := core.CategoryPatch{
		Name:        req.Name,
		Color:       req.Color,
		Icon:        req.Icon,
		Description: req.Description,
	}
	if req.Type != nil {
		t := core.CategoryType(*req.Type)
		patch.Type = &t
	}

	category, err := s.categories.Update(r.Context(), owner, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.purgeOwner(owner)
	writeJSON(w, http.StatusOK, toCategoryView(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.categories.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	s.purgeOwner(owner)
	w.WriteHeader(http.StatusNoContent)
}

package services

import (
	"context"

	"saldo/internal/core"
	"saldo/internal/storage"
)

// CategoryService handles category CRUD.
type CategoryService struct {
	storage *storage.SQLiteRepository
}

func NewCategoryService(storage *storage.SQLiteRepository) *CategoryService {
	return &CategoryService{storage: storage}
}

func (s *CategoryService) Create(ctx context.Context, ownerID string, c core.Category) (core.Category, error) {
	c.OwnerID = ownerID
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	return s.storage.CreateCategory(ctx, c)
}

func (s *CategoryService) Get(ctx context.Context, ownerID, id string) (core.Category, error) {
	return s.storage.GetCategory(ctx, ownerID, id)
}

func (s *CategoryService) List(ctx context.Context, ownerID string) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, ownerID)
}

func (s *CategoryService) Update(ctx context.Context, ownerID, id string, p core.CategoryPatch) (core.Category, error) {
	if p.Type != nil && !p.Type.Valid() {
		return core.Category{}, core.ErrInvalidType
	}
	if p.Name != nil && *p.Name == "" {
		return core.Category{}, core.ErrEmptyName
	}
	return s.storage.UpdateCategory(ctx, ownerID, id, p)
}

func (s *CategoryService) Delete(ctx context.Context, ownerID, id string) error {
	return s.storage.DeleteCategory(ctx, ownerID, id)
}

package services

import (
	"context"
	"errors"
	"fmt"

	"estoque/internal/models"
	"estoque/internal/repositories"
)

// CategoryService handles business logic for the category tree.
type CategoryService struct {
	repo repositories.CategoryRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{
		repo: repo,
	}
}

// CreateCategory creates a category, validating the parent when given.
func (s *CategoryService) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ParentID != nil {
		if _, err := s.repo.GetByID(ctx, *category.ParentID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: parent %s", ErrCategoryNotFound, *category.ParentID)
			}
			return err
		}
	}
	category.IsActive = true
	return s.repo.Create(ctx, category)
}

// ListCategories returns categories flat, or as roots with children when
// hierarchical is set.
func (s *CategoryService) ListCategories(ctx context.Context, hierarchical, includeInactive bool) ([]models.Category, error) {
	if hierarchical {
		return s.repo.ListRoots(ctx, includeInactive)
	}
	return s.repo.List(ctx, includeInactive)
}

// GetCategoryByID retrieves a category with its parent, children and products.
func (s *CategoryService) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
		}
		return nil, err
	}
	return category, nil
}

// UpdateCategoryInput carries the optional fields for a category update.
type UpdateCategoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ParentID    *string `json:"parent_id"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateCategory applies a partial update. A category can never become its
// own parent.
func (s *CategoryService) UpdateCategory(ctx context.Context, id string, in UpdateCategoryInput) (*models.Category, error) {
	category, err := s.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		if *in.ParentID == id {
			return nil, fmt.Errorf("%w: %s", ErrCategoryOwnParent, id)
		}
		if _, err := s.repo.GetByID(ctx, *in.ParentID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: parent %s", ErrCategoryNotFound, *in.ParentID)
			}
			return nil, err
		}
		category.ParentID = in.ParentID
		category.Parent = nil
	}
	if in.Name != nil {
		category.Name = *in.Name
	}
	if in.Description != nil {
		category.Description = *in.Description
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}
	category.Children = nil
	category.Products = nil

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	return s.GetCategoryByID(ctx, id)
}

// DeleteCategory removes a category. Categories that still hold products or
// subcategories are deactivated instead of deleted.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) (deactivated bool, err error) {
	category, err := s.GetCategoryByID(ctx, id)
	if err != nil {
		return false, err
	}

	hasDependents, err := s.repo.HasDependents(ctx, id)
	if err != nil {
		return false, err
	}
	if hasDependents {
		category.IsActive = false
		category.Children = nil
		category.Products = nil
		category.Parent = nil
		return true, s.repo.Update(ctx, category)
	}
	return false, s.repo.Delete(ctx, id)
}

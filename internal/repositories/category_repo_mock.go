package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"estoque/internal/models"

	"github.com/google/uuid"
)

// MockCategoryRepository is an in-memory implementation of CategoryRepository.
type MockCategoryRepository struct {
	categories map[string]models.Category
	productIDs map[string][]string // categoryID -> product IDs, for dependents
	mu         sync.RWMutex
}

// NewMockCategoryRepository creates a new instance of MockCategoryRepository.
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		categories: make(map[string]models.Category),
		productIDs: make(map[string][]string),
	}
}

// List returns categories flat.
func (r *MockCategoryRepository) List(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []models.Category
	for _, c := range r.categories {
		if !includeInactive && !c.IsActive {
			continue
		}
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// ListRoots returns root categories with children attached.
func (r *MockCategoryRepository) ListRoots(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var roots []models.Category
	for _, c := range r.categories {
		if c.ParentID != nil {
			continue
		}
		if !includeInactive && !c.IsActive {
			continue
		}
		for _, child := range r.categories {
			if child.ParentID != nil && *child.ParentID == c.ID {
				c.Children = append(c.Children, child)
			}
		}
		roots = append(roots, c)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Name < roots[j].Name })
	return roots, nil
}

// GetByID returns a category by its ID.
func (r *MockCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category, ok := r.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return &category, nil
}

// Create adds a new category.
func (r *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	r.categories[category.ID] = *category
	return nil
}

// Update modifies an existing category.
func (r *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[category.ID]; !ok {
		return fmt.Errorf("category %s: %w", category.ID, ErrNotFound)
	}
	r.categories[category.ID] = *category
	return nil
}

// Delete removes a category by its ID.
func (r *MockCategoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	delete(r.categories, id)
	return nil
}

// HasDependents reports whether the category has products or children.
func (r *MockCategoryRepository) HasDependents(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.productIDs[id]) > 0 {
		return true, nil
	}
	for _, c := range r.categories {
		if c.ParentID != nil && *c.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}

// AttachProduct records a product under the category, for HasDependents.
func (r *MockCategoryRepository) AttachProduct(categoryID, productID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.productIDs[categoryID] = append(r.productIDs[categoryID], productID)
}

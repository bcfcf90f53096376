package repositories

import (
	"context"

	"estoque/internal/models"
)

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	// List returns categories, flat. Inactive categories are filtered out
	// unless includeInactive is set.
	List(ctx context.Context, includeInactive bool) ([]models.Category, error)
	// ListRoots returns root categories with children preloaded.
	ListRoots(ctx context.Context, includeInactive bool) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
	// HasDependents reports whether the category still has products or
	// child categories attached.
	HasDependents(ctx context.Context, id string) (bool, error)
}

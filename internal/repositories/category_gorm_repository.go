package repositories

import (
	"context"
	"errors"
	"fmt"

	"estoque/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

// NewGORMCategoryRepository creates a new instance of GORMCategoryRepository.
func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{
		db: db,
	}
}

// List returns categories flat, parent preloaded.
func (r *GORMCategoryRepository) List(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	query := conn(ctx, r.db).Model(&models.Category{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var categories []models.Category
	if err := query.Preload("Parent").Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// ListRoots returns root categories with two levels of children preloaded.
func (r *GORMCategoryRepository) ListRoots(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	query := conn(ctx, r.db).Model(&models.Category{}).Where("parent_id IS NULL")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var categories []models.Category
	if err := query.Preload("Children.Children").Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list root categories: %w", err)
	}
	return categories, nil
}

// GetByID retrieves a category with its parent, children and active products.
func (r *GORMCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	err := conn(ctx, r.db).
		Preload("Parent").
		Preload("Children").
		Preload("Products", "is_active = ?", true).
		First(&category, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category by ID %s: %w", id, err)
	}
	return &category, nil
}

// Create creates a new category.
func (r *GORMCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if err := conn(ctx, r.db).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// Update updates an existing category.
func (r *GORMCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	res := conn(ctx, r.db).Save(category)
	if res.Error != nil {
		return fmt.Errorf("failed to update category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category %s: %w", category.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a category by its ID.
func (r *GORMCategoryRepository) Delete(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return nil
}

// HasDependents reports whether the category still has products or children.
func (r *GORMCategoryRepository) HasDependents(ctx context.Context, id string) (bool, error) {
	var products int64
	if err := conn(ctx, r.db).Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
		return false, fmt.Errorf("failed to count products for category %s: %w", id, err)
	}
	if products > 0 {
		return true, nil
	}

	var children int64
	if err := conn(ctx, r.db).Model(&models.Category{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
		return false, fmt.Errorf("failed to count children for category %s: %w", id, err)
	}
	return children > 0, nil
}

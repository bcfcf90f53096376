package repositories

import (
	"context"
	"errors"
	"fmt"

	"estoque/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// List retrieves products matching the filter plus the unpaginated total.
func (r *GORMProductRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	query := conn(ctx, r.db).Model(&models.Product{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("code LIKE ? OR title LIKE ?", pattern, pattern)
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	if filter.Limit > 0 {
		query = query.Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit)
	}

	var products []models.Product
	if err := query.Preload("Category").Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := conn(ctx, r.db).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetByCode retrieves a single product by its unique code.
func (r *GORMProductRepository) GetByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	if err := conn(ctx, r.db).Preload("Category").First(&product, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product code %s: %w", code, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by code %s: %w", code, err)
	}
	return &product, nil
}

// ExistsByCode reports whether a product with the given code exists.
func (r *GORMProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.Product{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check product code %s: %w", code, err)
	}
	return count > 0, nil
}

// Create creates a new product.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := conn(ctx, r.db).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := conn(ctx, r.db).Save(product) // Save updates all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a product by its ID.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// DecrementStock subtracts qty guarded against going negative. The WHERE
// clause is the oversell backstop under concurrent writers: zero affected
// rows means the stock moved underneath us and the caller must abort.
func (r *GORMProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	res := conn(ctx, r.db).Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", id, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock for product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrStockConflict)
	}
	return nil
}

// IncrementStock adds qty back to the product's quantity.
func (r *GORMProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	res := conn(ctx, r.db).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to increment stock for product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetQuantity overwrites the product's quantity.
func (r *GORMProductRepository) SetQuantity(ctx context.Context, id string, qty int) error {
	res := conn(ctx, r.db).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("quantity", qty)
	if res.Error != nil {
		return fmt.Errorf("failed to set quantity for product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// LowStock lists active products under their own reorder threshold.
func (r *GORMProductRepository) LowStock(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := conn(ctx, r.db).
		Where("is_active = ?", true).
		Where("quantity = 0 OR quantity < min_stock").
		Preload("Category").
		Order("quantity ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	return products, nil
}

// CriticalStock lists products under the global critical threshold.
func (r *GORMProductRepository) CriticalStock(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	query := conn(ctx, r.db).
		Where("quantity = 0 OR quantity < ?", models.CriticalStockThreshold).
		Preload("Category").
		Order("quantity ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list critical stock products: %w", err)
	}
	return products, nil
}

// Count returns the total number of products.
func (r *GORMProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// HasSaleHistory reports whether any sale item references the product.
func (r *GORMProductRepository) HasSaleHistory(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.SaleItem{}).Where("product_id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check sale history for product %s: %w", id, err)
	}
	return count > 0, nil
}

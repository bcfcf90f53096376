package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estoque/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMSaleRepository is a GORM implementation of SaleRepository.
type GORMSaleRepository struct {
	db *gorm.DB
}

// NewGORMSaleRepository creates a new instance of GORMSaleRepository.
func NewGORMSaleRepository(db *gorm.DB) *GORMSaleRepository {
	return &GORMSaleRepository{
		db: db,
	}
}

// List retrieves sales matching the filter plus the unpaginated total.
func (r *GORMSaleRepository) List(ctx context.Context, filter SaleFilter) ([]models.Sale, int64, error) {
	query := conn(ctx, r.db).Model(&models.Sale{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("code LIKE ? OR customer LIKE ?", pattern, pattern)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		query = query.Where("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("date <= ?", *filter.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}

	if filter.Limit > 0 {
		query = query.Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit)
	}

	var sales []models.Sale
	if err := query.Preload("Items.Product").Order("date DESC").Find(&sales).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, total, nil
}

// ListBetween returns every sale in the date window with items preloaded.
func (r *GORMSaleRepository) ListBetween(ctx context.Context, start, end *time.Time) ([]models.Sale, error) {
	query := conn(ctx, r.db).Model(&models.Sale{})
	if start != nil {
		query = query.Where("date >= ?", *start)
	}
	if end != nil {
		query = query.Where("date <= ?", *end)
	}

	var sales []models.Sale
	if err := query.Preload("Items.Product.Category").Order("date DESC").Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("failed to list sales by date: %w", err)
	}
	return sales, nil
}

// GetByID retrieves a single sale with its items by ID.
func (r *GORMSaleRepository) GetByID(ctx context.Context, id string) (*models.Sale, error) {
	var sale models.Sale
	if err := conn(ctx, r.db).Preload("Items.Product.Category").First(&sale, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sale %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get sale by ID %s: %w", id, err)
	}
	return &sale, nil
}

// GetByCode retrieves a single sale with its items by its unique code.
func (r *GORMSaleRepository) GetByCode(ctx context.Context, code string) (*models.Sale, error) {
	var sale models.Sale
	if err := conn(ctx, r.db).Preload("Items.Product.Category").First(&sale, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sale code %s: %w", code, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get sale by code %s: %w", code, err)
	}
	return &sale, nil
}

// ExistsByCode reports whether a sale with the given code exists.
func (r *GORMSaleRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.Sale{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check sale code %s: %w", code, err)
	}
	return count > 0, nil
}

// Create persists the sale header together with its items in one insert chain.
func (r *GORMSaleRepository) Create(ctx context.Context, sale *models.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	for i := range sale.Items {
		if sale.Items[i].ID == "" {
			sale.Items[i].ID = uuid.New().String()
		}
		sale.Items[i].SaleID = sale.ID
	}
	if err := conn(ctx, r.db).Create(sale).Error; err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

// UpdateStatus updates the status of a sale.
func (r *GORMSaleRepository) UpdateStatus(ctx context.Context, id string, status models.SaleStatus) error {
	res := conn(ctx, r.db).Model(&models.Sale{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status for sale %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("sale %s: %w", id, ErrNotFound)
	}
	return nil
}

// Count returns the total number of sales.
func (r *GORMSaleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.Sale{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return count, nil
}

// CountByStatus returns the number of sales with the given status.
func (r *GORMSaleRepository) CountByStatus(ctx context.Context, status models.SaleStatus) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.Sale{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count sales by status %s: %w", status, err)
	}
	return count, nil
}

// RevenueTotal sums the total values of all non-cancelled sales.
func (r *GORMSaleRepository) RevenueTotal(ctx context.Context) (float64, error) {
	var total float64
	err := conn(ctx, r.db).Model(&models.Sale{}).
		Where("status <> ?", models.StatusCancelled).
		Select("COALESCE(SUM(total_value), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return total, nil
}

// Recent returns the most recently created sales.
func (r *GORMSaleRepository) Recent(ctx context.Context, limit int) ([]models.Sale, error) {
	var sales []models.Sale
	err := conn(ctx, r.db).
		Preload("Items.Product").
		Order("created_at DESC").
		Limit(limit).
		Find(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent sales: %w", err)
	}
	return sales, nil
}

// TopProducts aggregates sale items by product, ordered by quantity sold.
func (r *GORMSaleRepository) TopProducts(ctx context.Context, limit int) ([]ProductSalesTotal, error) {
	var totals []ProductSalesTotal
	err := conn(ctx, r.db).Model(&models.SaleItem{}).
		Select("product_id, SUM(quantity) AS quantity").
		Group("product_id").
		Order("quantity DESC").
		Limit(limit).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top products: %w", err)
	}
	return totals, nil
}

// DistinctCustomers counts unique customer names across all sales.
func (r *GORMSaleRepository) DistinctCustomers(ctx context.Context) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Sale{}).
		Distinct("customer").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct customers: %w", err)
	}
	return count, nil
}

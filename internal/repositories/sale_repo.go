package repositories

import (
	"context"
	"time"

	"estoque/internal/models"
)

// SaleFilter narrows and paginates sale listings.
type SaleFilter struct {
	Search    string
	Status    models.SaleStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// ProductSalesTotal is an aggregation row: total quantity sold per product.
type ProductSalesTotal struct {
	ProductID string
	Quantity  int
}

// SaleRepository defines the interface for sale data access. All methods
// participate in an ambient transaction when called through a TxManager.
type SaleRepository interface {
	List(ctx context.Context, filter SaleFilter) ([]models.Sale, int64, error)
	// ListBetween returns every sale in the half-open date window, items and
	// products preloaded. Nil bounds are unbounded.
	ListBetween(ctx context.Context, start, end *time.Time) ([]models.Sale, error)
	GetByID(ctx context.Context, id string) (*models.Sale, error)
	GetByCode(ctx context.Context, code string) (*models.Sale, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// Create persists the sale header together with its items.
	Create(ctx context.Context, sale *models.Sale) error
	UpdateStatus(ctx context.Context, id string, status models.SaleStatus) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status models.SaleStatus) (int64, error)
	// RevenueTotal sums total values of all non-cancelled sales.
	RevenueTotal(ctx context.Context) (float64, error)
	Recent(ctx context.Context, limit int) ([]models.Sale, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSalesTotal, error)
	DistinctCustomers(ctx context.Context) (int64, error)
}

package repositories

import (
	"context"

	"estoque/internal/models"
)

// ProductFilter narrows and paginates product listings.
type ProductFilter struct {
	Search     string
	CategoryID string
	IsActive   *bool
	Page       int
	Limit      int
}

// ProductRepository defines the interface for product data access. All methods
// participate in an ambient transaction when called through a TxManager.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetByCode(ctx context.Context, code string) (*models.Product, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	// DecrementStock atomically subtracts qty, refusing to go negative.
	DecrementStock(ctx context.Context, id string, qty int) error
	IncrementStock(ctx context.Context, id string, qty int) error
	SetQuantity(ctx context.Context, id string, qty int) error
	// LowStock lists active products under their own reorder threshold.
	LowStock(ctx context.Context) ([]models.Product, error)
	// CriticalStock lists products under the global critical threshold.
	CriticalStock(ctx context.Context, limit int) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
	HasSaleHistory(ctx context.Context, id string) (bool, error)
}

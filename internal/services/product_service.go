package services

import (
	"context"
	"errors"
	"fmt"

	"estoque/internal/models"
	"estoque/internal/repositories"
)

// StockOperation selects how UpdateStock applies the quantity.
type StockOperation string

const (
	StockAdd      StockOperation = "ADD"
	StockSubtract StockOperation = "SUBTRACT"
	StockSet      StockOperation = "SET"
)

// ProductService handles business logic related to products and stock.
type ProductService struct {
	repo         repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, categoryRepo repositories.CategoryRepository) *ProductService {
	return &ProductService{
		repo:         repo,
		categoryRepo: categoryRepo,
	}
}

// ListProducts retrieves products matching the filter with pagination.
func (s *ProductService) ListProducts(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, Pagination{}, err
	}
	return products, paginate(filter.Page, filter.Limit, total), nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return nil, err
	}
	return product, nil
}

// GetProductByCode retrieves a single product by its unique code.
func (s *ProductService) GetProductByCode(ctx context.Context, code string) (*models.Product, error) {
	product, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: code %s", ErrProductNotFound, code)
		}
		return nil, err
	}
	return product, nil
}

// CreateProduct creates a new product after checking that its category exists
// and its code is not taken.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if _, err := s.categoryRepo.GetByID(ctx, product.CategoryID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, product.CategoryID)
		}
		return err
	}

	exists, err := s.repo.ExistsByCode(ctx, product.Code)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: product code %s", ErrDuplicateCode, product.Code)
	}

	product.IsActive = true
	return s.repo.Create(ctx, product)
}

// UpdateProductInput carries the optional fields for a product update.
// Nil fields are left untouched.
type UpdateProductInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	CategoryID  *string  `json:"category_id"`
	Quantity    *int     `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	SalePrice   *float64 `json:"sale_price"`
	MinStock    *int     `json:"min_stock"`
	IsActive    *bool    `json:"is_active"`
}

// UpdateProduct applies a partial update to an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, in UpdateProductInput) (*models.Product, error) {
	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, *in.CategoryID)
			}
			return nil, err
		}
		product.CategoryID = *in.CategoryID
		product.Category = nil
	}
	if in.Title != nil {
		product.Title = *in.Title
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidInput)
		}
		product.Quantity = *in.Quantity
	}
	if in.UnitPrice != nil {
		product.UnitPrice = *in.UnitPrice
	}
	if in.SalePrice != nil {
		product.SalePrice = *in.SalePrice
	}
	if in.MinStock != nil {
		product.MinStock = *in.MinStock
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return s.GetProductByID(ctx, id)
}

// DeleteProduct removes a product. Products referenced by sale items are
// deactivated instead of deleted so sale history stays intact.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (deactivated bool, err error) {
	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return false, err
	}

	hasHistory, err := s.repo.HasSaleHistory(ctx, id)
	if err != nil {
		return false, err
	}
	if hasHistory {
		product.IsActive = false
		return true, s.repo.Update(ctx, product)
	}
	return false, s.repo.Delete(ctx, id)
}

// UpdateStock applies a direct stock adjustment. SUBTRACT refuses to go
// negative. The returned warning is non-fatal and set when the resulting
// quantity sits at or under the product's own minimum.
func (s *ProductService) UpdateStock(ctx context.Context, id string, quantity int, op StockOperation) (*models.Product, string, error) {
	if quantity < 0 {
		return nil, "", fmt.Errorf("%w: quantity cannot be negative", ErrInvalidInput)
	}
	if op == "" {
		op = StockSet
	}

	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	var newQuantity int
	switch op {
	case StockAdd:
		newQuantity = product.Quantity + quantity
		err = s.repo.IncrementStock(ctx, id, quantity)
	case StockSubtract:
		newQuantity = product.Quantity - quantity
		if newQuantity < 0 {
			return nil, "", fmt.Errorf("%w for product %s (requested: %d, available: %d)",
				ErrInsufficientStock, product.Title, quantity, product.Quantity)
		}
		err = s.repo.DecrementStock(ctx, id, quantity)
		if errors.Is(err, repositories.ErrStockConflict) {
			err = fmt.Errorf("%w for product %s", ErrInsufficientStock, product.Title)
		}
	case StockSet:
		newQuantity = quantity
		err = s.repo.SetQuantity(ctx, id, quantity)
	default:
		return nil, "", fmt.Errorf("%w: unknown stock operation %q", ErrInvalidInput, op)
	}
	if err != nil {
		return nil, "", err
	}

	product.Quantity = newQuantity
	var warning string
	if newQuantity <= product.MinStock {
		warning = fmt.Sprintf("stock at or below minimum (%d)", product.MinStock)
	}
	return product, warning, nil
}

// LowStockProducts lists active products under their own reorder threshold.
func (s *ProductService) LowStockProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.LowStock(ctx)
}

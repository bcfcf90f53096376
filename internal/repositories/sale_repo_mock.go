package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"estoque/internal/models"

	"github.com/google/uuid"
)

// MockSaleRepository is an in-memory implementation of SaleRepository.
type MockSaleRepository struct {
	sales map[string]models.Sale
	mu    sync.RWMutex
}

// NewMockSaleRepository creates a new instance of MockSaleRepository.
func NewMockSaleRepository() *MockSaleRepository {
	return &MockSaleRepository{
		sales: make(map[string]models.Sale),
	}
}

func (r *MockSaleRepository) sorted() []models.Sale {
	list := make([]models.Sale, 0, len(r.sales))
	for _, s := range r.sales {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	return list
}

// List returns sales matching the filter.
func (r *MockSaleRepository) List(ctx context.Context, filter SaleFilter) ([]models.Sale, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Sale
	for _, s := range r.sorted() {
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(s.Code), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(s.Customer), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.StartDate != nil && s.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && s.Date.After(*filter.EndDate) {
			continue
		}
		matched = append(matched, s)
	}

	total := int64(len(matched))
	if filter.Limit > 0 {
		start := (filter.Page - 1) * filter.Limit
		if start > len(matched) {
			start = len(matched)
		}
		end := start + filter.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

// ListBetween returns every sale in the date window.
func (r *MockSaleRepository) ListBetween(ctx context.Context, start, end *time.Time) ([]models.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Sale
	for _, s := range r.sorted() {
		if start != nil && s.Date.Before(*start) {
			continue
		}
		if end != nil && s.Date.After(*end) {
			continue
		}
		matched = append(matched, s)
	}
	return matched, nil
}

// GetByID returns a sale by its ID.
func (r *MockSaleRepository) GetByID(ctx context.Context, id string) (*models.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sale, ok := r.sales[id]
	if !ok {
		return nil, fmt.Errorf("sale %s: %w", id, ErrNotFound)
	}
	return &sale, nil
}

// GetByCode returns a sale by its code.
func (r *MockSaleRepository) GetByCode(ctx context.Context, code string) (*models.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sales {
		if s.Code == code {
			sale := s
			return &sale, nil
		}
	}
	return nil, fmt.Errorf("sale code %s: %w", code, ErrNotFound)
}

// ExistsByCode reports whether a sale with the given code exists.
func (r *MockSaleRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sales {
		if s.Code == code {
			return true, nil
		}
	}
	return false, nil
}

// Create adds a new sale with its items.
func (r *MockSaleRepository) Create(ctx context.Context, sale *models.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	for i := range sale.Items {
		if sale.Items[i].ID == "" {
			sale.Items[i].ID = uuid.New().String()
		}
		sale.Items[i].SaleID = sale.ID
	}
	sale.CreatedAt = time.Now()
	sale.UpdatedAt = time.Now()
	r.sales[sale.ID] = *sale
	return nil
}

// UpdateStatus updates the status of a sale.
func (r *MockSaleRepository) UpdateStatus(ctx context.Context, id string, status models.SaleStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sale, ok := r.sales[id]
	if !ok {
		return fmt.Errorf("sale %s: %w", id, ErrNotFound)
	}
	sale.Status = status
	sale.UpdatedAt = time.Now()
	r.sales[id] = sale
	return nil
}

// Count returns the total number of sales.
func (r *MockSaleRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.sales)), nil
}

// CountByStatus returns the number of sales with the given status.
func (r *MockSaleRepository) CountByStatus(ctx context.Context, status models.SaleStatus) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, s := range r.sales {
		if s.Status == status {
			count++
		}
	}
	return count, nil
}

// RevenueTotal sums total values of all non-cancelled sales.
func (r *MockSaleRepository) RevenueTotal(ctx context.Context) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total float64
	for _, s := range r.sales {
		if s.Status != models.StatusCancelled {
			total += s.TotalValue
		}
	}
	return total, nil
}

// Recent returns the most recently created sales.
func (r *MockSaleRepository) Recent(ctx context.Context, limit int) ([]models.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.sorted()
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// TopProducts aggregates sale items by product, ordered by quantity sold.
func (r *MockSaleRepository) TopProducts(ctx context.Context, limit int) ([]ProductSalesTotal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byProduct := make(map[string]int)
	for _, s := range r.sales {
		for _, item := range s.Items {
			byProduct[item.ProductID] += item.Quantity
		}
	}

	totals := make([]ProductSalesTotal, 0, len(byProduct))
	for id, qty := range byProduct {
		totals = append(totals, ProductSalesTotal{ProductID: id, Quantity: qty})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Quantity > totals[j].Quantity })
	if limit > 0 && len(totals) > limit {
		totals = totals[:limit]
	}
	return totals, nil
}

// DistinctCustomers counts unique customer names across all sales.
func (r *MockSaleRepository) DistinctCustomers(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customers := make(map[string]bool)
	for _, s := range r.sales {
		customers[s.Customer] = true
	}
	return int64(len(customers)), nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"estoque/internal/models"
	"estoque/internal/repositories"
)

// EventPublisher emits sale lifecycle events to the message broker. A nil
// publisher disables eventing; publish failures never fail the sale.
type EventPublisher interface {
	PublishSaleEvent(event string, payload interface{}) error
}

// SaleService handles the sale workflow: creation against live stock,
// cancellation with stock restitution, and status transitions.
type SaleService struct {
	saleRepo    repositories.SaleRepository
	productRepo repositories.ProductRepository
	tx          repositories.TxManager
	events      EventPublisher
}

// NewSaleService creates a new SaleService.
func NewSaleService(saleRepo repositories.SaleRepository, productRepo repositories.ProductRepository, tx repositories.TxManager, events EventPublisher) *SaleService {
	return &SaleService{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		tx:          tx,
		events:      events,
	}
}

// SaleItemInput is one requested line of a new sale.
type SaleItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CreateSaleInput is the request to create a sale.
type CreateSaleInput struct {
	Code     string          `json:"code" validate:"required"`
	Customer string          `json:"customer" validate:"required,min=2,max=200"`
	Items    []SaleItemInput `json:"items" validate:"required,min=1,dive"`
	Discount float64         `json:"discount" validate:"gte=0"`
}

// CreateSale validates the requested items against live stock and atomically
// persists the sale header, its items, and the per-product stock decrements.
// Either all three effects commit or none do. Item unit prices snapshot the
// product's sale price at this moment and never change afterwards.
func (s *SaleService) CreateSale(ctx context.Context, in CreateSaleInput) (*models.Sale, error) {
	if in.Code == "" || in.Customer == "" || len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: code, customer and items are required", ErrInvalidInput)
	}
	if in.Discount < 0 {
		return nil, fmt.Errorf("%w: discount cannot be negative", ErrInvalidInput)
	}
	for _, item := range in.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: every item needs a product and a positive quantity", ErrInvalidInput)
		}
	}

	var sale *models.Sale
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.saleRepo.ExistsByCode(ctx, in.Code)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: sale code %s", ErrDuplicateCode, in.Code)
		}

		var totalItems float64
		items := make([]models.SaleItem, 0, len(in.Items))
		for _, item := range in.Items {
			product, err := s.productRepo.GetByID(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
				}
				return err
			}
			if !product.IsActive {
				return fmt.Errorf("%w: %s", ErrProductInactive, product.Title)
			}
			if product.Quantity < item.Quantity {
				return fmt.Errorf("%w for product %s (requested: %d, available: %d)",
					ErrInsufficientStock, product.Title, item.Quantity, product.Quantity)
			}

			subtotal := product.SalePrice * float64(item.Quantity)
			totalItems += subtotal
			items = append(items, models.SaleItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: product.SalePrice,
				Subtotal:  subtotal,
			})
		}

		totalValue := totalItems - in.Discount
		if totalValue < 0 {
			return fmt.Errorf("%w (items: %.2f, discount: %.2f)", ErrInvalidDiscount, totalItems, in.Discount)
		}

		sale = &models.Sale{
			Code:       in.Code,
			Customer:   in.Customer,
			Items:      items,
			Discount:   in.Discount,
			TotalValue: totalValue,
			Status:     models.StatusPending,
			Date:       time.Now(),
		}
		if err := s.saleRepo.Create(ctx, sale); err != nil {
			return err
		}

		for _, item := range items {
			if err := s.productRepo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				// The guarded decrement caught a concurrent write after our
				// read; abort so the whole sale rolls back.
				if errors.Is(err, repositories.ErrStockConflict) {
					return fmt.Errorf("%w for product %s", ErrInsufficientStock, item.ProductID)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish("sale.created", sale)

	// Refetch outside the transaction so items carry product details.
	complete, err := s.saleRepo.GetByID(ctx, sale.ID)
	if err != nil {
		return sale, nil
	}
	return complete, nil
}

// CancelSale sets the sale to CANCELLED and restores exactly the quantities
// deducted at creation. The status guard makes restitution happen once: a
// cancelled sale cannot be cancelled again, a delivered one not at all.
func (s *SaleService) CancelSale(ctx context.Context, id string) error {
	var cancelled *models.Sale
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.saleRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrSaleNotFound, id)
			}
			return err
		}

		switch sale.Status {
		case models.StatusCancelled:
			return fmt.Errorf("%w: %s", ErrSaleAlreadyCancelled, sale.Code)
		case models.StatusDelivered:
			return fmt.Errorf("%w: %s", ErrSaleDelivered, sale.Code)
		}

		if err := s.saleRepo.UpdateStatus(ctx, id, models.StatusCancelled); err != nil {
			return err
		}
		for _, item := range sale.Items {
			if err := s.productRepo.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		cancelled = sale
		return nil
	})
	if err != nil {
		return err
	}

	s.publish("sale.cancelled", cancelled)
	return nil
}

// UpdateStatus moves the sale along the declared transition table. Setting
// the current status again is a no-op. Transitions into CANCELLED are routed
// through CancelSale so stock restitution always runs.
func (s *SaleService) UpdateStatus(ctx context.Context, id string, status string) (*models.Sale, error) {
	next := models.SaleStatus(strings.ToUpper(status))
	if !next.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	sale, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSaleNotFound, id)
		}
		return nil, err
	}

	if sale.Status == next {
		return sale, nil
	}
	if !sale.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sale.Status, next)
	}

	if next == models.StatusCancelled {
		if err := s.CancelSale(ctx, id); err != nil {
			return nil, err
		}
		return s.saleRepo.GetByID(ctx, id)
	}

	if err := s.saleRepo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	updated, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish("sale.status_changed", updated)
	return updated, nil
}

// GetSaleByID retrieves a single sale with its items.
func (s *SaleService) GetSaleByID(ctx context.Context, id string) (*models.Sale, error) {
	sale, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSaleNotFound, id)
		}
		return nil, err
	}
	return sale, nil
}

// GetSaleByCode retrieves a single sale by its unique code.
func (s *SaleService) GetSaleByCode(ctx context.Context, code string) (*models.Sale, error) {
	sale, err := s.saleRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: code %s", ErrSaleNotFound, code)
		}
		return nil, err
	}
	return sale, nil
}

// ListSales retrieves sales matching the filter with pagination.
func (s *SaleService) ListSales(ctx context.Context, filter repositories.SaleFilter) ([]models.Sale, Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, Pagination{}, fmt.Errorf("%w: %s", ErrInvalidStatus, filter.Status)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	sales, total, err := s.saleRepo.List(ctx, filter)
	if err != nil {
		return nil, Pagination{}, err
	}
	return sales, paginate(filter.Page, filter.Limit, total), nil
}

// ReportSummary aggregates the headline figures of a sales report.
type ReportSummary struct {
	TotalSales    int     `json:"total_sales"`
	TotalValue    float64 `json:"total_value"`
	TotalDiscount float64 `json:"total_discount"`
	AverageTicket float64 `json:"average_ticket"`
}

// StatusSummary is one row of the per-status breakdown.
type StatusSummary struct {
	Status     models.SaleStatus `json:"status"`
	Count      int               `json:"count"`
	TotalValue float64           `json:"total_value"`
}

// ReportProduct is one row of the top sellers breakdown.
type ReportProduct struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	Value     float64 `json:"value"`
}

// SalesReport is the full report over a date window.
type SalesReport struct {
	Summary       ReportSummary   `json:"summary"`
	StatusSummary []StatusSummary `json:"status_summary"`
	TopProducts   []ReportProduct `json:"top_products"`
	Sales         []models.Sale   `json:"sales"`
}

// BuildReport aggregates all sales in the window: headline totals, a
// per-status breakdown, and the ten best-selling products by quantity.
func (s *SaleService) BuildReport(ctx context.Context, start, end *time.Time) (*SalesReport, error) {
	sales, err := s.saleRepo.ListBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	report := &SalesReport{Sales: sales}
	byStatus := make(map[models.SaleStatus]*StatusSummary)
	byProduct := make(map[string]*ReportProduct)

	for _, sale := range sales {
		report.Summary.TotalSales++
		report.Summary.TotalValue += sale.TotalValue
		report.Summary.TotalDiscount += sale.Discount

		row, ok := byStatus[sale.Status]
		if !ok {
			row = &StatusSummary{Status: sale.Status}
			byStatus[sale.Status] = row
		}
		row.Count++
		row.TotalValue += sale.TotalValue

		for _, item := range sale.Items {
			prod, ok := byProduct[item.ProductID]
			if !ok {
				prod = &ReportProduct{ProductID: item.ProductID}
				if item.Product != nil {
					prod.Title = item.Product.Title
				}
				byProduct[item.ProductID] = prod
			}
			prod.Quantity += item.Quantity
			prod.Value += item.Subtotal
		}
	}
	if report.Summary.TotalSales > 0 {
		report.Summary.AverageTicket = report.Summary.TotalValue / float64(report.Summary.TotalSales)
	}

	for _, row := range byStatus {
		report.StatusSummary = append(report.StatusSummary, *row)
	}
	sort.Slice(report.StatusSummary, func(i, j int) bool {
		return report.StatusSummary[i].Status < report.StatusSummary[j].Status
	})

	for _, prod := range byProduct {
		report.TopProducts = append(report.TopProducts, *prod)
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		return report.TopProducts[i].Quantity > report.TopProducts[j].Quantity
	})
	if len(report.TopProducts) > 10 {
		report.TopProducts = report.TopProducts[:10]
	}

	return report, nil
}

func (s *SaleService) publish(event string, sale *models.Sale) {
	if s.events == nil || sale == nil {
		return
	}
	payload := map[string]interface{}{
		"sale_id":  sale.ID,
		"code":     sale.Code,
		"customer": sale.Customer,
		"status":   sale.Status,
		"total":    sale.TotalValue,
	}
	if err := s.events.PublishSaleEvent(event, payload); err != nil {
		log.Printf("Warning: failed to publish %s for sale %s: %v", event, sale.ID, err)
	}
}

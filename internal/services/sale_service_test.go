package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estoque/internal/models"
	"estoque/internal/repositories"
)

// recordingPublisher captures emitted events for assertions.
type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) PublishSaleEvent(event string, payload interface{}) error {
	p.events = append(p.events, event)
	return nil
}

type saleFixture struct {
	service     *SaleService
	saleRepo    *repositories.MockSaleRepository
	productRepo *repositories.MockProductRepository
	publisher   *recordingPublisher
}

func newSaleFixture(t *testing.T, products ...models.Product) *saleFixture {
	t.Helper()

	productRepo := repositories.NewMockProductRepository()
	for i := range products {
		require.NoError(t, productRepo.Create(context.Background(), &products[i]))
	}
	saleRepo := repositories.NewMockSaleRepository()
	publisher := &recordingPublisher{}

	return &saleFixture{
		service:     NewSaleService(saleRepo, productRepo, repositories.NewMockTxManager(), publisher),
		saleRepo:    saleRepo,
		productRepo: productRepo,
		publisher:   publisher,
	}
}

func (f *saleFixture) quantity(t *testing.T, productID string) int {
	t.Helper()
	product, err := f.productRepo.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return product.Quantity
}

func activeProduct(id, code string, qty, minStock int, salePrice float64) models.Product {
	return models.Product{
		ID:        id,
		Code:      code,
		Title:     "Product " + code,
		Quantity:  qty,
		MinStock:  minStock,
		UnitPrice: salePrice * 0.7,
		SalePrice: salePrice,
		IsActive:  true,
	}
}

func TestCreateSale(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots prices and decrements stock", func(t *testing.T) {
		f := newSaleFixture(t,
			activeProduct("p1", "PRD-001", 10, 2, 25.00),
			activeProduct("p2", "PRD-002", 4, 1, 10.50),
		)

		sale, err := f.service.CreateSale(ctx, CreateSaleInput{
			Code:     "SALE-001",
			Customer: "Maria Souza",
			Items: []SaleItemInput{
				{ProductID: "p1", Quantity: 3},
				{ProductID: "p2", Quantity: 2},
			},
			Discount: 6.00,
		})
		require.NoError(t, err)
		require.Len(t, sale.Items, 2)

		// 3*25.00 + 2*10.50 - 6.00
		assert.Equal(t, 90.00, sale.TotalValue)
		assert.Equal(t, models.StatusPending, sale.Status)
		assert.Equal(t, 25.00, sale.Items[0].UnitPrice)
		assert.Equal(t, 75.00, sale.Items[0].Subtotal)
		assert.Equal(t, 21.00, sale.Items[1].Subtotal)

		assert.Equal(t, 7, f.quantity(t, "p1"))
		assert.Equal(t, 2, f.quantity(t, "p2"))
		assert.Equal(t, []string{"sale.created"}, f.publisher.events)
	})

	t.Run("later price changes do not touch the snapshot", func(t *testing.T) {
		f := newSaleFixture(t, activeProduct("p1", "PRD-001", 10, 2, 25.00))

		sale, err := f.service.CreateSale(ctx, CreateSaleInput{
			Code:     "SALE-001",
			Customer: "Maria Souza",
			Items:    []SaleItemInput{{ProductID: "p1", Quantity: 1}},
		})
		require.NoError(t, err)

		product, err := f.productRepo.GetByID(ctx, "p1")
		require.NoError(t, err)
		product.SalePrice = 99.00
		require.NoError(t, f.productRepo.Update(ctx, product))

		reloaded, err := f.service.GetSaleByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, 25.00, reloaded.Items[0].UnitPrice)
		assert.Equal(t, 25.00, reloaded.TotalValue)
	})

	t.Run("rejects duplicate code", func(t *testing.T) {
		f := newSaleFixture(t, activeProduct("p1", "PRD-001", 10, 2, 25.00))

		in := CreateSaleInput{
			Code:     "SALE-001",
			Customer: "Maria Souza",
			Items:    []SaleItemInput{{ProductID: "p1", Quantity: 1}},
		}
		_, err := f.service.CreateSale(ctx, in)
		require.NoError(t, err)

		_, err = f.service.CreateSale(ctx, in)
		assert.ErrorIs(t, err, ErrDuplicateCode)
		assert.Equal(t, 9, f.quantity(t, "p1"))
	})

	t.Run("rejects unknown product without side effects", func(t *testing.T) {
		f := newSaleFixture(t, activeProduct("p1", "PRD-001", 10, 2, 25.00))

		_, err := f.service.CreateSale(ctx, CreateSaleInput{
			Code:     "SALE-001",
			Customer: "Maria Souza",
			Items: []SaleItemInput{
				{ProductID: "p1", Quantity: 2},
				{ProductID: "missing", Quantity: 1},
			},
		})
		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.Equal(t, 10, f.quantity(t, "p1"))

		count, err := f.saleRepo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("rejects inactive product", func(t *testing.T) {
		inactive := activeProduct("p1", "PRD-001", 10, 2, 25.00)
		inactive.IsActive = false
		f := newSaleFixture(t, inactive)

		_, err := f.service.CreateSale(ctx, CreateSaleInput{
			Code:     "SALE-001",
			Customer: "Maria Souza",
			Items:    []SaleItemInput{{ProductID: "p1", Quantity: 1}},
		})
		assert.ErrorIs(t, err, ErrProductInactive)
		assert.Equal(t, 10, f.quantity(t, "p1"))
	})

	t.Run("rejects insufficient stock without partial effects", func(t *testing.T) {
		f := newSaleFixture(t,
			activeProduct("p1", "PRD-001", 10, 2, 25.00),
			activeProduct("p2", "PRD-002", 1, 1, 10.50),
		)

		_, err := f.service.CreateSale(ctx, CreateSaleInput{
			Code:     "SALE-001",
			Customer: "Maria Souza",
			Items: []SaleItemInput{
				{ProductID: "p1", Quantity: 5},
				{ProductID: "p2", Quantity: 3},
			},
		})
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, 10, f.quantity(t, "p1"))
		assert.Equal(t, 1, f.quantity(t, "p2"))

		count, err := f.saleRepo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, f.publisher.events)
	})

	t.Run("selling the full quantity is allowed", func(t *testing.T) {
		f := newSaleFixture(t, activeProduct("p1", "PRD-001", 4, 2, 25.00))

		_, err := f.service.CreateSale(ctx, CreateSaleInput{
			Code:     "SALE-001",
			Customer: "Maria Souza",
			Items:    []SaleItemInput{{ProductID: "p1", Quantity: 4}},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, f.quantity(t, "p1"))
	})

	t.Run("selling into the low band succeeds regardless of minimum", func(t *testing.T) {
		// quantity 5, minimum 2: selling 3 lands exactly on the minimum and
		// must still go through. MinStock only drives reporting, never sales.
		f := newSaleFixture(t, activeProduct("p1", "PRD-001", 5, 2, 25.00))

		_, err := f.service.CreateSale(ctx, CreateSaleInput{
			Code:     "SALE-001",
			Customer: "Maria Souza",
			Items:    []SaleItemInput{{ProductID: "p1", Quantity: 3}},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, f.quantity(t, "p1"))
	})

	t.Run("rejects discount exceeding item total", func(t *testing.T) {
		f := newSaleFixture(t, activeProduct("p1", "PRD-001", 10, 2, 25.00))

		_, err := f.service.CreateSale(ctx, CreateSaleInput{
			Code:     "SALE-001",
			Customer: "Maria Souza",
			Items:    []SaleItemInput{{ProductID: "p1", Quantity: 2}},
			Discount: 50.01,
		})
		assert.ErrorIs(t, err, ErrInvalidDiscount)
		assert.Equal(t, 10, f.quantity(t, "p1"))
	})

	t.Run("discount equal to item total is a free sale", func(t *testing.T) {
		f := newSaleFixture(t, activeProduct("p1", "PRD-001", 10, 2, 25.00))

		sale, err := f.service.CreateSale(ctx, CreateSaleInput{
			Code:     "SALE-001",
			Customer: "Maria Souza",
			Items:    []SaleItemInput{{ProductID: "p1", Quantity: 2}},
			Discount: 50.00,
		})
		require.NoError(t, err)
		assert.Equal(t, 0.00, sale.TotalValue)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		f := newSaleFixture(t, activeProduct("p1", "PRD-001", 10, 2, 25.00))

		cases := []CreateSaleInput{
			{Customer: "Maria", Items: []SaleItemInput{{ProductID: "p1", Quantity: 1}}},
			{Code: "S1", Items: []SaleItemInput{{ProductID: "p1", Quantity: 1}}},
			{Code: "S1", Customer: "Maria"},
			{Code: "S1", Customer: "Maria", Items: []SaleItemInput{{ProductID: "p1", Quantity: 0}}},
			{Code: "S1", Customer: "Maria", Items: []SaleItemInput{{ProductID: "", Quantity: 1}}},
			{Code: "S1", Customer: "Maria", Items: []SaleItemInput{{ProductID: "p1", Quantity: 1}}, Discount: -1},
		}
		for _, in := range cases {
			_, err := f.service.CreateSale(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		}
		assert.Equal(t, 10, f.quantity(t, "p1"))
	})
}

func TestCancelSale(t *testing.T) {
	ctx := context.Background()

	create := func(t *testing.T, f *saleFixture, qty int) *models.Sale {
		t.Helper()
		sale, err := f.service.CreateSale(ctx, CreateSaleInput{
			Code:     "SALE-001",
			Customer: "Maria Souza",
			Items:    []SaleItemInput{{ProductID: "p1", Quantity: qty}},
		})
		require.NoError(t, err)
		return sale
	}

	t.Run("restores exactly the deducted quantities", func(t *testing.T) {
		f := newSaleFixture(t, activeProduct("p1", "PRD-001", 10, 2, 25.00))
		sale := create(t, f, 4)
		assert.Equal(t, 6, f.quantity(t, "p1"))

		require.NoError(t, f.service.CancelSale(ctx, sale.ID))

		assert.Equal(t, 10, f.quantity(t, "p1"))
		cancelled, err := f.service.GetSaleByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)
		assert.Equal(t, []string{"sale.created", "sale.cancelled"}, f.publisher.events)
	})

	t.Run("cancelling twice restores stock only once", func(t *testing.T) {
		f := newSaleFixture(t, activeProduct("p1", "PRD-001", 10, 2, 25.00))
		sale := create(t, f, 4)

		require.NoError(t, f.service.CancelSale(ctx, sale.ID))
		err := f.service.CancelSale(ctx, sale.ID)
		assert.ErrorIs(t, err, ErrSaleAlreadyCancelled)
		assert.Equal(t, 10, f.quantity(t, "p1"))
	})

	t.Run("delivered sales cannot be cancelled", func(t *testing.T) {
		f := newSaleFixture(t, activeProduct("p1", "PRD-001", 10, 2, 25.00))
		sale := create(t, f, 4)

		require.NoError(t, f.saleRepo.UpdateStatus(ctx, sale.ID, models.StatusConfirmed))
		require.NoError(t, f.saleRepo.UpdateStatus(ctx, sale.ID, models.StatusDelivered))

		err := f.service.CancelSale(ctx, sale.ID)
		assert.ErrorIs(t, err, ErrSaleDelivered)
		assert.Equal(t, 6, f.quantity(t, "p1"))
	})

	t.Run("unknown sale", func(t *testing.T) {
		f := newSaleFixture(t)
		err := f.service.CancelSale(ctx, "missing")
		assert.ErrorIs(t, err, ErrSaleNotFound)
	})

	t.Run("sell cancel sell round trip", func(t *testing.T) {
		f := newSaleFixture(t, activeProduct("p1", "PRD-001", 3, 1, 25.00))
		sale := create(t, f, 3)
		require.NoError(t, f.service.CancelSale(ctx, sale.ID))
		assert.Equal(t, 3, f.quantity(t, "p1"))

		_, err := f.service.CreateSale(ctx, CreateSaleInput{
			Code:     "SALE-002",
			Customer: "Maria Souza",
			Items:    []SaleItemInput{{ProductID: "p1", Quantity: 3}},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, f.quantity(t, "p1"))
	})
}

func TestUpdateSaleStatus(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*saleFixture, *models.Sale) {
		t.Helper()
		f := newSaleFixture(t, activeProduct("p1", "PRD-001", 10, 2, 25.00))
		sale, err := f.service.CreateSale(ctx, CreateSaleInput{
			Code:     "SALE-001",
			Customer: "Maria Souza",
			Items:    []SaleItemInput{{ProductID: "p1", Quantity: 4}},
		})
		require.NoError(t, err)
		return f, sale
	}

	t.Run("pending to confirmed to delivered", func(t *testing.T) {
		f, sale := setup(t)

		updated, err := f.service.UpdateStatus(ctx, sale.ID, "CONFIRMED")
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, updated.Status)

		updated, err = f.service.UpdateStatus(ctx, sale.ID, "DELIVERED")
		require.NoError(t, err)
		assert.Equal(t, models.StatusDelivered, updated.Status)
		assert.Equal(t, 6, f.quantity(t, "p1"))
	})

	t.Run("status input is case insensitive", func(t *testing.T) {
		f, sale := setup(t)
		updated, err := f.service.UpdateStatus(ctx, sale.ID, "confirmed")
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, updated.Status)
	})

	t.Run("cancellation via status update restores stock", func(t *testing.T) {
		f, sale := setup(t)
		updated, err := f.service.UpdateStatus(ctx, sale.ID, "CANCELLED")
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, updated.Status)
		assert.Equal(t, 10, f.quantity(t, "p1"))
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		f, sale := setup(t)
		updated, err := f.service.UpdateStatus(ctx, sale.ID, "PENDING")
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, updated.Status)
		// No status_changed event for a no-op.
		assert.Equal(t, []string{"sale.created"}, f.publisher.events)
	})

	t.Run("pending cannot skip to delivered", func(t *testing.T) {
		f, sale := setup(t)
		_, err := f.service.UpdateStatus(ctx, sale.ID, "DELIVERED")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("terminal states reject everything", func(t *testing.T) {
		f, sale := setup(t)
		_, err := f.service.UpdateStatus(ctx, sale.ID, "CANCELLED")
		require.NoError(t, err)

		for _, next := range []string{"PENDING", "CONFIRMED", "DELIVERED"} {
			_, err := f.service.UpdateStatus(ctx, sale.ID, next)
			assert.ErrorIs(t, err, ErrInvalidTransition, "CANCELLED -> %s", next)
		}
		// Still only one restitution happened.
		assert.Equal(t, 10, f.quantity(t, "p1"))
	})

	t.Run("unknown status", func(t *testing.T) {
		f, sale := setup(t)
		_, err := f.service.UpdateStatus(ctx, sale.ID, "SHIPPED")
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("unknown sale", func(t *testing.T) {
		f := newSaleFixture(t)
		_, err := f.service.UpdateStatus(ctx, "missing", "CONFIRMED")
		assert.ErrorIs(t, err, ErrSaleNotFound)
	})
}

func TestListSales(t *testing.T) {
	ctx := context.Background()
	f := newSaleFixture(t, activeProduct("p1", "PRD-001", 100, 2, 10.00))

	for _, code := range []string{"SALE-001", "SALE-002", "SALE-003"} {
		_, err := f.service.CreateSale(ctx, CreateSaleInput{
			Code:     code,
			Customer: "Maria Souza",
			Items:    []SaleItemInput{{ProductID: "p1", Quantity: 1}},
		})
		require.NoError(t, err)
	}

	t.Run("defaults pagination", func(t *testing.T) {
		sales, page, err := f.service.ListSales(ctx, repositories.SaleFilter{})
		require.NoError(t, err)
		assert.Len(t, sales, 3)
		assert.Equal(t, 1, page.CurrentPage)
		assert.Equal(t, int64(3), page.TotalItems)
	})

	t.Run("filters by status", func(t *testing.T) {
		sales, _, err := f.service.ListSales(ctx, repositories.SaleFilter{Status: models.StatusPending})
		require.NoError(t, err)
		assert.Len(t, sales, 3)

		sales, _, err = f.service.ListSales(ctx, repositories.SaleFilter{Status: models.StatusDelivered})
		require.NoError(t, err)
		assert.Empty(t, sales)
	})

	t.Run("rejects unknown status filter", func(t *testing.T) {
		_, _, err := f.service.ListSales(ctx, repositories.SaleFilter{Status: "SHIPPED"})
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestBuildReport(t *testing.T) {
	ctx := context.Background()
	f := newSaleFixture(t,
		activeProduct("p1", "PRD-001", 100, 2, 10.00),
		activeProduct("p2", "PRD-002", 100, 2, 20.00),
	)

	s1, err := f.service.CreateSale(ctx, CreateSaleInput{
		Code:     "SALE-001",
		Customer: "Maria Souza",
		Items: []SaleItemInput{
			{ProductID: "p1", Quantity: 5},
			{ProductID: "p2", Quantity: 1},
		},
	})
	require.NoError(t, err)
	_, err = f.service.CreateSale(ctx, CreateSaleInput{
		Code:     "SALE-002",
		Customer: "Joao Lima",
		Items:    []SaleItemInput{{ProductID: "p2", Quantity: 2}},
		Discount: 10.00,
	})
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, s1.ID, "CONFIRMED")
	require.NoError(t, err)

	report, err := f.service.BuildReport(ctx, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.TotalSales)
	assert.Equal(t, 100.00, report.Summary.TotalValue) // 70 + 30
	assert.Equal(t, 10.00, report.Summary.TotalDiscount)
	assert.Equal(t, 50.00, report.Summary.AverageTicket)

	require.Len(t, report.StatusSummary, 2)
	assert.Equal(t, models.StatusConfirmed, report.StatusSummary[0].Status)
	assert.Equal(t, models.StatusPending, report.StatusSummary[1].Status)

	require.Len(t, report.TopProducts, 2)
	assert.Equal(t, "p1", report.TopProducts[0].ProductID)
	assert.Equal(t, 5, report.TopProducts[0].Quantity)
	assert.Equal(t, 50.00, report.TopProducts[0].Value)
	assert.Equal(t, 3, report.TopProducts[1].Quantity)

	t.Run("window excludes out of range sales", func(t *testing.T) {
		cutoff := time.Now().Add(-24 * time.Hour)
		report, err := f.service.BuildReport(ctx, nil, &cutoff)
		require.NoError(t, err)
		assert.Zero(t, report.Summary.TotalSales)
	})
}

package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"estoque/internal/models"
	"estoque/internal/repositories"
	"estoque/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// SaleHandler handles HTTP requests for sales.
type SaleHandler struct {
	service  *services.SaleService
	validate *validator.Validate
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(service *services.SaleService) *SaleHandler {
	return &SaleHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the sale routes with the Fiber app.
func (h *SaleHandler) RegisterRoutes(router fiber.Router) {
	saleRoutes := router.Group("/sales")
	saleRoutes.Post("/", h.HandleCreateSale)
	saleRoutes.Get("/", h.HandleListSales)
	saleRoutes.Get("/report", h.HandleReport)
	saleRoutes.Get("/code/:code", h.HandleGetSaleByCode)
	saleRoutes.Get("/:id", h.HandleGetSaleByID)
	saleRoutes.Patch("/:id/status", h.HandleUpdateStatus)
	saleRoutes.Patch("/:id/cancel", h.HandleCancelSale)
}

// HandleCreateSale creates a new sale with stock validation and decrement.
func (h *SaleHandler) HandleCreateSale(c *fiber.Ctx) error {
	var in services.CreateSaleInput
	if err := c.BodyParser(&in); err != nil {
		log.Printf("Error parsing sale request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	sale, err := h.service.CreateSale(c.UserContext(), in)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateCode):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "A sale with this code already exists",
				"error":   err.Error(),
			})
		case errors.Is(err, services.ErrInvalidInput),
			errors.Is(err, services.ErrProductNotFound),
			errors.Is(err, services.ErrProductInactive),
			errors.Is(err, services.ErrInsufficientStock),
			errors.Is(err, services.ErrInvalidDiscount):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Sale creation failed",
				"error":   err.Error(),
			})
		}
		log.Printf("Error creating sale: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create sale",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Sale created successfully",
		"sale":    sale,
	})
}

// HandleListSales lists sales with search, status and date filters.
func (h *SaleHandler) HandleListSales(c *fiber.Ctx) error {
	filter := repositories.SaleFilter{
		Search: c.Query("search"),
		Status: models.SaleStatus(strings.ToUpper(c.Query("status"))),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
	}

	var err error
	if filter.StartDate, err = parseDateQuery(c, "start_date"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "start_date must be an RFC 3339 date",
		})
	}
	if filter.EndDate, err = parseDateQuery(c, "end_date"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "end_date must be an RFC 3339 date",
		})
	}

	sales, pagination, err := h.service.ListSales(c.UserContext(), filter)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Unknown sale status",
				"error":   err.Error(),
			})
		}
		log.Printf("Error listing sales: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve sales",
		})
	}

	return c.JSON(fiber.Map{
		"sales":      sales,
		"pagination": pagination,
	})
}

// HandleReport builds the sales report over an optional date window.
func (h *SaleHandler) HandleReport(c *fiber.Ctx) error {
	start, err := parseDateQuery(c, "start_date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "start_date must be an RFC 3339 date",
		})
	}
	end, err := parseDateQuery(c, "end_date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "end_date must be an RFC 3339 date",
		})
	}

	report, err := h.service.BuildReport(c.UserContext(), start, end)
	if err != nil {
		log.Printf("Error building sales report: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not build report",
		})
	}
	return c.JSON(report)
}

// HandleGetSaleByID retrieves a single sale by its ID.
func (h *SaleHandler) HandleGetSaleByID(c *fiber.Ctx) error {
	sale, err := h.service.GetSaleByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrSaleNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Sale not found",
			})
		}
		log.Printf("Error getting sale %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve sale",
		})
	}
	return c.JSON(sale)
}

// HandleGetSaleByCode retrieves a single sale by its unique code.
func (h *SaleHandler) HandleGetSaleByCode(c *fiber.Ctx) error {
	sale, err := h.service.GetSaleByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		if errors.Is(err, services.ErrSaleNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Sale not found",
			})
		}
		log.Printf("Error getting sale by code %s: %v", c.Params("code"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve sale",
		})
	}
	return c.JSON(sale)
}

// HandleUpdateStatus moves a sale along the transition table.
func (h *SaleHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required",
		})
	}

	sale, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSaleNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Sale not found",
			})
		case errors.Is(err, services.ErrInvalidStatus),
			errors.Is(err, services.ErrInvalidTransition),
			errors.Is(err, services.ErrSaleAlreadyCancelled),
			errors.Is(err, services.ErrSaleDelivered):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Status update failed",
				"error":   err.Error(),
			})
		}
		log.Printf("Error updating status for sale %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update sale status",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Sale status updated successfully",
		"sale":    sale,
	})
}

// HandleCancelSale cancels a sale and restores the deducted stock.
func (h *SaleHandler) HandleCancelSale(c *fiber.Ctx) error {
	err := h.service.CancelSale(c.UserContext(), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSaleNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Sale not found",
			})
		case errors.Is(err, services.ErrSaleAlreadyCancelled),
			errors.Is(err, services.ErrSaleDelivered):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Sale cancellation failed",
				"error":   err.Error(),
			})
		}
		log.Printf("Error cancelling sale %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not cancel sale",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Sale cancelled and stock restored successfully",
	})
}

// parseDateQuery reads an optional RFC 3339 date (or date-time) query param.
func parseDateQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}

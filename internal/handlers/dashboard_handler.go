package handlers

import (
	"log"

	"estoque/internal/services"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles HTTP requests for dashboard rollups.
type DashboardHandler struct {
	service *services.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		service: service,
	}
}

// RegisterRoutes registers the dashboard routes with the Fiber app.
func (h *DashboardHandler) RegisterRoutes(router fiber.Router) {
	dashboardRoutes := router.Group("/dashboard")
	dashboardRoutes.Get("/", h.HandleGetDashboard)
	dashboardRoutes.Get("/kpis", h.HandleGetKPIs)
	dashboardRoutes.Post("/refresh", h.HandleRefresh)
}

// HandleGetDashboard returns the full dashboard payload.
func (h *DashboardHandler) HandleGetDashboard(c *fiber.Ctx) error {
	data, err := h.service.GetDashboard(c.UserContext())
	if err != nil {
		log.Printf("Error building dashboard: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load dashboard",
		})
	}
	return c.JSON(data)
}

// HandleGetKPIs returns only the headline figures.
func (h *DashboardHandler) HandleGetKPIs(c *fiber.Ctx) error {
	kpis, err := h.service.GetKPIs(c.UserContext())
	if err != nil {
		log.Printf("Error computing KPIs: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not compute KPIs",
		})
	}
	return c.JSON(fiber.Map{"kpis": kpis})
}

// HandleRefresh busts the dashboard cache and rebuilds the payload.
func (h *DashboardHandler) HandleRefresh(c *fiber.Ctx) error {
	data, err := h.service.RefreshDashboard(c.UserContext())
	if err != nil {
		log.Printf("Error refreshing dashboard: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not refresh dashboard",
		})
	}
	return c.JSON(data)
}

package handlers

import (
	"errors"
	"log"

	"estoque/internal/models"
	"estoque/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles HTTP requests for the category tree.
type CategoryHandler struct {
	service  *services.CategoryService
	validate *validator.Validate
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the category routes with the Fiber app.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Post("/", h.HandleCreateCategory)
	categoryRoutes.Get("/", h.HandleListCategories)
	categoryRoutes.Get("/:id", h.HandleGetCategoryByID)
	categoryRoutes.Put("/:id", h.HandleUpdateCategory)
	categoryRoutes.Delete("/:id", h.HandleDeleteCategory)
}

// HandleCreateCategory creates a new category.
func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var category models.Category
	if err := c.BodyParser(&category); err != nil {
		log.Printf("Error parsing category request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(category); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	if err := h.service.CreateCategory(c.UserContext(), &category); err != nil {
		if errors.Is(err, services.ErrCategoryNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Parent category not found",
				"error":   err.Error(),
			})
		}
		log.Printf("Error creating category: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create category",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Category created successfully",
		"category": category,
	})
}

// HandleListCategories lists categories, hierarchically when requested.
func (h *CategoryHandler) HandleListCategories(c *fiber.Ctx) error {
	hierarchical := c.QueryBool("hierarchical", false)
	includeInactive := c.QueryBool("include_inactive", false)

	categories, err := h.service.ListCategories(c.UserContext(), hierarchical, includeInactive)
	if err != nil {
		log.Printf("Error listing categories: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve categories",
		})
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// HandleGetCategoryByID retrieves a category with its relations.
func (h *CategoryHandler) HandleGetCategoryByID(c *fiber.Ctx) error {
	category, err := h.service.GetCategoryByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrCategoryNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Category not found",
			})
		}
		log.Printf("Error getting category %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve category",
		})
	}
	return c.JSON(category)
}

// HandleUpdateCategory applies a partial update to a category.
func (h *CategoryHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	var in services.UpdateCategoryInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	category, err := h.service.UpdateCategory(c.UserContext(), c.Params("id"), in)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCategoryOwnParent):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "A category cannot be its own parent",
			})
		case errors.Is(err, services.ErrCategoryNotFound):
			// Distinguish the missing target from a missing parent
			if _, getErr := h.service.GetCategoryByID(c.UserContext(), c.Params("id")); getErr != nil {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"message": "Category not found",
				})
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Parent category not found",
				"error":   err.Error(),
			})
		}
		log.Printf("Error updating category %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update category",
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Category updated successfully",
		"category": category,
	})
}

// HandleDeleteCategory removes a category, or deactivates it when it still
// has products or subcategories.
func (h *CategoryHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	deactivated, err := h.service.DeleteCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrCategoryNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Category not found",
			})
		}
		log.Printf("Error deleting category %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete category",
		})
	}

	if deactivated {
		return c.JSON(fiber.Map{
			"message": "Category deactivated (it has products or subcategories)",
		})
	}
	return c.JSON(fiber.Map{"message": "Category deleted successfully"})
}

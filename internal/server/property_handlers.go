package server

import (
	"homelet/internal/models"
	"homelet/internal/repository"
	"homelet/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// GetProperties handles GET /api/properties. It is public and only shows
// published listings.
func (s *Server) GetProperties(c *fiber.Ctx) error {
	filter := repository.PropertyFilter{
		City:        c.Query("city"),
		MinBedrooms: c.QueryInt("min_bedrooms", 0),
	}

	properties, err := s.propertyService.Browse(c.Context(), filter)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"properties": properties})
}

// GetProperty handles GET /api/properties/:id
func (s *Server) GetProperty(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	property, err := s.propertyService.Get(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(property)
}

// GetMyProperties handles GET /api/properties/mine. It includes unpublished
// listings, unlike the public browse route.
func (s *Server) GetMyProperties(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	properties, err := s.propertyService.ListMine(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"properties": properties})
}

// CreateProperty handles POST /api/properties
func (s *Server) CreateProperty(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Address     string          `json:"address"`
		City        string          `json:"city"`
		Bedrooms    int             `json:"bedrooms"`
		MonthlyRent decimal.Decimal `json:"monthly_rent"`
		Deposit     decimal.Decimal `json:"deposit"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	property, err := s.propertyService.Create(c.Context(), service.CreatePropertyInput{
		OwnerID:     userID,
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		Bedrooms:    req.Bedrooms,
		MonthlyRent: req.MonthlyRent,
		Deposit:     req.Deposit,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(property)
}

// PublishProperty handles POST /api/properties/:id/publish
func (s *Server) PublishProperty(c *fiber.Ctx) error {
	return s.setPublished(c, true)
}

// UnpublishProperty handles POST /api/properties/:id/unpublish
func (s *Server) UnpublishProperty(c *fiber.Ctx) error {
	return s.setPublished(c, false)
}

func (s *Server) setPublished(c *fiber.Ctx, published bool) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	property, svcErr := s.propertyService.SetPublished(c.Context(), id, userID, published)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.JSON(property)
}

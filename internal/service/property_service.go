package service

import (
	"context"
	"strings"

	"homelet/internal/models"
	"homelet/internal/repository"

	"github.com/shopspring/decimal"
)

// CreatePropertyInput carries the fields for a new listing.
type CreatePropertyInput struct {
	OwnerID     uint
	Title       string
	Description string
	Address     string
	City        string
	Bedrooms    int
	MonthlyRent decimal.Decimal
	Deposit     decimal.Decimal
}

// PropertyService provides listing business logic.
type PropertyService struct {
	propertyRepo repository.PropertyRepository
	userRepo     repository.UserRepository
}

// NewPropertyService returns a new PropertyService.
func NewPropertyService(propertyRepo repository.PropertyRepository, userRepo repository.UserRepository) *PropertyService {
	return &PropertyService{
		propertyRepo: propertyRepo,
		userRepo:     userRepo,
	}
}

// Create publishes a new listing for a landlord or agent.
func (s *PropertyService) Create(ctx context.Context, in CreatePropertyInput) (*models.Property, error) {
	owner, err := s.userRepo.GetByID(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}
	if !owner.CanPublishListings() {
		return nil, models.NewForbiddenError("Only landlords and agents can publish listings")
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	if in.Title == "" || in.Address == "" || in.City == "" {
		return nil, models.NewValidationError("Title, address, and city are required")
	}
	if in.Bedrooms < 1 {
		return nil, models.NewValidationError("A listing needs at least one bedroom")
	}
	if in.MonthlyRent.IsNegative() || in.Deposit.IsNegative() {
		return nil, models.NewValidationError("Rent and deposit cannot be negative")
	}

	property := &models.Property{
		OwnerID:     in.OwnerID,
		Title:       in.Title,
		Description: in.Description,
		Address:     in.Address,
		City:        in.City,
		Bedrooms:    in.Bedrooms,
		MonthlyRent: in.MonthlyRent,
		Deposit:     in.Deposit,
		Published:   true,
	}
	if err := s.propertyRepo.Create(ctx, property); err != nil {
		return nil, err
	}
	return s.propertyRepo.GetByID(ctx, property.ID)
}

// Browse returns published listings matching the filter.
func (s *PropertyService) Browse(ctx context.Context, filter repository.PropertyFilter) ([]models.Property, error) {
	return s.propertyRepo.ListPublished(ctx, filter)
}

// Get returns one listing by id.
func (s *PropertyService) Get(ctx context.Context, id uint) (*models.Property, error) {
	return s.propertyRepo.GetByID(ctx, id)
}

// ListMine returns the caller's own listings, published or not.
func (s *PropertyService) ListMine(ctx context.Context, ownerID uint) ([]models.Property, error) {
	return s.propertyRepo.ListByOwner(ctx, ownerID)
}

// SetPublished toggles a listing's visibility.
func (s *PropertyService) SetPublished(ctx context.Context, id, callerID uint, published bool) (*models.Property, error) {
	property, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if property.OwnerID != callerID {
		return nil, models.NewForbiddenError("You can only manage your own listings")
	}

	property.Published = published
	if err := s.propertyRepo.Update(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

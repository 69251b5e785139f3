package repository

import (
	"context"
	"errors"

	"homelet/internal/models"

	"gorm.io/gorm"
)

// PropertyFilter narrows a published-listing query. Zero values mean "any".
type PropertyFilter struct {
	City        string
	MinBedrooms int
}

// PropertyRepository defines the interface for property data operations
type PropertyRepository interface {
	Create(ctx context.Context, property *models.Property) error
	GetByID(ctx context.Context, id uint) (*models.Property, error)
	ListPublished(ctx context.Context, filter PropertyFilter) ([]models.Property, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Property, error)
	Update(ctx context.Context, property *models.Property) error
	Delete(ctx context.Context, id uint) error
}

type propertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) Create(ctx context.Context, property *models.Property) error {
	if err := r.db.WithContext(ctx).Create(property).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *propertyRepository) GetByID(ctx context.Context, id uint) (*models.Property, error) {
	var property models.Property
	if err := r.db.WithContext(ctx).Preload("Owner").First(&property, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Property", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &property, nil
}

func (r *propertyRepository) ListPublished(ctx context.Context, filter PropertyFilter) ([]models.Property, error) {
	query := r.db.WithContext(ctx).Where("published = ?", true)
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}
	if filter.MinBedrooms > 0 {
		query = query.Where("bedrooms >= ?", filter.MinBedrooms)
	}

	var properties []models.Property
	if err := query.Order("created_at DESC").Find(&properties).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return properties, nil
}

func (r *propertyRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Property, error) {
	var properties []models.Property
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&properties).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return properties, nil
}

func (r *propertyRepository) Update(ctx context.Context, property *models.Property) error {
	if err := r.db.WithContext(ctx).Save(property).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *propertyRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Property{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Property", id)
	}
	return nil
}

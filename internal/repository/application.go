package repository

import (
	"context"
	"errors"

	"homelet/internal/models"

	"gorm.io/gorm"
)

// ApplicationRepository defines the interface for application record operations.
// Mutations after creation go through ApplyChange exclusively so every action
// lands as one combined update.
type ApplicationRepository interface {
	Create(ctx context.Context, application *models.Application) error
	GetByID(ctx context.Context, id uint) (*models.Application, error)
	ListForApplicant(ctx context.Context, applicantID uint) ([]models.Application, error)
	ListForOwner(ctx context.Context, ownerID uint) ([]models.Application, error)
	HasOpenApplication(ctx context.Context, propertyID, applicantID uint) (bool, error)
	ApplyChange(ctx context.Context, id uint, change map[string]any) error
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, application *models.Application) error {
	if err := r.db.WithContext(ctx).Create(application).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	var application models.Application
	if err := r.db.WithContext(ctx).
		Preload("Property").
		Preload("Applicant").
		Preload("Owner").
		First(&application, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Application", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &application, nil
}

func (r *applicationRepository) ListForApplicant(ctx context.Context, applicantID uint) ([]models.Application, error) {
	var applications []models.Application
	if err := r.db.WithContext(ctx).
		Preload("Property").
		Where("applicant_id = ?", applicantID).
		Order("submitted_at DESC").
		Find(&applications).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return applications, nil
}

func (r *applicationRepository) ListForOwner(ctx context.Context, ownerID uint) ([]models.Application, error) {
	var applications []models.Application
	if err := r.db.WithContext(ctx).
		Preload("Property").
		Preload("Applicant").
		Where("owner_id = ?", ownerID).
		Order("submitted_at DESC").
		Find(&applications).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return applications, nil
}

func (r *applicationRepository) HasOpenApplication(ctx context.Context, propertyID, applicantID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("property_id = ? AND applicant_id = ? AND status != ?",
			propertyID, applicantID, models.ApplicationStatusRejected).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// ApplyChange persists one action's full field set as a single UPDATE so
// multi-field transitions are never observable half-applied.
func (r *applicationRepository) ApplyChange(ctx context.Context, id uint, change map[string]any) error {
	if len(change) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Application{}).Where("id = ?", id).Updates(change)
	if result.Error != nil {
		return models.NewStorageFailureError("Failed to update application record", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Application", id)
	}
	return nil
}

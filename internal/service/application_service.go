package service

import (
	"context"
	"time"

	"homelet/internal/documents"
	"homelet/internal/models"
	"homelet/internal/payment"
	"homelet/internal/repository"
	"homelet/internal/workflow"

	"github.com/shopspring/decimal"
)

// ApplicationService orchestrates the application lifecycle: it loads the
// authoritative record, lets the workflow engine decide, stores documents,
// persists the engine's Change as one combined update, and re-fetches the
// record so callers always see the authoritative state.
type ApplicationService struct {
	appRepo      repository.ApplicationRepository
	propertyRepo repository.PropertyRepository
	docs         documents.Store
	charger      payment.Charger
}

// NewApplicationService returns a new ApplicationService.
func NewApplicationService(appRepo repository.ApplicationRepository, propertyRepo repository.PropertyRepository, docs documents.Store, charger payment.Charger) *ApplicationService {
	return &ApplicationService{
		appRepo:      appRepo,
		propertyRepo: propertyRepo,
		docs:         docs,
		charger:      charger,
	}
}

// Submit creates a new pending application for a published property.
func (s *ApplicationService) Submit(ctx context.Context, caller workflow.Caller, propertyID uint, appointment *time.Time) (*models.Application, error) {
	property, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !property.Published {
		return nil, models.NewValidationError("This listing is no longer available")
	}
	if property.OwnerID == caller.UserID {
		return nil, models.NewValidationError("You cannot apply to your own listing")
	}

	open, err := s.appRepo.HasOpenApplication(ctx, propertyID, caller.UserID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, models.NewValidationError("You already have an open application for this property")
	}

	app := &models.Application{
		PropertyID:      propertyID,
		ApplicantID:     caller.UserID,
		OwnerID:         property.OwnerID,
		Status:          models.ApplicationStatusPending,
		Stage:           models.StageApplication,
		ContractStatus:  models.ContractStatusPending,
		PaymentStatus:   models.PaymentStatusUnpaid,
		AppointmentTime: appointment,
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}
	return s.appRepo.GetByID(ctx, app.ID)
}

// Get returns one application, visible only to its two parties.
func (s *ApplicationService) Get(ctx context.Context, id uint, caller workflow.Caller) (*models.Application, error) {
	return s.load(ctx, id, caller)
}

// ListForUser returns the caller's applications: submitted ones for tenants,
// received ones for landlords and agents.
func (s *ApplicationService) ListForUser(ctx context.Context, caller workflow.Caller) ([]models.Application, error) {
	if caller.Role == models.RoleTenant {
		return s.appRepo.ListForApplicant(ctx, caller.UserID)
	}
	return s.appRepo.ListForOwner(ctx, caller.UserID)
}

// Respond records the landlord's accept or reject decision.
func (s *ApplicationService) Respond(ctx context.Context, id uint, caller workflow.Caller, decision workflow.Decision, feedback string) (*models.Application, error) {
	app, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	change, err := workflow.Respond(app, caller, decision, feedback)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, id, change)
}

// UploadContract stores the initial contract document and marks the record.
// The engine gate runs before the upload so an invalid action never stores a
// file; a record write failing after the upload leaves an orphaned document
// that the retry simply overwrites.
func (s *ApplicationService) UploadContract(ctx context.Context, id uint, caller workflow.Caller, content []byte) (*models.Application, error) {
	app, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if err := workflow.PrepareContractUpload(app, caller); err != nil {
		return nil, err
	}

	url, err := s.docs.StoreContract(ctx, app.ID, content)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, id, workflow.ContractUploaded(app, url))
}

// UploadSignature stores a signed contract for one party and records the
// signature, auto-advancing the stage when it is the last missing condition.
func (s *ApplicationService) UploadSignature(ctx context.Context, id uint, caller workflow.Caller, signer models.Role, content []byte) (*models.Application, error) {
	app, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if err := workflow.PrepareSignatureUpload(app, caller, signer); err != nil {
		return nil, err
	}

	if _, err := s.docs.StoreSignature(ctx, app.ID, signer, content); err != nil {
		return nil, err
	}
	return s.commit(ctx, id, workflow.SignatureRecorded(app, signer))
}

// Pay charges the deposit through the payment collaborator and records the
// outcome. A failed charge changes nothing and the action can be re-invoked;
// once paid, re-invoking is a no-op.
func (s *ApplicationService) Pay(ctx context.Context, id uint, caller workflow.Caller) (*models.Application, error) {
	app, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if err := workflow.PreparePayment(app, caller); err != nil {
		return nil, err
	}
	if app.IsPaid() {
		return app, nil
	}

	if err := s.charger.Charge(ctx, s.depositAmount(ctx, app), app.ID); err != nil {
		return nil, models.NewStorageFailureError("Deposit payment failed", err)
	}
	return s.commit(ctx, id, workflow.PaymentRecorded(app))
}

// Finalize moves a ready record to the completed stage.
func (s *ApplicationService) Finalize(ctx context.Context, id uint, caller workflow.Caller) (*models.Application, error) {
	app, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	change, err := workflow.Finalize(app, caller)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, id, change)
}

// Timeline projects the record into its lifecycle event sequence.
func (s *ApplicationService) Timeline(ctx context.Context, id uint, caller workflow.Caller) ([]workflow.Event, error) {
	app, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	return workflow.Project(app), nil
}

// Surface derives the caller's interaction surface for the record.
func (s *ApplicationService) Surface(ctx context.Context, id uint, caller workflow.Caller) (*workflow.Surface, error) {
	app, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	surface := workflow.For(app, caller)
	return &surface, nil
}

func (s *ApplicationService) load(ctx context.Context, id uint, caller workflow.Caller) (*models.Application, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.UserID != app.OwnerID && caller.UserID != app.ApplicantID {
		return nil, models.NewForbiddenError("You are not a party to this application")
	}
	return app, nil
}

// commit persists the change and re-fetches the authoritative record so the
// local view never diverges for more than one round trip.
func (s *ApplicationService) commit(ctx context.Context, id uint, change workflow.Change) (*models.Application, error) {
	if err := s.appRepo.ApplyChange(ctx, id, change); err != nil {
		return nil, err
	}
	return s.appRepo.GetByID(ctx, id)
}

func (s *ApplicationService) depositAmount(ctx context.Context, app *models.Application) decimal.Decimal {
	if app.Property != nil {
		return app.Property.Deposit
	}
	property, err := s.propertyRepo.GetByID(ctx, app.PropertyID)
	if err != nil {
		return decimal.Zero
	}
	return property.Deposit
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"homelet/internal/models"
	"homelet/internal/repository"
	"homelet/internal/workflow"

	"github.com/shopspring/decimal"
)

type applicationRepoStub struct {
	createFn             func(context.Context, *models.Application) error
	getByIDFn            func(context.Context, uint) (*models.Application, error)
	listForApplicantFn   func(context.Context, uint) ([]models.Application, error)
	listForOwnerFn       func(context.Context, uint) ([]models.Application, error)
	hasOpenApplicationFn func(context.Context, uint, uint) (bool, error)
	applyChangeFn        func(context.Context, uint, map[string]any) error
}

func (s *applicationRepoStub) Create(ctx context.Context, app *models.Application) error {
	return s.createFn(ctx, app)
}
func (s *applicationRepoStub) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	return s.getByIDFn(ctx, id)
}
func (s *applicationRepoStub) ListForApplicant(ctx context.Context, applicantID uint) ([]models.Application, error) {
	return s.listForApplicantFn(ctx, applicantID)
}
func (s *applicationRepoStub) ListForOwner(ctx context.Context, ownerID uint) ([]models.Application, error) {
	return s.listForOwnerFn(ctx, ownerID)
}
func (s *applicationRepoStub) HasOpenApplication(ctx context.Context, propertyID, applicantID uint) (bool, error) {
	return s.hasOpenApplicationFn(ctx, propertyID, applicantID)
}
func (s *applicationRepoStub) ApplyChange(ctx context.Context, id uint, change map[string]any) error {
	return s.applyChangeFn(ctx, id, change)
}

type propertyRepoStub struct {
	createFn  func(context.Context, *models.Property) error
	getByIDFn func(context.Context, uint) (*models.Property, error)
}

func (s *propertyRepoStub) Create(ctx context.Context, p *models.Property) error {
	if s.createFn != nil {
		return s.createFn(ctx, p)
	}
	return nil
}
func (s *propertyRepoStub) GetByID(ctx context.Context, id uint) (*models.Property, error) {
	return s.getByIDFn(ctx, id)
}
func (s *propertyRepoStub) ListPublished(context.Context, repository.PropertyFilter) ([]models.Property, error) {
	return nil, nil
}
func (s *propertyRepoStub) ListByOwner(context.Context, uint) ([]models.Property, error) {
	return nil, nil
}
func (s *propertyRepoStub) Update(context.Context, *models.Property) error { return nil }
func (s *propertyRepoStub) Delete(context.Context, uint) error             { return nil }

type docStoreStub struct {
	storeContractFn  func(context.Context, uint, []byte) (string, error)
	storeSignatureFn func(context.Context, uint, models.Role, []byte) (string, error)
}

func (s *docStoreStub) StoreContract(ctx context.Context, id uint, content []byte) (string, error) {
	return s.storeContractFn(ctx, id, content)
}
func (s *docStoreStub) StoreSignature(ctx context.Context, id uint, signer models.Role, content []byte) (string, error) {
	return s.storeSignatureFn(ctx, id, signer, content)
}

type chargerStub struct {
	chargeFn func(context.Context, decimal.Decimal, uint) error
}

func (s *chargerStub) Charge(ctx context.Context, amount decimal.Decimal, applicationID uint) error {
	return s.chargeFn(ctx, amount, applicationID)
}

const (
	testOwnerID     = uint(1)
	testApplicantID = uint(2)
)

func owner() workflow.Caller     { return workflow.Caller{UserID: testOwnerID, Role: models.RoleLandlord} }
func applicant() workflow.Caller { return workflow.Caller{UserID: testApplicantID, Role: models.RoleTenant} }

// appFixture is a live record the stubs serve and mutate, standing in for the
// backing store.
type appFixture struct {
	app     *models.Application
	applied []map[string]any
}

func newFixture(mutate func(*models.Application)) *appFixture {
	deposit := decimal.NewFromInt(900)
	f := &appFixture{
		app: &models.Application{
			ID:          77,
			PropertyID:  5,
			ApplicantID: testApplicantID,
			OwnerID:     testOwnerID,
			Property: &models.Property{
				ID:        5,
				OwnerID:   testOwnerID,
				Deposit:   deposit,
				Published: true,
			},
			Status:         models.ApplicationStatusPending,
			Stage:          models.StageApplication,
			ContractStatus: models.ContractStatusPending,
			PaymentStatus:  models.PaymentStatusUnpaid,
		},
	}
	if mutate != nil {
		mutate(f.app)
	}
	return f
}

func (f *appFixture) repo() *applicationRepoStub {
	return &applicationRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Application, error) {
			if id != f.app.ID {
				return nil, models.NewNotFoundError("Application", id)
			}
			copied := *f.app
			return &copied, nil
		},
		applyChangeFn: func(_ context.Context, id uint, change map[string]any) error {
			if id != f.app.ID {
				return models.NewNotFoundError("Application", id)
			}
			f.applied = append(f.applied, change)
			workflow.Change(change).Apply(f.app)
			return nil
		},
	}
}

func noDocs(t *testing.T) *docStoreStub {
	return &docStoreStub{
		storeContractFn: func(context.Context, uint, []byte) (string, error) {
			t.Fatal("document store must not be touched")
			return "", nil
		},
		storeSignatureFn: func(context.Context, uint, models.Role, []byte) (string, error) {
			t.Fatal("document store must not be touched")
			return "", nil
		},
	}
}

func noCharge(t *testing.T) *chargerStub {
	return &chargerStub{chargeFn: func(context.Context, decimal.Decimal, uint) error {
		t.Fatal("charger must not be invoked")
		return nil
	}}
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *models.AppError with code %s, got %v", code, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code, err)
	}
}

func TestSubmit(t *testing.T) {
	property := &models.Property{ID: 5, OwnerID: testOwnerID, Published: true}
	propRepo := &propertyRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.Property, error) {
		if id != 5 {
			return nil, models.NewNotFoundError("Property", id)
		}
		copied := *property
		return &copied, nil
	}}

	t.Run("creates a pending record", func(t *testing.T) {
		var created *models.Application
		repo := &applicationRepoStub{
			hasOpenApplicationFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
			createFn: func(_ context.Context, app *models.Application) error {
				app.ID = 42
				created = app
				return nil
			},
			getByIDFn: func(_ context.Context, id uint) (*models.Application, error) { return created, nil },
		}
		svc := NewApplicationService(repo, propRepo, noDocs(t), noCharge(t))

		when := time.Date(2026, 9, 3, 14, 0, 0, 0, time.UTC)
		app, err := svc.Submit(context.Background(), applicant(), 5, &when)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if app.Status != models.ApplicationStatusPending || app.Stage != models.StageApplication {
			t.Errorf("unexpected initial state: %s/%s", app.Status, app.Stage)
		}
		if app.OwnerID != testOwnerID {
			t.Errorf("owner not copied from the property, got %d", app.OwnerID)
		}
		if app.AppointmentTime == nil || !app.AppointmentTime.Equal(when) {
			t.Error("appointment time not preserved")
		}
	})

	t.Run("rejects own listing", func(t *testing.T) {
		svc := NewApplicationService(&applicationRepoStub{}, propRepo, noDocs(t), noCharge(t))
		_, err := svc.Submit(context.Background(), owner(), 5, nil)
		assertAppCode(t, err, models.CodeValidation)
	})

	t.Run("rejects duplicate open application", func(t *testing.T) {
		repo := &applicationRepoStub{
			hasOpenApplicationFn: func(context.Context, uint, uint) (bool, error) { return true, nil },
		}
		svc := NewApplicationService(repo, propRepo, noDocs(t), noCharge(t))
		_, err := svc.Submit(context.Background(), applicant(), 5, nil)
		assertAppCode(t, err, models.CodeValidation)
	})

	t.Run("rejects unpublished listing", func(t *testing.T) {
		property.Published = false
		defer func() { property.Published = true }()
		svc := NewApplicationService(&applicationRepoStub{}, propRepo, noDocs(t), noCharge(t))
		_, err := svc.Submit(context.Background(), applicant(), 5, nil)
		assertAppCode(t, err, models.CodeValidation)
	})
}

func TestGetRestrictedToParties(t *testing.T) {
	f := newFixture(nil)
	svc := NewApplicationService(f.repo(), &propertyRepoStub{}, noDocs(t), noCharge(t))

	if _, err := svc.Get(context.Background(), 77, owner()); err != nil {
		t.Fatalf("owner should see the application: %v", err)
	}
	_, err := svc.Get(context.Background(), 77, workflow.Caller{UserID: 999, Role: models.RoleTenant})
	assertAppCode(t, err, models.CodeForbidden)
}

func TestRespondCommitsOneChange(t *testing.T) {
	f := newFixture(nil)
	svc := NewApplicationService(f.repo(), &propertyRepoStub{}, noDocs(t), noCharge(t))

	app, err := svc.Respond(context.Background(), 77, owner(), workflow.DecisionAccept, "Welcome!")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if len(f.applied) != 1 {
		t.Fatalf("expected exactly one combined update, got %d", len(f.applied))
	}
	change := f.applied[0]
	if change["status"] != models.ApplicationStatusAccepted || change["stage"] != models.StageProcessing {
		t.Errorf("status and stage must land in the same update: %v", change)
	}
	// Returned record is the re-fetched authoritative one.
	if app.Status != models.ApplicationStatusAccepted || app.Stage != models.StageProcessing {
		t.Errorf("stale record returned: %s/%s", app.Status, app.Stage)
	}
}

func TestUploadContract(t *testing.T) {
	t.Run("stores then commits", func(t *testing.T) {
		f := newFixture(func(a *models.Application) {
			a.Status = models.ApplicationStatusAccepted
			a.Stage = models.StageProcessing
		})
		docs := &docStoreStub{storeContractFn: func(_ context.Context, id uint, _ []byte) (string, error) {
			return "/files/contracts/77/contract.pdf", nil
		}}
		svc := NewApplicationService(f.repo(), &propertyRepoStub{}, docs, noCharge(t))

		app, err := svc.UploadContract(context.Background(), 77, owner(), []byte("%PDF-1.7"))
		if err != nil {
			t.Fatalf("UploadContract: %v", err)
		}
		if app.ContractURL == "" || app.ContractStatus != models.ContractStatusUploaded {
			t.Errorf("contract not recorded: %+v", app)
		}
	})

	t.Run("gate runs before the store", func(t *testing.T) {
		f := newFixture(nil) // still pending
		svc := NewApplicationService(f.repo(), &propertyRepoStub{}, noDocs(t), noCharge(t))
		_, err := svc.UploadContract(context.Background(), 77, owner(), []byte("%PDF-1.7"))
		assertAppCode(t, err, models.CodePreconditionFailed)
		if len(f.applied) != 0 {
			t.Error("failed action must not write the record")
		}
	})

	t.Run("store failure leaves the record untouched", func(t *testing.T) {
		f := newFixture(func(a *models.Application) {
			a.Status = models.ApplicationStatusAccepted
			a.Stage = models.StageProcessing
		})
		docs := &docStoreStub{storeContractFn: func(context.Context, uint, []byte) (string, error) {
			return "", models.NewStorageFailureError("Failed to store document", errors.New("disk full"))
		}}
		svc := NewApplicationService(f.repo(), &propertyRepoStub{}, docs, noCharge(t))

		_, err := svc.UploadContract(context.Background(), 77, owner(), []byte("%PDF-1.7"))
		assertAppCode(t, err, models.CodeStorageFailure)
		if len(f.applied) != 0 {
			t.Error("record must stay in its prior state after a storage failure")
		}
	})
}

func TestUploadSignatureAutoAdvances(t *testing.T) {
	f := newFixture(func(a *models.Application) {
		a.Status = models.ApplicationStatusAccepted
		a.Stage = models.StageProcessing
		a.ContractURL = "/files/contracts/77/contract.pdf"
		a.ContractStatus = models.ContractStatusSignedByTenant
		a.ContractSignedTenant = true
		a.PaymentStatus = models.PaymentStatusPaid
	})
	docs := &docStoreStub{storeSignatureFn: func(_ context.Context, id uint, signer models.Role, _ []byte) (string, error) {
		return "/files/contracts/77/signature_landlord.pdf", nil
	}}
	svc := NewApplicationService(f.repo(), &propertyRepoStub{}, docs, noCharge(t))

	app, err := svc.UploadSignature(context.Background(), 77, owner(), models.RoleLandlord, []byte("%PDF-1.7"))
	if err != nil {
		t.Fatalf("UploadSignature: %v", err)
	}
	if len(f.applied) != 1 {
		t.Fatalf("expected one combined update, got %d", len(f.applied))
	}
	change := f.applied[0]
	if change["contract_signed_landlord"] != true || change["stage"] != models.StageCompleted {
		t.Errorf("signature flag and stage must land together: %v", change)
	}
	if app.Stage != models.StageCompleted || app.ContractStatus != models.ContractStatusCompleted {
		t.Errorf("unexpected final state: %+v", app)
	}
}

func TestPay(t *testing.T) {
	readyFixture := func() *appFixture {
		return newFixture(func(a *models.Application) {
			a.Status = models.ApplicationStatusAccepted
			a.Stage = models.StageProcessing
			a.ContractURL = "/files/contracts/77/contract.pdf"
			a.ContractStatus = models.ContractStatusCompleted
			a.ContractSignedLandlord = true
			a.ContractSignedTenant = true
		})
	}

	t.Run("charges the deposit and auto-completes", func(t *testing.T) {
		f := readyFixture()
		var charged decimal.Decimal
		charger := &chargerStub{chargeFn: func(_ context.Context, amount decimal.Decimal, id uint) error {
			charged = amount
			return nil
		}}
		svc := NewApplicationService(f.repo(), &propertyRepoStub{}, noDocs(t), charger)

		app, err := svc.Pay(context.Background(), 77, applicant())
		if err != nil {
			t.Fatalf("Pay: %v", err)
		}
		if !charged.Equal(decimal.NewFromInt(900)) {
			t.Errorf("expected the property deposit to be charged, got %s", charged)
		}
		if app.PaymentStatus != models.PaymentStatusPaid || app.Stage != models.StageCompleted {
			t.Errorf("unexpected state after payment: %s/%s", app.PaymentStatus, app.Stage)
		}
	})

	t.Run("failed charge records nothing", func(t *testing.T) {
		f := readyFixture()
		charger := &chargerStub{chargeFn: func(context.Context, decimal.Decimal, uint) error {
			return errors.New("card declined")
		}}
		svc := NewApplicationService(f.repo(), &propertyRepoStub{}, noDocs(t), charger)

		_, err := svc.Pay(context.Background(), 77, applicant())
		assertAppCode(t, err, models.CodeStorageFailure)
		if len(f.applied) != 0 {
			t.Error("failed charge must leave the record unchanged")
		}
	})

	t.Run("retry once paid skips the charger", func(t *testing.T) {
		f := readyFixture()
		f.app.PaymentStatus = models.PaymentStatusPaid
		f.app.Stage = models.StageCompleted
		svc := NewApplicationService(f.repo(), &propertyRepoStub{}, noDocs(t), noCharge(t))

		app, err := svc.Pay(context.Background(), 77, applicant())
		if err != nil {
			t.Fatalf("retry after paid must succeed: %v", err)
		}
		if app.PaymentStatus != models.PaymentStatusPaid {
			t.Error("payment regressed on retry")
		}
		if len(f.applied) != 0 {
			t.Error("retry must not write the record again")
		}
	})

	t.Run("before both signatures", func(t *testing.T) {
		f := readyFixture()
		f.app.ContractSignedLandlord = false
		f.app.ContractStatus = models.ContractStatusSignedByTenant
		svc := NewApplicationService(f.repo(), &propertyRepoStub{}, noDocs(t), noCharge(t))

		_, err := svc.Pay(context.Background(), 77, applicant())
		assertAppCode(t, err, models.CodePreconditionFailed)
	})
}

func TestFinalizeFromReadyState(t *testing.T) {
	f := newFixture(func(a *models.Application) {
		a.Status = models.ApplicationStatusAccepted
		a.Stage = models.StageProcessing
		a.ContractURL = "/files/contracts/77/contract.pdf"
		a.ContractStatus = models.ContractStatusCompleted
		a.ContractSignedLandlord = true
		a.ContractSignedTenant = true
		a.PaymentStatus = models.PaymentStatusPaid
	})
	svc := NewApplicationService(f.repo(), &propertyRepoStub{}, noDocs(t), noCharge(t))

	app, err := svc.Finalize(context.Background(), 77, applicant())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if app.Stage != models.StageCompleted {
		t.Errorf("expected completed, got %s", app.Stage)
	}
}

func TestTimelineAndSurface(t *testing.T) {
	f := newFixture(nil)
	svc := NewApplicationService(f.repo(), &propertyRepoStub{}, noDocs(t), noCharge(t))

	events, err := svc.Timeline(context.Background(), 77, applicant())
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(events) == 0 || events[0].Title != "Submitted" {
		t.Errorf("unexpected timeline: %+v", events)
	}

	surface, err := svc.Surface(context.Background(), 77, owner())
	if err != nil {
		t.Fatalf("Surface: %v", err)
	}
	if !surface.CanRespond {
		t.Error("owner should be offered the respond action while pending")
	}

	_, err = svc.Surface(context.Background(), 77, workflow.Caller{UserID: 999})
	assertAppCode(t, err, models.CodeForbidden)
}

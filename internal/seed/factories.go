// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"homelet/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LifecycleState names how far along a seeded application should be.
type LifecycleState string

const (
	StatePending         LifecycleState = "pending"
	StateRejected        LifecycleState = "rejected"
	StateAccepted        LifecycleState = "accepted"
	StateContracted      LifecycleState = "contracted"
	StatePartiallySigned LifecycleState = "partially_signed"
	StateFullySigned     LifecycleState = "fully_signed"
	StateCompleted       LifecycleState = "completed"
)

// AllStates lists every seedable lifecycle state in progression order.
var AllStates = []LifecycleState{
	StatePending,
	StateRejected,
	StateAccepted,
	StateContracted,
	StatePartiallySigned,
	StateFullySigned,
	StateCompleted,
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db *gorm.DB
	// SkipBcrypt swaps password hashing for a fixed marker in dev fast mode.
	SkipBcrypt bool
	rng        *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a sample `models.User` with the given
// role. Optional override functions may modify the user before saving.
func (f *Factory) CreateUser(role models.Role, overrides ...func(*models.User)) (*models.User, error) {
	name := gofakeit.Name()
	user := &models.User{
		Name:  name,
		Email: fmt.Sprintf("%s%d@example.com", slugify(name), gofakeit.Number(100, 999)),
		Role:  role,
		Phone: gofakeit.Phone(),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.SkipBcrypt {
		user.PasswordHash = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.PasswordHash = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("seed user: %w", err)
	}
	return user, nil
}

// CreateProperty constructs and persists a listing owned by the given user.
func (f *Factory) CreateProperty(owner *models.User, overrides ...func(*models.Property)) (*models.Property, error) {
	bedrooms := gofakeit.Number(1, 5)
	rent := decimal.NewFromInt(int64(gofakeit.Number(400, 2500)))

	property := &models.Property{
		OwnerID:     owner.ID,
		Title:       fmt.Sprintf("%d bed %s in %s", bedrooms, propertyKind(f.rng), gofakeit.City()),
		Description: gofakeit.Paragraph(1, 3, 8, "\n"),
		Address:     gofakeit.Street(),
		City:        gofakeit.City(),
		Bedrooms:    bedrooms,
		MonthlyRent: rent,
		// Deposit is customarily close to a month's rent
		Deposit:   rent.Mul(decimal.NewFromFloat(1.1)).Round(2),
		Published: true,
	}

	for _, override := range overrides {
		override(property)
	}

	if err := f.db.Create(property).Error; err != nil {
		return nil, fmt.Errorf("seed property: %w", err)
	}
	return property, nil
}

// CreateApplication persists an application between the tenant and the
// property's owner, advanced to the requested lifecycle state. The column
// values per state mirror what the workflow engine would have written.
func (f *Factory) CreateApplication(property *models.Property, tenant *models.User, state LifecycleState) (*models.Application, error) {
	app := &models.Application{
		PropertyID:     property.ID,
		ApplicantID:    tenant.ID,
		OwnerID:        property.OwnerID,
		Status:         models.ApplicationStatusPending,
		Stage:          models.StageApplication,
		ContractStatus: models.ContractStatusPending,
		PaymentStatus:  models.PaymentStatusUnpaid,
		SubmittedAt:    time.Now().Add(-time.Duration(f.rng.Intn(60*24)) * time.Hour),
	}

	if state == StateRejected {
		app.Status = models.ApplicationStatusRejected
		app.Feedback = gofakeit.Sentence(8)
	}

	if stateAtLeast(state, StateAccepted) {
		app.Status = models.ApplicationStatusAccepted
		app.Stage = models.StageProcessing
	}
	if stateAtLeast(state, StateContracted) {
		app.ContractURL = fmt.Sprintf("/files/contracts/%d/contract.pdf", gofakeit.Number(1, 100000))
	}
	if stateAtLeast(state, StatePartiallySigned) {
		app.ContractSignedTenant = true
	}
	if stateAtLeast(state, StateFullySigned) {
		app.ContractSignedLandlord = true
	}
	if stateAtLeast(state, StateCompleted) {
		app.PaymentStatus = models.PaymentStatusPaid
		app.Stage = models.StageCompleted
	}
	app.ContractStatus = models.DeriveContractStatus(
		app.HasContract(), app.ContractSignedLandlord, app.ContractSignedTenant)

	if err := f.db.Create(app).Error; err != nil {
		return nil, fmt.Errorf("seed application: %w", err)
	}
	return app, nil
}

// stateAtLeast reports whether state is at or past the milestone in the
// progression order. Rejected is terminal and never passes a milestone.
func stateAtLeast(state, milestone LifecycleState) bool {
	if state == StateRejected {
		return false
	}
	order := map[LifecycleState]int{
		StatePending:         0,
		StateAccepted:        1,
		StateContracted:      2,
		StatePartiallySigned: 3,
		StateFullySigned:     4,
		StateCompleted:       5,
	}
	return order[state] >= order[milestone]
}

func propertyKind(rng *rand.Rand) string {
	kinds := []string{"flat", "terraced house", "studio", "maisonette", "semi-detached house"}
	return kinds[rng.Intn(len(kinds))]
}

func slugify(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "."))
}

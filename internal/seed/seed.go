package seed

import (
	"fmt"
	"log"

	"homelet/internal/models"

	"gorm.io/gorm"
)

// Options controls how much demo data the seeder creates.
type Options struct {
	Landlords             int
	Tenants               int
	PropertiesPerLandlord int
	Applications          int
	// SkipBcrypt speeds up large seeds by storing a plain marker instead of
	// a real hash. Seeded accounts cannot log in when set.
	SkipBcrypt bool
}

// DefaultOptions is a small but representative demo dataset.
var DefaultOptions = Options{
	Landlords:             5,
	Tenants:               20,
	PropertiesPerLandlord: 3,
	Applications:          25,
}

// Seeder populates the database with demo marketplace data.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db)}
}

// ClearAll removes all seedable data. Deletion order respects foreign keys.
func (s *Seeder) ClearAll() error {
	for _, model := range []any{
		&models.Application{},
		&models.Property{},
		&models.User{},
	} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	log.Println("Cleared existing data")
	return nil
}

// Run creates users, listings, and applications spread across every
// lifecycle state so the demo environment shows the whole workflow.
func (s *Seeder) Run(opts Options) error {
	s.factory.SkipBcrypt = opts.SkipBcrypt

	landlords := make([]*models.User, 0, opts.Landlords)
	for i := 0; i < opts.Landlords; i++ {
		role := models.RoleLandlord
		// Roughly one in four publishers is an agent
		if i%4 == 3 {
			role = models.RoleAgent
		}
		user, err := s.factory.CreateUser(role)
		if err != nil {
			return err
		}
		landlords = append(landlords, user)
	}

	tenants := make([]*models.User, 0, opts.Tenants)
	for i := 0; i < opts.Tenants; i++ {
		user, err := s.factory.CreateUser(models.RoleTenant)
		if err != nil {
			return err
		}
		tenants = append(tenants, user)
	}

	properties := make([]*models.Property, 0, opts.Landlords*opts.PropertiesPerLandlord)
	for _, landlord := range landlords {
		for i := 0; i < opts.PropertiesPerLandlord; i++ {
			property, err := s.factory.CreateProperty(landlord)
			if err != nil {
				return err
			}
			properties = append(properties, property)
		}
	}

	if len(properties) == 0 || len(tenants) == 0 {
		log.Println("Nothing to apply with; skipping applications")
		return nil
	}

	// Walk tenant/property pairs so no tenant holds two open applications
	// on the same property, cycling through every lifecycle state.
	created := 0
	for i := 0; created < opts.Applications; i++ {
		tenant := tenants[i%len(tenants)]
		property := properties[(i/len(tenants))%len(properties)]
		if property.OwnerID == tenant.ID {
			continue
		}
		state := AllStates[created%len(AllStates)]
		if _, err := s.factory.CreateApplication(property, tenant, state); err != nil {
			return err
		}
		created++
	}

	log.Printf("Seeded %d landlords/agents, %d tenants, %d properties, %d applications",
		len(landlords), len(tenants), len(properties), created)
	return nil
}

package repository

import (
	"testing"

	"homelet/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Application{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}

func seedParties(t *testing.T, db *gorm.DB) (landlord, tenant *models.User, property *models.Property) {
	t.Helper()
	landlord = &models.User{Email: "landlord@example.com", PasswordHash: "x", Name: "Lena Landlord", Role: models.RoleLandlord}
	tenant = &models.User{Email: "tenant@example.com", PasswordHash: "x", Name: "Toni Tenant", Role: models.RoleTenant}
	if err := db.Create(landlord).Error; err != nil {
		t.Fatalf("seed landlord: %v", err)
	}
	if err := db.Create(tenant).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}

	property = &models.Property{
		OwnerID:  landlord.ID,
		Title:    "Bright studio near campus",
		Address:  "12 College Walk",
		City:     "Leiden",
		Bedrooms: 1,
	}
	if err := db.Create(property).Error; err != nil {
		t.Fatalf("seed property: %v", err)
	}
	return landlord, tenant, property
}

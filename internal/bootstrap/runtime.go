// Package bootstrap establishes runtime dependencies (database, Redis) and
// performs explicit startup provisioning that should not live in the server
// constructor.
package bootstrap

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"homelet/internal/cache"
	"homelet/internal/config"
	"homelet/internal/database"
	"homelet/internal/models"
	"homelet/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData populates an empty development database with demo
	// landlords, tenants, listings, and in-flight applications.
	SeedDemoData bool
}

// InitRuntime connects to DB and Redis and optionally runs dev provisioning.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	// Connect DB
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevLandlord(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development landlord account: %w", err)
	}

	if opts.SeedDemoData {
		if err := seedIfEmpty(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// seedIfEmpty runs the demo seeder only when no users exist, so restarts of
// a dev environment do not multiply the dataset.
func seedIfEmpty(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return seed.NewSeeder(db).Run(seed.DefaultOptions)
}

// ensureDevLandlord provisions a known landlord account in development so
// the frontend always has something to log in as.
func ensureDevLandlord(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAccount {
		return nil
	}

	email := strings.TrimSpace(strings.ToLower(cfg.DevAccountEmail))
	if email == "" {
		email = "landlord@homelet.local"
	}
	password := cfg.DevAccountPassword
	if password == "" {
		return fmt.Errorf("DEV_ACCOUNT_PASSWORD must be set when DEV_BOOTSTRAP_ACCOUNT is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash dev account password: %w", err)
	}

	var existing models.User
	findErr := db.Where("email = ?", email).First(&existing).Error
	switch {
	case errors.Is(findErr, gorm.ErrRecordNotFound):
		user := models.User{
			Name:         "Dev Landlord",
			Email:        email,
			PasswordHash: string(hashedPassword),
			Role:         models.RoleLandlord,
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
	case findErr != nil:
		return findErr
	default:
		updates := map[string]any{
			"role":          models.RoleLandlord,
			"password_hash": string(hashedPassword),
		}
		if err := db.Model(&models.User{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return err
		}
	}

	log.Printf("development landlord account ensured (%s)", email)
	return nil
}

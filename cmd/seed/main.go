// Command main runs the database seeder for HomeLet.
package main

import (
	"flag"
	"log"

	"homelet/internal/config"
	"homelet/internal/database"
	"homelet/internal/seed"
)

func main() {
	// Parse command line flags
	landlords := flag.Int("landlords", seed.DefaultOptions.Landlords, "Number of landlords and agents to create")
	tenants := flag.Int("tenants", seed.DefaultOptions.Tenants, "Number of tenants to create")
	perLandlord := flag.Int("properties", seed.DefaultOptions.PropertiesPerLandlord, "Listings per landlord")
	applications := flag.Int("applications", seed.DefaultOptions.Applications, "Number of applications to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Skip password hashing (seeded accounts cannot log in)")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")
	log.Printf("Target: %d landlords, %d tenants, %d listings each, %d applications, clean=%v\n",
		*landlords, *tenants, *perLandlord, *applications, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run seeder
	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if err := s.Run(seed.Options{
		Landlords:             *landlords,
		Tenants:               *tenants,
		PropertiesPerLandlord: *perLandlord,
		Applications:          *applications,
		SkipBcrypt:            *skipBcrypt,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}

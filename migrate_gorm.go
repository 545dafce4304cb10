// migrate_gorm.go - Run this file to test GORM migrations
// Usage: go run migrate_gorm.go

//go:build ignore

package main

import (
	"log"

	"github.com/examvault/api/config"
	"github.com/examvault/api/database"
)

func main() {
	log.Println("=== GORM Migration Test ===")

	// Load environment variables
	if err := config.LoadENV(); err != nil {
		log.Fatal("Failed to load environment variables:", err)
	}

	// Initialize GORM connection
	store, err := database.StartGORM()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close()

	// Run migrations
	if err := store.Init(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Health check
	if err := store.HealthCheck(); err != nil {
		log.Fatal("Database health check failed:", err)
	}

	log.Println("✅ All migrations completed successfully!")
	log.Println("✅ Database connection healthy!")
	log.Println("\nYou can now check your PostgreSQL database to see the new tables:")
	log.Println("  - boards")
	log.Println("  - levels")
	log.Println("  - subjects")
	log.Println("  - papers")
	log.Println("  - paper_pages")
	log.Println("  - mark_scheme_pages")
	log.Println("  - questions")
	log.Println("  - processing_jobs")
	log.Println("  - attempts")
	log.Println("  - responses")
	log.Println("  - admin_users")
	log.Println("  - cron_job_logs")
}

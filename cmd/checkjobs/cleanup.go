//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Load .env
	godotenv.Load()

	// Build database URL
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER_NAME")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}

	dbURL := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	db, err := gorm.Open(postgres.Open(dbURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	fmt.Println("========================================")
	fmt.Println("CLEANUP: Deleting test data")
	fmt.Println("========================================")

	// Delete in correct order due to foreign key constraints

	// 1. Delete responses
	result := db.Exec("DELETE FROM responses")
	fmt.Printf("Deleted %d responses\n", result.RowsAffected)

	// 2. Delete attempts
	result = db.Exec("DELETE FROM attempts")
	fmt.Printf("Deleted %d attempts\n", result.RowsAffected)

	// 3. Delete curated questions
	result = db.Exec("DELETE FROM questions")
	fmt.Printf("Deleted %d questions\n", result.RowsAffected)

	// 4. Delete page mappings
	result = db.Exec("DELETE FROM paper_pages")
	fmt.Printf("Deleted %d paper pages\n", result.RowsAffected)
	result = db.Exec("DELETE FROM mark_scheme_pages")
	fmt.Printf("Deleted %d mark scheme pages\n", result.RowsAffected)

	// 5. Delete processing jobs before their papers
	result = db.Exec("DELETE FROM processing_jobs")
	fmt.Printf("Deleted %d processing jobs\n", result.RowsAffected)

	// 6. Delete papers
	result = db.Exec("DELETE FROM papers")
	fmt.Printf("Deleted %d papers\n", result.RowsAffected)

	fmt.Println("\n✅ Cleanup complete!")
	fmt.Println("========================================")
}

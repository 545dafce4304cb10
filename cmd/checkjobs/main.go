package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/examvault/api/model"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Build database URL from individual variables
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

	// Connect to database
	db, err := gorm.Open(postgres.Open(dbURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	fmt.Println("========================================")
	fmt.Println("PROCESSING JOBS STATUS CHECK")
	fmt.Println("========================================")

	// Get recent processing jobs
	var jobs []model.ProcessingJob
	if err := db.Order("created_at DESC").Limit(20).Find(&jobs).Error; err != nil {
		log.Fatalf("Failed to fetch jobs: %v", err)
	}

	if len(jobs) == 0 {
		fmt.Println("\n❌ No processing jobs found in database")
		return
	}

	fmt.Printf("\n📋 Found %d processing jobs:\n\n", len(jobs))

	counts := map[model.ProcessingJobStatus]int{}
	for _, job := range jobs {
		counts[job.Status]++

		statusIcon := "⏳"
		switch job.Status {
		case model.JobStatusCompleted:
			statusIcon = "✅"
		case model.JobStatusFailed:
			statusIcon = "❌"
		case model.JobStatusProcessing:
			statusIcon = "🔄"
		}

		fmt.Printf("%s Job #%d [%s] %d%%\n", statusIcon, job.ID, job.Status, job.Progress)
		fmt.Printf("   Created:  %s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
		if job.CurrentStep != "" {
			fmt.Printf("   Step:     %s\n", job.CurrentStep)
		}
		if job.PaperID != nil {
			fmt.Printf("   Paper:    #%d\n", *job.PaperID)
		}
		if job.Error != "" {
			fmt.Printf("   Error:    %s\n", job.Error)
		}
		fmt.Println()
	}

	fmt.Println("========================================")
	fmt.Printf("Pending: %d | Processing: %d | Completed: %d | Failed: %d\n",
		counts[model.JobStatusPending], counts[model.JobStatusProcessing],
		counts[model.JobStatusCompleted], counts[model.JobStatusFailed])
	fmt.Println("========================================")
}

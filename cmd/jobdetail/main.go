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
	// Get job ID from args
	if len(os.Args) < 2 {
		log.Fatal("Usage: jobdetail <job_id>")
	}
	var jobID uint
	fmt.Sscanf(os.Args[1], "%d", &jobID)

	// Connect to database
	db, err := connectDatabase()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var job model.ProcessingJob
	if err := db.First(&job, jobID).Error; err != nil {
		log.Fatalf("Failed to find job %d: %v", jobID, err)
	}

	fmt.Println("══════════════════════════════════════════════════════════════")
	fmt.Printf("  PROCESSING JOB #%d - DETAILED REPORT\n", job.ID)
	fmt.Println("══════════════════════════════════════════════════════════════")

	// Job metadata
	fmt.Printf("\n📋 JOB METADATA:\n")
	fmt.Printf("   Status:      %s\n", job.Status)
	fmt.Printf("   Progress:    %d%%\n", job.Progress)
	if job.CurrentStep != "" {
		fmt.Printf("   Step:        %s\n", job.CurrentStep)
	}
	fmt.Printf("   Paper URL:   %s\n", job.PaperURL)
	fmt.Printf("   Scheme URL:  %s\n", job.MarkSchemeURL)
	if job.Error != "" {
		fmt.Printf("   Error:       %s\n", job.Error)
	}

	// Timing
	fmt.Printf("\n⏱️  TIMING:\n")
	fmt.Printf("   Created At:   %s\n", job.CreatedAt.Format("2006-01-02 15:04:05.000"))
	fmt.Printf("   Updated At:   %s\n", job.UpdatedAt.Format("2006-01-02 15:04:05.000"))
	if job.CompletedAt != nil {
		fmt.Printf("   Completed At: %s\n", job.CompletedAt.Format("2006-01-02 15:04:05.000"))
		fmt.Printf("   Total Time:   %s\n", job.CompletedAt.Sub(job.CreatedAt))
	}

	// Resulting paper plus its page mappings
	if job.PaperID != nil {
		var paper model.Paper
		err := db.Preload("Board").Preload("Subject").Preload("Level").
			Preload("Pages").Preload("MarkSchemePages").
			First(&paper, *job.PaperID).Error
		if err != nil {
			log.Fatalf("Failed to load paper %d: %v", *job.PaperID, err)
		}

		fmt.Printf("\n📄 PAPER #%d:\n", paper.ID)
		fmt.Printf("   Title:     %s\n", paper.Title)
		fmt.Printf("   Board:     %s\n", paper.Board.Name)
		fmt.Printf("   Subject:   %s\n", paper.Subject.Name)
		fmt.Printf("   Level:     %s\n", paper.Level.Name)
		fmt.Printf("   Year:      %d\n", paper.Year)
		fmt.Printf("   Questions: %d\n", paper.QuestionCount)

		fmt.Printf("\n📑 PAGE MAPPINGS (%d pages):\n", len(paper.Pages))
		for _, page := range paper.Pages {
			fmt.Printf("   Page %3d → %s\n", page.PageNumber, page.QuestionNumber)
		}

		fmt.Printf("\n📑 MARK SCHEME MAPPINGS (%d pages):\n", len(paper.MarkSchemePages))
		for _, page := range paper.MarkSchemePages {
			fmt.Printf("   Page %3d → %s\n", page.PageNumber, page.QuestionNumber)
		}
	}

	fmt.Println("\n══════════════════════════════════════════════════════════════")
}

func connectDatabase() (*gorm.DB, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

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

	return gorm.Open(postgres.Open(dbURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

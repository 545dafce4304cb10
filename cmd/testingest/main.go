package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/examvault/api/database"
	"github.com/examvault/api/model"
	"github.com/examvault/api/services"
	"github.com/examvault/api/services/inference"
)

// Runs the full ingestion pipeline against two real PDF URLs without going
// through HTTP. Useful for exercising extraction prompts against a new exam
// board's layout.
//
// Usage: testingest <paper_pdf_url> <mark_scheme_pdf_url>
func main() {
	log.Println("==============================================")
	log.Println("  Paper Ingestion Pipeline Test")
	log.Println("==============================================")

	if len(os.Args) < 3 {
		log.Fatal("Usage: testingest <paper_pdf_url> <mark_scheme_pdf_url>")
	}
	paperURL := os.Args[1]
	schemeURL := os.Args[2]

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// 1. Connect to database
	log.Println("\n[Step 1] Connecting to database...")
	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()
	if err := store.Init(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("✓ Database connected")

	// 2. Initialize services
	log.Println("\n[Step 2] Initializing services...")
	client := inference.NewClient(inference.Config{
		APIKey:  os.Getenv("INFERENCE_API_KEY"),
		BaseURL: os.Getenv("INFERENCE_BASE_URL"),
		Model:   os.Getenv("INFERENCE_MODEL"),
	})
	extractor := services.NewExtractionService(client)
	processor := services.NewPaperProcessor(store, extractor, nil)
	log.Println("✓ Services initialized")

	// 3. Create the job
	log.Println("\n[Step 3] Creating processing job...")
	job := &model.ProcessingJob{
		PaperURL:      paperURL,
		MarkSchemeURL: schemeURL,
		Status:        model.JobStatusPending,
	}
	if err := store.CreateProcessingJob(job); err != nil {
		log.Fatalf("Failed to create job: %v", err)
	}
	log.Printf("✓ Created job #%d", job.ID)

	// 4. Run the pipeline synchronously and watch progress
	log.Println("\n[Step 4] Running pipeline...")
	done := make(chan error, 1)
	go func() {
		done <- processor.Process(context.Background(), job.ID)
	}()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			final, getErr := store.GetProcessingJob(job.ID)
			if getErr != nil {
				log.Fatalf("Failed to re-read job: %v", getErr)
			}
			if err != nil {
				log.Printf("✗ Pipeline failed: %v", err)
				log.Printf("  Job status: %s, error: %s", final.Status, final.Error)
				os.Exit(1)
			}
			log.Printf("✓ Pipeline completed: status=%s progress=%d%%", final.Status, final.Progress)
			if final.PaperID != nil {
				paper, err := store.GetPaper(*final.PaperID)
				if err != nil {
					log.Fatalf("Failed to load paper: %v", err)
				}
				log.Printf("✓ Paper #%d: %q (%d questions)", paper.ID, paper.Title, paper.QuestionCount)
			}
			return
		case <-ticker.C:
			current, err := store.GetProcessingJob(job.ID)
			if err == nil {
				log.Printf("  ... %d%% - %s", current.Progress, current.CurrentStep)
			}
		}
	}
}

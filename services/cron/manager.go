package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/examvault/api/database"
	"github.com/examvault/api/model"
)

// CronManager schedules the background maintenance jobs
type CronManager struct {
	cron  *cron.Cron
	store database.Storage
}

// NewCronManager creates a new cron manager
func NewCronManager(store database.Storage) *CronManager {
	return &CronManager{
		cron:  cron.New(cron.WithSeconds()),
		store: store,
	}
}

// Start registers and starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

func (m *CronManager) registerJobs() error {
	// Every 10 minutes: fail processing jobs stuck beyond the timeout
	_, err := m.cron.AddFunc("0 */10 * * * *", func() {
		m.runJob("fail_stale_processing_jobs", m.FailStaleProcessingJobs)
	})
	if err != nil {
		return err
	}

	// Daily at 3 AM: purge old terminal processing jobs
	_, err = m.cron.AddFunc("0 0 3 * * *", func() {
		m.runJob("purge_terminal_jobs", m.PurgeTerminalJobs)
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// runJob executes one job and records its outcome in cron_job_logs
func (m *CronManager) runJob(jobName string, fn func() (string, error)) {
	startedAt := time.Now()
	log.Printf("[CRON] Starting job: %s at %s", jobName, startedAt.Format(time.RFC3339))

	message, err := fn()
	completedAt := time.Now()

	entry := &model.CronJobLog{
		JobName:     jobName,
		StartedAt:   startedAt,
		CompletedAt: &completedAt,
	}

	if err != nil {
		log.Printf("[CRON] Error in job: %s - %v", jobName, err)
		entry.Status = "failed"
		entry.Message = err.Error()
	} else {
		log.Printf("[CRON] Completed job: %s - %s", jobName, message)
		entry.Status = "completed"
		entry.Message = message
	}

	if logErr := m.store.CreateCronJobLog(entry); logErr != nil {
		log.Printf("[CRON] Failed to record log for job %s: %v", jobName, logErr)
	}
}

package cron

import (
	"errors"
	"testing"

	"github.com/examvault/api/database"
	"github.com/examvault/api/model"
)

func TestFailStaleProcessingJobsLeavesFreshJobs(t *testing.T) {
	store := database.NewMemoryStore()
	manager := NewCronManager(store)

	job := &model.ProcessingJob{PaperURL: "a", MarkSchemeURL: "b", Status: model.JobStatusPending}
	if err := store.CreateProcessingJob(job); err != nil {
		t.Fatalf("CreateProcessingJob: %v", err)
	}

	status := model.JobStatusProcessing
	if err := store.UpdateProcessingJob(job.ID, model.JobUpdate{Status: &status}); err != nil {
		t.Fatalf("UpdateProcessingJob: %v", err)
	}

	message, err := manager.FailStaleProcessingJobs()
	if err != nil {
		t.Fatalf("FailStaleProcessingJobs: %v", err)
	}
	if message != "No stale jobs found" {
		t.Errorf("message = %q", message)
	}

	got, err := store.GetProcessingJob(job.ID)
	if err != nil {
		t.Fatalf("GetProcessingJob: %v", err)
	}
	if got.Status != model.JobStatusProcessing {
		t.Errorf("fresh job flipped to %q", got.Status)
	}
}

func TestPurgeTerminalJobsEmptyStore(t *testing.T) {
	manager := NewCronManager(database.NewMemoryStore())

	message, err := manager.PurgeTerminalJobs()
	if err != nil {
		t.Fatalf("PurgeTerminalJobs: %v", err)
	}
	if message != "No terminal jobs to purge" {
		t.Errorf("message = %q", message)
	}
}

func TestRunJobRecordsOutcome(t *testing.T) {
	store := database.NewMemoryStore()
	manager := NewCronManager(store)

	// Both the success and failure paths must complete without panicking.
	manager.runJob("fail_stale_processing_jobs", manager.FailStaleProcessingJobs)
	manager.runJob("always_fails", func() (string, error) {
		return "", errors.New("boom")
	})
}

func TestRegisterJobs(t *testing.T) {
	manager := NewCronManager(database.NewMemoryStore())
	if err := manager.registerJobs(); err != nil {
		t.Fatalf("registerJobs: %v", err)
	}

	if got := len(manager.cron.Entries()); got != 2 {
		t.Errorf("got %d cron entries, want 2", got)
	}
}

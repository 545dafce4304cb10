package cron

import (
	"fmt"
	"time"
)

const (
	// staleJobTimeout is how long a job may sit in processing before the
	// janitor declares it dead
	staleJobTimeout = 30 * time.Minute
	// terminalJobRetention is how long completed and failed jobs are kept
	terminalJobRetention = 7 * 24 * time.Hour
)

// FailStaleProcessingJobs marks jobs stuck in processing beyond the timeout
// as failed. A crashed worker leaves its job in processing forever otherwise.
func (m *CronManager) FailStaleProcessingJobs() (string, error) {
	cutoff := time.Now().Add(-staleJobTimeout)

	count, err := m.store.FailStaleProcessingJobs(cutoff, "processing timed out")
	if err != nil {
		return "", fmt.Errorf("failed to fail stale jobs: %w", err)
	}

	if count == 0 {
		return "No stale jobs found", nil
	}
	return fmt.Sprintf("Failed %d stale processing jobs", count), nil
}

// PurgeTerminalJobs deletes completed and failed jobs past the retention
// window. Papers created by those jobs are untouched.
func (m *CronManager) PurgeTerminalJobs() (string, error) {
	cutoff := time.Now().Add(-terminalJobRetention)

	count, err := m.store.DeleteTerminalJobsBefore(cutoff)
	if err != nil {
		return "", fmt.Errorf("failed to purge terminal jobs: %w", err)
	}

	if count == 0 {
		return "No terminal jobs to purge", nil
	}
	return fmt.Sprintf("Purged %d terminal jobs", count), nil
}

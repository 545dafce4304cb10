package model

import (
	"time"
)

// ProcessingJobStatus represents the status of a paper ingestion job
type ProcessingJobStatus string

const (
	JobStatusPending    ProcessingJobStatus = "pending"
	JobStatusProcessing ProcessingJobStatus = "processing"
	JobStatusCompleted  ProcessingJobStatus = "completed"
	JobStatusFailed     ProcessingJobStatus = "failed"
)

// Step labels surfaced to polling clients while a job is processing
const (
	StepExtractMetadata    = "Extracting metadata from paper"
	StepExtractPaperPages  = "Extracting page mappings from paper"
	StepExtractSchemePages = "Extracting page mappings from mark scheme"
	StepResolveTaxonomy    = "Finding or creating board/subject/level"
	StepCreatePaper        = "Creating paper record"
	StepSavePageMappings   = "Saving page mappings"
	StepComplete           = "Processing complete"
)

// ProcessingJob tracks one paper ingestion request from two PDF URLs.
// Jobs are transient and never reused; clients poll until a terminal status.
type ProcessingJob struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	PaperURL      string              `gorm:"type:text;not null" json:"paper_url"`
	MarkSchemeURL string              `gorm:"type:text;not null" json:"mark_scheme_url"`
	Status        ProcessingJobStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Progress      int                 `gorm:"default:0" json:"progress"` // 0-100
	CurrentStep   string              `gorm:"type:varchar(100)" json:"current_step,omitempty"`
	PaperID       *uint               `gorm:"index" json:"paper_id,omitempty"` // set before terminal completion so pollers can redirect
	Error         string              `gorm:"type:text" json:"error,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`

	Paper *Paper `gorm:"foreignKey:PaperID;constraint:OnDelete:SET NULL" json:"-"`
}

// IsTerminal returns true once the job has finished; terminal jobs must not
// be mutated again
func (j *ProcessingJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// JobUpdate carries a partial update for a processing job. Nil fields are
// left untouched so progress writes stay monotone.
type JobUpdate struct {
	Status      *ProcessingJobStatus
	Progress    *int
	CurrentStep *string
	PaperID     *uint
	Error       *string
	CompletedAt *time.Time
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

// FeedbackMode controls when a student's answers are marked
type FeedbackMode string

const (
	// FeedbackImmediate marks each answer synchronously on submission
	FeedbackImmediate FeedbackMode = "immediate"
	// FeedbackEndOfExam defers marking until the student finishes and
	// mark-all is called
	FeedbackEndOfExam FeedbackMode = "end_of_exam"
)

// Valid reports whether m is a known feedback mode
func (m FeedbackMode) Valid() bool {
	return m == FeedbackImmediate || m == FeedbackEndOfExam
}

// Confidence is the AI marker's self-reported confidence. Low-confidence
// responses flow into the human moderation queue.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Attempt represents one student's practice session against one paper.
// Attempts are never deduplicated by session; the client reuses persisted
// attempt IDs instead.
type Attempt struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	PaperID      uint         `gorm:"index;not null" json:"paper_id"`
	SessionID    string       `gorm:"type:varchar(100);not null;index" json:"session_id"`
	FeedbackMode FeedbackMode `gorm:"type:varchar(20);default:'immediate'" json:"feedback_mode"`
	StartedAt    time.Time    `json:"started_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	TotalScore   *int         `json:"total_score,omitempty"`
	MaxScore     *int         `json:"max_score,omitempty"`

	// Relationships
	Paper     Paper      `gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE" json:"-"`
	Responses []Response `gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE" json:"responses,omitempty"`
}

// Response is a student's answer to one question within an attempt plus its
// marking outcome. One row per (attempt, question number); retake deletes
// the row so the question can be answered again.
type Response struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	AttemptID       uint           `gorm:"not null;index:idx_responses_attempt_question,unique" json:"attempt_id"`
	QuestionID      *uint          `gorm:"index" json:"question_id,omitempty"`
	QuestionNumber  string         `gorm:"type:varchar(20);not null;index:idx_responses_attempt_question,unique" json:"question_number"`
	StudentAnswer   string         `gorm:"type:text;not null" json:"student_answer"`
	AIScore         *int           `json:"ai_score,omitempty"`
	AIFeedback      string         `gorm:"type:text" json:"ai_feedback,omitempty"`
	AIConfidence    Confidence     `gorm:"type:varchar(10)" json:"ai_confidence,omitempty"`
	ImprovementTips datatypes.JSON `gorm:"type:jsonb" json:"improvement_tips,omitempty"`
	ReviewedByHuman bool           `gorm:"default:false;index" json:"reviewed_by_human"`
	FinalScore      *int           `json:"final_score,omitempty"`
	FinalFeedback   string         `gorm:"type:text" json:"final_feedback,omitempty"`

	// Relationships
	Attempt  Attempt   `gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE" json:"-"`
	Question *Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:SET NULL" json:"-"`
}

// Marked reports whether the response already carries an AI marking result
func (r *Response) Marked() bool {
	return r.AIScore != nil || r.AIFeedback != ""
}

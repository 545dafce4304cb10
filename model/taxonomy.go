package model

import (
	"time"
)

// Board represents an exam board (e.g., "AQA", "Edexcel", "OCR").
// Boards are created once by the ingestion pipeline and never deleted.
type Board struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"` // e.g., "aqa", "cambridge-international"
}

// Level represents a qualification level (e.g., "GCSE", "A-Level")
type Level struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
}

// Subject represents a subject within a level (e.g., "Mathematics" at GCSE).
// The same subject name may exist under several levels.
type Subject struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"not null;index:idx_subjects_name_level,unique" json:"name"`
	LevelID   uint      `gorm:"not null;index:idx_subjects_name_level,unique" json:"level_id"`

	// Relationships
	Level Level `gorm:"foreignKey:LevelID;constraint:OnDelete:CASCADE" json:"level,omitempty"`
}

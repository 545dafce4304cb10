package model

import (
	"time"
)

// PaperStatus represents the lifecycle status of a paper
type PaperStatus string

const (
	PaperStatusActive   PaperStatus = "active"
	PaperStatusArchived PaperStatus = "archived"
)

// Paper represents a single past exam paper. A Paper row is created exactly
// once by the ingestion pipeline on success and is immutable afterwards,
// except for URL normalization when the PDFs are archived to object storage.
type Paper struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	SubjectID     uint        `gorm:"index;not null" json:"subject_id"`
	BoardID       uint        `gorm:"index;not null" json:"board_id"`
	LevelID       uint        `gorm:"index;not null" json:"level_id"`
	Year          int         `gorm:"index;not null" json:"year"`
	Title         string      `gorm:"not null" json:"title"`
	Series        string      `gorm:"type:varchar(50)" json:"series,omitempty"`     // e.g., "June", "November"
	PaperCode     string      `gorm:"type:varchar(50)" json:"paper_code,omitempty"` // e.g., "7182/1", "8300/2H"
	Tier          string      `gorm:"type:varchar(50)" json:"tier,omitempty"`       // e.g., "Higher", "Foundation"
	PDFURL        string      `gorm:"type:text;not null" json:"pdf_url"`
	MarkSchemeURL string      `gorm:"type:text;not null" json:"mark_scheme_url"`
	QuestionCount int         `gorm:"default:0" json:"question_count"`
	TotalMarks    int         `gorm:"default:0" json:"total_marks"`
	Status        PaperStatus `gorm:"type:varchar(20);default:'active'" json:"status"`

	// Relationships
	Subject         Subject          `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"subject,omitempty"`
	Board           Board            `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"board,omitempty"`
	Level           Level            `gorm:"foreignKey:LevelID;constraint:OnDelete:CASCADE" json:"level,omitempty"`
	Pages           []PaperPage      `gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE" json:"pages,omitempty"`
	MarkSchemePages []MarkSchemePage `gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE" json:"mark_scheme_pages,omitempty"`
	Questions       []Question       `gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

// PaperPage maps one page of the paper PDF to the question that appears on
// it. Pages without questions (cover, instructions) have no row. When a
// question spans multiple pages, the lowest page number wins for lookups.
type PaperPage struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	PaperID        uint      `gorm:"not null;index:idx_paper_pages_paper_page,unique" json:"paper_id"`
	PageNumber     int       `gorm:"not null;index:idx_paper_pages_paper_page,unique" json:"page_number"`
	QuestionNumber string    `gorm:"type:varchar(20);not null" json:"question_number"` // e.g., "Q1", "Q3a"

	Paper Paper `gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE" json:"-"`
}

// MarkSchemePage mirrors PaperPage for the mark scheme document
type MarkSchemePage struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	PaperID        uint      `gorm:"not null;index:idx_ms_pages_paper_page,unique" json:"paper_id"`
	PageNumber     int       `gorm:"not null;index:idx_ms_pages_paper_page,unique" json:"page_number"`
	QuestionNumber string    `gorm:"type:varchar(20);not null" json:"question_number"`

	Paper Paper `gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE" json:"-"`
}

// Question carries optional per-question detail that admins curate by hand:
// the mark ceiling, instructions and a mark scheme excerpt. Marking uses
// MaxMarks to clamp awarded marks when a Question row exists.
type Question struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	PaperID           uint      `gorm:"index;not null" json:"paper_id"`
	QuestionNumber    string    `gorm:"type:varchar(20);not null" json:"question_number"`
	PageNumber        int       `gorm:"not null" json:"page_number"`
	MaxMarks          int       `gorm:"not null" json:"max_marks"`
	Instructions      string    `gorm:"type:text" json:"instructions,omitempty"`
	MarkSchemeExcerpt string    `gorm:"type:text" json:"mark_scheme_excerpt,omitempty"`

	Paper Paper `gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE" json:"-"`
}

// ============= Response Types =============

// PaperSummary is a lightweight version for listing, enriched with the
// resolved taxonomy names
type PaperSummary struct {
	ID            uint        `json:"id"`
	Title         string      `json:"title"`
	Year          int         `json:"year"`
	Series        string      `json:"series,omitempty"`
	PaperCode     string      `json:"paper_code,omitempty"`
	Tier          string      `json:"tier,omitempty"`
	QuestionCount int         `json:"question_count"`
	Status        PaperStatus `json:"status"`
	BoardName     string      `json:"board_name"`
	SubjectName   string      `json:"subject_name"`
	LevelName     string      `json:"level_name"`
}

// ToSummary converts a Paper (with taxonomy preloaded) into a PaperSummary
func (p *Paper) ToSummary() PaperSummary {
	return PaperSummary{
		ID:            p.ID,
		Title:         p.Title,
		Year:          p.Year,
		Series:        p.Series,
		PaperCode:     p.PaperCode,
		Tier:          p.Tier,
		QuestionCount: p.QuestionCount,
		Status:        p.Status,
		BoardName:     p.Board.Name,
		SubjectName:   p.Subject.Name,
		LevelName:     p.Level.Name,
	}
}

// PapersListResponse for listing multiple papers
type PapersListResponse struct {
	Papers []PaperSummary `json:"papers"`
	Total  int            `json:"total"`
}

// PaperFilter narrows paper listings; zero values mean "no filter"
type PaperFilter struct {
	LevelID   uint
	BoardID   uint
	SubjectID uint
	Year      int
}

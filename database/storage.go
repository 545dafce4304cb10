package database

import (
	"errors"
	"time"

	"github.com/examvault/api/model"
)

var (
	// ErrNotFound is returned when a record does not exist in the store
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint; taxonomy resolution re-reads and returns the winner
	ErrDuplicate = errors.New("duplicate record")
)

// Storage defines the persistence operations the service consumes. All
// implementations (GORM, raw PostgreSQL, in-memory) must satisfy it.
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error

	// Underlying DB access (returns *gorm.DB or *sql.DB, nil for memory)
	GetDB() interface{}

	// Taxonomy
	GetBoards() ([]model.Board, error)
	GetBoardByName(name string) (*model.Board, error)
	CreateBoard(board *model.Board) error
	GetLevels() ([]model.Level, error)
	GetLevelByName(name string) (*model.Level, error)
	CreateLevel(level *model.Level) error
	GetSubjects() ([]model.Subject, error)
	GetSubjectByName(name string, levelID uint) (*model.Subject, error)
	CreateSubject(subject *model.Subject) error

	// Papers
	GetPapers(filter model.PaperFilter) ([]model.Paper, error)
	GetPaper(id uint) (*model.Paper, error)
	CreatePaper(paper *model.Paper) error
	UpdatePaperURLs(id uint, pdfURL, markSchemeURL string) error
	GetPaperPages(paperID uint) ([]model.PaperPage, error)
	CreatePaperPage(page *model.PaperPage) error
	GetMarkSchemePages(paperID uint) ([]model.MarkSchemePage, error)
	CreateMarkSchemePage(page *model.MarkSchemePage) error
	GetQuestions(paperID uint) ([]model.Question, error)
	GetQuestionByNumber(paperID uint, questionNumber string) (*model.Question, error)
	CreateQuestion(question *model.Question) error

	// Attempts & responses
	CreateAttempt(attempt *model.Attempt) error
	GetAttempt(id uint) (*model.Attempt, error)
	UpdateAttempt(attempt *model.Attempt) error
	CreateResponse(response *model.Response) error
	GetResponse(id uint) (*model.Response, error)
	GetResponses(attemptID uint) ([]model.Response, error)
	GetResponseByQuestion(attemptID uint, questionNumber string) (*model.Response, error)
	UpdateResponse(response *model.Response) error
	DeleteResponse(id uint) error
	GetLowConfidenceResponses() ([]model.Response, error)

	// Admin users
	GetAdminUserByEmail(email string) (*model.AdminUser, error)
	CreateAdminUser(user *model.AdminUser) error

	// Processing jobs
	CreateProcessingJob(job *model.ProcessingJob) error
	GetProcessingJob(id uint) (*model.ProcessingJob, error)
	UpdateProcessingJob(id uint, update model.JobUpdate) error
	FailStaleProcessingJobs(olderThan time.Time, reason string) (int64, error)
	DeleteTerminalJobsBefore(cutoff time.Time) (int64, error)

	// Cron audit
	CreateCronJobLog(entry *model.CronJobLog) error
}

package database

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/examvault/api/config"
	"github.com/examvault/api/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GORMStore struct {
	db *gorm.DB
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	// Build DSN (Data Source Name)
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getEnv.DB_HOST,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_PORT,
		getEnv.DB_SSL_MODE,
	)

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if getEnv.GO_ENV == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: false,
		PrepareStmt:            true,
	})
	if err != nil {
		log.Println("Unable to connect to PostgreSQL with GORM:", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to PostgreSQL Database with GORM.")

	return &GORMStore{db: db}, nil
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	log.Println("Running GORM AutoMigrate for all models...")

	err := s.db.AutoMigrate(
		// Taxonomy models
		&model.Board{},
		&model.Level{},
		&model.Subject{},

		// Paper models
		&model.Paper{},
		&model.PaperPage{},
		&model.MarkSchemePage{},
		&model.Question{},

		// Student practice models
		&model.Attempt{},
		&model.Response{},

		// Admin & ingestion models
		&model.AdminUser{},
		&model.ProcessingJob{},

		// Audit models
		&model.CronJobLog{},
	)

	if err != nil {
		log.Println("Error running AutoMigrate:", err)
		return err
	}

	log.Println("GORM AutoMigrate completed successfully!")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Println("Closing GORM PostgreSQL connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in seeds and scripts
func (s *GORMStore) GetDB() interface{} {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// translateError maps GORM errors onto the store's sentinel errors
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
		return ErrDuplicate
	}
	return err
}

// ============= Taxonomy =============

func (s *GORMStore) GetBoards() ([]model.Board, error) {
	var boards []model.Board
	result := s.db.Order("name ASC").Find(&boards)
	return boards, result.Error
}

func (s *GORMStore) GetBoardByName(name string) (*model.Board, error) {
	var board model.Board
	err := s.db.Where("LOWER(name) = LOWER(?)", name).First(&board).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &board, nil
}

func (s *GORMStore) CreateBoard(board *model.Board) error {
	return translateError(s.db.Create(board).Error)
}

func (s *GORMStore) GetLevels() ([]model.Level, error) {
	var levels []model.Level
	result := s.db.Order("name ASC").Find(&levels)
	return levels, result.Error
}

func (s *GORMStore) GetLevelByName(name string) (*model.Level, error) {
	var level model.Level
	err := s.db.Where("LOWER(name) = LOWER(?)", name).First(&level).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &level, nil
}

func (s *GORMStore) CreateLevel(level *model.Level) error {
	return translateError(s.db.Create(level).Error)
}

func (s *GORMStore) GetSubjects() ([]model.Subject, error) {
	var subjects []model.Subject
	result := s.db.Preload("Level").Order("name ASC").Find(&subjects)
	return subjects, result.Error
}

func (s *GORMStore) GetSubjectByName(name string, levelID uint) (*model.Subject, error) {
	var subject model.Subject
	err := s.db.Where("LOWER(name) = LOWER(?) AND level_id = ?", name, levelID).First(&subject).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &subject, nil
}

func (s *GORMStore) CreateSubject(subject *model.Subject) error {
	return translateError(s.db.Create(subject).Error)
}

// ============= Papers =============

func (s *GORMStore) GetPapers(filter model.PaperFilter) ([]model.Paper, error) {
	query := s.db.Preload("Board").Preload("Subject").Preload("Level")

	if filter.LevelID != 0 {
		query = query.Where("level_id = ?", filter.LevelID)
	}
	if filter.BoardID != 0 {
		query = query.Where("board_id = ?", filter.BoardID)
	}
	if filter.SubjectID != 0 {
		query = query.Where("subject_id = ?", filter.SubjectID)
	}
	if filter.Year != 0 {
		query = query.Where("year = ?", filter.Year)
	}

	var papers []model.Paper
	result := query.Order("year DESC").Find(&papers)
	return papers, result.Error
}

func (s *GORMStore) GetPaper(id uint) (*model.Paper, error) {
	var paper model.Paper
	err := s.db.Preload("Board").Preload("Subject").Preload("Level").First(&paper, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &paper, nil
}

func (s *GORMStore) CreatePaper(paper *model.Paper) error {
	return translateError(s.db.Create(paper).Error)
}

func (s *GORMStore) UpdatePaperURLs(id uint, pdfURL, markSchemeURL string) error {
	result := s.db.Model(&model.Paper{}).Where("id = ?", id).Updates(map[string]interface{}{
		"pdf_url":         pdfURL,
		"mark_scheme_url": markSchemeURL,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GORMStore) GetPaperPages(paperID uint) ([]model.PaperPage, error) {
	var pages []model.PaperPage
	result := s.db.Where("paper_id = ?", paperID).Order("page_number ASC").Find(&pages)
	return pages, result.Error
}

func (s *GORMStore) CreatePaperPage(page *model.PaperPage) error {
	return translateError(s.db.Create(page).Error)
}

func (s *GORMStore) GetMarkSchemePages(paperID uint) ([]model.MarkSchemePage, error) {
	var pages []model.MarkSchemePage
	result := s.db.Where("paper_id = ?", paperID).Order("page_number ASC").Find(&pages)
	return pages, result.Error
}

func (s *GORMStore) CreateMarkSchemePage(page *model.MarkSchemePage) error {
	return translateError(s.db.Create(page).Error)
}

func (s *GORMStore) GetQuestions(paperID uint) ([]model.Question, error) {
	var questions []model.Question
	result := s.db.Where("paper_id = ?", paperID).Order("page_number ASC").Find(&questions)
	return questions, result.Error
}

func (s *GORMStore) GetQuestionByNumber(paperID uint, questionNumber string) (*model.Question, error) {
	var question model.Question
	err := s.db.Where("paper_id = ? AND question_number = ?", paperID, questionNumber).First(&question).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &question, nil
}

func (s *GORMStore) CreateQuestion(question *model.Question) error {
	return translateError(s.db.Create(question).Error)
}

// ============= Attempts & responses =============

func (s *GORMStore) CreateAttempt(attempt *model.Attempt) error {
	return translateError(s.db.Create(attempt).Error)
}

func (s *GORMStore) GetAttempt(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := s.db.First(&attempt, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &attempt, nil
}

func (s *GORMStore) UpdateAttempt(attempt *model.Attempt) error {
	return translateError(s.db.Save(attempt).Error)
}

func (s *GORMStore) CreateResponse(response *model.Response) error {
	return translateError(s.db.Create(response).Error)
}

func (s *GORMStore) GetResponse(id uint) (*model.Response, error) {
	var response model.Response
	err := s.db.First(&response, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &response, nil
}

func (s *GORMStore) GetResponses(attemptID uint) ([]model.Response, error) {
	var responses []model.Response
	result := s.db.Where("attempt_id = ?", attemptID).Order("created_at ASC").Find(&responses)
	return responses, result.Error
}

func (s *GORMStore) GetResponseByQuestion(attemptID uint, questionNumber string) (*model.Response, error) {
	var response model.Response
	err := s.db.Where("attempt_id = ? AND question_number = ?", attemptID, questionNumber).First(&response).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &response, nil
}

func (s *GORMStore) UpdateResponse(response *model.Response) error {
	return translateError(s.db.Save(response).Error)
}

func (s *GORMStore) DeleteResponse(id uint) error {
	result := s.db.Delete(&model.Response{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GORMStore) GetLowConfidenceResponses() ([]model.Response, error) {
	var responses []model.Response
	result := s.db.
		Where("reviewed_by_human = ? AND ai_confidence = ?", false, model.ConfidenceLow).
		Order("created_at ASC").
		Find(&responses)
	return responses, result.Error
}

// ============= Admin users =============

func (s *GORMStore) GetAdminUserByEmail(email string) (*model.AdminUser, error) {
	var user model.AdminUser
	err := s.db.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (s *GORMStore) CreateAdminUser(user *model.AdminUser) error {
	return translateError(s.db.Create(user).Error)
}

// ============= Processing jobs =============

func (s *GORMStore) CreateProcessingJob(job *model.ProcessingJob) error {
	return translateError(s.db.Create(job).Error)
}

func (s *GORMStore) GetProcessingJob(id uint) (*model.ProcessingJob, error) {
	var job model.ProcessingJob
	err := s.db.First(&job, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &job, nil
}

func (s *GORMStore) UpdateProcessingJob(id uint, update model.JobUpdate) error {
	fields := map[string]interface{}{}
	if update.Status != nil {
		fields["status"] = *update.Status
	}
	if update.Progress != nil {
		fields["progress"] = *update.Progress
	}
	if update.CurrentStep != nil {
		fields["current_step"] = *update.CurrentStep
	}
	if update.PaperID != nil {
		fields["paper_id"] = *update.PaperID
	}
	if update.Error != nil {
		fields["error"] = *update.Error
	}
	if update.CompletedAt != nil {
		fields["completed_at"] = *update.CompletedAt
	}
	if len(fields) == 0 {
		return nil
	}

	result := s.db.Model(&model.ProcessingJob{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GORMStore) FailStaleProcessingJobs(olderThan time.Time, reason string) (int64, error) {
	result := s.db.Model(&model.ProcessingJob{}).
		Where("status = ? AND updated_at < ?", model.JobStatusProcessing, olderThan).
		Updates(map[string]interface{}{
			"status": model.JobStatusFailed,
			"error":  reason,
		})
	return result.RowsAffected, result.Error
}

func (s *GORMStore) DeleteTerminalJobsBefore(cutoff time.Time) (int64, error) {
	result := s.db.
		Where("status IN ? AND created_at < ?",
			[]model.ProcessingJobStatus{model.JobStatusCompleted, model.JobStatusFailed}, cutoff).
		Delete(&model.ProcessingJob{})
	return result.RowsAffected, result.Error
}

// ============= Cron audit =============

func (s *GORMStore) CreateCronJobLog(entry *model.CronJobLog) error {
	return s.db.Create(entry).Error
}

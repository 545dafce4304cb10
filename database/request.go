package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/examvault/api/model"
)

// pqError maps driver errors onto the store's sentinel errors
func pqError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var perr *pq.Error
	if errors.As(err, &perr) && perr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullUint(v *uint) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func uintPtr(v sql.NullInt64) *uint {
	if !v.Valid {
		return nil
	}
	n := uint(v.Int64)
	return &n
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// ============= Taxonomy =============

func (s *PostgreSQLStore) GetBoards() ([]model.Board, error) {
	rows, err := s.db.Query(`SELECT id, created_at, updated_at, name, slug FROM boards ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []model.Board
	for rows.Next() {
		var b model.Board
		if err := rows.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt, &b.Name, &b.Slug); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

func (s *PostgreSQLStore) GetBoardByName(name string) (*model.Board, error) {
	var b model.Board
	err := s.db.QueryRow(
		`SELECT id, created_at, updated_at, name, slug FROM boards WHERE LOWER(name) = LOWER($1)`, name,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt, &b.Name, &b.Slug)
	if err != nil {
		return nil, pqError(err)
	}
	return &b, nil
}

func (s *PostgreSQLStore) CreateBoard(board *model.Board) error {
	err := s.db.QueryRow(
		`INSERT INTO boards (name, slug) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		board.Name, board.Slug,
	).Scan(&board.ID, &board.CreatedAt, &board.UpdatedAt)
	return pqError(err)
}

func (s *PostgreSQLStore) GetLevels() ([]model.Level, error) {
	rows, err := s.db.Query(`SELECT id, created_at, updated_at, name FROM levels ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []model.Level
	for rows.Next() {
		var l model.Level
		if err := rows.Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt, &l.Name); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

func (s *PostgreSQLStore) GetLevelByName(name string) (*model.Level, error) {
	var l model.Level
	err := s.db.QueryRow(
		`SELECT id, created_at, updated_at, name FROM levels WHERE LOWER(name) = LOWER($1)`, name,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt, &l.Name)
	if err != nil {
		return nil, pqError(err)
	}
	return &l, nil
}

func (s *PostgreSQLStore) CreateLevel(level *model.Level) error {
	err := s.db.QueryRow(
		`INSERT INTO levels (name) VALUES ($1) RETURNING id, created_at, updated_at`,
		level.Name,
	).Scan(&level.ID, &level.CreatedAt, &level.UpdatedAt)
	return pqError(err)
}

func (s *PostgreSQLStore) GetSubjects() ([]model.Subject, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.created_at, s.updated_at, s.name, s.level_id, l.id, l.name
		FROM subjects s
		JOIN levels l ON l.id = s.level_id
		ORDER BY s.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var sub model.Subject
		if err := rows.Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt, &sub.Name, &sub.LevelID,
			&sub.Level.ID, &sub.Level.Name); err != nil {
			return nil, err
		}
		subjects = append(subjects, sub)
	}
	return subjects, rows.Err()
}

func (s *PostgreSQLStore) GetSubjectByName(name string, levelID uint) (*model.Subject, error) {
	var sub model.Subject
	err := s.db.QueryRow(
		`SELECT id, created_at, updated_at, name, level_id FROM subjects
		 WHERE LOWER(name) = LOWER($1) AND level_id = $2`, name, levelID,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt, &sub.Name, &sub.LevelID)
	if err != nil {
		return nil, pqError(err)
	}
	return &sub, nil
}

func (s *PostgreSQLStore) CreateSubject(subject *model.Subject) error {
	err := s.db.QueryRow(
		`INSERT INTO subjects (name, level_id) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		subject.Name, subject.LevelID,
	).Scan(&subject.ID, &subject.CreatedAt, &subject.UpdatedAt)
	return pqError(err)
}

// ============= Papers =============

const paperColumns = `
	p.id, p.created_at, p.updated_at, p.subject_id, p.board_id, p.level_id,
	p.year, p.title, p.series, p.paper_code, p.tier, p.pdf_url, p.mark_scheme_url,
	p.question_count, p.total_marks, p.status,
	b.id, b.name, sub.id, sub.name, l.id, l.name`

func scanPaper(scanner interface{ Scan(...interface{}) error }) (*model.Paper, error) {
	var p model.Paper
	err := scanner.Scan(
		&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.SubjectID, &p.BoardID, &p.LevelID,
		&p.Year, &p.Title, &p.Series, &p.PaperCode, &p.Tier, &p.PDFURL, &p.MarkSchemeURL,
		&p.QuestionCount, &p.TotalMarks, &p.Status,
		&p.Board.ID, &p.Board.Name, &p.Subject.ID, &p.Subject.Name, &p.Level.ID, &p.Level.Name,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgreSQLStore) GetPapers(filter model.PaperFilter) ([]model.Paper, error) {
	query := `SELECT ` + paperColumns + `
		FROM papers p
		JOIN boards b ON b.id = p.board_id
		JOIN subjects sub ON sub.id = p.subject_id
		JOIN levels l ON l.id = p.level_id
		WHERE ($1 = 0 OR p.level_id = $1)
		  AND ($2 = 0 OR p.board_id = $2)
		  AND ($3 = 0 OR p.subject_id = $3)
		  AND ($4 = 0 OR p.year = $4)
		ORDER BY p.year DESC`

	rows, err := s.db.Query(query, filter.LevelID, filter.BoardID, filter.SubjectID, filter.Year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var papers []model.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, *p)
	}
	return papers, rows.Err()
}

func (s *PostgreSQLStore) GetPaper(id uint) (*model.Paper, error) {
	row := s.db.QueryRow(`SELECT `+paperColumns+`
		FROM papers p
		JOIN boards b ON b.id = p.board_id
		JOIN subjects sub ON sub.id = p.subject_id
		JOIN levels l ON l.id = p.level_id
		WHERE p.id = $1`, id)

	p, err := scanPaper(row)
	if err != nil {
		return nil, pqError(err)
	}
	return p, nil
}

func (s *PostgreSQLStore) CreatePaper(paper *model.Paper) error {
	err := s.db.QueryRow(
		`INSERT INTO papers (subject_id, board_id, level_id, year, title, series, paper_code, tier,
			pdf_url, mark_scheme_url, question_count, total_marks, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at, updated_at`,
		paper.SubjectID, paper.BoardID, paper.LevelID, paper.Year, paper.Title,
		paper.Series, paper.PaperCode, paper.Tier, paper.PDFURL, paper.MarkSchemeURL,
		paper.QuestionCount, paper.TotalMarks, paperStatusOrDefault(paper.Status),
	).Scan(&paper.ID, &paper.CreatedAt, &paper.UpdatedAt)
	return pqError(err)
}

func paperStatusOrDefault(status model.PaperStatus) model.PaperStatus {
	if status == "" {
		return model.PaperStatusActive
	}
	return status
}

func (s *PostgreSQLStore) UpdatePaperURLs(id uint, pdfURL, markSchemeURL string) error {
	result, err := s.db.Exec(
		`UPDATE papers SET pdf_url = $1, mark_scheme_url = $2, updated_at = now() WHERE id = $3`,
		pdfURL, markSchemeURL, id,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgreSQLStore) GetPaperPages(paperID uint) ([]model.PaperPage, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, updated_at, paper_id, page_number, question_number
		 FROM paper_pages WHERE paper_id = $1 ORDER BY page_number ASC`, paperID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []model.PaperPage
	for rows.Next() {
		var p model.PaperPage
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.PaperID, &p.PageNumber, &p.QuestionNumber); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *PostgreSQLStore) CreatePaperPage(page *model.PaperPage) error {
	err := s.db.QueryRow(
		`INSERT INTO paper_pages (paper_id, page_number, question_number)
		 VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		page.PaperID, page.PageNumber, page.QuestionNumber,
	).Scan(&page.ID, &page.CreatedAt, &page.UpdatedAt)
	return pqError(err)
}

func (s *PostgreSQLStore) GetMarkSchemePages(paperID uint) ([]model.MarkSchemePage, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, updated_at, paper_id, page_number, question_number
		 FROM mark_scheme_pages WHERE paper_id = $1 ORDER BY page_number ASC`, paperID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []model.MarkSchemePage
	for rows.Next() {
		var p model.MarkSchemePage
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.PaperID, &p.PageNumber, &p.QuestionNumber); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *PostgreSQLStore) CreateMarkSchemePage(page *model.MarkSchemePage) error {
	err := s.db.QueryRow(
		`INSERT INTO mark_scheme_pages (paper_id, page_number, question_number)
		 VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		page.PaperID, page.PageNumber, page.QuestionNumber,
	).Scan(&page.ID, &page.CreatedAt, &page.UpdatedAt)
	return pqError(err)
}

func (s *PostgreSQLStore) GetQuestions(paperID uint) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, updated_at, paper_id, question_number, page_number,
			max_marks, instructions, mark_scheme_excerpt
		 FROM questions WHERE paper_id = $1 ORDER BY page_number ASC`, paperID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt, &q.PaperID, &q.QuestionNumber,
			&q.PageNumber, &q.MaxMarks, &q.Instructions, &q.MarkSchemeExcerpt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *PostgreSQLStore) GetQuestionByNumber(paperID uint, questionNumber string) (*model.Question, error) {
	var q model.Question
	err := s.db.QueryRow(
		`SELECT id, created_at, updated_at, paper_id, question_number, page_number,
			max_marks, instructions, mark_scheme_excerpt
		 FROM questions WHERE paper_id = $1 AND question_number = $2`, paperID, questionNumber,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt, &q.PaperID, &q.QuestionNumber,
		&q.PageNumber, &q.MaxMarks, &q.Instructions, &q.MarkSchemeExcerpt)
	if err != nil {
		return nil, pqError(err)
	}
	return &q, nil
}

func (s *PostgreSQLStore) CreateQuestion(question *model.Question) error {
	err := s.db.QueryRow(
		`INSERT INTO questions (paper_id, question_number, page_number, max_marks, instructions, mark_scheme_excerpt)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`,
		question.PaperID, question.QuestionNumber, question.PageNumber,
		question.MaxMarks, question.Instructions, question.MarkSchemeExcerpt,
	).Scan(&question.ID, &question.CreatedAt, &question.UpdatedAt)
	return pqError(err)
}

// ============= Attempts & responses =============

func (s *PostgreSQLStore) CreateAttempt(attempt *model.Attempt) error {
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = time.Now()
	}
	err := s.db.QueryRow(
		`INSERT INTO attempts (paper_id, session_id, feedback_mode, started_at)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`,
		attempt.PaperID, attempt.SessionID, attempt.FeedbackMode, attempt.StartedAt,
	).Scan(&attempt.ID, &attempt.CreatedAt, &attempt.UpdatedAt)
	return pqError(err)
}

func (s *PostgreSQLStore) GetAttempt(id uint) (*model.Attempt, error) {
	var a model.Attempt
	var completedAt sql.NullTime
	var totalScore, maxScore sql.NullInt64
	err := s.db.QueryRow(
		`SELECT id, created_at, updated_at, paper_id, session_id, feedback_mode,
			started_at, completed_at, total_score, max_score
		 FROM attempts WHERE id = $1`, id,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt, &a.PaperID, &a.SessionID, &a.FeedbackMode,
		&a.StartedAt, &completedAt, &totalScore, &maxScore)
	if err != nil {
		return nil, pqError(err)
	}
	a.CompletedAt = timePtr(completedAt)
	a.TotalScore = intPtr(totalScore)
	a.MaxScore = intPtr(maxScore)
	return &a, nil
}

func (s *PostgreSQLStore) UpdateAttempt(attempt *model.Attempt) error {
	result, err := s.db.Exec(
		`UPDATE attempts SET feedback_mode = $1, completed_at = $2, total_score = $3,
			max_score = $4, updated_at = now()
		 WHERE id = $5`,
		attempt.FeedbackMode, nullTime(attempt.CompletedAt), nullInt(attempt.TotalScore),
		nullInt(attempt.MaxScore), attempt.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgreSQLStore) CreateResponse(response *model.Response) error {
	err := s.db.QueryRow(
		`INSERT INTO responses (attempt_id, question_id, question_number, student_answer,
			ai_score, ai_feedback, ai_confidence, improvement_tips, reviewed_by_human,
			final_score, final_feedback)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		response.AttemptID, nullUint(response.QuestionID), response.QuestionNumber, response.StudentAnswer,
		nullInt(response.AIScore), response.AIFeedback, response.AIConfidence,
		jsonOrNil(response.ImprovementTips), response.ReviewedByHuman,
		nullInt(response.FinalScore), response.FinalFeedback,
	).Scan(&response.ID, &response.CreatedAt, &response.UpdatedAt)
	return pqError(err)
}

func jsonOrNil(v datatypes.JSON) interface{} {
	if len(v) == 0 {
		return nil
	}
	return []byte(v)
}

const responseColumns = `id, created_at, updated_at, attempt_id, question_id, question_number,
	student_answer, ai_score, ai_feedback, ai_confidence, improvement_tips, reviewed_by_human,
	final_score, final_feedback`

func scanResponse(scanner interface{ Scan(...interface{}) error }) (*model.Response, error) {
	var r model.Response
	var questionID sql.NullInt64
	var aiScore, finalScore sql.NullInt64
	var tips []byte
	err := scanner.Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt, &r.AttemptID, &questionID, &r.QuestionNumber,
		&r.StudentAnswer, &aiScore, &r.AIFeedback, &r.AIConfidence, &tips, &r.ReviewedByHuman,
		&finalScore, &r.FinalFeedback)
	if err != nil {
		return nil, err
	}
	r.QuestionID = uintPtr(questionID)
	r.AIScore = intPtr(aiScore)
	r.FinalScore = intPtr(finalScore)
	if tips != nil {
		r.ImprovementTips = datatypes.JSON(tips)
	}
	return &r, nil
}

func (s *PostgreSQLStore) GetResponse(id uint) (*model.Response, error) {
	row := s.db.QueryRow(`SELECT `+responseColumns+` FROM responses WHERE id = $1`, id)
	r, err := scanResponse(row)
	if err != nil {
		return nil, pqError(err)
	}
	return r, nil
}

func (s *PostgreSQLStore) GetResponses(attemptID uint) ([]model.Response, error) {
	rows, err := s.db.Query(
		`SELECT `+responseColumns+` FROM responses WHERE attempt_id = $1 ORDER BY created_at ASC`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []model.Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *r)
	}
	return responses, rows.Err()
}

func (s *PostgreSQLStore) GetResponseByQuestion(attemptID uint, questionNumber string) (*model.Response, error) {
	row := s.db.QueryRow(
		`SELECT `+responseColumns+` FROM responses WHERE attempt_id = $1 AND question_number = $2`,
		attemptID, questionNumber)
	r, err := scanResponse(row)
	if err != nil {
		return nil, pqError(err)
	}
	return r, nil
}

func (s *PostgreSQLStore) UpdateResponse(response *model.Response) error {
	result, err := s.db.Exec(
		`UPDATE responses SET ai_score = $1, ai_feedback = $2, ai_confidence = $3,
			improvement_tips = $4, reviewed_by_human = $5, final_score = $6,
			final_feedback = $7, updated_at = now()
		 WHERE id = $8`,
		nullInt(response.AIScore), response.AIFeedback, response.AIConfidence,
		jsonOrNil(response.ImprovementTips), response.ReviewedByHuman,
		nullInt(response.FinalScore), response.FinalFeedback, response.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgreSQLStore) DeleteResponse(id uint) error {
	result, err := s.db.Exec(`DELETE FROM responses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgreSQLStore) GetLowConfidenceResponses() ([]model.Response, error) {
	rows, err := s.db.Query(
		`SELECT `+responseColumns+` FROM responses
		 WHERE reviewed_by_human = FALSE AND ai_confidence = $1
		 ORDER BY created_at ASC`, model.ConfidenceLow)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []model.Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *r)
	}
	return responses, rows.Err()
}

// ============= Admin users =============

func (s *PostgreSQLStore) GetAdminUserByEmail(email string) (*model.AdminUser, error) {
	var u model.AdminUser
	err := s.db.QueryRow(
		`SELECT id, created_at, updated_at, email, password_hash FROM admin_users
		 WHERE LOWER(email) = LOWER($1)`, email,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Email, &u.PasswordHash)
	if err != nil {
		return nil, pqError(err)
	}
	return &u, nil
}

func (s *PostgreSQLStore) CreateAdminUser(user *model.AdminUser) error {
	err := s.db.QueryRow(
		`INSERT INTO admin_users (email, password_hash) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		user.Email, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return pqError(err)
}

// ============= Processing jobs =============

func (s *PostgreSQLStore) CreateProcessingJob(job *model.ProcessingJob) error {
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	err := s.db.QueryRow(
		`INSERT INTO processing_jobs (paper_url, mark_scheme_url, status, progress, current_step)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		job.PaperURL, job.MarkSchemeURL, job.Status, job.Progress, job.CurrentStep,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	return pqError(err)
}

func (s *PostgreSQLStore) GetProcessingJob(id uint) (*model.ProcessingJob, error) {
	var j model.ProcessingJob
	var paperID sql.NullInt64
	var completedAt sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, created_at, updated_at, paper_url, mark_scheme_url, status, progress,
			current_step, paper_id, error, completed_at
		 FROM processing_jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt, &j.PaperURL, &j.MarkSchemeURL, &j.Status,
		&j.Progress, &j.CurrentStep, &paperID, &j.Error, &completedAt)
	if err != nil {
		return nil, pqError(err)
	}
	j.PaperID = uintPtr(paperID)
	j.CompletedAt = timePtr(completedAt)
	return &j, nil
}

func (s *PostgreSQLStore) UpdateProcessingJob(id uint, update model.JobUpdate) error {
	// COALESCE against the existing row keeps unset fields untouched
	result, err := s.db.Exec(
		`UPDATE processing_jobs SET
			status = COALESCE($1, status),
			progress = COALESCE($2, progress),
			current_step = COALESCE($3, current_step),
			paper_id = COALESCE($4, paper_id),
			error = COALESCE($5, error),
			completed_at = COALESCE($6, completed_at),
			updated_at = now()
		 WHERE id = $7`,
		jobStatusArg(update.Status), nullInt(update.Progress), nullString(update.CurrentStep),
		nullUint(update.PaperID), nullString(update.Error), nullTime(update.CompletedAt), id,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func jobStatusArg(status *model.ProcessingJobStatus) sql.NullString {
	if status == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*status), Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func (s *PostgreSQLStore) FailStaleProcessingJobs(olderThan time.Time, reason string) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE processing_jobs SET status = $1, error = $2, updated_at = now()
		 WHERE status = $3 AND updated_at < $4`,
		model.JobStatusFailed, reason, model.JobStatusProcessing, olderThan,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *PostgreSQLStore) DeleteTerminalJobsBefore(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM processing_jobs WHERE status IN ($1, $2) AND created_at < $3`,
		model.JobStatusCompleted, model.JobStatusFailed, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ============= Cron audit =============

func (s *PostgreSQLStore) CreateCronJobLog(entry *model.CronJobLog) error {
	return s.db.QueryRow(
		`INSERT INTO cron_job_logs (job_name, status, started_at, completed_at, message)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		entry.JobName, entry.Status, entry.StartedAt, nullTime(entry.CompletedAt), entry.Message,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
}

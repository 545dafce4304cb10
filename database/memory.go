package database

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/examvault/api/model"
)

// MemoryStore is an in-memory Storage implementation used by tests and
// local development without a database. It mirrors the uniqueness
// constraints the SQL stores enforce.
type MemoryStore struct {
	mu sync.RWMutex

	boards          map[uint]model.Board
	levels          map[uint]model.Level
	subjects        map[uint]model.Subject
	papers          map[uint]model.Paper
	paperPages      map[uint]model.PaperPage
	markSchemePages map[uint]model.MarkSchemePage
	questions       map[uint]model.Question
	attempts        map[uint]model.Attempt
	responses       map[uint]model.Response
	adminUsers      map[uint]model.AdminUser
	jobs            map[uint]model.ProcessingJob
	cronLogs        map[uint]model.CronJobLog

	nextID uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		boards:          map[uint]model.Board{},
		levels:          map[uint]model.Level{},
		subjects:        map[uint]model.Subject{},
		papers:          map[uint]model.Paper{},
		paperPages:      map[uint]model.PaperPage{},
		markSchemePages: map[uint]model.MarkSchemePage{},
		questions:       map[uint]model.Question{},
		attempts:        map[uint]model.Attempt{},
		responses:       map[uint]model.Response{},
		adminUsers:      map[uint]model.AdminUser{},
		jobs:            map[uint]model.ProcessingJob{},
		cronLogs:        map[uint]model.CronJobLog{},
	}
}

func (m *MemoryStore) Init() error        { return nil }
func (m *MemoryStore) Close() error       { return nil }
func (m *MemoryStore) HealthCheck() error { return nil }

// GetDB returns nil; there is no underlying database handle
func (m *MemoryStore) GetDB() interface{} { return nil }

// allocID must be called with the write lock held
func (m *MemoryStore) allocID() uint {
	m.nextID++
	return m.nextID
}

// ============= Taxonomy =============

func (m *MemoryStore) GetBoards() ([]model.Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	boards := make([]model.Board, 0, len(m.boards))
	for _, b := range m.boards {
		boards = append(boards, b)
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].Name < boards[j].Name })
	return boards, nil
}

func (m *MemoryStore) GetBoardByName(name string) (*model.Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.boards {
		if strings.EqualFold(b.Name, name) {
			found := b
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateBoard(board *model.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.boards {
		if b.Slug == board.Slug {
			return ErrDuplicate
		}
	}
	board.ID = m.allocID()
	board.CreatedAt = time.Now()
	board.UpdatedAt = board.CreatedAt
	m.boards[board.ID] = *board
	return nil
}

func (m *MemoryStore) GetLevels() ([]model.Level, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	levels := make([]model.Level, 0, len(m.levels))
	for _, l := range m.levels {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Name < levels[j].Name })
	return levels, nil
}

func (m *MemoryStore) GetLevelByName(name string) (*model.Level, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.levels {
		if strings.EqualFold(l.Name, name) {
			found := l
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateLevel(level *model.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.levels {
		if strings.EqualFold(l.Name, level.Name) {
			return ErrDuplicate
		}
	}
	level.ID = m.allocID()
	level.CreatedAt = time.Now()
	level.UpdatedAt = level.CreatedAt
	m.levels[level.ID] = *level
	return nil
}

func (m *MemoryStore) GetSubjects() ([]model.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subjects := make([]model.Subject, 0, len(m.subjects))
	for _, s := range m.subjects {
		if l, ok := m.levels[s.LevelID]; ok {
			s.Level = l
		}
		subjects = append(subjects, s)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (m *MemoryStore) GetSubjectByName(name string, levelID uint) (*model.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.subjects {
		if s.LevelID == levelID && strings.EqualFold(s.Name, name) {
			found := s
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateSubject(subject *model.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.subjects {
		if s.LevelID == subject.LevelID && strings.EqualFold(s.Name, subject.Name) {
			return ErrDuplicate
		}
	}
	subject.ID = m.allocID()
	subject.CreatedAt = time.Now()
	subject.UpdatedAt = subject.CreatedAt
	m.subjects[subject.ID] = *subject
	return nil
}

// ============= Papers =============

// hydratePaper fills taxonomy relations; callers hold at least a read lock
func (m *MemoryStore) hydratePaper(p model.Paper) model.Paper {
	if b, ok := m.boards[p.BoardID]; ok {
		p.Board = b
	}
	if s, ok := m.subjects[p.SubjectID]; ok {
		p.Subject = s
	}
	if l, ok := m.levels[p.LevelID]; ok {
		p.Level = l
	}
	return p
}

func (m *MemoryStore) GetPapers(filter model.PaperFilter) ([]model.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var papers []model.Paper
	for _, p := range m.papers {
		if filter.LevelID != 0 && p.LevelID != filter.LevelID {
			continue
		}
		if filter.BoardID != 0 && p.BoardID != filter.BoardID {
			continue
		}
		if filter.SubjectID != 0 && p.SubjectID != filter.SubjectID {
			continue
		}
		if filter.Year != 0 && p.Year != filter.Year {
			continue
		}
		papers = append(papers, m.hydratePaper(p))
	}
	sort.Slice(papers, func(i, j int) bool { return papers[i].Year > papers[j].Year })
	return papers, nil
}

func (m *MemoryStore) GetPaper(id uint) (*model.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.papers[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = m.hydratePaper(p)
	return &p, nil
}

func (m *MemoryStore) CreatePaper(paper *model.Paper) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if paper.Status == "" {
		paper.Status = model.PaperStatusActive
	}
	paper.ID = m.allocID()
	paper.CreatedAt = time.Now()
	paper.UpdatedAt = paper.CreatedAt
	m.papers[paper.ID] = *paper
	return nil
}

func (m *MemoryStore) UpdatePaperURLs(id uint, pdfURL, markSchemeURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.papers[id]
	if !ok {
		return ErrNotFound
	}
	p.PDFURL = pdfURL
	p.MarkSchemeURL = markSchemeURL
	p.UpdatedAt = time.Now()
	m.papers[id] = p
	return nil
}

func (m *MemoryStore) GetPaperPages(paperID uint) ([]model.PaperPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pages []model.PaperPage
	for _, p := range m.paperPages {
		if p.PaperID == paperID {
			pages = append(pages, p)
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })
	return pages, nil
}

func (m *MemoryStore) CreatePaperPage(page *model.PaperPage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.paperPages {
		if p.PaperID == page.PaperID && p.PageNumber == page.PageNumber {
			return ErrDuplicate
		}
	}
	page.ID = m.allocID()
	page.CreatedAt = time.Now()
	page.UpdatedAt = page.CreatedAt
	m.paperPages[page.ID] = *page
	return nil
}

func (m *MemoryStore) GetMarkSchemePages(paperID uint) ([]model.MarkSchemePage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pages []model.MarkSchemePage
	for _, p := range m.markSchemePages {
		if p.PaperID == paperID {
			pages = append(pages, p)
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })
	return pages, nil
}

func (m *MemoryStore) CreateMarkSchemePage(page *model.MarkSchemePage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.markSchemePages {
		if p.PaperID == page.PaperID && p.PageNumber == page.PageNumber {
			return ErrDuplicate
		}
	}
	page.ID = m.allocID()
	page.CreatedAt = time.Now()
	page.UpdatedAt = page.CreatedAt
	m.markSchemePages[page.ID] = *page
	return nil
}

func (m *MemoryStore) GetQuestions(paperID uint) ([]model.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var questions []model.Question
	for _, q := range m.questions {
		if q.PaperID == paperID {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].PageNumber < questions[j].PageNumber })
	return questions, nil
}

func (m *MemoryStore) GetQuestionByNumber(paperID uint, questionNumber string) (*model.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, q := range m.questions {
		if q.PaperID == paperID && q.QuestionNumber == questionNumber {
			found := q
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateQuestion(question *model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	question.ID = m.allocID()
	question.CreatedAt = time.Now()
	question.UpdatedAt = question.CreatedAt
	m.questions[question.ID] = *question
	return nil
}

// ============= Attempts & responses =============

func (m *MemoryStore) CreateAttempt(attempt *model.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = time.Now()
	}
	attempt.ID = m.allocID()
	attempt.CreatedAt = time.Now()
	attempt.UpdatedAt = attempt.CreatedAt
	m.attempts[attempt.ID] = *attempt
	return nil
}

func (m *MemoryStore) GetAttempt(id uint) (*model.Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.attempts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *MemoryStore) UpdateAttempt(attempt *model.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.attempts[attempt.ID]; !ok {
		return ErrNotFound
	}
	attempt.UpdatedAt = time.Now()
	m.attempts[attempt.ID] = *attempt
	return nil
}

func (m *MemoryStore) CreateResponse(response *model.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.responses {
		if r.AttemptID == response.AttemptID && r.QuestionNumber == response.QuestionNumber {
			return ErrDuplicate
		}
	}

	response.ID = m.allocID()
	response.CreatedAt = time.Now()
	response.UpdatedAt = response.CreatedAt
	m.responses[response.ID] = *response
	return nil
}

func (m *MemoryStore) GetResponse(id uint) (*model.Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.responses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *MemoryStore) GetResponses(attemptID uint) ([]model.Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var responses []model.Response
	for _, r := range m.responses {
		if r.AttemptID == attemptID {
			responses = append(responses, r)
		}
	}
	sort.Slice(responses, func(i, j int) bool { return responses[i].ID < responses[j].ID })
	return responses, nil
}

func (m *MemoryStore) GetResponseByQuestion(attemptID uint, questionNumber string) (*model.Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.responses {
		if r.AttemptID == attemptID && r.QuestionNumber == questionNumber {
			found := r
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateResponse(response *model.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.responses[response.ID]; !ok {
		return ErrNotFound
	}
	response.UpdatedAt = time.Now()
	m.responses[response.ID] = *response
	return nil
}

func (m *MemoryStore) DeleteResponse(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.responses[id]; !ok {
		return ErrNotFound
	}
	delete(m.responses, id)
	return nil
}

func (m *MemoryStore) GetLowConfidenceResponses() ([]model.Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var responses []model.Response
	for _, r := range m.responses {
		if !r.ReviewedByHuman && r.AIConfidence == model.ConfidenceLow {
			responses = append(responses, r)
		}
	}
	sort.Slice(responses, func(i, j int) bool { return responses[i].ID < responses[j].ID })
	return responses, nil
}

// ============= Admin users =============

func (m *MemoryStore) GetAdminUserByEmail(email string) (*model.AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.adminUsers {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateAdminUser(user *model.AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.adminUsers {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	user.ID = m.allocID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.adminUsers[user.ID] = *user
	return nil
}

// ============= Processing jobs =============

func (m *MemoryStore) CreateProcessingJob(job *model.ProcessingJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	job.ID = m.allocID()
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	m.jobs[job.ID] = *job
	return nil
}

func (m *MemoryStore) GetProcessingJob(id uint) (*model.ProcessingJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &j, nil
}

func (m *MemoryStore) UpdateProcessingJob(id uint, update model.JobUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if update.Status != nil {
		j.Status = *update.Status
	}
	if update.Progress != nil {
		j.Progress = *update.Progress
	}
	if update.CurrentStep != nil {
		j.CurrentStep = *update.CurrentStep
	}
	if update.PaperID != nil {
		j.PaperID = update.PaperID
	}
	if update.Error != nil {
		j.Error = *update.Error
	}
	if update.CompletedAt != nil {
		j.CompletedAt = update.CompletedAt
	}
	j.UpdatedAt = time.Now()
	m.jobs[id] = j
	return nil
}

func (m *MemoryStore) FailStaleProcessingJobs(olderThan time.Time, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var failed int64
	for id, j := range m.jobs {
		if j.Status == model.JobStatusProcessing && j.UpdatedAt.Before(olderThan) {
			j.Status = model.JobStatusFailed
			j.Error = reason
			j.UpdatedAt = time.Now()
			m.jobs[id] = j
			failed++
		}
	}
	return failed, nil
}

func (m *MemoryStore) DeleteTerminalJobsBefore(cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, j := range m.jobs {
		if j.IsTerminal() && j.CreatedAt.Before(cutoff) {
			delete(m.jobs, id)
			deleted++
		}
	}
	return deleted, nil
}

// ============= Cron audit =============

func (m *MemoryStore) CreateCronJobLog(entry *model.CronJobLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.ID = m.allocID()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	m.cronLogs[entry.ID] = *entry
	return nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/examvault/api/database"
	"github.com/examvault/api/model"
)

var (
	// ErrInvalidQuestion means the paper has no page mapped to the given
	// question number
	ErrInvalidQuestion = errors.New("question not found in this paper")
	// ErrInvalidPage means the paper has no question mapped to the given
	// page number
	ErrInvalidPage = errors.New("no question found for this page")
	// ErrDuplicateSubmission means the attempt already has a response for
	// the question; the student must retake it first
	ErrDuplicateSubmission = errors.New("question already answered in this attempt")
	// ErrAttemptCompleted means the attempt was already completed and no
	// longer accepts submissions
	ErrAttemptCompleted = errors.New("attempt already completed")
	// ErrInvalidFeedbackMode means the requested feedback mode is unknown
	ErrInvalidFeedbackMode = errors.New("invalid feedback mode")
)

// markAllConcurrency bounds the fan-out of concurrent marking calls
const markAllConcurrency = 4

// AttemptService manages practice attempts and their responses
type AttemptService struct {
	store       database.Storage
	marker      Marker
	pageContext MarkingContextProvider
}

// NewAttemptService creates a new attempt service. pageContext may be nil;
// marking then sees only curated question fields.
func NewAttemptService(store database.Storage, marker Marker, pageContext MarkingContextProvider) *AttemptService {
	return &AttemptService{
		store:       store,
		marker:      marker,
		pageContext: pageContext,
	}
}

// CreateAttempt starts a new practice attempt against a paper. An empty
// session ID gets a generated one so anonymous students can resume.
func (s *AttemptService) CreateAttempt(paperID uint, sessionID string, mode model.FeedbackMode) (*model.Attempt, error) {
	if mode == "" {
		mode = model.FeedbackImmediate
	}
	if !mode.Valid() {
		return nil, ErrInvalidFeedbackMode
	}

	if _, err := s.store.GetPaper(paperID); err != nil {
		return nil, fmt.Errorf("paper not found: %w", err)
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	attempt := &model.Attempt{
		PaperID:      paperID,
		SessionID:    sessionID,
		FeedbackMode: mode,
		StartedAt:    time.Now(),
	}
	if err := s.store.CreateAttempt(attempt); err != nil {
		return nil, err
	}

	return attempt, nil
}

// GetAttempt returns one attempt by ID
func (s *AttemptService) GetAttempt(attemptID uint) (*model.Attempt, error) {
	return s.store.GetAttempt(attemptID)
}

// GetResponses returns all responses recorded for an attempt
func (s *AttemptService) GetResponses(attemptID uint) ([]model.Response, error) {
	if _, err := s.store.GetAttempt(attemptID); err != nil {
		return nil, err
	}
	return s.store.GetResponses(attemptID)
}

// SubmitQuestion records a student's answer to one question. In immediate
// feedback mode the answer is marked synchronously; in end-of-exam mode the
// AI fields stay empty until mark-all runs.
func (s *AttemptService) SubmitQuestion(ctx context.Context, attemptID uint, questionNumber, studentAnswer string) (*model.Response, error) {
	attempt, err := s.store.GetAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.CompletedAt != nil {
		return nil, ErrAttemptCompleted
	}

	valid, err := s.questionExists(attempt.PaperID, questionNumber)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, ErrInvalidQuestion
	}

	if _, err := s.store.GetResponseByQuestion(attemptID, questionNumber); err == nil {
		return nil, ErrDuplicateSubmission
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	response := &model.Response{
		AttemptID:      attemptID,
		QuestionNumber: questionNumber,
		StudentAnswer:  studentAnswer,
	}

	question := s.lookupQuestion(attempt.PaperID, questionNumber)
	if question != nil {
		response.QuestionID = &question.ID
	}

	if attempt.FeedbackMode == model.FeedbackImmediate {
		paper, err := s.store.GetPaper(attempt.PaperID)
		if err != nil {
			return nil, err
		}
		s.applyMarking(ctx, paper, response, question)
	}

	if err := s.store.CreateResponse(response); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrDuplicateSubmission
		}
		return nil, err
	}

	return response, nil
}

// SubmitPage records an answer keyed by paper page number. The question
// number is resolved from the page map, then the submission goes through the
// same guards as SubmitQuestion.
func (s *AttemptService) SubmitPage(ctx context.Context, attemptID uint, pageNumber int, studentAnswer string) (*model.Response, error) {
	attempt, err := s.store.GetAttempt(attemptID)
	if err != nil {
		return nil, err
	}

	pages, err := s.store.GetPaperPages(attempt.PaperID)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if pages[i].PageNumber == pageNumber {
			return s.SubmitQuestion(ctx, attemptID, pages[i].QuestionNumber, studentAnswer)
		}
	}
	return nil, ErrInvalidPage
}

// MarkAll marks every unmarked response of an attempt concurrently. A failed
// marking call falls back to the manual-review result for that response only;
// other responses are unaffected.
func (s *AttemptService) MarkAll(ctx context.Context, attemptID uint) ([]model.Response, error) {
	attempt, err := s.store.GetAttempt(attemptID)
	if err != nil {
		return nil, err
	}

	responses, err := s.store.GetResponses(attemptID)
	if err != nil {
		return nil, err
	}

	paper, err := s.store.GetPaper(attempt.PaperID)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, markAllConcurrency)

	for i := range responses {
		if responses[i].Marked() {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(resp *model.Response) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("AttemptService: panic while marking response %d: %v", resp.ID, r)
				}
			}()

			question := s.lookupQuestion(attempt.PaperID, resp.QuestionNumber)
			s.applyMarking(ctx, paper, resp, question)
			if err := s.store.UpdateResponse(resp); err != nil {
				log.Printf("AttemptService: failed to save marking for response %d: %v", resp.ID, err)
			}
		}(&responses[i])
	}

	wg.Wait()

	return s.store.GetResponses(attemptID)
}

// Retake deletes a response so the student can answer the question again
func (s *AttemptService) Retake(responseID uint) error {
	if _, err := s.store.GetResponse(responseID); err != nil {
		return err
	}
	return s.store.DeleteResponse(responseID)
}

// CompleteAttempt finalizes an attempt: total score is the sum of AI scores
// (unmarked responses count as zero) and max score sums the curated mark
// ceilings where known. Safe to call again; the totals are recomputed.
func (s *AttemptService) CompleteAttempt(attemptID uint) (*model.Attempt, error) {
	attempt, err := s.store.GetAttempt(attemptID)
	if err != nil {
		return nil, err
	}

	responses, err := s.store.GetResponses(attemptID)
	if err != nil {
		return nil, err
	}

	totalScore := 0
	maxScore := 0
	for i := range responses {
		if responses[i].AIScore != nil {
			totalScore += *responses[i].AIScore
		}
		if q := s.lookupQuestion(attempt.PaperID, responses[i].QuestionNumber); q != nil {
			maxScore += q.MaxMarks
		}
	}

	now := time.Now()
	attempt.CompletedAt = &now
	attempt.TotalScore = &totalScore
	attempt.MaxScore = &maxScore

	if err := s.store.UpdateAttempt(attempt); err != nil {
		return nil, err
	}

	return attempt, nil
}

// ModerationQueue returns low-confidence responses awaiting human review
func (s *AttemptService) ModerationQueue() ([]model.Response, error) {
	return s.store.GetLowConfidenceResponses()
}

// Override records a human reviewer's final score and feedback on a response
func (s *AttemptService) Override(responseID uint, finalScore int, finalFeedback string) (*model.Response, error) {
	response, err := s.store.GetResponse(responseID)
	if err != nil {
		return nil, err
	}

	response.FinalScore = &finalScore
	response.FinalFeedback = finalFeedback
	response.ReviewedByHuman = true

	if err := s.store.UpdateResponse(response); err != nil {
		return nil, err
	}

	return response, nil
}

// questionExists checks the paper's page mappings for the question number
func (s *AttemptService) questionExists(paperID uint, questionNumber string) (bool, error) {
	pages, err := s.store.GetPaperPages(paperID)
	if err != nil {
		return false, err
	}
	for i := range pages {
		if pages[i].QuestionNumber == questionNumber {
			return true, nil
		}
	}
	return false, nil
}

// lookupQuestion returns the curated Question row if one exists, else nil
func (s *AttemptService) lookupQuestion(paperID uint, questionNumber string) *model.Question {
	question, err := s.store.GetQuestionByNumber(paperID, questionNumber)
	if err != nil {
		return nil
	}
	return question
}

// applyMarking runs the marker and writes its result onto the response.
// Curated question fields take precedence; gaps are filled from the paper and
// mark scheme page text so the marker always sees the question being
// answered. The marker never returns an error; failures surface as the
// manual-review fallback result.
func (s *AttemptService) applyMarking(ctx context.Context, paper *model.Paper, response *model.Response, question *model.Question) {
	maxMarks := 0
	instructions := ""
	excerpt := ""
	if question != nil {
		maxMarks = question.MaxMarks
		instructions = question.Instructions
		excerpt = question.MarkSchemeExcerpt
	}

	if s.pageContext != nil && (instructions == "" || excerpt == "") {
		questionText, markSchemeText := s.pageContext.QuestionContext(ctx, paper, response.QuestionNumber)
		if instructions == "" {
			instructions = questionText
		}
		if excerpt == "" {
			excerpt = markSchemeText
		}
	}

	result := s.marker.MarkAnswer(ctx, response.StudentAnswer, maxMarks, instructions, excerpt)

	score := result.AwardedMarks
	response.AIScore = &score
	response.AIFeedback = result.Feedback
	response.AIConfidence = result.Confidence

	tips, err := json.Marshal(result.ImprovementTips)
	if err != nil {
		tips = []byte("[]")
	}
	response.ImprovementTips = tips
}

package paper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/examvault/api/database"
	"github.com/examvault/api/model"
	"github.com/examvault/api/utils/cache"
	"github.com/examvault/api/utils/response"
	"github.com/examvault/api/utils/validation"
)

// paperListCacheTTL is how long filtered paper listings stay cached
const paperListCacheTTL = 5 * time.Minute

// PaperHandler serves paper listings, page mappings and curated questions
type PaperHandler struct {
	store     database.Storage
	cache     *cache.RedisCache
	validator *validation.Validator
}

// NewPaperHandler creates a new paper handler. redisCache may be nil; listing
// then skips the cache.
func NewPaperHandler(store database.Storage, redisCache *cache.RedisCache) *PaperHandler {
	return &PaperHandler{
		store:     store,
		cache:     redisCache,
		validator: validation.NewValidator(),
	}
}

// ListPapers handles GET /api/v1/papers with level_id/board_id/subject_id/year
// filters
func (h *PaperHandler) ListPapers(c *fiber.Ctx) error {
	levelID, _ := strconv.ParseUint(c.Query("level_id", "0"), 10, 32)
	boardID, _ := strconv.ParseUint(c.Query("board_id", "0"), 10, 32)
	subjectID, _ := strconv.ParseUint(c.Query("subject_id", "0"), 10, 32)
	year, _ := strconv.Atoi(c.Query("year", "0"))

	filter := model.PaperFilter{
		LevelID:   uint(levelID),
		BoardID:   uint(boardID),
		SubjectID: uint(subjectID),
		Year:      year,
	}

	cacheKey := fmt.Sprintf("papers:list:%d:%d:%d:%d", filter.LevelID, filter.BoardID, filter.SubjectID, filter.Year)
	if h.cache != nil {
		var cached model.PapersListResponse
		if err := h.cache.GetJSON(c.Context(), cacheKey, &cached); err == nil {
			return response.Success(c, cached)
		}
	}

	papers, err := h.store.GetPapers(filter)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch papers")
	}

	summaries := make([]model.PaperSummary, 0, len(papers))
	for i := range papers {
		summaries = append(summaries, papers[i].ToSummary())
	}

	result := model.PapersListResponse{
		Papers: summaries,
		Total:  len(summaries),
	}

	if h.cache != nil {
		// Best effort; listing works without the cache
		_ = h.cache.SetJSON(context.Background(), cacheKey, result, paperListCacheTTL)
	}

	return response.Success(c, result)
}

// GetPaper handles GET /api/v1/papers/:id
func (h *PaperHandler) GetPaper(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid paper ID")
	}

	paper, err := h.store.GetPaper(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "Paper not found")
		}
		return response.InternalServerError(c, "Failed to fetch paper")
	}

	return response.Success(c, paper)
}

// GetPages handles GET /api/v1/papers/:id/pages
func (h *PaperHandler) GetPages(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid paper ID")
	}

	if _, err := h.store.GetPaper(id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "Paper not found")
		}
		return response.InternalServerError(c, "Failed to fetch paper")
	}

	pages, err := h.store.GetPaperPages(id)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch page mappings")
	}

	return response.Success(c, pages)
}

// GetMarkSchemePages handles GET /api/v1/papers/:id/mark-scheme-pages
func (h *PaperHandler) GetMarkSchemePages(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid paper ID")
	}

	if _, err := h.store.GetPaper(id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "Paper not found")
		}
		return response.InternalServerError(c, "Failed to fetch paper")
	}

	pages, err := h.store.GetMarkSchemePages(id)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch mark scheme page mappings")
	}

	return response.Success(c, pages)
}

// GetQuestions handles GET /api/v1/papers/:id/questions
func (h *PaperHandler) GetQuestions(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid paper ID")
	}

	questions, err := h.store.GetQuestions(id)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch questions")
	}

	return response.Success(c, questions)
}

// CreateQuestionRequest is the body for manually curating question detail
type CreateQuestionRequest struct {
	QuestionNumber    string `json:"question_number" validate:"required,max=20"`
	PageNumber        int    `json:"page_number" validate:"required,min=1"`
	MaxMarks          int    `json:"max_marks" validate:"required,min=1"`
	Instructions      string `json:"instructions" validate:"omitempty"`
	MarkSchemeExcerpt string `json:"mark_scheme_excerpt" validate:"omitempty"`
}

// CreateQuestion handles POST /api/v1/papers/:id/questions (admin)
func (h *PaperHandler) CreateQuestion(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid paper ID")
	}

	if _, err := h.store.GetPaper(id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "Paper not found")
		}
		return response.InternalServerError(c, "Failed to fetch paper")
	}

	var req CreateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	question := &model.Question{
		PaperID:           id,
		QuestionNumber:    req.QuestionNumber,
		PageNumber:        req.PageNumber,
		MaxMarks:          req.MaxMarks,
		Instructions:      req.Instructions,
		MarkSchemeExcerpt: req.MarkSchemeExcerpt,
	}
	if err := h.store.CreateQuestion(question); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return response.Conflict(c, "Question already exists for this paper")
		}
		return response.InternalServerError(c, "Failed to create question")
	}

	return response.Created(c, question)
}

func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

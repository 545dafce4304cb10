package attempt

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/examvault/api/database"
	"github.com/examvault/api/model"
	"github.com/examvault/api/services"
	"github.com/examvault/api/utils/response"
	"github.com/examvault/api/utils/validation"
)

// AttemptHandler serves practice attempts and their responses
type AttemptHandler struct {
	service   *services.AttemptService
	validator *validation.Validator
}

// NewAttemptHandler creates a new attempt handler
func NewAttemptHandler(service *services.AttemptService) *AttemptHandler {
	return &AttemptHandler{
		service:   service,
		validator: validation.NewValidator(),
	}
}

// CreateAttemptRequest is the body for starting a practice attempt
type CreateAttemptRequest struct {
	PaperID      uint   `json:"paper_id" validate:"required,min=1"`
	SessionID    string `json:"session_id" validate:"omitempty,max=100"`
	FeedbackMode string `json:"feedback_mode" validate:"omitempty,oneof=immediate end_of_exam"`
}

// CreateAttempt handles POST /api/v1/attempts
func (h *AttemptHandler) CreateAttempt(c *fiber.Ctx) error {
	var req CreateAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	attempt, err := h.service.CreateAttempt(req.PaperID, req.SessionID, model.FeedbackMode(req.FeedbackMode))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "Paper not found")
		}
		if errors.Is(err, services.ErrInvalidFeedbackMode) {
			return response.BadRequest(c, "Invalid feedback mode")
		}
		return response.InternalServerError(c, "Failed to create attempt")
	}

	return response.Created(c, attempt)
}

// GetAttempt handles GET /api/v1/attempts/:id
func (h *AttemptHandler) GetAttempt(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid attempt ID")
	}

	attempt, err := h.service.GetAttempt(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "Attempt not found")
		}
		return response.InternalServerError(c, "Failed to fetch attempt")
	}

	return response.Success(c, attempt)
}

// GetResponses handles GET /api/v1/attempts/:id/responses
func (h *AttemptHandler) GetResponses(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid attempt ID")
	}

	responses, err := h.service.GetResponses(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "Attempt not found")
		}
		return response.InternalServerError(c, "Failed to fetch responses")
	}

	return response.Success(c, responses)
}

// SubmitQuestionRequest is the body for answering one question
type SubmitQuestionRequest struct {
	QuestionNumber string `json:"question_number" validate:"required,max=20"`
	StudentAnswer  string `json:"student_answer" validate:"required"`
}

// SubmitQuestion handles POST /api/v1/attempts/:id/submit-question
func (h *AttemptHandler) SubmitQuestion(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid attempt ID")
	}

	var req SubmitQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	resp, err := h.service.SubmitQuestion(c.Context(), id, req.QuestionNumber, req.StudentAnswer)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return response.NotFound(c, "Attempt not found")
		case errors.Is(err, services.ErrInvalidQuestion):
			return response.BadRequest(c, "Question not found in this paper")
		case errors.Is(err, services.ErrDuplicateSubmission):
			return response.Conflict(c, "Question already answered in this attempt")
		case errors.Is(err, services.ErrAttemptCompleted):
			return response.Conflict(c, "Attempt already completed")
		default:
			return response.InternalServerError(c, "Failed to submit answer")
		}
	}

	return response.Created(c, resp)
}

// SubmitPageRequest is the body for answering whichever question sits on a
// given paper page
type SubmitPageRequest struct {
	PageNumber    int    `json:"page_number" validate:"required,min=1"`
	StudentAnswer string `json:"student_answer" validate:"required"`
}

// SubmitPage handles POST /api/v1/attempts/:id/submit-page
func (h *AttemptHandler) SubmitPage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid attempt ID")
	}

	var req SubmitPageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	resp, err := h.service.SubmitPage(c.Context(), id, req.PageNumber, req.StudentAnswer)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return response.NotFound(c, "Attempt not found")
		case errors.Is(err, services.ErrInvalidPage):
			return response.BadRequest(c, "No question found for this page")
		case errors.Is(err, services.ErrDuplicateSubmission):
			return response.Conflict(c, "Question already answered in this attempt")
		case errors.Is(err, services.ErrAttemptCompleted):
			return response.Conflict(c, "Attempt already completed")
		default:
			return response.InternalServerError(c, "Failed to submit answer")
		}
	}

	return response.Created(c, resp)
}

// MarkAll handles POST /api/v1/attempts/:id/mark-all
func (h *AttemptHandler) MarkAll(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid attempt ID")
	}

	responses, err := h.service.MarkAll(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "Attempt not found")
		}
		return response.InternalServerError(c, "Failed to mark responses")
	}

	return response.Success(c, responses)
}

// Complete handles POST /api/v1/attempts/:id/complete
func (h *AttemptHandler) Complete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid attempt ID")
	}

	attempt, err := h.service.CompleteAttempt(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "Attempt not found")
		}
		return response.InternalServerError(c, "Failed to complete attempt")
	}

	return response.Success(c, attempt)
}

// Retake handles DELETE /api/v1/responses/:id; the student answers the
// question again afterwards
func (h *AttemptHandler) Retake(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid response ID")
	}

	if err := h.service.Retake(id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "Response not found")
		}
		return response.InternalServerError(c, "Failed to delete response")
	}

	return response.SuccessWithMessage(c, "Response deleted", nil)
}

func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

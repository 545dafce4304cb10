package paper

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/examvault/api/database"
	"github.com/examvault/api/model"
	"github.com/examvault/api/services"
	"github.com/examvault/api/utils/response"
	"github.com/examvault/api/utils/validation"
)

// ProcessHandler accepts paper ingestion requests and serves job polling
type ProcessHandler struct {
	store     database.Storage
	processor *services.PaperProcessor
	validator *validation.Validator
}

// NewProcessHandler creates a new process handler
func NewProcessHandler(store database.Storage, processor *services.PaperProcessor) *ProcessHandler {
	return &ProcessHandler{
		store:     store,
		processor: processor,
		validator: validation.NewValidator(),
	}
}

// ProcessPaperRequest is the body for starting a paper ingestion job
type ProcessPaperRequest struct {
	PaperURL      string `json:"paper_url" validate:"required,url"`
	MarkSchemeURL string `json:"mark_scheme_url" validate:"required,url"`
}

// ProcessPaper handles POST /api/v1/papers/process (admin). The job is
// created pending and processed in the background; the client polls.
func (h *ProcessHandler) ProcessPaper(c *fiber.Ctx) error {
	var req ProcessPaperRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	job := &model.ProcessingJob{
		PaperURL:      req.PaperURL,
		MarkSchemeURL: req.MarkSchemeURL,
		Status:        model.JobStatusPending,
	}
	if err := h.store.CreateProcessingJob(job); err != nil {
		return response.InternalServerError(c, "Failed to create processing job")
	}

	h.processor.ProcessAsync(job.ID)

	return response.Accepted(c, fiber.Map{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// GetProcessingJob handles GET /api/v1/papers/process/:job_id
func (h *ProcessHandler) GetProcessingJob(c *fiber.Ctx) error {
	id, err := parseID(c, "job_id")
	if err != nil {
		return response.BadRequest(c, "Invalid job ID")
	}

	job, err := h.store.GetProcessingJob(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "Processing job not found")
		}
		return response.InternalServerError(c, "Failed to fetch processing job")
	}

	return response.Success(c, job)
}

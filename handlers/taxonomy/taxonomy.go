package taxonomy

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/examvault/api/database"
	"github.com/examvault/api/model"
	"github.com/examvault/api/utils/response"
)

// TaxonomyHandler serves the board/level/subject reference data
type TaxonomyHandler struct {
	store database.Storage
}

// NewTaxonomyHandler creates a new taxonomy handler
func NewTaxonomyHandler(store database.Storage) *TaxonomyHandler {
	return &TaxonomyHandler{store: store}
}

// ListBoards handles GET /api/v1/boards
func (h *TaxonomyHandler) ListBoards(c *fiber.Ctx) error {
	boards, err := h.store.GetBoards()
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch boards")
	}
	return response.Success(c, boards)
}

// ListLevels handles GET /api/v1/levels
func (h *TaxonomyHandler) ListLevels(c *fiber.Ctx) error {
	levels, err := h.store.GetLevels()
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch levels")
	}
	return response.Success(c, levels)
}

// ListSubjects handles GET /api/v1/subjects with an optional level_id filter
func (h *TaxonomyHandler) ListSubjects(c *fiber.Ctx) error {
	levelID, _ := strconv.ParseUint(c.Query("level_id", "0"), 10, 32)

	subjects, err := h.store.GetSubjects()
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch subjects")
	}

	if levelID > 0 {
		filtered := make([]model.Subject, 0, len(subjects))
		for i := range subjects {
			if subjects[i].LevelID == uint(levelID) {
				filtered = append(filtered, subjects[i])
			}
		}
		subjects = filtered
	}

	return response.Success(c, subjects)
}

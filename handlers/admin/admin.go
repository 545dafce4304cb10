package admin

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/examvault/api/database"
	"github.com/examvault/api/services"
	"github.com/examvault/api/utils/auth"
	"github.com/examvault/api/utils/middleware"
	"github.com/examvault/api/utils/response"
	"github.com/examvault/api/utils/validation"
)

// AdminHandler serves admin login and the marking moderation queue
type AdminHandler struct {
	store                database.Storage
	jwtManager           *auth.JWTManager
	bruteForceProtection *middleware.BruteForceProtection
	attemptService       *services.AttemptService
	validator            *validation.Validator
}

// NewAdminHandler creates a new admin handler. bruteForceProtection may be
// nil when Redis is unavailable.
func NewAdminHandler(store database.Storage, jwtManager *auth.JWTManager, bruteForceProtection *middleware.BruteForceProtection, attemptService *services.AttemptService) *AdminHandler {
	return &AdminHandler{
		store:                store,
		jwtManager:           jwtManager,
		bruteForceProtection: bruteForceProtection,
		attemptService:       attemptService,
		validator:            validation.NewValidator(),
	}
}

// LoginRequest represents an admin login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // in seconds
}

// Login handles POST /api/v1/admin/login
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	ip := c.IP()

	user, err := h.store.GetAdminUserByEmail(req.Email)
	if err != nil {
		// Record failed attempt even if user not found
		if h.bruteForceProtection != nil {
			h.bruteForceProtection.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid email or password")
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		if h.bruteForceProtection != nil {
			h.bruteForceProtection.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid email or password")
	}

	// Clear failed attempts on successful login
	if h.bruteForceProtection != nil {
		h.bruteForceProtection.RecordSuccessfulAttempt(c, ip)
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate token")
	}

	return response.Success(c, LoginResponse{
		Token:     token,
		ExpiresIn: 24 * 60 * 60, // 24 hours in seconds
	})
}

// ModerationQueue handles GET /api/v1/admin/moderation-queue: low-confidence
// responses awaiting human review
func (h *AdminHandler) ModerationQueue(c *fiber.Ctx) error {
	responses, err := h.attemptService.ModerationQueue()
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch moderation queue")
	}
	return response.Success(c, responses)
}

// OverrideRequest is the body for a human marking override
type OverrideRequest struct {
	FinalScore    int    `json:"final_score" validate:"min=0"`
	FinalFeedback string `json:"final_feedback" validate:"required"`
}

// OverrideResponse handles POST /api/v1/admin/responses/:id/override
func (h *AdminHandler) OverrideResponse(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid response ID")
	}

	var req OverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	resp, err := h.attemptService.Override(id, req.FinalScore, req.FinalFeedback)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.NotFound(c, "Response not found")
		}
		return response.InternalServerError(c, "Failed to override response")
	}

	return response.Success(c, resp)
}

func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

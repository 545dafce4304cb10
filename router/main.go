package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/examvault/api/config"
	"github.com/examvault/api/database"
	"github.com/examvault/api/handlers"
	admin_handlers "github.com/examvault/api/handlers/admin"
	attempt_handlers "github.com/examvault/api/handlers/attempt"
	paper_handlers "github.com/examvault/api/handlers/paper"
	taxonomy_handlers "github.com/examvault/api/handlers/taxonomy"
	"github.com/examvault/api/services"
	"github.com/examvault/api/services/inference"
	"github.com/examvault/api/services/spaces"
	"github.com/examvault/api/utils/auth"
	"github.com/examvault/api/utils/cache"
	"github.com/examvault/api/utils/middleware"
)

func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "examvault-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: env.JWT_SECRET,
		Expiry: 24 * time.Hour,
		Issuer: jwtIssuer,
	})

	// Redis backs the brute-force guard and the paper listing cache; the
	// API degrades gracefully without it
	var redisCache *cache.RedisCache
	if env.REDIS_URL != "" {
		var err error
		redisCache, err = cache.NewRedisCache(env.REDIS_URL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
			redisCache = nil
		}
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// AI services
	inferenceClient := inference.NewClient(inference.Config{
		APIKey:  env.INFERENCE_API_KEY,
		BaseURL: env.INFERENCE_BASE_URL,
		Model:   env.INFERENCE_MODEL,
	})
	extractionService := services.NewExtractionService(inferenceClient)
	markingService := services.NewMarkingService(inferenceClient)

	// Spaces archival is optional
	var spacesClient *spaces.Client
	if env.SPACES_BUCKET != "" {
		var err error
		spacesClient, err = spaces.NewClient(spaces.Config{
			AccessKey: env.SPACES_ACCESS_KEY,
			SecretKey: env.SPACES_SECRET_KEY,
			Bucket:    env.SPACES_BUCKET,
			Region:    env.SPACES_REGION,
			Endpoint:  env.SPACES_ENDPOINT,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize Spaces client: %v. PDF archival will be disabled.", err)
			spacesClient = nil
		}
	}

	paperProcessor := services.NewPaperProcessor(store, extractionService, spacesClient)
	pageContext := services.NewPageContextService(store, spacesClient)
	attemptService := services.NewAttemptService(store, markingService, pageContext)

	// Handlers
	taxonomyHandler := taxonomy_handlers.NewTaxonomyHandler(store)
	paperHandler := paper_handlers.NewPaperHandler(store, redisCache)
	processHandler := paper_handlers.NewProcessHandler(store, paperProcessor)
	attemptHandler := attempt_handlers.NewAttemptHandler(attemptService)
	adminHandler := admin_handlers.NewAdminHandler(store, jwtManager, bruteForceProtection, attemptService)

	requireAdmin := middleware.RequireAdmin(jwtManager, store)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HandleCheckHealth(store))

	// API v1 group
	api := app.Group("/api/v1")

	// Taxonomy routes (public)
	api.Get("/boards", taxonomyHandler.ListBoards)
	api.Get("/levels", taxonomyHandler.ListLevels)
	api.Get("/subjects", taxonomyHandler.ListSubjects)

	// Paper routes
	papers := api.Group("/papers")
	papers.Post("/process", requireAdmin, processHandler.ProcessPaper)          // Admin: start ingestion job
	papers.Get("/process/:job_id", requireAdmin, processHandler.GetProcessingJob) // Admin: poll ingestion job
	papers.Get("/", paperHandler.ListPapers)                                    // Public: list papers with filters
	papers.Get("/:id", paperHandler.GetPaper)                                   // Public: get paper by ID
	papers.Get("/:id/pages", paperHandler.GetPages)                             // Public: page-to-question mappings
	papers.Get("/:id/mark-scheme-pages", paperHandler.GetMarkSchemePages)       // Public: mark scheme mappings
	papers.Get("/:id/questions", paperHandler.GetQuestions)                     // Public: curated question detail
	papers.Post("/:id/questions", requireAdmin, paperHandler.CreateQuestion)    // Admin: curate question detail

	// Attempt routes (public; session-scoped)
	attempts := api.Group("/attempts")
	attempts.Post("/", attemptHandler.CreateAttempt)
	attempts.Get("/:id", attemptHandler.GetAttempt)
	attempts.Get("/:id/responses", attemptHandler.GetResponses)
	attempts.Post("/:id/submit-question", attemptHandler.SubmitQuestion)
	attempts.Post("/:id/submit-page", attemptHandler.SubmitPage)
	attempts.Post("/:id/mark-all", attemptHandler.MarkAll)
	attempts.Post("/:id/complete", attemptHandler.Complete)

	// Retake: delete the response so the question can be answered again
	api.Delete("/responses/:id", attemptHandler.Retake)

	// Admin routes
	admin := api.Group("/admin")
	if bruteForceProtection != nil {
		admin.Post("/login", bruteForceProtection.CheckLockout(), adminHandler.Login)
	} else {
		admin.Post("/login", adminHandler.Login)
	}
	admin.Get("/moderation-queue", requireAdmin, adminHandler.ModerationQueue)
	admin.Post("/responses/:id/override", requireAdmin, adminHandler.OverrideResponse)
}

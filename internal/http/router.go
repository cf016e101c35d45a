package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/validator/backend/internal/config"
	"github.com/validator/backend/internal/http/handlers"
	"github.com/validator/backend/internal/middleware"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	experimentHandler *handlers.ExperimentHandler,
	adsHandler *handlers.AdsHandler,
	waitlistHandler *handlers.WaitlistHandler,
	feedbackHandler *handlers.FeedbackHandler,
	landingHandler *handlers.LandingHandler,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public landing pages
	app.Get("/l/:slug", landingHandler.Render)

	api := app.Group("/api/v1")

	// Rate-limited public endpoints
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Auth (public)
	api.Post("/auth/signup", authHandler.SignUp)
	api.Post("/auth/signin", authHandler.SignIn)

	// Public waitlist signup + feedback
	api.Post("/waitlist", waitlistHandler.Signup)
	api.Post("/feedback", feedbackHandler.Submit)

	// Meta (public, no auth required)
	metaHandler := handlers.NewMetaHandler()
	api.Get("/meta/countries", metaHandler.GetCountries)
	api.Get("/meta/cta-types", metaHandler.GetCallToActionTypes)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Experiments
	protected.Post("/experiments", experimentHandler.Create)
	protected.Get("/experiments", experimentHandler.List)
	protected.Get("/experiments/:id", experimentHandler.Get)
	protected.Delete("/experiments/:id", experimentHandler.Delete)
	protected.Put("/experiments/:id/ad", experimentHandler.UpdateAd)
	protected.Get("/experiments/:id/waitlist", experimentHandler.WaitlistEntries)

	// Ads
	protected.Delete("/ads/campaigns/:id", adsHandler.DeleteCampaign)
	protected.Get("/ads/:adID/insights", adsHandler.GetInsights)
	protected.Get("/ads/:adID/preview", adsHandler.GetPreview)
	protected.Post("/ads/estimate", adsHandler.Estimate)

	// Content tooling
	protected.Post("/content/validate", adsHandler.ValidateContent)
	protected.Get("/tools/link-preview", adsHandler.LinkPreview)
}

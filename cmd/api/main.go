package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/validator/backend/internal/config"
	"github.com/validator/backend/internal/db"
	apphttp "github.com/validator/backend/internal/http"
	"github.com/validator/backend/internal/http/handlers"
	"github.com/validator/backend/internal/meta"
	"github.com/validator/backend/internal/repositories"
	"github.com/validator/backend/internal/services"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	experimentRepo := repositories.NewExperimentRepo(pool)
	waitlistRepo := repositories.NewWaitlistRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	graphClient := meta.NewClient(cfg.MetaBaseURL, cfg.MetaAccessToken, cfg.MetaAdAccountID, cfg.MetaPageID, cfg.MetaTimeout, log)
	mailer := services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, cfg.OperatorEmail, log)
	rollback := services.NewRollback(graphClient, mailer, log)
	adsService := services.NewAdsService(graphClient, rollback, rdb, cfg, log)
	generator, err := services.NewGenerator(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to init content generator", zap.Error(err))
	}
	linkPreviewer := services.NewLinkPreviewer(cfg.MetaTimeout, log)
	experimentService := services.NewExperimentService(
		experimentRepo, waitlistRepo, auditRepo,
		generator, adsService, graphClient, mailer, cfg, log,
	)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, cfg, log)
	experimentHandler := handlers.NewExperimentHandler(experimentService, log)
	adsHandler := handlers.NewAdsHandler(adsService, generator, linkPreviewer, log)
	waitlistHandler := handlers.NewWaitlistHandler(experimentService, log)
	feedbackHandler := handlers.NewFeedbackHandler(experimentService, log)
	landingHandler := handlers.NewLandingHandler(experimentService, log)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"success": false, "error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, experimentHandler, adsHandler, waitlistHandler, feedbackHandler, landingHandler)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

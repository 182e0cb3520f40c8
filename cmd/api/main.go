package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/workpulse-hq/workpulse/pkg/validator"

	"github.com/workpulse-hq/workpulse/internal/adapter/handler"
	"github.com/workpulse-hq/workpulse/internal/adapter/repository"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/cache"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/database"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/external/calendar"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/external/meetingbot"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/external/oauth"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/storage"
	"github.com/workpulse-hq/workpulse/internal/usecase/credentials"
	"github.com/workpulse-hq/workpulse/internal/usecase/ingestion"
	"github.com/workpulse-hq/workpulse/internal/usecase/insights"
	"github.com/workpulse-hq/workpulse/internal/usecase/oauthflow"
	"github.com/workpulse-hq/workpulse/pkg/config"
	"github.com/workpulse-hq/workpulse/pkg/insight"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Set-Cookie", "Cookie"},
		AllowCredentials: true,
	}))

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	log.Println("Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Schema is managed with sql-migrate; only apply at boot when enabled
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("DB_AUTO_MIGRATE is enabled in production. Run migrations through the deploy pipeline instead.")
		}
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Webhook dedup ledger: Redis when available, per-process fallback without
	var deduper ingestion.Deduper
	if cfg.Redis.Enabled {
		log.Println("Connecting to Redis...")
		redisStore, err := cache.NewRedisStore(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		deduper = redisStore
	} else {
		log.Println("Redis disabled, using in-memory webhook dedup")
		deduper = cache.NewMemoryStore()
	}

	log.Println("Connecting to object storage...")
	archiver, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	// Repositories
	credRepo := repository.NewCredentialRepository(db)
	stateRepo := repository.NewOAuthStateRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)
	insightRepo := repository.NewInsightRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	userRepo := repository.NewUserRepository(db)

	// OAuth providers
	googleProvider := oauth.NewGoogleProvider(
		cfg.OAuth.Google.ClientID,
		cfg.OAuth.Google.ClientSecret,
		cfg.OAuth.Google.RedirectURL,
	)
	zoomProvider := oauth.NewZoomProvider(
		cfg.OAuth.Zoom.ClientID,
		cfg.OAuth.Zoom.ClientSecret,
		cfg.OAuth.Zoom.RedirectURL,
	)
	providers := oauth.NewRegistry(googleProvider, zoomProvider)

	// Core services
	credManager := credentials.NewManager(credRepo, providers, logger)
	oauthFlow := oauthflow.NewService(stateRepo, credRepo, userRepo, providers, logger)

	botClient := meetingbot.NewClient(&cfg.Bot)
	calendarClient := calendar.NewClient()
	engine := insight.NewEngine(&cfg.Insight)

	pipeline := insights.NewPipeline(meetingRepo, transcriptRepo, insightRepo, engine, &cfg.Insight, logger)

	orchestrator := ingestion.NewOrchestrator(
		meetingRepo,
		transcriptRepo,
		employeeRepo,
		botClient,
		credManager,
		calendarClient,
		deduper,
		archiver,
		pipeline,
		&cfg.Bot,
		logger,
	)
	orchestrator.Start()
	defer orchestrator.Stop()

	// Expired handshake states are also rejected on read; this loop just
	// keeps the table small
	statePurgeDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-statePurgeDone:
				return
			case <-ticker.C:
				if _, err := oauthFlow.PurgeExpiredStates(context.Background()); err != nil {
					logger.Warn("oauth state purge failed", zap.Error(err))
				}
			}
		}
	}()
	defer close(statePurgeDone)

	// Handlers and routes
	oauthHandler := handler.NewOAuth(oauthFlow, &cfg.Server, logger)
	meetingHandler := handler.NewMeeting(orchestrator, insightRepo, logger)
	webhookHandler := handler.NewWebhook(orchestrator, cfg.Bot.WebhookSecret, logger)

	router := handler.NewRouter(cfg, oauthHandler, meetingHandler, webhookHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Starting server on %s (%s)", addr, cfg.Server.Environment)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

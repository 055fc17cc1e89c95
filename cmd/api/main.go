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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/johnquangdev/meeting-taskflow/docs"
	"github.com/johnquangdev/meeting-taskflow/internal/adapter/handler"
	"github.com/johnquangdev/meeting-taskflow/internal/adapter/repository"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/external/jira"
	httpmw "github.com/johnquangdev/meeting-taskflow/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/metrics"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/auth"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/extraction"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/meeting"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/status"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/task"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/team"
	pkgai "github.com/johnquangdev/meeting-taskflow/pkg/ai"
	"github.com/johnquangdev/meeting-taskflow/pkg/config"
	"github.com/johnquangdev/meeting-taskflow/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/meeting-taskflow/pkg/validator"
)

// @title           Meeting Taskflow API
// @version         1.0
// @description     Turns meeting recordings and transcripts into tracked Jira tasks for a project manager's team.

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(logger)
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Cookie"},
		AllowCredentials: true,
	}))
	// Multipart overhead on top of the audio limit
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxUploadMB+1)))

	log.Println("🔧 Initializing dependencies...")

	// Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; run `migrate up` before starting the server")
	}

	// Token revocation store
	revoked := newRevocationStore(cfg, logger)
	defer revoked.Close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Issue tracker
	log.Println("🎫 Initializing Jira client...")
	if err := jira.CheckMappings(); err != nil {
		log.Fatalf("Invalid Jira field mapping: %v", err)
	}
	tracker := jira.NewClient(cfg.Jira.URL, cfg.Jira.Timeout, m, logger)

	// AI clients
	log.Println("🤖 Initializing AI components...")
	groqClient := pkgai.NewGroqClient(&cfg.Groq, logger)
	extractor := extraction.NewExtractor(groqClient, extraction.Options{
		MaxTokens:   cfg.Groq.MaxTokens,
		Temperature: cfg.Groq.Temperature,
	}, logger)
	transcriber := pkgai.NewAssemblyAIClient(&cfg.AssemblyAI, logger)

	// Repositories
	log.Println("⚙️  Initializing repositories...")
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	checks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error { return pingDB(ctx, db) },
	}

	deps := meeting.Deps{
		Meetings:    meetingRepo,
		Tasks:       taskRepo,
		Users:       userRepo,
		Transcriber: transcriber,
		Extractor:   extractor,
		Tracker:     tracker,
		Metrics:     m,
	}
	if cfg.Storage.Enabled {
		log.Println("🗄️  Connecting to object storage...")
		audioStore, err := storage.NewMinIOClient(ctx, &cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize object storage: %v", err)
		}
		deps.Audio = audioStore
		checks["storage"] = audioStore.Ping
	}

	// Services
	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry, cfg.JWT.Issuer)
	authService := auth.NewService(userRepo, tracker, jwtManager, revoked, logger)
	meetingService := meeting.NewService(deps, meeting.Config{
		Workers:       cfg.Pipeline.Workers,
		QueueSize:     cfg.Pipeline.QueueSize,
		IsolateDrafts: cfg.Pipeline.IsolateDrafts,
		StaleAfter:    cfg.Pipeline.StaleAfter,
		ReapInterval:  cfg.Pipeline.ReapInterval,
	}, logger)
	taskService := task.NewService(taskRepo, userRepo, tracker, extractor, logger)
	teamService := team.NewService(teamRepo, userRepo, logger)
	statusService := status.NewService(taskRepo)

	if err := meetingService.StartWorkerPool(context.WithoutCancel(ctx)); err != nil {
		log.Fatalf("Failed to start pipeline workers: %v", err)
	}

	// Routes
	log.Println("🛣️  Setting up routes...")
	handlers := handler.Handlers{
		Auth:    handler.NewAuth(authService, logger, cfg.IsProduction()),
		Meeting: handler.NewMeeting(meetingService, cfg.Server.MaxUploadMB<<20, logger),
		Task:    handler.NewTask(taskService, logger),
		Team:    handler.NewTeam(teamService, logger),
		Status:  handler.NewStatus(statusService, logger),
	}
	handler.NewRouter(cfg, handlers, httpmw.EchoAuth(authService), reg, checks).Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := meetingService.StopWorkerPool(); err != nil {
		logger.Error("pipeline workers did not stop cleanly", zap.Error(err))
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newRevocationStore prefers Redis and falls back to process memory when Redis is not configured or unreachable
func newRevocationStore(cfg *config.Config, logger *zap.Logger) cache.Store {
	if cfg.Redis.Host == "" {
		log.Println("📦 REDIS_HOST is empty, keeping revoked tokens in memory")
		return cache.NewMemoryStore()
	}

	log.Println("📦 Connecting to Redis...")
	client, err := cache.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("redis unavailable, keeping revoked tokens in memory", zap.Error(err))
		return cache.NewMemoryStore()
	}
	return cache.NewRedisStore(client, "taskflow:")
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

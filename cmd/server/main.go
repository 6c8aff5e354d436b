package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"cvforge/internal/admin"
	"cvforge/internal/ai"
	"cvforge/internal/api"
	"cvforge/internal/api/handlers"
	"cvforge/internal/api/middleware"
	apiservices "cvforge/internal/api/services"
	"cvforge/internal/auth"
	"cvforge/internal/cache"
	"cvforge/internal/config"
	"cvforge/internal/github"
	"cvforge/internal/pdf"
	"cvforge/internal/repositories"
	"cvforge/internal/services"
	"cvforge/internal/storage"
)

func main() {
	cfg := config.Load()

	var zapLogger *zap.Logger
	var err error
	if cfg.Environment == "production" {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	db, err := repositories.Connect(cfg.DBURL)
	if err != nil {
		logger.Fatalw("Failed to connect to database", "error", err)
	}
	if err := repositories.Migrate(db); err != nil {
		logger.Fatalw("Failed to run migrations", "error", err)
	}

	var store cache.Cache
	if cfg.RedisAddr != "" {
		store, err = cache.NewRedis(context.Background(), cfg.RedisAddr)
		if err != nil {
			logger.Fatalw("Failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
	} else {
		logger.Warn("REDIS_ADDR not set, using in-process cache")
		store = cache.NewMemory()
	}

	var files storage.Storage
	switch cfg.StorageBackend {
	case "r2":
		files = storage.NewR2(cfg.R2)
	default:
		files = storage.NewLocal(cfg.MediaRoot)
	}

	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpireMinutes)
	userRepo := repositories.NewUserRepository(db)
	cvRepo := repositories.NewCvRepository(db)

	githubClient := github.NewClient(cfg.GitHubToken)
	synthesizer := ai.NewSynthesizer(cfg.OpenAIKey, cfg.OpenAIModel)
	renderer := pdf.NewRenderer(cfg.TemplatesDir, pdf.NewChromeConverter())

	userService := services.NewUserService(userRepo, hasher, tokens, logger)
	cvService := services.NewCvService(cvRepo, store, githubClient, synthesizer, renderer, files, logger)

	oauth := apiservices.NewGitHubOAuth(cfg.OAuth)
	authMw := middleware.NewAuth(tokens, userRepo)

	router := api.SetupRouter(api.Deps{
		Auth:   handlers.NewAuthHandler(userService, oauth, cfg, logger),
		Users:  handlers.NewUserHandler(userService, cfg, logger),
		Cvs:    handlers.NewCvHandler(cvService, renderer, files, cfg, logger),
		Admin:  admin.New(db, admin.DefaultResources(hasher), logger),
		AuthMw: authMw,
		Cfg:    cfg,
		Logger: logger,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
		// Timeouts prevent resource exhaustion from slow clients. The
		// write timeout covers the generation pipeline, which waits on
		// the LLM and headless Chrome.
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Infow("Starting server", "port", cfg.Port, "environment", cfg.Environment)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalw("Server stopped", "error", err)
	}
}

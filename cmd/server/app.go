package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/taskflow/task-tracker-api/internal/auth"
	"github.com/taskflow/task-tracker-api/internal/cache"
	"github.com/taskflow/task-tracker-api/internal/config"
	"github.com/taskflow/task-tracker-api/internal/database"
	"github.com/taskflow/task-tracker-api/internal/repository"
	"github.com/taskflow/task-tracker-api/internal/router"
	"github.com/taskflow/task-tracker-api/internal/services"
	"gorm.io/gorm"
)

// openStore connects to the configured database and brings the schema up to date.
func openStore(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// newLogger is the structured logger for operator-facing events.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

// buildServices wires repositories, the revocation store and services. The
// returned cleanup closes the redis client when one was opened.
func buildServices(cfg *config.Config, db *gorm.DB) (router.Services, func()) {
	logger := newLogger()

	var store cache.Store
	cleanup := func() {}
	if redisClient := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); redisClient != nil {
		log.Printf("Token revocation backed by redis at %s", cfg.RedisAddr)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx); err != nil {
			log.Printf("Warning: redis is unreachable, logout and authenticated requests will fail until it is back: %v", err)
		}
		cancel()
		store = redisClient
		cleanup = func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("Failed to close redis: %v", err)
			}
		}
	} else {
		log.Println("REDIS_ADDR not set, keeping revoked tokens in memory")
		store = cache.NewMemory()
	}

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	auditService := services.NewAuditService(auditRepo)
	authService := services.NewAuthService(
		userRepo, orgRepo,
		auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL),
		auth.NewTokenStore(store),
		auditService,
		services.AuthServiceConfig{Logger: logger, StrictTenancy: cfg.StrictTenancy},
	)
	taskService := services.NewTaskService(taskRepo, userRepo, auditService, services.TaskServiceConfig{
		AIService:     aiService,
		Logger:        logger,
		StrictTenancy: cfg.StrictTenancy,
	})

	return router.Services{
		DB:            db,
		Auth:          authService,
		Tasks:         taskService,
		Organizations: services.NewOrganizationService(orgRepo, auditService, logger),
		Users:         services.NewUserService(userRepo, orgRepo, auditService, logger),
		Audit:         auditService,
	}, cleanup
}

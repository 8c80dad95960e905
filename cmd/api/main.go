package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/carebridge/carelog-api/internal/config"
	authHandler "github.com/carebridge/carelog-api/internal/handler/auth"
	carelogHandler "github.com/carebridge/carelog-api/internal/handler/carelog"
	healthHandler "github.com/carebridge/carelog-api/internal/handler/health"
	recipientHandler "github.com/carebridge/carelog-api/internal/handler/recipient"
	"github.com/carebridge/carelog-api/internal/middleware"
	"github.com/carebridge/carelog-api/internal/repository/postgres"
	"github.com/carebridge/carelog-api/internal/router"
	auditService "github.com/carebridge/carelog-api/internal/service/audit"
	authService "github.com/carebridge/carelog-api/internal/service/auth"
	carelogService "github.com/carebridge/carelog-api/internal/service/carelog"
	recipientService "github.com/carebridge/carelog-api/internal/service/recipient"
	visibilityService "github.com/carebridge/carelog-api/internal/service/visibility"
	"github.com/carebridge/carelog-api/pkg/auth"
	"github.com/carebridge/carelog-api/pkg/metrics"
	"github.com/carebridge/carelog-api/pkg/security"
	"github.com/carebridge/carelog-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Migrate.Enabled {
		if err := postgres.RunMigrations(db, cfg.Migrate.Path); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	if err := validator.RegisterCustom(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	m := metrics.NewMetrics("carebridge", "api")

	// Repositories
	base := postgres.NewBaseRepository(db)
	careLogRepo := postgres.NewCareLogRepository(base)
	auditRepo := postgres.NewAuditRepository(base)
	viewRepo := postgres.NewCareLogViewRepository(base)
	recipientRepo := postgres.NewCareRecipientRepository(base)
	userRepo := postgres.NewUserRepository(base)

	// Services
	recipientSvc := recipientService.NewService(recipientRepo)
	carelogSvc := carelogService.NewService(careLogRepo, recipientSvc, carelogService.Config{
		StrictSubmitLock: cfg.CareLog.StrictSubmitLock,
	}, log.Logger)
	auditSvc := auditService.NewService(auditRepo)
	visibilitySvc := visibilityService.NewService(viewRepo, auditRepo, careLogRepo)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authSvc := authService.NewService(userRepo, security.NewBcryptHasher(0), tokens)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	authH := authHandler.NewHandler(authSvc)
	carelogH := carelogHandler.NewHandler(carelogSvc, visibilitySvc, auditSvc, m)
	recipientH := recipientHandler.NewHandler(recipientSvc)
	healthH := healthHandler.NewHandler(db)

	r := router.NewRouter(authMiddleware, authH, carelogH, recipientH, healthH, router.Config{
		RateLimit:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:     cfg.RateLimit.Burst,
		Timeout:       cfg.Server.RequestTimeout,
		CORSConfig:    middleware.DefaultCORSConfig(),
		MetricsPrefix: "carebridge_api",
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}

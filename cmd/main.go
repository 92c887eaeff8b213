package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/config"
	"github.com/Dosada05/tournament-engine/db"
	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/repositories"
	api "github.com/Dosada05/tournament-engine/routes"
	"github.com/Dosada05/tournament-engine/scheduler"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/Dosada05/tournament-engine/storage"
)

// @title Tournament Engine API
// @version 1.0
// @description Match results, disputes and bracket progression.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("expiry_policy", cfg.ExpiryPolicy))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store repositories.Store
	if cfg.DatabaseURL == "" {
		store = repositories.NewMemoryStore()
		logger.Warn("DATABASE_URL not set, using the in-memory store")
	} else {
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			}
		}()
		if err := db.Migrate(ctx, dbConn); err != nil {
			return err
		}
		store = repositories.NewPostgresStore(dbConn, logger)
		logger.Info("database connection established")
	}

	var proofs storage.ProofStore
	r2 := storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2.Enabled() {
		proofs, err = storage.NewR2ProofStore(ctx, r2)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 proof store: %w", err)
		}
		logger.Info("Cloudflare R2 proof store initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		proofs = storage.NewMemoryProofStore()
		logger.Warn("R2 credentials not set, proofs are kept in memory")
	}

	hub := brackets.NewHub(logger)
	go hub.Run(ctx)

	deps := services.Dependencies{
		Store:    store,
		Notifier: hub,
		Audit:    services.NewSlogAuditLogger(logger),
		Proofs:   proofs,
		Logger:   logger,
		Policy: services.Policy{
			ConfirmationWindow: cfg.ConfirmationWindow,
			ExpiryPolicy:       services.ExpiryPolicy(cfg.ExpiryPolicy),
			ExplanationMin:     cfg.ExplanationMin,
			ExplanationMax:     cfg.ExplanationMax,
			ResolutionNotesMin: cfg.ResolutionNotesMin,
			RequireProof:       cfg.RequireProof,
		},
	}
	bracketService := services.NewBracketService(deps)
	matchService := services.NewMatchService(deps)
	resultService := services.NewResultService(deps)
	disputeService := services.NewDisputeService(deps)
	stageService := services.NewStageService(deps)
	dashboardService := services.NewDashboardService(deps)

	reconcileJobs, err := scheduler.New(services.NewReconciler(deps, resultService, 0), cfg.ReconcileInterval, logger)
	if err != nil {
		return err
	}
	if err := reconcileJobs.Start(); err != nil {
		return err
	}
	defer func() {
		if err := reconcileJobs.Stop(); err != nil {
			logger.Error("failed to stop scheduler", slog.Any("error", err))
		}
	}()

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Tournaments: handlers.NewTournamentHandler(bracketService),
		Matches:     handlers.NewMatchHandler(matchService, resultService, disputeService),
		Disputes:    handlers.NewDisputeHandler(disputeService),
		Stages:      handlers.NewStageHandler(stageService),
		Proofs:      handlers.NewProofHandler(proofs),
		Dashboard:   handlers.NewDashboardHandler(dashboardService),
		WebSocket:   handlers.NewWebSocketHandler(hub, bracketService, cfg.CORSAllowedOrigins, logger),
	}, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
	if err := server.Shutdown(shutdownCtx); err != nil {
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server shutdown complete")
	return nil
}

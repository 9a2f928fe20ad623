package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/presia-labs/presia/internal/api"
	"github.com/presia-labs/presia/internal/config"
	"github.com/presia-labs/presia/internal/database"
	"github.com/presia-labs/presia/internal/facemodel"
	"github.com/presia-labs/presia/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Presia API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.Int("embedding_dim", cfg.EmbeddingDim),
		slog.Float64("match_threshold", cfg.MatchThreshold),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	ext, err := facemodel.NewExtractor(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create extractor: %w", err)
	}

	repo := repository.NewEmbeddingRepository(pool, cfg.EmbeddingDim)

	router := api.NewRouter(logger, &api.Dependencies{
		Config:    cfg,
		Repo:      repo,
		Extractor: ext,
		DB:        pool,
	})
	router.Setup()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}

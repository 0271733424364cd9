package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RishiKendai/winnow/internal/api"
	"github.com/RishiKendai/winnow/internal/config"
	"github.com/RishiKendai/winnow/internal/configs/env"
	redisInfra "github.com/RishiKendai/winnow/internal/infra/redis"
	"github.com/RishiKendai/winnow/internal/logger"
	"github.com/RishiKendai/winnow/internal/plagiarism"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env file, continuing with system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := cfg.ValidateServer(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	logger.Init(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)
	log.Info().Msg("Starting winnow server")

	stopWords, err := cfg.ResolveStopWords()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve stop words")
	}
	log.Info().
		Int("kGrams", cfg.KGrams).
		Int("window", cfg.WindowSize).
		Int("stopWords", len(stopWords)).
		Msg("Winnowing defaults loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional; without it run status is not tracked
	var tracker plagiarism.StatusTracker = plagiarism.NopTracker{}
	if cfg.RedisHost != "" {
		redisClient, err := redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, 0)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Redis client")
		}
		defer redisClient.Close()
		tracker = plagiarism.NewRedisStatusTracker(redisClient.Client, cfg.StatusTTL)
	} else {
		log.Info().Msg("REDIS_HOST not set, run status tracking disabled")
	}

	var workerPool *plagiarism.WorkerPool
	if cfg.Parallel {
		workerPool = plagiarism.NewWorkerPool(ctx, 0)
		defer workerPool.Close()
	}

	router := api.SetupRoutes(cfg, stopWords, workerPool, tracker)
	srv, serveErr := api.StartServer(router, cfg.ServerPort)

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}

	log.Info().Msg("Shutting down gracefully...")

	if err := api.ShutdownServer(srv, 30*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down Gin server")
	}

	log.Info().Msg("Shutdown complete")
}

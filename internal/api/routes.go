package api

import (
	"github.com/RishiKendai/winnow/internal/config"
	"github.com/RishiKendai/winnow/internal/plagiarism"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	cfg *config.Config,
	stopWords []string,
	workerPool *plagiarism.WorkerPool,
	tracker plagiarism.StatusTracker,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	handler := NewHandler(cfg, stopWords, workerPool, tracker)

	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, int(cfg.RateLimitRPS*2))

	// Middleware
	router.Use(RequestLogger())
	router.Use(ErrorHandlerMiddleware())

	// Health endpoint (no auth)
	router.GET("/health", handler.Health)

	// API routes (with auth and rate limiting)
	api := router.Group("/api/v1")
	api.Use(JWTAuthMiddleware(cfg.JWTSecret))
	api.Use(RateLimitMiddleware(rateLimiter))
	{
		api.POST("/compare", handler.Compare)
		api.GET("/status/:runId", handler.Status)
	}

	return router
}

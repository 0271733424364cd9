package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RishiKendai/winnow/internal/config"
	"github.com/RishiKendai/winnow/internal/models"
	"github.com/RishiKendai/winnow/internal/plagiarism"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RunIDHeader carries the run id of every compare response
const RunIDHeader = "X-Run-ID"

// Handler holds dependencies for handlers
type Handler struct {
	cfg            *config.Config
	stopWords      []string
	workerPool     *plagiarism.WorkerPool
	tracker        plagiarism.StatusTracker
	computeSem     chan struct{} // Semaphore for bounded concurrency
	computeTimeout time.Duration
}

// NewHandler creates a new handler. stopWords is the resolved server-wide
// list every request starts from.
func NewHandler(
	cfg *config.Config,
	stopWords []string,
	workerPool *plagiarism.WorkerPool,
	tracker plagiarism.StatusTracker,
) *Handler {
	if tracker == nil {
		tracker = plagiarism.NopTracker{}
	}

	return &Handler{
		cfg:            cfg,
		stopWords:      stopWords,
		workerPool:     workerPool,
		tracker:        tracker,
		computeSem:     make(chan struct{}, cfg.MaxConcurrentCompute),
		computeTimeout: cfg.ComputationTimeout,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

func (h *Handler) Compare(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxRequestBytes)

	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	if len(req.Documents) > h.cfg.MaxDocuments {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: fmt.Sprintf("at most %d documents are allowed per request", h.cfg.MaxDocuments),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	opts, err := h.buildOptions(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_CONFIG",
		})
		return
	}

	detector, err := plagiarism.NewDetector(opts, h.workerPool, h.tracker)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_CONFIG",
		})
		return
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	// set before compute so error responses carry it too
	c.Header(RunIDHeader, runID)

	ctx := c.Request.Context()

	// Acquire semaphore (bounded concurrency)
	select {
	case h.computeSem <- struct{}{}:
		defer func() { <-h.computeSem }()
	case <-ctx.Done():
		c.JSON(http.StatusRequestTimeout, models.ErrorResponse{
			Error: "Request cancelled",
			Code:  "REQUEST_TIMEOUT",
			RunID: runID,
		})
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, h.computeTimeout)
	defer cancel()

	sources := make([]plagiarism.Source, 0, len(req.Documents))
	for _, doc := range req.Documents {
		sources = append(sources, plagiarism.Source{ID: doc.ID, Text: doc.Text})
	}

	report, err := detector.Compare(runCtx, runID, sources)
	if err != nil {
		h.writeCompareError(c, runID, err)
		return
	}

	log.Info().
		Str("runId", runID).
		Int("documents", len(report.Documents)).
		Int("kGrams", report.KGrams).
		Int("window", report.Window).
		Dur("duration", report.Duration).
		Msg("Comparison served")

	c.JSON(http.StatusOK, toResponse(report, req.MinScore))
}

func (h *Handler) Status(c *gin.Context) {
	runID := c.Param("runId")
	if _, err := uuid.Parse(runID); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "runId must be a UUID",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	step, err := h.tracker.Get(c.Request.Context(), runID)
	if errors.Is(err, plagiarism.ErrUnknownRun) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "No status recorded for run",
			Code:  "NOT_FOUND",
		})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("runId", runID).Msg("Failed to read run status")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to read run status",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{RunID: runID, Step: step})
}

// buildOptions layers the request settings over the server defaults
func (h *Handler) buildOptions(req models.CompareRequest) (plagiarism.Options, error) {
	opts := plagiarism.Options{
		KGrams:              h.cfg.KGrams,
		Window:              h.cfg.WindowSize,
		RequireFingerprints: h.cfg.StrictFingerprints || req.Strict,
	}
	if req.KGrams > 0 {
		opts.KGrams = req.KGrams
	}
	if req.Window > 0 {
		opts.Window = req.Window
	}

	var preset []string
	if req.Preset != "" {
		words, ok := config.Preset(req.Preset)
		if !ok {
			return opts, fmt.Errorf("unknown stop-word preset %q", req.Preset)
		}
		preset = words
	}
	opts.StopWords = config.MergeStopWords(h.stopWords, preset, req.StopWords)

	return opts, nil
}

func (h *Handler) writeCompareError(c *gin.Context, runID string, err error) {
	switch {
	case errors.Is(err, plagiarism.ErrDuplicateDocument),
		errors.Is(err, plagiarism.ErrNoFingerprints),
		errors.Is(err, plagiarism.ErrNoDocuments):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_CONFIG",
			RunID: runID,
		})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.Warn().Err(err).Str("runId", runID).Msg("Comparison did not finish in time")
		c.JSON(http.StatusRequestTimeout, models.ErrorResponse{
			Error: "Comparison timed out",
			Code:  "REQUEST_TIMEOUT",
			RunID: runID,
		})
	default:
		log.Error().Err(err).Str("runId", runID).Msg("Comparison failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Comparison failed",
			Code:  "INTERNAL_ERROR",
			RunID: runID,
		})
	}
}

func toResponse(report *plagiarism.Report, minScore float64) models.CompareResponse {
	docs := make([]models.DocumentSummary, 0, len(report.Documents))
	for _, stats := range report.Stats() {
		docs = append(docs, models.DocumentSummary{
			ID:               stats.ID,
			NormalizedLength: stats.NormalizedLength,
			Lines:            stats.Lines,
			Fingerprints:     stats.Fingerprints,
		})
	}

	matches := report.Filter(minScore)
	results := make([]models.MatchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, models.MatchResult{
			Suspect: m.Suspect,
			Source:  m.Source,
			Score:   m.Score,
			Risk:    m.Risk,
			Lines:   m.Lines,
		})
	}

	return models.CompareResponse{
		RunID:      report.RunID,
		KGrams:     report.KGrams,
		Window:     report.Window,
		Documents:  docs,
		Results:    results,
		SharedHash: report.Index.Shared(),
		Duration:   report.Duration,
	}
}

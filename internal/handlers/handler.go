// Package handlers exposes the generation and batch-job services over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/snappy-loop/blogs/internal/apperr"
	"github.com/snappy-loop/blogs/internal/database"
	"github.com/snappy-loop/blogs/internal/models"
	"github.com/snappy-loop/blogs/internal/prompts"
	"github.com/snappy-loop/blogs/internal/services"
)

const maxBodyBytes = 1 << 20

// generationService is the subset of services.GenerationService used by handlers.
type generationService interface {
	Generate(ctx context.Context, keyword string) (*models.GeneratedPost, error)
	GenerateBatch(ctx context.Context, keywords []string) ([]*models.GeneratedPost, error)
	GenerateEach(ctx context.Context, keywords []string, onDone func(services.Outcome)) error
	GenerateBlog(ctx context.Context, keyword string) (*models.GeneratedPost, error)
	GenerateImage(ctx context.Context, keyword string) (string, error)
	Trending(ctx context.Context, topic string) ([]prompts.Story, error)
	Keywords(ctx context.Context, topic string, stories []prompts.Story) ([]string, error)
	SendEmail(ctx context.Context, req *models.SendEmailRequest) error
	SaveCopy(ctx context.Context, req *models.SaveCopyRequest) (*models.SaveCopyResponse, error)
}

// jobService is the subset of services.JobService used by handlers.
type jobService interface {
	CreateJob(ctx context.Context, req *models.CreateJobRequest) (*models.CreateJobResponse, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.JobStatusResponse, error)
}

// Handler contains all HTTP handlers
type Handler struct {
	generation generationService
	jobs       jobService
	health     func() error

	streamTimeout time.Duration
}

// NewHandler creates a new handler. jobs may be nil when no database is configured;
// health may be nil.
func NewHandler(generation generationService, jobs jobService, health func() error) *Handler {
	return &Handler{generation: generation, jobs: jobs, health: health}
}

// SetStreamTimeout bounds each websocket batch by d. d <= 0 leaves batches unbounded.
func (h *Handler) SetStreamTimeout(d time.Duration) {
	h.streamTimeout = d
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(); err != nil {
			log.Warn().Err(err).Msg("Health check failed")
			writeJSONError(w, http.StatusServiceUnavailable, "unhealthy")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	case apperr.IsRateLimit(err):
		return http.StatusTooManyRequests
	case errors.Is(err, apperr.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg(msg)
	} else {
		log.Warn().Err(err).Int("status", status).Msg(msg)
	}
	writeJSONError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Package webhook delivers signed job-completion callbacks and retries the ones that fail.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/snappy-loop/blogs/internal/config"
	"github.com/snappy-loop/blogs/internal/models"
)

// Delivery statuses
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// JobReader loads a job and its posts.
type JobReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// PostLister lists the posts of a job.
type PostLister interface {
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*models.Post, error)
}

// DeliveryStore persists delivery attempts.
type DeliveryStore interface {
	Create(ctx context.Context, d *models.WebhookDelivery) error
	Update(ctx context.Context, d *models.WebhookDelivery) error
	ListPending(ctx context.Context, limit int) ([]*models.WebhookDelivery, error)
}

// DeliveryService sends job webhooks. The first attempt happens inline, retries run in RetryWorker.
type DeliveryService struct {
	jobs       JobReader
	posts      PostLister
	deliveries DeliveryStore
	httpClient *http.Client
	cfg        *config.Config
	now        func() time.Time
}

// NewDeliveryService creates a new webhook delivery service
func NewDeliveryService(jobs JobReader, posts PostLister, deliveries DeliveryStore, cfg *config.Config) *DeliveryService {
	return &DeliveryService{
		jobs:       jobs,
		posts:      posts,
		deliveries: deliveries,
		httpClient: &http.Client{Timeout: cfg.WebhookTimeout},
		cfg:        cfg,
		now:        time.Now,
	}
}

// Payload is the JSON body posted to the job's webhook URL.
type Payload struct {
	JobID      uuid.UUID     `json:"job_id"`
	Status     string        `json:"status"`
	FinishedAt time.Time     `json:"finished_at"`
	Posts      []PostSummary `json:"posts"`
	Error      *ErrorInfo    `json:"error,omitempty"`
}

// PostSummary describes one generated post in the payload.
type PostSummary struct {
	Keyword  string  `json:"keyword"`
	Status   string  `json:"status"`
	ImageURL *string `json:"image_url,omitempty"`
	Error    *string `json:"error,omitempty"`
}

// ErrorInfo represents error information in the webhook
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DeliveryError is a non-2xx response from the receiver.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.StatusCode)
}

// IsRetryable reports whether the receiver may accept a later attempt: 5xx and 429 are retried.
func (e *DeliveryError) IsRetryable() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode < 400 || e.StatusCode >= 500
}

// DeliverWebhook makes the first delivery attempt for a finished job.
// Failures are recorded rather than returned so the consumer can move on.
func (s *DeliveryService) DeliverWebhook(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}
	if job.WebhookURL == nil || *job.WebhookURL == "" {
		log.Debug().Str("job_id", jobID.String()).Msg("No webhook configured for job")
		return nil
	}

	d := &models.WebhookDelivery{
		ID:        uuid.New(),
		JobID:     job.ID,
		URL:       *job.WebhookURL,
		Status:    StatusPending,
		CreatedAt: s.now(),
	}
	if err := s.deliveries.Create(ctx, d); err != nil {
		log.Error().Err(err).Str("job_id", jobID.String()).Msg("Failed to create delivery record")
	}

	s.attempt(ctx, job, d)
	return nil
}

// attempt sends once and records the outcome on d.
func (s *DeliveryService) attempt(ctx context.Context, job *models.Job, d *models.WebhookDelivery) {
	now := s.now()
	d.Attempts++
	d.LastAttemptAt = &now

	err := s.send(ctx, job, d.URL)
	logger := log.With().Str("job_id", job.ID.String()).Str("url", d.URL).Int("attempt", d.Attempts).Logger()
	switch {
	case err == nil:
		d.Status = StatusSent
		d.LastError = nil
		logger.Info().Msg("Webhook delivered")
	case !retryable(err):
		msg := err.Error()
		d.Status = StatusFailed
		d.LastError = &msg
		logger.Error().Err(err).Msg("Webhook rejected, not retrying")
	case d.Attempts >= s.cfg.WebhookMaxRetries:
		msg := err.Error()
		d.Status = StatusFailed
		d.LastError = &msg
		logger.Error().Err(err).Msg("Webhook delivery failed after max retries")
	default:
		msg := err.Error()
		d.Status = StatusPending
		d.LastError = &msg
		logger.Warn().Err(err).Msg("Webhook delivery failed, scheduled for retry")
	}

	if err := s.deliveries.Update(ctx, d); err != nil {
		logger.Error().Err(err).Msg("Failed to update delivery record")
	}
}

func retryable(err error) bool {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.IsRetryable()
	}
	return true
}

// Due reports whether a pending delivery has waited out its backoff.
func (s *DeliveryService) Due(d *models.WebhookDelivery) bool {
	if d.LastAttemptAt == nil {
		return true
	}
	return !s.now().Before(d.LastAttemptAt.Add(Backoff(d.Attempts, s.cfg.WebhookRetryBaseDelay, s.cfg.WebhookRetryMaxDelay)))
}

// Backoff is base * 2^(attempts-1), capped at max.
func Backoff(attempts int, base, max time.Duration) time.Duration {
	if attempts < 1 {
		return 0
	}
	delay := base
	for i := 1; i < attempts && delay < max; i++ {
		delay *= 2
	}
	if delay > max {
		return max
	}
	return delay
}

func (s *DeliveryService) payload(ctx context.Context, job *models.Job) (*Payload, error) {
	posts, err := s.posts.ListByJob(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	p := &Payload{
		JobID:      job.ID,
		Status:     job.Status,
		FinishedAt: s.now(),
		Posts:      make([]PostSummary, 0, len(posts)),
	}
	if job.FinishedAt != nil {
		p.FinishedAt = *job.FinishedAt
	}
	for _, post := range posts {
		p.Posts = append(p.Posts, PostSummary{
			Keyword:  post.Keyword,
			Status:   post.Status,
			ImageURL: post.ImageURL,
			Error:    post.Error,
		})
	}
	if job.ErrorCode != nil && job.ErrorMessage != nil {
		p.Error = &ErrorInfo{Code: *job.ErrorCode, Message: *job.ErrorMessage}
	}
	return p, nil
}

func (s *DeliveryService) send(ctx context.Context, job *models.Job, url string) error {
	p, err := s.payload(ctx, job)
	if err != nil {
		return err
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Blogs-Webhook/1.0")
	req.Header.Set("X-Webhook-Timestamp", strconv.FormatInt(s.now().Unix(), 10))
	if job.WebhookSecret != nil && *job.WebhookSecret != "" {
		req.Header.Set("X-Webhook-Signature", "sha256="+Sign(body, *job.WebhookSecret))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/snappy-loop/blogs/internal/prompts"
)

// Job statuses
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// Post statuses
const (
	PostQueued    = "queued"
	PostRunning   = "running"
	PostSucceeded = "succeeded"
	PostFailed    = "failed"
)

// Job is a batch of keywords generated in the background.
type Job struct {
	ID            uuid.UUID  `json:"id"`
	Status        string     `json:"status"` // queued, running, succeeded, failed
	Keywords      []string   `json:"keywords"`
	Email         *string    `json:"email,omitempty"`
	WebhookURL    *string    `json:"webhook_url,omitempty"`
	WebhookSecret *string    `json:"-"`
	ErrorCode     *string    `json:"error_code,omitempty"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// Post is the generated output for one keyword of a job.
type Post struct {
	ID          uuid.UUID  `json:"id"`
	JobID       uuid.UUID  `json:"job_id"`
	Idx         int        `json:"idx"`
	Keyword     string     `json:"keyword"`
	Status      string     `json:"status"` // queued, running, succeeded, failed
	BlogContent *string    `json:"blog_content,omitempty"`
	ContentHTML *string    `json:"content_html,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	ArchiveKey  *string    `json:"archive_key,omitempty"`
	Error       *string    `json:"error,omitempty"`
	EmailedAt   *time.Time `json:"emailed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// WebhookDelivery tracks delivery attempts of a job's completion webhook.
type WebhookDelivery struct {
	ID            uuid.UUID  `json:"id"`
	JobID         uuid.UUID  `json:"job_id"`
	URL           string     `json:"url"`
	Status        string     `json:"status"` // pending, sent, failed
	Attempts      int        `json:"attempts"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	LastError     *string    `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// GeneratedPost is the synchronous result of generating one keyword.
type GeneratedPost struct {
	Keyword             string            `json:"keyword"`
	BlogContent         string            `json:"blogContent"`
	PostContentHTML     string            `json:"postContentHtml"`
	ImageURL            string            `json:"imageUrl"`
	IntermediateResults map[string]string `json:"intermediateResults,omitempty"`
	ArchiveKey          string            `json:"archiveKey,omitempty"`
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Keywords []string `json:"keywords"`
}

// GenerateResponse holds one entry per requested keyword; failed keywords are null.
type GenerateResponse struct {
	Results []*GeneratedPost `json:"results"`
}

// KeywordRequest is the body of the single-keyword endpoints.
type KeywordRequest struct {
	Keyword string `json:"keyword"`
}

// TrendingRequest is the body of POST /api/trending-stories.
type TrendingRequest struct {
	Topic string `json:"topic"`
}

// TrendingResponse lists trending stories for a topic.
type TrendingResponse struct {
	Stories []prompts.Story `json:"stories"`
}

// KeywordsRequest is the body of POST /api/generate-keywords.
type KeywordsRequest struct {
	Topic           string          `json:"topic"`
	TrendingStories []prompts.Story `json:"trendingStories"`
}

// KeywordsResponse lists suggested blog titles.
type KeywordsResponse struct {
	Keywords []string `json:"keywords"`
}

// SendEmailRequest is the body of POST /api/send-email.
type SendEmailRequest struct {
	Email           string `json:"email"`
	Keyword         string `json:"keyword"`
	BlogContent     string `json:"blogContent"`
	PostContentHTML string `json:"postContentHtml"`
	ImageURL        string `json:"imageUrl"`
}

// SaveCopyRequest is the body of POST /api/save-local-copy.
type SaveCopyRequest struct {
	Keyword     string `json:"keyword"`
	BlogContent string `json:"blogContent"`
	ImageURL    string `json:"imageUrl"`
}

// SaveCopyResponse reports which parts were archived.
type SaveCopyResponse struct {
	Message  string `json:"message"`
	PostKey  string `json:"postKey,omitempty"`
	ImageKey string `json:"imageKey,omitempty"`
}

// CreateJobRequest is the body of POST /v1/jobs.
type CreateJobRequest struct {
	Keywords []string       `json:"keywords"`
	Email    string         `json:"email,omitempty"`
	Webhook  *WebhookConfig `json:"webhook,omitempty"`
}

// WebhookConfig is the optional completion callback of a job.
type WebhookConfig struct {
	URL    string  `json:"url"`
	Secret *string `json:"secret,omitempty"`
}

// CreateJobResponse is returned with 202 Accepted.
type CreateJobResponse struct {
	JobID     uuid.UUID `json:"job_id"`
	Status    string    `json:"status"`
	Posts     int       `json:"posts"`
	CreatedAt time.Time `json:"created_at"`
}

// JobStatusResponse is a job with its posts.
type JobStatusResponse struct {
	Job
	Posts []*Post `json:"posts"`
}

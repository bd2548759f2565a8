package processor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/snappy-loop/blogs/internal/models"
)

// Generator runs the full workflow for one keyword (services.GenerationService).
type Generator interface {
	Generate(ctx context.Context, keyword string) (*models.GeneratedPost, error)
}

// WebhookPublisher enqueues completion events for the dispatcher.
type WebhookPublisher interface {
	PublishWebhook(ctx context.Context, jobID uuid.UUID, event, traceID string) error
}

type jobStore interface {
	GetByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	UpdateStatus(ctx context.Context, jobID uuid.UUID, status string, errorCode, errorMessage *string) error
}

type postStore interface {
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*models.Post, error)
	UpdateStatus(ctx context.Context, postID uuid.UUID, status string, errMsg *string) error
	SaveResult(ctx context.Context, postID uuid.UUID, res *models.GeneratedPost) error
	MarkEmailed(ctx context.Context, postID uuid.UUID, at time.Time) error
}


package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/snappy-loop/blogs/internal/models"
)

// JobPublisher publishes job messages (e.g. to Kafka). May be nil to skip publishing.
type JobPublisher interface {
	PublishJob(ctx context.Context, jobID uuid.UUID, traceID string) error
}

// jobRepository is the subset of job DB operations used by JobService.
type jobRepository interface {
	CreateWithPosts(ctx context.Context, job *models.Job, posts []*models.Post) error
	GetByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
}

// postRepository is the subset of post DB operations used by JobService.
type postRepository interface {
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*models.Post, error)
}

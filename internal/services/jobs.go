package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/snappy-loop/blogs/internal/config"
	"github.com/snappy-loop/blogs/internal/database"
	"github.com/snappy-loop/blogs/internal/models"
)

// JobService handles job-related business logic
type JobService struct {
	jobRepo   jobRepository
	postRepo  postRepository
	publisher JobPublisher
	config    *config.Config
	now       func() time.Time
}

// NewJobService creates a new JobService backed by the database.
func NewJobService(db *database.DB, publisher JobPublisher, cfg *config.Config) *JobService {
	return newJobService(database.NewJobRepository(db), database.NewPostRepository(db), publisher, cfg)
}

func newJobService(jobs jobRepository, posts postRepository, publisher JobPublisher, cfg *config.Config) *JobService {
	return &JobService{
		jobRepo:   jobs,
		postRepo:  posts,
		publisher: publisher,
		config:    cfg,
		now:       time.Now,
	}
}

// CreateJob validates the request, stores the job with one queued post per keyword
// and enqueues it for the worker.
func (s *JobService) CreateJob(ctx context.Context, req *models.CreateJobRequest) (*models.CreateJobResponse, error) {
	keywords, err := validateKeywords(req.Keywords, s.config.MaxKeywordsPerBatch, s.config.MaxKeywordLength)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	job := &models.Job{
		ID:        uuid.New(),
		Status:    models.JobQueued,
		Keywords:  keywords,
		CreatedAt: now,
	}
	if strings.TrimSpace(req.Email) != "" {
		addr, err := validateEmail(req.Email)
		if err != nil {
			return nil, err
		}
		job.Email = &addr
	}
	if req.Webhook != nil {
		if err := validateWebhookURL(req.Webhook.URL); err != nil {
			return nil, err
		}
		job.WebhookURL = &req.Webhook.URL
		job.WebhookSecret = req.Webhook.Secret
	}

	posts := make([]*models.Post, len(keywords))
	for i, kw := range keywords {
		posts[i] = &models.Post{
			ID:        uuid.New(),
			JobID:     job.ID,
			Idx:       i,
			Keyword:   kw,
			Status:    models.PostQueued,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	if err := s.jobRepo.CreateWithPosts(ctx, job, posts); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	if s.publisher != nil {
		traceID := uuid.New().String()
		if err := s.publisher.PublishJob(ctx, job.ID, traceID); err != nil {
			log.Error().Err(err).Str("job_id", job.ID.String()).Msg("Failed to publish job to Kafka")
		}
	} else {
		log.Warn().Str("job_id", job.ID.String()).Msg("No job publisher configured; job stays queued")
	}

	log.Info().
		Str("job_id", job.ID.String()).
		Int("keywords", len(keywords)).
		Bool("email", job.Email != nil).
		Bool("webhook", job.WebhookURL != nil).
		Msg("Job created")

	return &models.CreateJobResponse{
		JobID:     job.ID,
		Status:    job.Status,
		Posts:     len(posts),
		CreatedAt: job.CreatedAt,
	}, nil
}

// GetJob returns a job with its posts. Unknown IDs yield an error wrapping database.ErrNotFound.
func (s *JobService) GetJob(ctx context.Context, jobID uuid.UUID) (*models.JobStatusResponse, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job not found: %w", err)
	}
	posts, err := s.postRepo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}
	return &models.JobStatusResponse{Job: *job, Posts: posts}, nil
}

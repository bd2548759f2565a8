// Package processor runs queued batch jobs: one workflow per keyword, then email and webhook.
package processor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/snappy-loop/blogs/internal/config"
	"github.com/snappy-loop/blogs/internal/database"
	"github.com/snappy-loop/blogs/internal/kafka"
	"github.com/snappy-loop/blogs/internal/mailer"
	"github.com/snappy-loop/blogs/internal/metrics"
	"github.com/snappy-loop/blogs/internal/models"
)

// JobProcessor handles job processing pipeline
type JobProcessor struct {
	jobRepo   jobStore
	postRepo  postStore
	generator Generator
	mailer    mailer.Mailer
	webhooks  WebhookPublisher
	config    *config.Config
	now       func() time.Time
}

// NewJobProcessor creates a new job processor. mail and webhooks may be nil.
func NewJobProcessor(
	db *database.DB,
	generator Generator,
	mail mailer.Mailer,
	webhooks WebhookPublisher,
	cfg *config.Config,
) *JobProcessor {
	return newJobProcessor(database.NewJobRepository(db), database.NewPostRepository(db), generator, mail, webhooks, cfg)
}

func newJobProcessor(jobs jobStore, posts postStore, generator Generator, mail mailer.Mailer, webhooks WebhookPublisher, cfg *config.Config) *JobProcessor {
	return &JobProcessor{
		jobRepo:   jobs,
		postRepo:  posts,
		generator: generator,
		mailer:    mail,
		webhooks:  webhooks,
		config:    cfg,
		now:       time.Now,
	}
}

// HandleMessage implements kafka.MessageHandler for the jobs topic.
func (p *JobProcessor) HandleMessage(ctx context.Context, msg *kafka.Message) error {
	log.Info().
		Str("job_id", msg.JobID.String()).
		Str("trace_id", msg.TraceID).
		Msg("Received job")
	return p.ProcessJob(ctx, msg.JobID)
}

// ProcessJob processes a job end-to-end. Keyword failures are recorded on their posts
// and never retried; only storage errors are returned so the consumer retries the message.
func (p *JobProcessor) ProcessJob(ctx context.Context, jobID uuid.UUID) error {
	log.Info().Str("job_id", jobID.String()).Msg("Starting job processing")

	job, err := p.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}
	if job.Status == models.JobSucceeded || job.Status == models.JobFailed {
		log.Warn().
			Str("job_id", jobID.String()).
			Str("status", job.Status).
			Msg("Job already processed")
		return nil
	}

	if err := p.jobRepo.UpdateStatus(ctx, jobID, models.JobRunning, nil, nil); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	posts, err := p.postRepo.ListByJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to list posts: %w", err)
	}

	var succeeded atomic.Int32
	var g errgroup.Group
	g.SetLimit(p.config.MaxConcurrentKeywords)
	for _, post := range posts {
		g.Go(func() error {
			ok, err := p.processPost(ctx, job, post)
			if ok {
				succeeded.Add(1)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	status := models.JobSucceeded
	var errCode, errMsg *string
	if succeeded.Load() == 0 {
		status = models.JobFailed
		code := "generation_failed"
		msg := fmt.Sprintf("all %d keywords failed", len(posts))
		errCode, errMsg = &code, &msg
	}
	if err := p.jobRepo.UpdateStatus(ctx, jobID, status, errCode, errMsg); err != nil {
		return fmt.Errorf("failed to mark job %s: %w", status, err)
	}
	metrics.JobsProcessed.WithLabelValues(status).Inc()

	if job.WebhookURL != nil && *job.WebhookURL != "" {
		event := kafka.EventJobCompleted
		if status == models.JobFailed {
			event = kafka.EventJobFailed
		}
		p.publishWebhookEvent(ctx, jobID, event)
	}

	log.Info().
		Str("job_id", jobID.String()).
		Str("status", status).
		Int32("succeeded", succeeded.Load()).
		Int("posts", len(posts)).
		Msg("Job processing completed")
	return nil
}

// processPost generates one post. It reports whether the post ended up succeeded.
func (p *JobProcessor) processPost(ctx context.Context, job *models.Job, post *models.Post) (bool, error) {
	logger := log.With().Str("job_id", job.ID.String()).Str("keyword", post.Keyword).Logger()

	if post.Status != models.PostSucceeded {
		if err := p.postRepo.UpdateStatus(ctx, post.ID, models.PostRunning, nil); err != nil {
			return false, fmt.Errorf("failed to mark post running: %w", err)
		}

		res, err := p.generator.Generate(ctx, post.Keyword)
		if err != nil {
			logger.Error().Err(err).Msg("Post generation failed")
			msg := err.Error()
			if err := p.postRepo.UpdateStatus(ctx, post.ID, models.PostFailed, &msg); err != nil {
				return false, fmt.Errorf("failed to mark post failed: %w", err)
			}
			return false, nil
		}
		if err := p.postRepo.SaveResult(ctx, post.ID, res); err != nil {
			return false, fmt.Errorf("failed to save post: %w", err)
		}
		post.Status = models.PostSucceeded
		post.BlogContent = &res.BlogContent
		post.ContentHTML = &res.PostContentHTML
		post.ImageURL = &res.ImageURL
	}

	p.emailPost(ctx, job, post)
	return true, nil
}

// emailPost mails a succeeded post once. Mail failures are logged, not retried.
func (p *JobProcessor) emailPost(ctx context.Context, job *models.Job, post *models.Post) {
	if p.mailer == nil || job.Email == nil || post.EmailedAt != nil {
		return
	}
	err := p.mailer.SendPost(ctx, *job.Email, mailer.Post{
		Keyword:     post.Keyword,
		BlogContent: deref(post.BlogContent),
		ContentHTML: deref(post.ContentHTML),
		ImageURL:    deref(post.ImageURL),
	})
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID.String()).Str("keyword", post.Keyword).Msg("Failed to email post")
		return
	}
	if err := p.postRepo.MarkEmailed(ctx, post.ID, p.now()); err != nil {
		log.Error().Err(err).Str("post_id", post.ID.String()).Msg("Failed to record email")
	}
}

// publishWebhookEvent publishes a webhook event to Kafka if a producer is configured
func (p *JobProcessor) publishWebhookEvent(ctx context.Context, jobID uuid.UUID, event string) {
	if p.webhooks == nil {
		return
	}
	if err := p.webhooks.PublishWebhook(ctx, jobID, event, uuid.New().String()); err != nil {
		log.Error().
			Err(err).
			Str("job_id", jobID.String()).
			Str("event", event).
			Msg("Failed to publish webhook event")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

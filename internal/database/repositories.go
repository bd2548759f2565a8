package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/snappy-loop/blogs/internal/models"
)

// JobRepository handles job-related database operations
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new JobRepository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, status, keywords, email, webhook_url, webhook_secret,
	error_code, error_message, created_at, started_at, finished_at`

// CreateWithPosts inserts a job and its queued posts in one transaction.
func (r *JobRepository) CreateWithPosts(ctx context.Context, job *models.Job, posts []*models.Post) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO jobs (id, status, keywords, email, webhook_url, webhook_secret, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, job.ID, job.Status, pq.Array(job.Keywords), job.Email, job.WebhookURL, job.WebhookSecret, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	for _, p := range posts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO posts (id, job_id, idx, keyword, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.ID, p.JobID, p.Idx, p.Keyword, p.Status, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert post %d: %w", p.Idx, err)
		}
	}

	return tx.Commit()
}

// GetByID retrieves a job by ID
func (r *JobRepository) GetByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job := &models.Job{}
	err := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID).Scan(
		&job.ID, &job.Status, pq.Array(&job.Keywords), &job.Email, &job.WebhookURL, &job.WebhookSecret,
		&job.ErrorCode, &job.ErrorMessage, &job.CreatedAt, &job.StartedAt, &job.FinishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	return job, err
}

// UpdateStatus updates a job's status and error information
func (r *JobRepository) UpdateStatus(ctx context.Context, jobID uuid.UUID, status string, errorCode, errorMessage *string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    error_code = $2,
		    error_message = $3,
		    started_at = CASE WHEN $1 = 'running' AND started_at IS NULL THEN NOW() ELSE started_at END,
		    finished_at = CASE WHEN $1 IN ('succeeded', 'failed') THEN NOW() ELSE finished_at END
		WHERE id = $4
	`

	_, err := r.db.ExecContext(ctx, query, status, errorCode, errorMessage, jobID)
	return err
}

// PostRepository handles post-related database operations
type PostRepository struct {
	db *DB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

// ListByJob retrieves posts for a job in keyword order
func (r *PostRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*models.Post, error) {
	query := `
		SELECT id, job_id, idx, keyword, status, blog_content, content_html, image_url,
			archive_key, error, emailed_at, created_at, updated_at
		FROM posts
		WHERE job_id = $1
		ORDER BY idx ASC
	`

	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p := &models.Post{}
		err := rows.Scan(
			&p.ID, &p.JobID, &p.Idx, &p.Keyword, &p.Status, &p.BlogContent, &p.ContentHTML,
			&p.ImageURL, &p.ArchiveKey, &p.Error, &p.EmailedAt, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

// UpdateStatus sets a post's status and error message.
func (r *PostRepository) UpdateStatus(ctx context.Context, postID uuid.UUID, status string, errMsg *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE posts SET status = $1, error = $2, updated_at = NOW() WHERE id = $3
	`, status, errMsg, postID)
	return err
}

// SaveResult stores a successful generation and marks the post succeeded.
func (r *PostRepository) SaveResult(ctx context.Context, postID uuid.UUID, res *models.GeneratedPost) error {
	var archiveKey *string
	if res.ArchiveKey != "" {
		archiveKey = &res.ArchiveKey
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE posts
		SET status = $1, blog_content = $2, content_html = $3, image_url = $4,
		    archive_key = $5, error = NULL, updated_at = NOW()
		WHERE id = $6
	`, models.PostSucceeded, res.BlogContent, res.PostContentHTML, res.ImageURL, archiveKey, postID)
	return err
}

// MarkEmailed records when a post was mailed.
func (r *PostRepository) MarkEmailed(ctx context.Context, postID uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE posts SET emailed_at = $1, updated_at = NOW() WHERE id = $2`, at, postID)
	return err
}

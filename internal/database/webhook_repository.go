package database

import (
	"context"
	"database/sql"

	"github.com/snappy-loop/blogs/internal/models"
)

// WebhookDeliveryRepository handles webhook delivery operations
type WebhookDeliveryRepository struct {
	db *DB
}

// NewWebhookDeliveryRepository creates a new WebhookDeliveryRepository
func NewWebhookDeliveryRepository(db *DB) *WebhookDeliveryRepository {
	return &WebhookDeliveryRepository{db: db}
}

const deliveryColumns = `id, job_id, url, status, attempts, last_attempt_at, last_error, created_at`

// Create creates a new webhook delivery record
func (r *WebhookDeliveryRepository) Create(ctx context.Context, d *models.WebhookDelivery) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO webhook_deliveries (`+deliveryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, d.ID, d.JobID, d.URL, d.Status, d.Attempts, d.LastAttemptAt, d.LastError, d.CreatedAt)
	return err
}

// Update persists status, attempt count and last error.
func (r *WebhookDeliveryRepository) Update(ctx context.Context, d *models.WebhookDelivery) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE webhook_deliveries
		SET status = $1, attempts = $2, last_attempt_at = $3, last_error = $4
		WHERE id = $5
	`, d.Status, d.Attempts, d.LastAttemptAt, d.LastError, d.ID)
	return err
}

// ListPending returns the oldest pending deliveries.
func (r *WebhookDeliveryRepository) ListPending(ctx context.Context, limit int) ([]*models.WebhookDelivery, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+deliveryColumns+`
		FROM webhook_deliveries
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return scanDeliveries(rows)
}

func scanDeliveries(rows *sql.Rows) ([]*models.WebhookDelivery, error) {
	defer rows.Close()
	var out []*models.WebhookDelivery
	for rows.Next() {
		d := &models.WebhookDelivery{}
		if err := rows.Scan(&d.ID, &d.JobID, &d.URL, &d.Status, &d.Attempts, &d.LastAttemptAt, &d.LastError, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

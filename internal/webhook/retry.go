package webhook

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const retryBatch = 100

// RetryWorker periodically re-attempts pending deliveries whose backoff has elapsed.
type RetryWorker struct {
	service  *DeliveryService
	interval time.Duration
}

// NewRetryWorker creates a new retry worker
func NewRetryWorker(service *DeliveryService, interval time.Duration) *RetryWorker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &RetryWorker{service: service, interval: interval}
}

// Run polls until ctx is cancelled.
func (w *RetryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", w.interval).Msg("Webhook retry worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Webhook retry worker stopped")
			return
		case <-ticker.C:
			w.RetryPending(ctx)
		}
	}
}

// RetryPending runs one pass over pending deliveries.
func (w *RetryWorker) RetryPending(ctx context.Context) {
	deliveries, err := w.service.deliveries.ListPending(ctx, retryBatch)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get pending deliveries")
		return
	}
	if len(deliveries) == 0 {
		return
	}
	log.Debug().Int("count", len(deliveries)).Msg("Processing pending webhook deliveries")

	for _, d := range deliveries {
		if !w.service.Due(d) {
			continue
		}
		job, err := w.service.jobs.GetByID(ctx, d.JobID)
		if err != nil {
			log.Error().Err(err).
				Str("delivery_id", d.ID.String()).
				Str("job_id", d.JobID.String()).
				Msg("Failed to get job for delivery")
			continue
		}
		w.service.attempt(ctx, job, d)
	}
}

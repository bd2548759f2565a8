package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/snappy-loop/blogs/internal/app"
	"github.com/snappy-loop/blogs/internal/config"
	"github.com/snappy-loop/blogs/internal/database"
	"github.com/snappy-loop/blogs/internal/kafka"
	"github.com/snappy-loop/blogs/internal/webhook"
)

func main() {
	_ = godotenv.Load()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Starting Blogs Webhook Dispatcher")

	cfg := config.Load()

	db, err := app.ConnectDB(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	deliveryService := webhook.NewDeliveryService(
		database.NewJobRepository(db),
		database.NewPostRepository(db),
		database.NewWebhookDeliveryRepository(db),
		cfg,
	)
	retryWorker := webhook.NewRetryWorker(deliveryService, 10*time.Second)

	handler := kafka.HandlerFunc(func(ctx context.Context, msg *kafka.Message) error {
		log.Info().
			Str("job_id", msg.JobID.String()).
			Str("event", msg.Event).
			Msg("Processing webhook event")
		return deliveryService.DeliverWebhook(ctx, msg.JobID)
	})

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopicWebhooks, "webhook-dispatcher", handler)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := consumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Kafka consumer error")
		}
	}()
	go func() {
		defer wg.Done()
		retryWorker.Run(ctx)
	}()

	log.Info().Msg("Dispatcher started, waiting for webhook events...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down dispatcher...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Dispatcher shutdown complete")
	case <-time.After(30 * time.Second):
		log.Warn().Msg("Dispatcher shutdown timeout")
	}

	log.Info().Msg("Dispatcher exited")
}

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
	"github.com/snappy-loop/blogs/internal/kafka"
	"github.com/snappy-loop/blogs/internal/processor"
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

	log.Info().Msg("Starting Blogs Worker")

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := app.ConnectDB(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	rdb, err := app.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}
	storageClient, err := app.NewStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage client")
	}
	mail, err := app.NewMailer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize mailer")
	}

	generation, err := app.BuildGeneration(ctx, cfg, app.Infra{Redis: rdb, Storage: storageClient, Mailer: mail})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure generation")
	}
	defer func() {
		if err := generation.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close provider clients")
		}
	}()

	webhookProducer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicWebhooks)
	defer webhookProducer.Close()

	var jobProcessor *processor.JobProcessor
	if mail != nil {
		jobProcessor = processor.NewJobProcessor(db, generation, mail, webhookProducer, cfg)
	} else {
		log.Warn().Msg("SENDGRID_API_KEY not set; job posts will not be emailed")
		jobProcessor = processor.NewJobProcessor(db, generation, nil, webhookProducer, cfg)
	}

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopicJobs, cfg.KafkaConsumerGroup, jobProcessor)
	defer consumer.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Kafka consumer error")
		}
	}()

	log.Info().Msg("Worker started, consuming messages...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info().Msg("Consumer shutdown complete")
	case <-time.After(30 * time.Second):
		log.Warn().Msg("Consumer shutdown timeout")
	}

	log.Info().Msg("Worker exited")
}

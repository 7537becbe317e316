package main

import (
	"context"
	"errors"
	"os"
	"time"

	"recap/internal/amqp"
	"recap/internal/cli"
	"recap/internal/log"
	"recap/internal/worker"
)

const reconnectDelay = 5 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting recap-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend != "sqlite" {
		logger.Error("recap-worker needs the sqlite backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	result := cli.InitBackend(context.Background(), logger, cfg)
	recaps, cacheManager := cli.NewRecapService(cfg, result, logger)
	recapWorker := worker.NewRecapWorker(result.Backend, recaps, cfg.RecapBatchSize)
	sweeper := worker.NewSweeper(recapWorker, worker.SweeperConfig{PollInterval: cfg.RecapInterval})

	var client *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		client, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
	} else {
		logger.Info("AMQP disabled, relying on the pending import sweep only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := sweeper.Stop(ctx); err != nil {
			logger.Warn("Sweeper stop error", log.FieldError, err)
		}
		if client != nil {
			if err := client.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		cacheManager.Stop()
		cli.CloseBackend(logger, result)
	})

	cacheManager.StartCleanup(ctx, time.Minute)
	if err := sweeper.Start(ctx); err != nil {
		logger.Error("Failed to start pending import sweeper", log.FieldError, err)
		os.Exit(1)
	}

	if client != nil {
		go consume(ctx, logger, client, recapWorker)
	}

	<-done
	logger.Info("Worker shutdown complete")
}

// consume keeps a consumer attached to the queue, reconnecting after the
// broker drops the channel.
func consume(ctx context.Context, logger *log.Logger, client *amqp.Client, w *worker.RecapWorker) {
	for {
		err := client.ConsumeRecapRequests(ctx, w.HandleRecapRequest)
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption stopped, reconnecting",
				log.FieldError, err,
				"retry_in", reconnectDelay)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

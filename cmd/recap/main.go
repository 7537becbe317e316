package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"recap/internal/cli"
	apphttp "recap/internal/http"
	"recap/internal/log"
	"recap/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	result := cli.InitBackend(context.Background(), logger, cfg)
	recaps, cacheManager := cli.NewRecapService(cfg, result, logger)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:           ":" + cfg.Port,
		DefaultYear:    cfg.DefaultYear,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, result.Backend, recaps, result.Ready, logger)

	// Without a broker nobody else picks up new imports.
	var sweeper *worker.Sweeper
	if !result.Publishing {
		w := worker.NewRecapWorker(result.Backend, recaps, cfg.RecapBatchSize)
		sweeper = worker.NewSweeper(w, worker.SweeperConfig{PollInterval: cfg.RecapInterval})
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if sweeper != nil {
			if err := sweeper.Stop(ctx); err != nil {
				logger.Warn("Sweeper stop error", log.FieldError, err)
			}
		}
		cacheManager.Stop()
		cli.CloseBackend(logger, result)
	})

	cacheManager.StartCleanup(ctx, time.Minute)
	if sweeper != nil {
		if err := sweeper.Start(ctx); err != nil {
			logger.Error("Failed to start pending import sweeper", log.FieldError, err)
		}
	}

	logger.Info("Starting recap server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"default_year", cfg.DefaultYear,
		"amqp_enabled", result.Publishing)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/askrelay/askrelay/internal/config"
	"github.com/askrelay/askrelay/internal/consumer"
)

func main() {
	cfg := config.Load()

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	if cfg.ProcessCommand == "" {
		logger.Fatal().Msg("PROCESS_COMMAND is required")
	}

	client := consumer.NewClient(cfg.BrokerURL,
		consumer.WithAuthToken(cfg.AuthToken),
		consumer.WithPollTimeout(cfg.PollTimeout),
	)

	pipeline := consumer.NewPipeline(
		client,
		&consumer.ExecProcessor{Command: cfg.ProcessCommand},
		logger,
		consumer.BackoffSettings{
			IdleFloor:  cfg.IdleBackoffFloor,
			ErrorFloor: cfg.ErrorBackoffFloor,
			Cap:        cfg.BackoffCap,
		},
	)

	// Optional metrics listener for poll/ack counters.
	if cfg.ConsumerMetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.ConsumerMetricsAddr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics listener failed")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("broker_url", cfg.BrokerURL).
		Dur("poll_timeout", cfg.PollTimeout).
		Msg("starting askrelay consumer")

	if err := pipeline.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal().Err(err).Msg("consumer stopped")
	}
	logger.Info().Msg("consumer stopped")
}

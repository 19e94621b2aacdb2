package main

import (
	"context"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/rehablink/physio-api/internal/config"
	appointmentService "github.com/rehablink/physio-api/internal/service/appointment"
	"github.com/rehablink/physio-api/internal/service/notification"
	"github.com/rehablink/physio-api/internal/store"
	"github.com/rehablink/physio-api/pkg/logger"
	"github.com/rehablink/physio-api/pkg/metrics"
)

// Maintenance command that permanently removes cancelled appointments older
// than the retention window. The entity store is single writer, so run this
// while the API is stopped.
type env struct {
	MaxAge  time.Duration `envconfig:"RETENTION_MAX_AGE" default:"2160h"`
	Timeout time.Duration `envconfig:"RETENTION_TIMEOUT" default:"5m"`
}

func main() {
	var e env
	if err := envconfig.Process("", &e); err != nil {
		log.Fatal().Err(err).Msg("failed to read environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("physio", "worker")

	blobs, err := cfg.NewBlobStore()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize blob store")
	}
	defer blobs.Close()

	ctx, cancel := context.WithTimeout(context.Background(), e.Timeout)
	defer cancel()

	entityStore := store.New(blobs, appLogger, appMetrics)
	if err := entityStore.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load entity store")
	}

	appointments := appointmentService.NewService(entityStore, notification.NewNoop(), appLogger, appMetrics)

	cutoff := time.Now().Add(-e.MaxAge)
	purged, err := appointments.Purge(ctx, cutoff)
	if err != nil {
		log.Fatal().Err(err).Msg("retention purge failed")
	}

	log.Info().Int("purged", purged).Time("cutoff", cutoff).Msg("retention purge completed")
}

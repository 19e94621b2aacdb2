package worker

import (
	"context"
	"time"

	"github.com/rehablink/physio-api/internal/service/appointment"
	"github.com/rehablink/physio-api/pkg/logger"
)

type RetentionSweeperConfig struct {
	MaxAge        time.Duration
	SweepInterval time.Duration
}

// RetentionSweeper permanently removes cancelled appointments once they fall
// outside the retention window. This is the only path that deletes
// appointment records.
type RetentionSweeper struct {
	appointments *appointment.Service
	config       RetentionSweeperConfig
	logger       *logger.Logger
}

func NewRetentionSweeper(appointments *appointment.Service, config RetentionSweeperConfig, logger *logger.Logger) *RetentionSweeper {
	if config.MaxAge <= 0 {
		panic("MaxAge must be greater than 0")
	}
	if config.SweepInterval <= 0 {
		panic("SweepInterval must be greater than 0")
	}

	return &RetentionSweeper{
		appointments: appointments,
		config:       config,
		logger:       logger,
	}
}

func (w *RetentionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	w.logger.Info("starting retention sweeper")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down retention sweeper")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RetentionSweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.config.MaxAge)
	purged, err := w.appointments.Purge(ctx, cutoff)
	if err != nil {
		w.logger.Error(err, "retention sweep failed")
		return
	}
	if purged > 0 {
		w.logger.Info("retention sweep completed", "purged", purged)
	}
}

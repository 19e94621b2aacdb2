package worker

import (
	"context"

	"github.com/rehablink/physio-api/internal/store"
	"github.com/rehablink/physio-api/pkg/logger"
	"github.com/rehablink/physio-api/pkg/messaging"
	"github.com/rehablink/physio-api/pkg/metrics"
)

// ChannelCareChanges carries every committed store mutation for external
// consumers (sync clients, audit pipelines).
const ChannelCareChanges = "care.changes"

// ChangeDispatcher forwards store change events onto the message broker.
type ChangeDispatcher struct {
	store   *store.Store
	broker  messaging.Broker
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewChangeDispatcher(st *store.Store, broker messaging.Broker, logger *logger.Logger, metrics *metrics.Metrics) *ChangeDispatcher {
	return &ChangeDispatcher{
		store:   st,
		broker:  broker,
		logger:  logger,
		metrics: metrics,
	}
}

// Start subscribes to the store and publishes until ctx is cancelled.
// Publish failures are logged and counted; events are not retried.
func (d *ChangeDispatcher) Start(ctx context.Context) {
	events, cancel := d.store.Subscribe()
	defer cancel()

	d.logger.Info("starting change dispatcher")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutting down change dispatcher")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := d.broker.Publish(ctx, ChannelCareChanges, ev); err != nil {
				d.metrics.MessagesPublished.WithLabelValues(ChannelCareChanges, "error").Inc()
				d.logger.Error(err, "failed to publish change event",
					"collection", ev.Collection,
					"entity_id", ev.EntityID.String())
				continue
			}
			d.metrics.MessagesPublished.WithLabelValues(ChannelCareChanges, "success").Inc()
		}
	}
}

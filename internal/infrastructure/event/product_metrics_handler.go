package event

import (
	"context"

	"github.com/pim/backend/internal/domain/catalog"
	"github.com/pim/backend/internal/domain/shared"
	"github.com/pim/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ProductMetricsHandler feeds product lifecycle events into the import
// metrics counters. Counting happens here rather than in the services so
// every write path (feed reconciliation, HTTP API) is counted exactly once.
type ProductMetricsHandler struct {
	metrics *telemetry.ImportMetrics
	logger  *zap.Logger
}

// NewProductMetricsHandler creates a handler that counts product events
func NewProductMetricsHandler(metrics *telemetry.ImportMetrics, logger *zap.Logger) *ProductMetricsHandler {
	return &ProductMetricsHandler{
		metrics: metrics,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ProductMetricsHandler) EventTypes() []string {
	return []string{
		catalog.EventTypeProductCreated,
		catalog.EventTypeProductUpdated,
	}
}

// Handle increments the counter matching the event type
func (h *ProductMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch event.(type) {
	case *catalog.ProductCreatedEvent:
		h.metrics.RecordProductCreated(ctx)
	case *catalog.ProductUpdatedEvent:
		h.metrics.RecordProductUpdated(ctx)
	default:
		// Subscription is type-filtered, so this only fires on a
		// registration mismatch
		h.logger.Debug("no counter for event type",
			zap.String("event_type", event.EventType()),
		)
	}

	return nil
}

// Ensure ProductMetricsHandler implements shared.EventHandler
var _ shared.EventHandler = (*ProductMetricsHandler)(nil)

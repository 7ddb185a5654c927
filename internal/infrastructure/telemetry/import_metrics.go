// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ImportMetrics provides metrics for the feed import pipeline and the
// catalog it maintains. Run counters and the duration histogram are fed by
// the scheduler; the created/updated counters are fed by domain event
// subscribers; the catalog size gauges are collected periodically.
type ImportMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	importRunsTotal      *Counter
	productsCreatedTotal *Counter
	productsUpdatedTotal *Counter
	productsFailedTotal  *Counter

	// Histogram metrics
	runDuration *Histogram

	// Gauge metrics (point-in-time values)
	catalogProducts   *Gauge
	catalogVariants   *Gauge
	catalogCategories *Gauge
	catalogBrands     *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	catalogProvider CatalogMetricsProvider
}

// CatalogMetricsProvider provides catalog sizes for periodic gauge
// collection. The interface keeps the telemetry layer off the catalog
// domain packages.
type CatalogMetricsProvider interface {
	CountProducts(ctx context.Context) (int64, error)
	CountVariants(ctx context.Context) (int64, error)
	CountCategories(ctx context.Context) (int64, error)
	CountBrands(ctx context.Context) (int64, error)
}

// ImportMetricsConfig holds configuration for import metrics.
type ImportMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CatalogProvider CatalogMetricsProvider
}

// NewImportMetrics creates a new ImportMetrics instance.
func NewImportMetrics(cfg ImportMetricsConfig) (*ImportMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	im := &ImportMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		catalogProvider: cfg.CatalogProvider,
	}

	var err error

	im.importRunsTotal, err = NewCounter(
		cfg.Meter,
		"pim_import_runs_total",
		"Total number of feed import runs by trigger and outcome",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	im.productsCreatedTotal, err = NewCounter(
		cfg.Meter,
		"pim_import_products_created_total",
		"Total number of products created by feed imports",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	im.productsUpdatedTotal, err = NewCounter(
		cfg.Meter,
		"pim_import_products_updated_total",
		"Total number of products updated by feed imports",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	im.productsFailedTotal, err = NewCounter(
		cfg.Meter,
		"pim_import_products_failed_total",
		"Total number of products that failed to import",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	im.runDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "pim_import_run_duration_seconds",
		Description: "Feed import run duration distribution in seconds",
		Unit:        "s",
		Boundaries:  ImportDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	im.catalogProducts, err = NewGauge(
		cfg.Meter,
		"pim_catalog_products_total",
		"Current number of products in the catalog",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	im.catalogVariants, err = NewGauge(
		cfg.Meter,
		"pim_catalog_variants_total",
		"Current number of product variants in the catalog",
		"{variants}",
	)
	if err != nil {
		return nil, err
	}

	im.catalogCategories, err = NewGauge(
		cfg.Meter,
		"pim_catalog_categories_total",
		"Current number of categories in the catalog",
		"{categories}",
	)
	if err != nil {
		return nil, err
	}

	im.catalogBrands, err = NewGauge(
		cfg.Meter,
		"pim_catalog_brands_total",
		"Current number of brands in the catalog",
		"{brands}",
	)
	if err != nil {
		return nil, err
	}

	return im, nil
}

// =============================================================================
// Run Metrics
// =============================================================================

// RecordRun records a completed import run. Trigger and status arrive as
// plain strings so the scheduler package does not depend on telemetry types.
func (im *ImportMetrics) RecordRun(ctx context.Context, trigger, status string, failedCount int64, duration time.Duration) {
	im.importRunsTotal.Inc(ctx,
		AttrImportTrigger.String(trigger),
		AttrImportStatus.String(status),
	)
	im.runDuration.RecordDuration(ctx, duration,
		AttrImportTrigger.String(trigger),
		AttrImportStatus.String(status),
	)
	if failedCount > 0 {
		im.productsFailedTotal.Add(ctx, failedCount,
			AttrImportTrigger.String(trigger),
		)
	}
}

// RecordProductCreated records a single product created by an import.
// Called once per ProductCreated event.
func (im *ImportMetrics) RecordProductCreated(ctx context.Context) {
	im.productsCreatedTotal.Inc(ctx)
}

// RecordProductUpdated records a single product updated by an import.
// Called once per ProductUpdated event.
func (im *ImportMetrics) RecordProductUpdated(ctx context.Context) {
	im.productsUpdatedTotal.Inc(ctx)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of catalog size gauges.
// This is non-blocking; use Stop() to stop collection.
func (im *ImportMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	im.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go im.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (im *ImportMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	im.collectCatalogMetrics(ctx)

	for {
		select {
		case <-im.stopChan:
			im.logger.Info("Stopping periodic catalog metrics collection")
			return
		case <-ctx.Done():
			im.logger.Info("Context cancelled, stopping periodic catalog metrics collection")
			return
		case <-ticker.C:
			im.collectCatalogMetrics(ctx)
		}
	}
}

// collectCatalogMetrics records all catalog size gauges once.
func (im *ImportMetrics) collectCatalogMetrics(ctx context.Context) {
	if im.catalogProvider == nil {
		im.logger.Debug("No catalog provider configured, skipping catalog metrics collection")
		return
	}

	record := func(name string, gauge *Gauge, count func(context.Context) (int64, error)) {
		value, err := count(ctx)
		if err != nil {
			im.logger.Warn("Failed to collect catalog metric",
				zap.String("metric", name),
				zap.Error(err),
			)
			return
		}
		gauge.Record(ctx, value)
	}

	record("products", im.catalogProducts, im.catalogProvider.CountProducts)
	record("variants", im.catalogVariants, im.catalogProvider.CountVariants)
	record("categories", im.catalogCategories, im.catalogProvider.CountCategories)
	record("brands", im.catalogBrands, im.catalogProvider.CountBrands)
}

// Stop stops the periodic collection.
func (im *ImportMetrics) Stop() {
	im.stopOnce.Do(func() {
		close(im.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewImportMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

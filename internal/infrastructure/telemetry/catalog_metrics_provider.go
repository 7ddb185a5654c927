// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormCatalogMetricsProvider implements CatalogMetricsProvider using GORM.
// It counts the catalog tables directly rather than going through the
// repositories; the gauges only need totals.
type GormCatalogMetricsProvider struct {
	db *gorm.DB
}

// NewGormCatalogMetricsProvider creates a new GormCatalogMetricsProvider.
func NewGormCatalogMetricsProvider(db *gorm.DB) *GormCatalogMetricsProvider {
	return &GormCatalogMetricsProvider{db: db}
}

// CountProducts returns the total number of products.
func (p *GormCatalogMetricsProvider) CountProducts(ctx context.Context) (int64, error) {
	return p.countTable(ctx, "products")
}

// CountVariants returns the total number of product variants.
func (p *GormCatalogMetricsProvider) CountVariants(ctx context.Context) (int64, error) {
	return p.countTable(ctx, "product_variants")
}

// CountCategories returns the total number of categories.
func (p *GormCatalogMetricsProvider) CountCategories(ctx context.Context) (int64, error) {
	return p.countTable(ctx, "product_categories")
}

// CountBrands returns the total number of brands.
func (p *GormCatalogMetricsProvider) CountBrands(ctx context.Context) (int64, error) {
	return p.countTable(ctx, "brands")
}

func (p *GormCatalogMetricsProvider) countTable(ctx context.Context, table string) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).Table(table).Count(&count).Error
	return count, err
}

var _ CatalogMetricsProvider = (*GormCatalogMetricsProvider)(nil)

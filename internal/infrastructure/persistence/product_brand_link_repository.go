package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/catalog"
	"github.com/pim/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProductBrandLinkRepository implements ProductBrandLinkRepository
// using GORM
type GormProductBrandLinkRepository struct {
	db *gorm.DB
}

// NewGormProductBrandLinkRepository creates a new GormProductBrandLinkRepository
func NewGormProductBrandLinkRepository(db *gorm.DB) *GormProductBrandLinkRepository {
	return &GormProductBrandLinkRepository{db: db}
}

// Save creates a link row
func (r *GormProductBrandLinkRepository) Save(ctx context.Context, link *catalog.ProductBrandLink) error {
	return r.db.WithContext(ctx).Save(link).Error
}

// Delete removes the link for a product-brand pair
func (r *GormProductBrandLinkRepository) Delete(ctx context.Context, productID, brandID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Delete(&catalog.ProductBrandLink{}, "product_id = ? AND brand_id = ?", productID, brandID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByProduct removes all links for a product
func (r *GormProductBrandLinkRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&catalog.ProductBrandLink{}, "product_id = ?", productID).Error
}

// Exists reports whether a product-brand pair is linked
func (r *GormProductBrandLinkRepository) Exists(ctx context.Context, productID, brandID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.ProductBrandLink{}).
		Where("product_id = ? AND brand_id = ?", productID, brandID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByProduct returns all links for a product
func (r *GormProductBrandLinkRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.ProductBrandLink, error) {
	var links []catalog.ProductBrandLink
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// FindByBrand returns all links for a brand
func (r *GormProductBrandLinkRepository) FindByBrand(ctx context.Context, brandID uuid.UUID) ([]catalog.ProductBrandLink, error) {
	var links []catalog.ProductBrandLink
	if err := r.db.WithContext(ctx).
		Where("brand_id = ?", brandID).
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// CountByBrand counts products linked to a brand
func (r *GormProductBrandLinkRepository) CountByBrand(ctx context.Context, brandID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.ProductBrandLink{}).
		Where("brand_id = ?", brandID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormProductBrandLinkRepository implements ProductBrandLinkRepository
var _ catalog.ProductBrandLinkRepository = (*GormProductBrandLinkRepository)(nil)

package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/shared"
)

// ProductBrandLink is the many-to-many join row between products and
// brands. Pairs are unique; re-linking an existing pair is a no-op at the
// service layer.
type ProductBrandLink struct {
	shared.BaseEntity
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_link_product_brand,priority:1"`
	BrandID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_link_product_brand,priority:2;index"`
}

// TableName returns the table name for GORM
func (ProductBrandLink) TableName() string {
	return "product_brand_links"
}

// NewProductBrandLink creates a link between a product and a brand
func NewProductBrandLink(productID, brandID uuid.UUID) (*ProductBrandLink, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LINK", "Product id is required")
	}
	if brandID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LINK", "Brand id is required")
	}

	return &ProductBrandLink{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		BrandID:    brandID,
	}, nil
}

// ProductBrandLinkRepository persists product-brand links. It is the
// create/dismiss surface the sync workflow and the brand API use.
type ProductBrandLinkRepository interface {
	// Save creates a link row
	Save(ctx context.Context, link *ProductBrandLink) error

	// Delete removes the link for a product-brand pair
	Delete(ctx context.Context, productID, brandID uuid.UUID) error

	// DeleteByProduct removes all links for a product
	DeleteByProduct(ctx context.Context, productID uuid.UUID) error

	// Exists reports whether a product-brand pair is linked
	Exists(ctx context.Context, productID, brandID uuid.UUID) (bool, error)

	// FindByProduct returns all links for a product
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]ProductBrandLink, error)

	// FindByBrand returns all links for a brand
	FindByBrand(ctx context.Context, brandID uuid.UUID) ([]ProductBrandLink, error)

	// CountByBrand counts products linked to a brand
	CountByBrand(ctx context.Context, brandID uuid.UUID) (int64, error)
}

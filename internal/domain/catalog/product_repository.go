package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID, variants preloaded
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByHandle finds a product by its handle
	FindByHandle(ctx context.Context, handle string) (*Product, error)

	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindByExternalID finds the product whose metadata carries the
	// given external id
	FindByExternalID(ctx context.Context, externalID string) (*Product, error)

	// FindByExternalIDs finds all products whose metadata carries one of
	// the given external ids
	FindByExternalIDs(ctx context.Context, externalIDs []string) ([]Product, error)

	// FindAll finds all products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// FindByCategory finds all products in a category
	FindByCategory(ctx context.Context, categoryID uuid.UUID, filter shared.Filter) ([]Product, error)

	// FindByStatus finds products by status
	FindByStatus(ctx context.Context, status ProductStatus, filter shared.Filter) ([]Product, error)

	// Save creates or updates a product and its variants
	Save(ctx context.Context, product *Product) error

	// SaveBatch creates or updates multiple products
	SaveBatch(ctx context.Context, products []*Product) error

	// Delete deletes a product and its variants
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByCategory counts products in a category
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	// ExistsByHandle checks if a product with the given handle exists
	ExistsByHandle(ctx context.Context, handle string) (bool, error)
}

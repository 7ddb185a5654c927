package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/shared"
)

// BrandRepository defines the interface for brand persistence
type BrandRepository interface {
	// FindByID finds a brand by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Brand, error)

	// FindByIDs finds multiple brands by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Brand, error)

	// FindByHandle finds a brand by its handle
	FindByHandle(ctx context.Context, handle string) (*Brand, error)

	// FindByName finds a brand by exact name, case-insensitive
	FindByName(ctx context.Context, name string) (*Brand, error)

	// FindByNames finds all brands whose name matches one of the given
	// names, case-insensitive
	FindByNames(ctx context.Context, names []string) ([]Brand, error)

	// FindAll finds all brands matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Brand, error)

	// Save creates or updates a brand
	Save(ctx context.Context, brand *Brand) error

	// SaveBatch creates or updates multiple brands
	SaveBatch(ctx context.Context, brands []*Brand) error

	// Delete deletes a brand
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteBatch deletes multiple brands by ID
	DeleteBatch(ctx context.Context, ids []uuid.UUID) error

	// Count counts brands matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByName checks if a brand with the given name exists,
	// case-insensitive
	ExistsByName(ctx context.Context, name string) (bool, error)
}

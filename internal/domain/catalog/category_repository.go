package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/shared"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindByID finds a category by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProductCategory, error)

	// FindByHandle finds a category by its handle
	FindByHandle(ctx context.Context, handle string) (*ProductCategory, error)

	// FindByName finds a category by exact name, case-insensitive
	FindByName(ctx context.Context, name string) (*ProductCategory, error)

	// FindByNames finds all categories whose name matches one of the
	// given names, case-insensitive
	FindByNames(ctx context.Context, names []string) ([]ProductCategory, error)

	// FindAll finds all categories matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]ProductCategory, error)

	// Save creates or updates a category
	Save(ctx context.Context, category *ProductCategory) error

	// SaveBatch creates or updates multiple categories
	SaveBatch(ctx context.Context, categories []*ProductCategory) error

	// Delete deletes a category
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteBatch deletes multiple categories by ID
	DeleteBatch(ctx context.Context, ids []uuid.UUID) error

	// Count counts categories matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByName checks if a category with the given name exists,
	// case-insensitive
	ExistsByName(ctx context.Context, name string) (bool, error)

	// HasProducts checks if any product references the category
	HasProducts(ctx context.Context, categoryID uuid.UUID) (bool, error)
}

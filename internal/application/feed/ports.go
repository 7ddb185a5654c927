package feed

import (
	"context"

	"github.com/google/uuid"
	catalogapp "github.com/pim/backend/internal/application/catalog"
)

// ProductModule defines the catalog product operations the import workflow
// needs. It is implemented by the catalog application service.
type ProductModule interface {
	// BulkCreate validates and persists a batch of new products
	BulkCreate(ctx context.Context, reqs []catalogapp.CreateProductRequest) ([]catalogapp.ProductResponse, error)

	// Update applies a partial update to one product
	Update(ctx context.Context, productID uuid.UUID, req catalogapp.UpdateProductRequest) (*catalogapp.ProductResponse, error)

	// ListByExternalIDs returns existing products keyed by external id
	ListByExternalIDs(ctx context.Context, externalIDs []string) (map[string]catalogapp.ProductResponse, error)
}

// CategoryResolver maps category names to canonical rows, creating missing
// ones. DeleteBatch is the compensation path for rows a resolve created.
type CategoryResolver interface {
	ResolveByNames(ctx context.Context, names []string) (map[string]catalogapp.CategoryResponse, []uuid.UUID, error)
	DeleteBatch(ctx context.Context, ids []uuid.UUID) error
}

// BrandResolver maps brand names to canonical rows, creating missing ones.
// DeleteBatch is the compensation path for rows a resolve created.
type BrandResolver interface {
	ResolveByNames(ctx context.Context, names []string) (map[string]catalogapp.BrandResponse, []uuid.UUID, error)
	DeleteBatch(ctx context.Context, ids []uuid.UUID) error
}

// ProductBrandLinker creates product-to-brand associations
type ProductBrandLinker interface {
	Link(ctx context.Context, productID, brandID uuid.UUID) error
}

// SnapshotArchiver persists an export snapshot to object storage.
// This interface will be implemented by the infrastructure layer (S3, etc.)
type SnapshotArchiver interface {
	Archive(ctx context.Context, storageKey string, data []byte, contentType string) error
}

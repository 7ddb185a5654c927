package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/catalog"
)

// LinkService manages the many-to-many association between products and
// brands. Link and Dismiss are idempotent.
type LinkService struct {
	linkRepo    catalog.ProductBrandLinkRepository
	productRepo catalog.ProductRepository
	brandRepo   catalog.BrandRepository
}

// NewLinkService creates a new LinkService
func NewLinkService(
	linkRepo catalog.ProductBrandLinkRepository,
	productRepo catalog.ProductRepository,
	brandRepo catalog.BrandRepository,
) *LinkService {
	return &LinkService{
		linkRepo:    linkRepo,
		productRepo: productRepo,
		brandRepo:   brandRepo,
	}
}

// Link associates a product with a brand. Linking an already linked pair is
// a no-op.
func (s *LinkService) Link(ctx context.Context, productID, brandID uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return err
	}
	if _, err := s.brandRepo.FindByID(ctx, brandID); err != nil {
		return err
	}

	exists, err := s.linkRepo.Exists(ctx, productID, brandID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	link, err := catalog.NewProductBrandLink(productID, brandID)
	if err != nil {
		return err
	}

	return s.linkRepo.Save(ctx, link)
}

// Dismiss removes the association between a product and a brand. Dismissing
// a pair that is not linked is a no-op.
func (s *LinkService) Dismiss(ctx context.Context, productID, brandID uuid.UUID) error {
	exists, err := s.linkRepo.Exists(ctx, productID, brandID)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	return s.linkRepo.Delete(ctx, productID, brandID)
}

// ListBrandsForProduct returns the brands linked to a product
func (s *LinkService) ListBrandsForProduct(ctx context.Context, productID uuid.UUID) ([]BrandResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	links, err := s.linkRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return []BrandResponse{}, nil
	}

	ids := make([]uuid.UUID, len(links))
	for i, link := range links {
		ids[i] = link.BrandID
	}

	brands, err := s.brandRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	responses := make([]BrandResponse, len(brands))
	for i := range brands {
		count, err := s.linkRepo.CountByBrand(ctx, brands[i].ID)
		if err != nil {
			return nil, err
		}
		responses[i] = ToBrandResponse(&brands[i], count)
	}

	return responses, nil
}

// ListProductsForBrand returns the products linked to a brand
func (s *LinkService) ListProductsForBrand(ctx context.Context, brandID uuid.UUID) ([]ProductListResponse, error) {
	if _, err := s.brandRepo.FindByID(ctx, brandID); err != nil {
		return nil, err
	}

	links, err := s.linkRepo.FindByBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return []ProductListResponse{}, nil
	}

	ids := make([]uuid.UUID, len(links))
	for i, link := range links {
		ids[i] = link.ProductID
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return ToProductListResponses(products), nil
}

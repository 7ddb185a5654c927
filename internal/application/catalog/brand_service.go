package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/catalog"
	"github.com/pim/backend/internal/domain/shared"
)

// BrandService handles brand-related business operations
type BrandService struct {
	brandRepo catalog.BrandRepository
	linkRepo  catalog.ProductBrandLinkRepository
	eventBus  shared.EventBus
}

// NewBrandService creates a new BrandService
func NewBrandService(
	brandRepo catalog.BrandRepository,
	linkRepo catalog.ProductBrandLinkRepository,
	eventBus shared.EventBus,
) *BrandService {
	return &BrandService{
		brandRepo: brandRepo,
		linkRepo:  linkRepo,
		eventBus:  eventBus,
	}
}

// Create creates a new brand
func (s *BrandService) Create(ctx context.Context, req CreateBrandRequest) (*BrandResponse, error) {
	exists, err := s.brandRepo.ExistsByName(ctx, strings.TrimSpace(req.Name))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Brand with this name already exists")
	}

	brand, err := catalog.NewBrand(req.Name)
	if err != nil {
		return nil, err
	}

	if err := s.brandRepo.Save(ctx, brand); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, brand)

	response := ToBrandResponse(brand, 0)
	return &response, nil
}

// Get retrieves a brand by ID, with its linked product count
func (s *BrandService) Get(ctx context.Context, brandID uuid.UUID) (*BrandResponse, error) {
	brand, err := s.brandRepo.FindByID(ctx, brandID)
	if err != nil {
		return nil, err
	}

	count, err := s.linkRepo.CountByBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}

	response := ToBrandResponse(brand, count)
	return &response, nil
}

// List retrieves brands with filtering and pagination. Each entry carries
// its linked product count.
func (s *BrandService) List(ctx context.Context, filter BrandListFilter) ([]BrandResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	brands, err := s.brandRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.brandRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]BrandResponse, len(brands))
	for i := range brands {
		count, err := s.linkRepo.CountByBrand(ctx, brands[i].ID)
		if err != nil {
			return nil, 0, err
		}
		responses[i] = ToBrandResponse(&brands[i], count)
	}

	return responses, total, nil
}

// Update applies a partial update to a brand
func (s *BrandService) Update(ctx context.Context, brandID uuid.UUID, req UpdateBrandRequest) (*BrandResponse, error) {
	brand, err := s.brandRepo.FindByID(ctx, brandID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != brand.Name {
		exists, err := s.brandRepo.ExistsByName(ctx, strings.TrimSpace(*req.Name))
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Brand with this name already exists")
		}
		if err := brand.Rename(*req.Name); err != nil {
			return nil, err
		}
	}

	if err := s.brandRepo.Save(ctx, brand); err != nil {
		return nil, err
	}

	count, err := s.linkRepo.CountByBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}

	response := ToBrandResponse(brand, count)
	return &response, nil
}

// Delete deletes a brand. Brands still linked to products cannot be deleted.
func (s *BrandService) Delete(ctx context.Context, brandID uuid.UUID) error {
	brand, err := s.brandRepo.FindByID(ctx, brandID)
	if err != nil {
		return err
	}

	count, err := s.linkRepo.CountByBrand(ctx, brandID)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("LINKED_PRODUCTS", "Cannot delete brand with linked products")
	}

	if err := s.brandRepo.Delete(ctx, brandID); err != nil {
		return err
	}

	if s.eventBus != nil {
		_ = s.eventBus.Publish(ctx, catalog.NewBrandDeletedEvent(brand))
	}

	return nil
}

// ResolveByNames maps each distinct incoming name to its canonical brand,
// creating rows for names that have none. Same contract as the category
// resolver: one entry per distinct trimmed input name, plus the ids of rows
// this call created.
func (s *BrandService) ResolveByNames(ctx context.Context, names []string) (map[string]BrandResponse, []uuid.UUID, error) {
	unique := dedupeNames(names)
	if len(unique) == 0 {
		return map[string]BrandResponse{}, nil, nil
	}

	existing, err := s.brandRepo.FindByNames(ctx, unique)
	if err != nil {
		return nil, nil, err
	}

	byKey := make(map[string]*catalog.Brand, len(existing))
	for i := range existing {
		byKey[strings.ToLower(existing[i].Name)] = &existing[i]
	}

	var created []*catalog.Brand
	for _, name := range unique {
		if _, ok := byKey[strings.ToLower(name)]; ok {
			continue
		}
		brand, err := catalog.NewBrand(name)
		if err != nil {
			return nil, nil, err
		}
		created = append(created, brand)
		byKey[strings.ToLower(name)] = brand
	}

	var createdIDs []uuid.UUID
	if len(created) > 0 {
		if err := s.brandRepo.SaveBatch(ctx, created); err != nil {
			return nil, nil, err
		}
		for _, brand := range created {
			createdIDs = append(createdIDs, brand.ID)
			s.publishEvents(ctx, brand)
		}
	}

	resolved := make(map[string]BrandResponse, len(unique))
	for _, name := range unique {
		if brand, ok := byKey[strings.ToLower(name)]; ok {
			resolved[name] = ToBrandResponse(brand, 0)
		}
	}

	return resolved, createdIDs, nil
}

// DeleteBatch removes brands by id, skipping ids that are already gone. It
// is the compensation path for ResolveByNames.
func (s *BrandService) DeleteBatch(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return s.brandRepo.DeleteBatch(ctx, ids)
}

// publishEvents publishes domain events from the aggregate
func (s *BrandService) publishEvents(ctx context.Context, brand *catalog.Brand) {
	if s.eventBus == nil {
		return
	}

	for _, event := range brand.GetDomainEvents() {
		_ = s.eventBus.Publish(ctx, event)
	}
	brand.ClearDomainEvents()
}

package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/catalog"
	"github.com/pim/backend/internal/domain/shared"
)

// CategoryService handles category-related business operations
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
	eventBus     shared.EventBus
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(
	categoryRepo catalog.CategoryRepository,
	eventBus shared.EventBus,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		eventBus:     eventBus,
	}
}

// Create creates a new category
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	exists, err := s.categoryRepo.ExistsByName(ctx, strings.TrimSpace(req.Name))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Category with this name already exists")
	}

	category, err := catalog.NewProductCategory(req.Name)
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		category.SetDescription(req.Description)
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, category)

	response := ToCategoryResponse(category)
	return &response, nil
}

// Get retrieves a category by ID
func (s *CategoryService) Get(ctx context.Context, categoryID uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	response := ToCategoryResponse(category)
	return &response, nil
}

// List retrieves categories with filtering and pagination
func (s *CategoryService) List(ctx context.Context, filter CategoryListFilter) ([]CategoryResponse, int64, error) {
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

	if filter.Active != nil {
		domainFilter.Filters["active"] = *filter.Active
	}

	categories, err := s.categoryRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.categoryRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = ToCategoryResponse(&categories[i])
	}

	return responses, total, nil
}

// Update applies a partial update to a category
func (s *CategoryService) Update(ctx context.Context, categoryID uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != category.Name {
		exists, err := s.categoryRepo.ExistsByName(ctx, strings.TrimSpace(*req.Name))
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Category with this name already exists")
		}
		if err := category.Rename(*req.Name); err != nil {
			return nil, err
		}
	}

	if req.Description != nil {
		category.SetDescription(*req.Description)
	}

	if req.Active != nil && *req.Active != category.Active {
		if *req.Active {
			err = category.Activate()
		} else {
			err = category.Deactivate()
		}
		if err != nil {
			return nil, err
		}
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, category)

	response := ToCategoryResponse(category)
	return &response, nil
}

// Delete deletes a category. Categories still referenced by products cannot
// be deleted.
func (s *CategoryService) Delete(ctx context.Context, categoryID uuid.UUID) error {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return err
	}

	hasProducts, err := s.categoryRepo.HasProducts(ctx, categoryID)
	if err != nil {
		return err
	}
	if hasProducts {
		return shared.NewDomainError("HAS_PRODUCTS", "Cannot delete category with associated products")
	}

	if err := s.categoryRepo.Delete(ctx, categoryID); err != nil {
		return err
	}

	if s.eventBus != nil {
		_ = s.eventBus.Publish(ctx, catalog.NewCategoryDeletedEvent(category))
	}

	return nil
}

// ResolveByNames maps each distinct incoming name to its canonical category,
// creating rows for names that have none. The returned map has an entry per
// distinct trimmed input name; the second return lists the ids of rows this
// call created, so a failed caller can compensate.
func (s *CategoryService) ResolveByNames(ctx context.Context, names []string) (map[string]CategoryResponse, []uuid.UUID, error) {
	unique := dedupeNames(names)
	if len(unique) == 0 {
		return map[string]CategoryResponse{}, nil, nil
	}

	existing, err := s.categoryRepo.FindByNames(ctx, unique)
	if err != nil {
		return nil, nil, err
	}

	byKey := make(map[string]*catalog.ProductCategory, len(existing))
	for i := range existing {
		byKey[strings.ToLower(existing[i].Name)] = &existing[i]
	}

	var created []*catalog.ProductCategory
	for _, name := range unique {
		if _, ok := byKey[strings.ToLower(name)]; ok {
			continue
		}
		category, err := catalog.NewProductCategory(name)
		if err != nil {
			return nil, nil, err
		}
		created = append(created, category)
		byKey[strings.ToLower(name)] = category
	}

	var createdIDs []uuid.UUID
	if len(created) > 0 {
		if err := s.categoryRepo.SaveBatch(ctx, created); err != nil {
			return nil, nil, err
		}
		for _, category := range created {
			createdIDs = append(createdIDs, category.ID)
			s.publishEvents(ctx, category)
		}
	}

	resolved := make(map[string]CategoryResponse, len(unique))
	for _, name := range unique {
		if category, ok := byKey[strings.ToLower(name)]; ok {
			resolved[name] = ToCategoryResponse(category)
		}
	}

	return resolved, createdIDs, nil
}

// DeleteBatch removes categories by id, skipping ids that are already gone.
// It is the compensation path for ResolveByNames.
func (s *CategoryService) DeleteBatch(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return s.categoryRepo.DeleteBatch(ctx, ids)
}

// publishEvents publishes domain events from the aggregate
func (s *CategoryService) publishEvents(ctx context.Context, category *catalog.ProductCategory) {
	if s.eventBus == nil {
		return
	}

	for _, event := range category.GetDomainEvents() {
		_ = s.eventBus.Publish(ctx, event)
	}
	category.ClearDomainEvents()
}

// dedupeNames trims incoming names and removes duplicates, comparing
// case-insensitively. Order of first appearance is preserved.
func dedupeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	unique := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, name)
	}
	return unique
}

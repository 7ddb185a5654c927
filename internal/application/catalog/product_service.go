package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/catalog"
	"github.com/pim/backend/internal/domain/shared"
	"github.com/pim/backend/internal/infrastructure/telemetry"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	eventBus     shared.EventBus
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	eventBus shared.EventBus,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		eventBus:     eventBus,
	}
}

// Create creates a new product with its variants
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "create")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrProductHandle, req.Handle)

	var response *ProductResponse
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.CatalogOperationLabels("CreateProduct", "product"), func(c context.Context) {
		product, err := s.buildProduct(c, req)
		if err != nil {
			telemetry.RecordError(span, err)
			operationErr = err
			return
		}

		exists, err := s.productRepo.ExistsByHandle(c, product.Handle)
		if err != nil {
			telemetry.RecordError(span, err)
			operationErr = err
			return
		}
		if exists {
			err := shared.NewDomainError("ALREADY_EXISTS", "Product with this handle already exists")
			telemetry.RecordError(span, err)
			operationErr = err
			return
		}

		if err := s.productRepo.Save(c, product); err != nil {
			telemetry.RecordError(span, err)
			operationErr = err
			return
		}

		s.publishEvents(c, product)

		telemetry.SetAttribute(span, telemetry.SpanAttrProductID, product.ID)
		resp := ToProductResponse(product)
		response = &resp
	})
	if operationErr != nil {
		return nil, operationErr
	}
	return response, nil
}

// BulkCreate creates multiple products in one batch. The whole batch is
// validated before anything is saved; any invalid record fails the call.
func (s *ProductService) BulkCreate(ctx context.Context, reqs []CreateProductRequest) ([]ProductResponse, error) {
	if len(reqs) == 0 {
		return []ProductResponse{}, nil
	}

	products := make([]*catalog.Product, 0, len(reqs))
	for _, req := range reqs {
		product, err := s.buildProduct(ctx, req)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := s.productRepo.SaveBatch(ctx, products); err != nil {
		return nil, err
	}

	responses := make([]ProductResponse, len(products))
	for i, product := range products {
		s.publishEvents(ctx, product)
		responses[i] = ToProductResponse(product)
	}

	return responses, nil
}

// Get retrieves a product by ID
func (s *ProductService) Get(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// GetByHandle retrieves a product by its handle
func (s *ProductService) GetByHandle(ctx context.Context, handle string) (*ProductResponse, error) {
	product, err := s.productRepo.FindByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// ListByExternalIDs retrieves products keyed by the external id recorded in
// their metadata. Ids without a matching product are absent from the map.
func (s *ProductService) ListByExternalIDs(ctx context.Context, externalIDs []string) (map[string]ProductResponse, error) {
	if len(externalIDs) == 0 {
		return map[string]ProductResponse{}, nil
	}

	products, err := s.productRepo.FindByExternalIDs(ctx, externalIDs)
	if err != nil {
		return nil, err
	}

	responses := make(map[string]ProductResponse, len(products))
	for i := range products {
		if externalID, ok := products[i].ExternalID(); ok {
			responses[externalID] = ToProductResponse(&products[i])
		}
	}

	return responses, nil
}

// List retrieves a list of products with filtering and pagination
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductListResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.CategoryID != nil {
		domainFilter.Filters["category_id"] = *filter.CategoryID
	}
	if filter.BrandID != nil {
		domainFilter.Filters["brand_id"] = *filter.BrandID
	}

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToProductListResponses(products), total, nil
}

// Update applies a partial update to a product
func (s *ProductService) Update(ctx context.Context, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "update")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrProductID, productID)

	var response *ProductResponse
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.CatalogOperationLabels("UpdateProduct", "product"), func(c context.Context) {
		product, err := s.applyUpdate(c, productID, req)
		if err != nil {
			telemetry.RecordError(span, err)
			operationErr = err
			return
		}

		s.publishEvents(c, product)

		telemetry.SetAttribute(span, telemetry.SpanAttrProductStatus, string(product.Status))
		resp := ToProductResponse(product)
		response = &resp
	})
	if operationErr != nil {
		return nil, operationErr
	}
	return response, nil
}

// applyUpdate loads the product, applies the requested changes and saves it
func (s *ProductService) applyUpdate(ctx context.Context, productID uuid.UUID, req UpdateProductRequest) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if err := product.Rename(*req.Title); err != nil {
			return nil, err
		}
	}

	if req.Description != nil {
		product.SetDescription(*req.Description)
	}

	if req.Thumbnail != nil {
		product.SetThumbnail(*req.Thumbnail)
	}

	if req.Tags != nil {
		if err := product.SetTags(*req.Tags); err != nil {
			return nil, err
		}
	}

	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_CATEGORY", "Category not found")
			}
			return nil, err
		}
		product.SetCategory(req.CategoryID)
	}

	for key, value := range req.Metadata {
		if err := product.SetMetadataValue(key, value); err != nil {
			return nil, err
		}
	}

	if req.Status != nil {
		if err := s.applyStatus(product, catalog.ProductStatus(*req.Status)); err != nil {
			return nil, err
		}
	}

	if req.Variant != nil {
		if err := s.applyVariantUpdate(product, req.Variant); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Delete deletes a product and its variants
func (s *ProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "delete")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrProductID, productID)

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	if err := s.productRepo.Delete(ctx, productID); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	if s.eventBus != nil {
		_ = s.eventBus.Publish(ctx, catalog.NewProductDeletedEvent(product))
	}

	return nil
}

// buildProduct assembles a domain product from a create request
func (s *ProductService) buildProduct(ctx context.Context, req CreateProductRequest) (*catalog.Product, error) {
	product, err := catalog.NewProduct(req.Title, req.Handle)
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		product.SetDescription(req.Description)
	}

	if req.Thumbnail != "" {
		product.SetThumbnail(req.Thumbnail)
	}

	if len(req.Tags) > 0 {
		if err := product.SetTags(req.Tags); err != nil {
			return nil, err
		}
	}

	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_CATEGORY", "Category not found")
			}
			return nil, err
		}
		product.SetCategory(req.CategoryID)
	}

	for key, value := range req.Metadata {
		if err := product.SetMetadataValue(key, value); err != nil {
			return nil, err
		}
	}

	if req.ExternalID != "" {
		if err := product.SetExternalID(req.ExternalID); err != nil {
			return nil, err
		}
	}

	for _, variantReq := range req.Variants {
		variant, err := buildVariant(variantReq)
		if err != nil {
			return nil, err
		}
		if err := product.AddVariant(variant); err != nil {
			return nil, err
		}
	}

	if req.Status != "" && req.Status != string(catalog.ProductStatusDraft) {
		if err := s.applyStatus(product, catalog.ProductStatus(req.Status)); err != nil {
			return nil, err
		}
	}

	return product, nil
}

// buildVariant assembles a domain variant from a create request
func buildVariant(req CreateVariantRequest) (*catalog.ProductVariant, error) {
	variant, err := catalog.NewProductVariant(req.Title, req.SKU)
	if err != nil {
		return nil, err
	}

	if err := variant.SetPrice(req.Price); err != nil {
		return nil, err
	}

	if !req.CompareAtPrice.IsZero() {
		if err := variant.SetCompareAtPrice(req.CompareAtPrice); err != nil {
			return nil, err
		}
	}

	if req.Barcode != "" {
		if err := variant.SetBarcode(req.Barcode); err != nil {
			return nil, err
		}
	}

	if err := variant.SetInventoryQuantity(req.InventoryQuantity); err != nil {
		return nil, err
	}

	return variant, nil
}

// applyStatus moves the product to the requested lifecycle status
func (s *ProductService) applyStatus(product *catalog.Product, status catalog.ProductStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown product status")
	}
	if product.Status == status {
		return nil
	}

	switch status {
	case catalog.ProductStatusActive:
		return product.Activate()
	case catalog.ProductStatusArchived:
		return product.Archive()
	default:
		return shared.NewDomainError("INVALID_STATUS", "Products cannot return to draft")
	}
}

// applyVariantUpdate applies a partial update to the product's default
// variant, creating it when the product has none.
func (s *ProductService) applyVariantUpdate(product *catalog.Product, req *UpdateVariantRequest) error {
	variant, ok := product.DefaultVariant()
	if !ok {
		title := "Default"
		if req.Title != nil {
			title = *req.Title
		}
		if req.SKU == nil {
			return shared.NewDomainError("INVALID_VARIANT", "SKU is required to create a variant")
		}
		created, err := catalog.NewProductVariant(title, *req.SKU)
		if err != nil {
			return err
		}
		if err := product.AddVariant(created); err != nil {
			return err
		}
		variant, _ = product.DefaultVariant()
	} else {
		if req.Title != nil {
			variant.Title = *req.Title
		}
		if req.SKU != nil {
			variant.SKU = *req.SKU
		}
	}

	if req.Price != nil {
		if err := variant.SetPrice(*req.Price); err != nil {
			return err
		}
	}
	if req.CompareAtPrice != nil {
		if err := variant.SetCompareAtPrice(*req.CompareAtPrice); err != nil {
			return err
		}
	}
	if req.Barcode != nil {
		if err := variant.SetBarcode(*req.Barcode); err != nil {
			return err
		}
	}
	if req.InventoryQuantity != nil {
		if err := variant.SetInventoryQuantity(*req.InventoryQuantity); err != nil {
			return err
		}
	}

	return nil
}

// publishEvents publishes domain events from the aggregate
func (s *ProductService) publishEvents(ctx context.Context, product *catalog.Product) {
	if s.eventBus == nil {
		return
	}

	for _, event := range product.GetDomainEvents() {
		_ = s.eventBus.Publish(ctx, event)
	}
	product.ClearDomainEvents()
}

package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateVariantRequest represents a variant within a product create request
type CreateVariantRequest struct {
	Title             string          `json:"title" binding:"required,min=1,max=200"`
	SKU               string          `json:"sku" binding:"required,min=1,max=100"`
	Barcode           string          `json:"barcode" binding:"max=100"`
	Price             decimal.Decimal `json:"price"`
	CompareAtPrice    decimal.Decimal `json:"compare_at_price"`
	InventoryQuantity int             `json:"inventory_quantity"`
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Title       string                 `json:"title" binding:"required,min=1,max=200"`
	Handle      string                 `json:"handle" binding:"max=220"`
	Description string                 `json:"description" binding:"max=10000"`
	Status      string                 `json:"status" binding:"omitempty,oneof=draft active archived"`
	Thumbnail   string                 `json:"thumbnail" binding:"max=2000"`
	Tags        []string               `json:"tags"`
	CategoryID  *uuid.UUID             `json:"category_id"`
	ExternalID  string                 `json:"external_id" binding:"max=100"`
	Metadata    map[string]interface{} `json:"metadata"`
	Variants    []CreateVariantRequest `json:"variants" binding:"dive"`
}

// UpdateVariantRequest represents a partial update to a product's default
// variant
type UpdateVariantRequest struct {
	Title             *string          `json:"title" binding:"omitempty,min=1,max=200"`
	SKU               *string          `json:"sku" binding:"omitempty,min=1,max=100"`
	Barcode           *string          `json:"barcode" binding:"omitempty,max=100"`
	Price             *decimal.Decimal `json:"price"`
	CompareAtPrice    *decimal.Decimal `json:"compare_at_price"`
	InventoryQuantity *int             `json:"inventory_quantity"`
}

// UpdateProductRequest represents a partial update to a product. Nil fields
// are left untouched.
type UpdateProductRequest struct {
	Title       *string                `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string                `json:"description" binding:"omitempty,max=10000"`
	Status      *string                `json:"status" binding:"omitempty,oneof=draft active archived"`
	Thumbnail   *string                `json:"thumbnail" binding:"omitempty,max=2000"`
	Tags        *[]string              `json:"tags"`
	CategoryID  *uuid.UUID             `json:"category_id"`
	Metadata    map[string]interface{} `json:"metadata"`
	Variant     *UpdateVariantRequest  `json:"variant"`
}

// VariantResponse represents a variant in API responses
type VariantResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	Title             string          `json:"title"`
	SKU               string          `json:"sku"`
	Barcode           string          `json:"barcode,omitempty"`
	Price             decimal.Decimal `json:"price"`
	CompareAtPrice    decimal.Decimal `json:"compare_at_price"`
	InventoryQuantity int             `json:"inventory_quantity"`
	InStock           bool            `json:"in_stock"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Handle      string            `json:"handle"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	Thumbnail   string            `json:"thumbnail,omitempty"`
	Tags        []string          `json:"tags"`
	CategoryID  *uuid.UUID        `json:"category_id"`
	ExternalID  string            `json:"external_id,omitempty"`
	Variants    []VariantResponse `json:"variants"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Version     int               `json:"version"`
}

// ProductListResponse represents a list item for products
type ProductListResponse struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	Handle     string          `json:"handle"`
	Status     string          `json:"status"`
	Thumbnail  string          `json:"thumbnail,omitempty"`
	CategoryID *uuid.UUID      `json:"category_id"`
	ExternalID string          `json:"external_id,omitempty"`
	Price      decimal.Decimal `json:"price"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search     string     `form:"search"`
	Status     string     `form:"status" binding:"omitempty,oneof=draft active archived"`
	CategoryID *uuid.UUID `form:"category_id"`
	BrandID    *uuid.UUID `form:"brand_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CreateCategoryRequest represents a request to create a new category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=2000"`
}

// UpdateCategoryRequest represents a partial update to a category
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Active      *bool   `json:"active"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Handle      string    `json:"handle"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

// CategoryListFilter represents filter options for category list
type CategoryListFilter struct {
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CreateBrandRequest represents a request to create a new brand
type CreateBrandRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// UpdateBrandRequest represents a partial update to a brand
type UpdateBrandRequest struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=100"`
}

// BrandResponse represents a brand in API responses
type BrandResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Handle       string    `json:"handle"`
	ProductCount int64     `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

// BrandListFilter represents filter options for brand list
type BrandListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToVariantResponse converts a domain ProductVariant to VariantResponse
func ToVariantResponse(v *catalog.ProductVariant) VariantResponse {
	return VariantResponse{
		ID:                v.ID,
		ProductID:         v.ProductID,
		Title:             v.Title,
		SKU:               v.SKU,
		Barcode:           v.Barcode,
		Price:             v.Price,
		CompareAtPrice:    v.CompareAtPrice,
		InventoryQuantity: v.InventoryQuantity,
		InStock:           v.InStock(),
	}
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	externalID, _ := p.ExternalID()

	variants := make([]VariantResponse, len(p.Variants))
	for i := range p.Variants {
		variants[i] = ToVariantResponse(&p.Variants[i])
	}

	tags := p.TagList()
	if tags == nil {
		tags = []string{}
	}

	return ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Handle:      p.Handle,
		Description: p.Description,
		Status:      string(p.Status),
		Thumbnail:   p.Thumbnail,
		Tags:        tags,
		CategoryID:  p.CategoryID,
		ExternalID:  externalID,
		Variants:    variants,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
}

// ToProductListResponse converts a domain Product to ProductListResponse
func ToProductListResponse(p *catalog.Product) ProductListResponse {
	externalID, _ := p.ExternalID()

	price := decimal.Zero
	if variant, ok := p.DefaultVariant(); ok {
		price = variant.Price
	}

	return ProductListResponse{
		ID:         p.ID,
		Title:      p.Title,
		Handle:     p.Handle,
		Status:     string(p.Status),
		Thumbnail:  p.Thumbnail,
		CategoryID: p.CategoryID,
		ExternalID: externalID,
		Price:      price,
		CreatedAt:  p.CreatedAt,
	}
}

// ToProductListResponses converts a slice of domain Products to ProductListResponses
func ToProductListResponses(products []catalog.Product) []ProductListResponse {
	responses := make([]ProductListResponse, len(products))
	for i := range products {
		responses[i] = ToProductListResponse(&products[i])
	}
	return responses
}

// ToCategoryResponse converts a domain ProductCategory to CategoryResponse
func ToCategoryResponse(c *catalog.ProductCategory) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Handle:      c.Handle,
		Description: c.Description,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		Version:     c.Version,
	}
}

// ToBrandResponse converts a domain Brand to BrandResponse
func ToBrandResponse(b *catalog.Brand, productCount int64) BrandResponse {
	return BrandResponse{
		ID:           b.ID,
		Name:         b.Name,
		Handle:       b.Handle,
		ProductCount: productCount,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
		Version:      b.Version,
	}
}

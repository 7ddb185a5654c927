package handler

// VariantDoc documents a product variant in API responses
// @Description Product variant with pricing and inventory
type VariantDoc struct {
	ID                string `json:"id" example:"550e8400-e29b-41d4-a716-446655440010"`
	ProductID         string `json:"product_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Title             string `json:"title" example:"Default"`
	SKU               string `json:"sku" example:"SHIRT-S-BLACK"`
	Barcode           string `json:"barcode,omitempty" example:"6901234567890"`
	Price             string `json:"price" example:"29.90"`
	CompareAtPrice    string `json:"compare_at_price" example:"39.90"`
	InventoryQuantity int    `json:"inventory_quantity" example:"12"`
	InStock           bool   `json:"in_stock" example:"true"`
}

// ProductDoc documents a product in API responses
// @Description Product details returned by the API
type ProductDoc struct {
	ID          string       `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Title       string       `json:"title" example:"Classic T-Shirt"`
	Handle      string       `json:"handle" example:"classic-t-shirt"`
	Description string       `json:"description" example:"A classic cotton t-shirt"`
	Status      string       `json:"status" example:"active" enums:"draft,active,archived"`
	Thumbnail   string       `json:"thumbnail,omitempty" example:"https://cdn.example.com/t-shirt.png"`
	Tags        []string     `json:"tags" example:"apparel,cotton"`
	CategoryID  *string      `json:"category_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	ExternalID  string       `json:"external_id,omitempty" example:"42"`
	Variants    []VariantDoc `json:"variants"`
	CreatedAt   string       `json:"created_at" example:"2026-01-24T12:00:00Z"`
	UpdatedAt   string       `json:"updated_at" example:"2026-01-24T12:00:00Z"`
	Version     int          `json:"version" example:"1"`
}

// ProductListDoc documents a product list item
// @Description Product list item with basic information
type ProductListDoc struct {
	ID         string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Title      string  `json:"title" example:"Classic T-Shirt"`
	Handle     string  `json:"handle" example:"classic-t-shirt"`
	Status     string  `json:"status" example:"active" enums:"draft,active,archived"`
	Thumbnail  string  `json:"thumbnail,omitempty" example:"https://cdn.example.com/t-shirt.png"`
	CategoryID *string `json:"category_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	ExternalID string  `json:"external_id,omitempty" example:"42"`
	Price      string  `json:"price" example:"29.90"`
	CreatedAt  string  `json:"created_at" example:"2026-01-24T12:00:00Z"`
}

// CategoryDoc documents a category in API responses
// @Description Product category details
type CategoryDoc struct {
	ID          string `json:"id" example:"550e8400-e29b-41d4-a716-446655440002"`
	Name        string `json:"name" example:"Apparel"`
	Handle      string `json:"handle" example:"apparel"`
	Description string `json:"description,omitempty" example:"Clothing and accessories"`
	Active      bool   `json:"active" example:"true"`
	CreatedAt   string `json:"created_at" example:"2026-01-24T12:00:00Z"`
	UpdatedAt   string `json:"updated_at" example:"2026-01-24T12:00:00Z"`
	Version     int    `json:"version" example:"1"`
}

// BrandDoc documents a brand in API responses
// @Description Brand details with linked product count
type BrandDoc struct {
	ID           string `json:"id" example:"550e8400-e29b-41d4-a716-446655440003"`
	Name         string `json:"name" example:"Acme"`
	Handle       string `json:"handle" example:"acme"`
	ProductCount int64  `json:"product_count" example:"17"`
	CreatedAt    string `json:"created_at" example:"2026-01-24T12:00:00Z"`
	UpdatedAt    string `json:"updated_at" example:"2026-01-24T12:00:00Z"`
	Version      int    `json:"version" example:"1"`
}

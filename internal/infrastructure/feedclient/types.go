package feedclient

import (
	"github.com/shopspring/decimal"

	"github.com/pim/backend/internal/domain/feed"
)

// productsPayload mirrors the source catalog's paginated list response:
// {"products": [...], "total": T, "skip": M, "limit": N}
type productsPayload struct {
	Products []productPayload `json:"products"`
	Total    int              `json:"total"`
	Skip     int              `json:"skip"`
	Limit    int              `json:"limit"`
}

// productPayload is one product record as the source catalog serves it
type productPayload struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	SKU         string          `json:"sku"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Tags        []string        `json:"tags"`
	Thumbnail   string          `json:"thumbnail"`
	Images      []string        `json:"images"`
	Meta        *productMeta    `json:"meta,omitempty"`
}

// productMeta carries the nested metadata block; the barcode lives here
type productMeta struct {
	Barcode string `json:"barcode"`
}

// toDomain converts the wire payload into the domain page
func (p *productsPayload) toDomain() *feed.Page {
	page := &feed.Page{
		Products: make([]feed.Product, 0, len(p.Products)),
		Total:    p.Total,
		Skip:     p.Skip,
		Limit:    p.Limit,
	}
	for _, record := range p.Products {
		page.Products = append(page.Products, record.toDomain())
	}
	return page
}

// toDomain converts one wire record into the domain value object
func (p *productPayload) toDomain() feed.Product {
	record := feed.Product{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Brand:       p.Brand,
		SKU:         p.SKU,
		Price:       p.Price,
		Stock:       p.Stock,
		Tags:        p.Tags,
		Thumbnail:   p.Thumbnail,
		Images:      p.Images,
	}
	if p.Meta != nil {
		record.Barcode = p.Meta.Barcode
	}
	return record
}

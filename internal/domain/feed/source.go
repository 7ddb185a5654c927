package feed

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// CatalogSource Errors
// ---------------------------------------------------------------------------

var (
	// ErrSourceUnavailable indicates the remote catalog could not be reached
	// or answered with a server error
	ErrSourceUnavailable = errors.New("feed: catalog source unavailable")

	// ErrInvalidResponse indicates the remote catalog answered with a body
	// that does not match the expected schema
	ErrInvalidResponse = errors.New("feed: invalid catalog response")

	// ErrPageOutOfRange indicates the requested skip lies beyond the
	// source's total
	ErrPageOutOfRange = errors.New("feed: page out of range")
)

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// Product represents one record as the remote catalog returns it. The id is
// the source's own numeric id; it becomes the local product's external id.
type Product struct {
	// ID is the product id on the source catalog
	ID int64
	// Title is the product title
	Title string
	// Description is the long-form description
	Description string
	// Category is the source's category name
	Category string
	// Brand is the source's brand name, possibly empty
	Brand string
	// SKU is the source's stock keeping unit
	SKU string
	// Barcode is the EAN/UPC code, possibly empty
	Barcode string
	// Price is the unit price
	Price decimal.Decimal
	// Stock is the available quantity
	Stock int
	// Tags are the source's free-form labels
	Tags []string
	// Thumbnail is the primary image URL
	Thumbnail string
	// Images are additional image URLs
	Images []string
}

// Page is one slice of the remote catalog
type Page struct {
	// Products are the records on this page
	Products []Product
	// Total is the source's total product count
	Total int
	// Skip is the offset this page starts at
	Skip int
	// Limit is the page size that was requested
	Limit int
}

// HasMore returns true if records remain beyond this page
func (p *Page) HasMore() bool {
	return p.Skip+len(p.Products) < p.Total
}

// ---------------------------------------------------------------------------
// CatalogSource Port Interface
// ---------------------------------------------------------------------------

// CatalogSource defines the port interface for the remote product catalog.
// The interface is defined here in the domain layer; the HTTP adapter lives
// in the infrastructure layer.
type CatalogSource interface {
	// FetchPage reads one page of products at the given offset
	FetchPage(ctx context.Context, limit, skip int) (*Page, error)
}

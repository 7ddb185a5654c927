package feed

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	catalogapp "github.com/pim/backend/internal/application/catalog"
	"github.com/pim/backend/internal/domain/feed"
)

// buildCreateRequest maps one feed record onto the platform product schema.
// The record's numeric id becomes the external id, and its price and stock
// land on a single default variant. Imported products go live immediately.
func buildCreateRequest(record feed.Product, categoryID *uuid.UUID) catalogapp.CreateProductRequest {
	return catalogapp.CreateProductRequest{
		Title:       strings.TrimSpace(record.Title),
		Description: record.Description,
		Status:      "active",
		Thumbnail:   record.Thumbnail,
		Tags:        record.Tags,
		CategoryID:  categoryID,
		ExternalID:  strconv.FormatInt(record.ID, 10),
		Variants: []catalogapp.CreateVariantRequest{
			{
				Title:             "Default",
				SKU:               variantSKU(record),
				Barcode:           record.Barcode,
				Price:             record.Price,
				InventoryQuantity: record.Stock,
			},
		},
	}
}

// buildUpdateRequest maps a feed record onto a partial update for an
// already imported product. Handle, status and external id are left alone.
func buildUpdateRequest(record feed.Product, categoryID *uuid.UUID) catalogapp.UpdateProductRequest {
	title := strings.TrimSpace(record.Title)
	description := record.Description
	thumbnail := record.Thumbnail
	tags := record.Tags
	price := record.Price
	stock := record.Stock

	req := catalogapp.UpdateProductRequest{
		Description: &description,
		Thumbnail:   &thumbnail,
		Tags:        &tags,
		CategoryID:  categoryID,
		Variant: &catalogapp.UpdateVariantRequest{
			Price:             &price,
			InventoryQuantity: &stock,
		},
	}
	if title != "" {
		req.Title = &title
	}
	if barcode := strings.TrimSpace(record.Barcode); barcode != "" {
		req.Variant.Barcode = &barcode
	}
	return req
}

// variantSKU prefers the source SKU and falls back to a synthetic one so
// the default variant always carries an identifier.
func variantSKU(record feed.Product) string {
	if sku := strings.TrimSpace(record.SKU); sku != "" {
		return sku
	}
	return fmt.Sprintf("EXT-%d", record.ID)
}

package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductVariant is a sellable unit of a product. It is owned by the
// product aggregate and has no lifecycle of its own.
type ProductVariant struct {
	shared.BaseEntity
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_variant_product_sku,priority:1"`
	Title             string          `gorm:"type:varchar(200);not null"`
	SKU               string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_variant_product_sku,priority:2"`
	Barcode           string          `gorm:"type:varchar(100)"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CompareAtPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	InventoryQuantity int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductVariant) TableName() string {
	return "product_variants"
}

// NewProductVariant creates a variant. The product id is assigned when the
// variant is attached to its product.
func NewProductVariant(title, sku string) (*ProductVariant, error) {
	if title == "" {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Variant title cannot be empty")
	}
	if err := validateVariantSKU(sku); err != nil {
		return nil, err
	}

	return &ProductVariant{
		BaseEntity: shared.NewBaseEntity(),
		Title:      title,
		SKU:        sku,
		Price:      decimal.Zero,
	}, nil
}

// SetPrice updates the variant price
func (v *ProductVariant) SetPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	v.Price = price
	v.UpdatedAt = time.Now()

	return nil
}

// SetCompareAtPrice updates the pre-discount display price; zero clears it
func (v *ProductVariant) SetCompareAtPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Compare-at price cannot be negative")
	}

	v.CompareAtPrice = price
	v.UpdatedAt = time.Now()

	return nil
}

// SetBarcode updates the variant barcode
func (v *ProductVariant) SetBarcode(barcode string) error {
	if len(barcode) > 100 {
		return shared.NewDomainError("INVALID_BARCODE", "Barcode cannot exceed 100 characters")
	}

	v.Barcode = barcode
	v.UpdatedAt = time.Now()

	return nil
}

// SetInventoryQuantity replaces the tracked stock level
func (v *ProductVariant) SetInventoryQuantity(quantity int) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Inventory quantity cannot be negative")
	}

	v.InventoryQuantity = quantity
	v.UpdatedAt = time.Now()

	return nil
}

// InStock returns true if the variant has inventory available
func (v *ProductVariant) InStock() bool {
	return v.InventoryQuantity > 0
}

// validateVariantSKU validates the variant SKU
func validateVariantSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "Variant SKU cannot be empty")
	}
	if len(sku) > 100 {
		return shared.NewDomainError("INVALID_SKU", "Variant SKU cannot exceed 100 characters")
	}
	return nil
}

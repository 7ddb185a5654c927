package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/shared"
)

// MetadataKeyExternalID is the metadata key holding the source catalog's
// product id. It is the stable join key between the remote feed and the
// local store; re-syncs match on it instead of creating duplicates.
const MetadataKeyExternalID = "external_id"

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

// IsValid returns true if the status is a known value
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusActive, ProductStatusArchived:
		return true
	}
	return false
}

// Product is the catalog aggregate root. Variants are owned by the product
// and persisted with it; categories and brands are referenced.
type Product struct {
	shared.BaseAggregateRoot
	Title       string           `gorm:"type:varchar(200);not null"`
	Handle      string           `gorm:"type:varchar(220);not null;uniqueIndex"`
	Description string           `gorm:"type:text"`
	Status      ProductStatus    `gorm:"type:varchar(20);not null;default:'draft'"`
	Thumbnail   string           `gorm:"type:text"`
	Tags        string           `gorm:"type:jsonb;default:'[]'"`
	CategoryID  *uuid.UUID       `gorm:"type:uuid;index"`
	Metadata    string           `gorm:"type:jsonb;default:'{}'"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new draft product. An empty handle is derived from
// the title.
func NewProduct(title, handle string) (*Product, error) {
	if err := validateProductTitle(title); err != nil {
		return nil, err
	}
	if handle == "" {
		handle = shared.Slugify(title)
	}
	if err := validateProductHandle(handle); err != nil {
		return nil, err
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Title:             title,
		Handle:            handle,
		Status:            ProductStatusDraft,
		Tags:              "[]",
		Metadata:          "{}",
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Rename updates the product title
func (p *Product) Rename(title string) error {
	if err := validateProductTitle(title); err != nil {
		return err
	}

	p.Title = title
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

// SetDescription updates the product description
func (p *Product) SetDescription(description string) {
	p.Description = description
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// SetThumbnail updates the product thumbnail URL
func (p *Product) SetThumbnail(url string) {
	p.Thumbnail = url
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// SetCategory assigns the product to a category; nil clears it
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))
}

// SetTags replaces the product tag list
func (p *Product) SetTags(tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return shared.NewDomainError("INVALID_TAGS", "Tags cannot be serialized")
	}

	p.Tags = string(raw)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// TagList returns the product tags as a slice
func (p *Product) TagList() []string {
	if p.Tags == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(p.Tags), &tags); err != nil {
		return nil
	}
	return tags
}

// Activate publishes the product
func (p *Product) Activate() error {
	if p.Status == ProductStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Product is already active")
	}

	old := p.Status
	p.Status = ProductStatusActive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStatusChangedEvent(p, old, ProductStatusActive))

	return nil
}

// Archive retires the product from the storefront
func (p *Product) Archive() error {
	if p.Status == ProductStatusArchived {
		return shared.NewDomainError("ALREADY_ARCHIVED", "Product is already archived")
	}

	old := p.Status
	p.Status = ProductStatusArchived
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStatusChangedEvent(p, old, ProductStatusArchived))

	return nil
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// AddVariant attaches a variant to the product. SKUs are unique within a
// product.
func (p *Product) AddVariant(variant *ProductVariant) error {
	if variant == nil {
		return shared.NewDomainError("INVALID_VARIANT", "Variant is required")
	}
	for _, existing := range p.Variants {
		if existing.SKU == variant.SKU {
			return shared.NewDomainError("DUPLICATE_SKU", fmt.Sprintf("Variant with SKU %q already exists", variant.SKU))
		}
	}

	variant.ProductID = p.ID
	p.Variants = append(p.Variants, *variant)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// VariantBySKU returns the variant with the given SKU, if present
func (p *Product) VariantBySKU(sku string) (*ProductVariant, bool) {
	for i := range p.Variants {
		if p.Variants[i].SKU == sku {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// DefaultVariant returns the first variant, if any. Feed-synced products
// carry exactly one.
func (p *Product) DefaultVariant() (*ProductVariant, bool) {
	if len(p.Variants) == 0 {
		return nil, false
	}
	return &p.Variants[0], true
}

// MetadataValue returns the string form of a metadata entry
func (p *Product) MetadataValue(key string) (string, bool) {
	meta := p.metadataMap()
	value, ok := meta[key]
	if !ok {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

// SetMetadataValue sets a single metadata entry, preserving the rest
func (p *Product) SetMetadataValue(key string, value interface{}) error {
	if key == "" {
		return shared.NewDomainError("INVALID_METADATA", "Metadata key cannot be empty")
	}

	meta := p.metadataMap()
	meta[key] = value
	raw, err := json.Marshal(meta)
	if err != nil {
		return shared.NewDomainError("INVALID_METADATA", "Metadata cannot be serialized")
	}

	p.Metadata = string(raw)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// ExternalID returns the source catalog id recorded in metadata
func (p *Product) ExternalID() (string, bool) {
	return p.MetadataValue(MetadataKeyExternalID)
}

// SetExternalID records the source catalog id in metadata
func (p *Product) SetExternalID(id string) error {
	if id == "" {
		return shared.NewDomainError("INVALID_METADATA", "External id cannot be empty")
	}
	return p.SetMetadataValue(MetadataKeyExternalID, id)
}

func (p *Product) metadataMap() map[string]interface{} {
	meta := make(map[string]interface{})
	if p.Metadata == "" {
		return meta
	}
	if err := json.Unmarshal([]byte(p.Metadata), &meta); err != nil {
		return make(map[string]interface{})
	}
	return meta
}

// validateProductTitle validates the product title
func validateProductTitle(title string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Product title cannot be empty")
	}
	if len(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Product title cannot exceed 200 characters")
	}
	return nil
}

// validateProductHandle validates the product handle
func validateProductHandle(handle string) error {
	if handle == "" {
		return shared.NewDomainError("INVALID_HANDLE", "Product handle cannot be empty")
	}
	if len(handle) > 220 {
		return shared.NewDomainError("INVALID_HANDLE", "Product handle cannot exceed 220 characters")
	}
	for _, r := range handle {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return shared.NewDomainError("INVALID_HANDLE", "Product handle can only contain lowercase letters, numbers, and hyphens")
		}
	}
	return nil
}

package catalog

import (
	"strings"
	"time"

	"github.com/pim/backend/internal/domain/shared"
)

// Brand is the catalog extension entity linked to products many-to-many.
// Like categories, brand names are canonical: one row per distinct name.
type Brand struct {
	shared.BaseAggregateRoot
	Name   string `gorm:"type:varchar(100);not null;index"`
	Handle string `gorm:"type:varchar(120);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (Brand) TableName() string {
	return "brands"
}

// NewBrand creates a brand with a handle derived from the name
func NewBrand(name string) (*Brand, error) {
	name = strings.TrimSpace(name)
	if err := validateBrandName(name); err != nil {
		return nil, err
	}

	brand := &Brand{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Handle:            shared.Slugify(name),
	}

	brand.AddDomainEvent(NewBrandCreatedEvent(brand))

	return brand, nil
}

// Rename updates the brand's canonical name and handle
func (b *Brand) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateBrandName(name); err != nil {
		return err
	}

	b.Name = name
	b.Handle = shared.Slugify(name)
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// validateBrandName validates the brand name
func validateBrandName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Brand name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Brand name cannot exceed 100 characters")
	}
	return nil
}

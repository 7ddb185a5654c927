package catalog

import (
	"strings"
	"time"

	"github.com/pim/backend/internal/domain/shared"
)

// ProductCategory is a flat reference entity. Names are canonical: the
// catalog holds exactly one category row per distinct name, and sync runs
// deduplicate incoming name strings against it.
type ProductCategory struct {
	shared.BaseAggregateRoot
	Name        string `gorm:"type:varchar(100);not null;index"`
	Handle      string `gorm:"type:varchar(120);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	Active      bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductCategory) TableName() string {
	return "product_categories"
}

// NewProductCategory creates a category with a handle derived from the name
func NewProductCategory(name string) (*ProductCategory, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}

	category := &ProductCategory{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Handle:            shared.Slugify(name),
		Active:            true,
	}

	category.AddDomainEvent(NewCategoryCreatedEvent(category))

	return category, nil
}

// Rename updates the category's canonical name and handle
func (c *ProductCategory) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return err
	}

	c.Name = name
	c.Handle = shared.Slugify(name)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCategoryUpdatedEvent(c))

	return nil
}

// SetDescription updates the category description
func (c *ProductCategory) SetDescription(description string) {
	c.Description = description
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// Deactivate hides the category without deleting it
func (c *ProductCategory) Deactivate() error {
	if !c.Active {
		return shared.NewDomainError("ALREADY_INACTIVE", "Category is already inactive")
	}

	c.Active = false
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// Activate re-enables the category
func (c *ProductCategory) Activate() error {
	if c.Active {
		return shared.NewDomainError("ALREADY_ACTIVE", "Category is already active")
	}

	c.Active = true
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// validateCategoryName validates the category name
func validateCategoryName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return nil
}

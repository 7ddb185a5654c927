package catalog

import (
	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeBrand = "Brand"

// Event type constants
const (
	EventTypeBrandCreated = "BrandCreated"
	EventTypeBrandDeleted = "BrandDeleted"
)

// BrandCreatedEvent is published when a new brand is created
type BrandCreatedEvent struct {
	shared.BaseDomainEvent
	BrandID uuid.UUID `json:"brand_id"`
	Name    string    `json:"name"`
	Handle  string    `json:"handle"`
}

// NewBrandCreatedEvent creates a new BrandCreatedEvent
func NewBrandCreatedEvent(brand *Brand) *BrandCreatedEvent {
	return &BrandCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBrandCreated, AggregateTypeBrand, brand.ID),
		BrandID:         brand.ID,
		Name:            brand.Name,
		Handle:          brand.Handle,
	}
}

// BrandDeletedEvent is published when a brand is deleted
type BrandDeletedEvent struct {
	shared.BaseDomainEvent
	BrandID uuid.UUID `json:"brand_id"`
	Name    string    `json:"name"`
}

// NewBrandDeletedEvent creates a new BrandDeletedEvent
func NewBrandDeletedEvent(brand *Brand) *BrandDeletedEvent {
	return &BrandDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBrandDeleted, AggregateTypeBrand, brand.ID),
		BrandID:         brand.ID,
		Name:            brand.Name,
	}
}

package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/catalog"
	"github.com/pim/backend/internal/domain/shared"
	"github.com/pim/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBrandRepository implements BrandRepository using GORM
type GormBrandRepository struct {
	db *gorm.DB
}

// NewGormBrandRepository creates a new GormBrandRepository
func NewGormBrandRepository(db *gorm.DB) *GormBrandRepository {
	return &GormBrandRepository{db: db}
}

// FindByID finds a brand by its ID
func (r *GormBrandRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Brand, error) {
	var model models.BrandModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple brands by their IDs
func (r *GormBrandRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Brand, error) {
	if len(ids) == 0 {
		return []catalog.Brand{}, nil
	}

	var brandModels []models.BrandModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&brandModels).Error; err != nil {
		return nil, err
	}

	brands := make([]catalog.Brand, len(brandModels))
	for i, model := range brandModels {
		brands[i] = *model.ToDomain()
	}
	return brands, nil
}

// FindByHandle finds a brand by its handle
func (r *GormBrandRepository) FindByHandle(ctx context.Context, handle string) (*catalog.Brand, error) {
	var model models.BrandModel
	if err := r.db.WithContext(ctx).
		Where("handle = ?", handle).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName finds a brand by exact name, case-insensitive
func (r *GormBrandRepository) FindByName(ctx context.Context, name string) (*catalog.Brand, error) {
	var model models.BrandModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNames finds all brands whose name matches one of the given names,
// case-insensitive
func (r *GormBrandRepository) FindByNames(ctx context.Context, names []string) ([]catalog.Brand, error) {
	if len(names) == 0 {
		return []catalog.Brand{}, nil
	}

	lowered := make([]string, len(names))
	for i, name := range names {
		lowered[i] = strings.ToLower(strings.TrimSpace(name))
	}

	var brandModels []models.BrandModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) IN ?", lowered).
		Find(&brandModels).Error; err != nil {
		return nil, err
	}

	brands := make([]catalog.Brand, len(brandModels))
	for i, model := range brandModels {
		brands[i] = *model.ToDomain()
	}
	return brands, nil
}

// FindAll finds all brands matching the filter
func (r *GormBrandRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Brand, error) {
	var brandModels []models.BrandModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.BrandModel{}), filter)

	if err := query.Find(&brandModels).Error; err != nil {
		return nil, err
	}

	brands := make([]catalog.Brand, len(brandModels))
	for i, model := range brandModels {
		brands[i] = *model.ToDomain()
	}
	return brands, nil
}

// Save creates or updates a brand
func (r *GormBrandRepository) Save(ctx context.Context, brand *catalog.Brand) error {
	model := models.BrandModelFromDomain(brand)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveBatch creates or updates multiple brands
func (r *GormBrandRepository) SaveBatch(ctx context.Context, brands []*catalog.Brand) error {
	if len(brands) == 0 {
		return nil
	}
	brandModels := make([]*models.BrandModel, len(brands))
	for i, b := range brands {
		brandModels[i] = models.BrandModelFromDomain(b)
	}
	return r.db.WithContext(ctx).Save(brandModels).Error
}

// Delete deletes a brand
func (r *GormBrandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BrandModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteBatch deletes multiple brands by ID
func (r *GormBrandRepository) DeleteBatch(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Delete(&models.BrandModel{}, "id IN ?", ids).Error
}

// Count counts brands matching the filter
func (r *GormBrandRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.BrandModel{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByName checks if a brand with the given name exists,
// case-insensitive
func (r *GormBrandRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BrandModel{}).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter options to the query
func (r *GormBrandRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering. The sort field is whitelisted before it reaches the
	// ORDER BY clause.
	if filter.OrderBy != "" {
		field := ValidateSortField(filter.OrderBy, BrandSortFields, "name")
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		// Default ordering
		query = query.Order("name ASC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormBrandRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR handle ILIKE ?", searchPattern, searchPattern)
	}

	// Apply additional filters
	for key, value := range filter.Filters {
		switch key {
		case "handle":
			query = query.Where("handle = ?", value)
		}
	}

	return query
}

// Ensure GormBrandRepository implements BrandRepository
var _ catalog.BrandRepository = (*GormBrandRepository)(nil)

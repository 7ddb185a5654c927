package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/catalog"
	"github.com/pim/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupProductTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&catalog.Product{}, &catalog.ProductVariant{})
	require.NoError(t, err)

	return db
}

func newTestVariant(t *testing.T, title, sku string, price float64) *catalog.ProductVariant {
	variant, err := catalog.NewProductVariant(title, sku)
	require.NoError(t, err)
	require.NoError(t, variant.SetPrice(decimal.NewFromFloat(price)))
	return variant
}

func newTestProduct(t *testing.T, title, externalID string) *catalog.Product {
	product, err := catalog.NewProduct(title, "")
	require.NoError(t, err)
	if externalID != "" {
		require.NoError(t, product.SetExternalID(externalID))
	}
	return product
}

func TestGormProductRepository_SaveAndFindByID(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	t.Run("saves new product with variants", func(t *testing.T) {
		product := newTestProduct(t, "Essence Mascara Lash Princess", "1")
		require.NoError(t, product.AddVariant(newTestVariant(t, "Default", "SKU-MASC-1", 9.99)))
		require.NoError(t, product.AddVariant(newTestVariant(t, "Waterproof", "SKU-MASC-2", 12.99)))

		err := repo.Save(ctx, product)
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, product.ID, found.ID)
		assert.Equal(t, "Essence Mascara Lash Princess", found.Title)
		assert.Equal(t, "essence-mascara-lash-princess", found.Handle)
		assert.Equal(t, catalog.ProductStatusDraft, found.Status)
		assert.Len(t, found.Variants, 2)

		variant, ok := found.VariantBySKU("SKU-MASC-1")
		require.True(t, ok)
		assert.True(t, decimal.NewFromFloat(9.99).Equal(variant.Price), "expected 9.99, got %s", variant.Price)

		externalID, ok := found.ExternalID()
		require.True(t, ok)
		assert.Equal(t, "1", externalID)
	})

	t.Run("returns ErrNotFound for missing product", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormProductRepository_FindByHandle(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	product := newTestProduct(t, "Red Lipstick", "")
	require.NoError(t, product.AddVariant(newTestVariant(t, "Default", "SKU-LIP-1", 12.99)))
	require.NoError(t, repo.Save(ctx, product))

	t.Run("finds product by handle", func(t *testing.T) {
		found, err := repo.FindByHandle(ctx, "red-lipstick")
		require.NoError(t, err)
		assert.Equal(t, product.ID, found.ID)
		assert.Len(t, found.Variants, 1)
	})

	t.Run("returns ErrNotFound for unknown handle", func(t *testing.T) {
		_, err := repo.FindByHandle(ctx, "no-such-handle")
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormProductRepository_FindByExternalID(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	product := newTestProduct(t, "Powder Canister", "101")
	require.NoError(t, repo.Save(ctx, product))

	t.Run("finds product by external id", func(t *testing.T) {
		found, err := repo.FindByExternalID(ctx, "101")
		require.NoError(t, err)
		assert.Equal(t, product.ID, found.ID)
	})

	t.Run("returns ErrNotFound for unknown external id", func(t *testing.T) {
		_, err := repo.FindByExternalID(ctx, "999")
		assert.Equal(t, shared.ErrNotFound, err)
	})

	t.Run("rejects empty external id", func(t *testing.T) {
		_, err := repo.FindByExternalID(ctx, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "External id cannot be empty")
	})
}

func TestGormProductRepository_FindByExternalIDs(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	first := newTestProduct(t, "Eyeshadow Palette", "201")
	second := newTestProduct(t, "Blush Compact", "202")
	third := newTestProduct(t, "Untracked Local Product", "")
	require.NoError(t, repo.SaveBatch(ctx, []*catalog.Product{first, second, third}))

	t.Run("finds products carrying the given external ids", func(t *testing.T) {
		found, err := repo.FindByExternalIDs(ctx, []string{"201", "202", "999"})
		require.NoError(t, err)
		require.Len(t, found, 2)

		ids := map[uuid.UUID]bool{found[0].ID: true, found[1].ID: true}
		assert.True(t, ids[first.ID])
		assert.True(t, ids[second.ID])
	})

	t.Run("returns empty slice for empty input", func(t *testing.T) {
		found, err := repo.FindByExternalIDs(ctx, []string{})
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestGormProductRepository_Save_ReconcilesVariants(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	product := newTestProduct(t, "Nail Polish Set", "")
	require.NoError(t, product.AddVariant(newTestVariant(t, "Red", "SKU-NP-RED", 4.99)))
	require.NoError(t, product.AddVariant(newTestVariant(t, "Blue", "SKU-NP-BLUE", 4.99)))
	require.NoError(t, repo.Save(ctx, product))

	t.Run("removes variants dropped from the aggregate", func(t *testing.T) {
		found, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		require.Len(t, found.Variants, 2)

		kept := make([]catalog.ProductVariant, 0, 1)
		for _, variant := range found.Variants {
			if variant.SKU == "SKU-NP-RED" {
				kept = append(kept, variant)
			}
		}
		found.Variants = kept
		require.NoError(t, found.Variants[0].SetPrice(decimal.NewFromFloat(5.49)))

		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		require.Len(t, reloaded.Variants, 1)
		assert.Equal(t, "SKU-NP-RED", reloaded.Variants[0].SKU)
		assert.True(t, decimal.NewFromFloat(5.49).Equal(reloaded.Variants[0].Price))
	})

	t.Run("adds new variants on update", func(t *testing.T) {
		found, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)

		require.NoError(t, found.AddVariant(newTestVariant(t, "Green", "SKU-NP-GREEN", 4.99)))
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Len(t, reloaded.Variants, 2)

		_, ok := reloaded.VariantBySKU("SKU-NP-GREEN")
		assert.True(t, ok)
	})

	t.Run("deletes all variants when list is emptied", func(t *testing.T) {
		found, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		require.NotEmpty(t, found.Variants)

		found.Variants = nil
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Empty(t, reloaded.Variants)
	})
}

func TestGormProductRepository_FindAll(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	first := newTestProduct(t, "Alpha Serum", "")
	second := newTestProduct(t, "Beta Cream", "")
	third := newTestProduct(t, "Gamma Cleanser", "")
	require.NoError(t, second.Activate())
	require.NoError(t, repo.SaveBatch(ctx, []*catalog.Product{first, second, third}))

	t.Run("orders and paginates", func(t *testing.T) {
		filter := shared.Filter{Page: 1, PageSize: 2, OrderBy: "title", OrderDir: "asc"}
		products, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "Alpha Serum", products[0].Title)
		assert.Equal(t, "Beta Cream", products[1].Title)

		filter.Page = 2
		products, err = repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "Gamma Cleanser", products[0].Title)
	})

	t.Run("filters by status", func(t *testing.T) {
		filter := shared.Filter{
			Page: 1, PageSize: 10,
			Filters: map[string]interface{}{"status": "active"},
		}
		products, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, second.ID, products[0].ID)
	})
}

func TestGormProductRepository_FindByCategory(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	categoryID := uuid.New()
	inCategory := newTestProduct(t, "Categorized Product", "")
	inCategory.SetCategory(&categoryID)
	outOfCategory := newTestProduct(t, "Uncategorized Product", "")
	require.NoError(t, repo.SaveBatch(ctx, []*catalog.Product{inCategory, outOfCategory}))

	t.Run("returns only products in the category", func(t *testing.T) {
		products, err := repo.FindByCategory(ctx, categoryID, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, inCategory.ID, products[0].ID)
	})

	t.Run("counts products in the category", func(t *testing.T) {
		count, err := repo.CountByCategory(ctx, categoryID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("filters uncategorized products", func(t *testing.T) {
		filter := shared.Filter{
			Page: 1, PageSize: 10,
			Filters: map[string]interface{}{"category_id": nil},
		}
		products, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, outOfCategory.ID, products[0].ID)
	})
}

func TestGormProductRepository_FindByStatus(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	draft := newTestProduct(t, "Draft Product", "")
	active := newTestProduct(t, "Active Product", "")
	require.NoError(t, active.Activate())
	require.NoError(t, repo.SaveBatch(ctx, []*catalog.Product{draft, active}))

	products, err := repo.FindByStatus(ctx, catalog.ProductStatusActive, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, active.ID, products[0].ID)
}

func TestGormProductRepository_FindByIDs(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	first := newTestProduct(t, "First Product", "")
	require.NoError(t, first.AddVariant(newTestVariant(t, "Default", "SKU-F-1", 1.99)))
	second := newTestProduct(t, "Second Product", "")
	require.NoError(t, repo.SaveBatch(ctx, []*catalog.Product{first, second}))

	t.Run("finds multiple products with variants preloaded", func(t *testing.T) {
		products, err := repo.FindByIDs(ctx, []uuid.UUID{first.ID, second.ID})
		require.NoError(t, err)
		require.Len(t, products, 2)

		for _, p := range products {
			if p.ID == first.ID {
				assert.Len(t, p.Variants, 1)
			}
		}
	})

	t.Run("returns empty slice for empty input", func(t *testing.T) {
		products, err := repo.FindByIDs(ctx, []uuid.UUID{})
		require.NoError(t, err)
		assert.Empty(t, products)
	})
}

func TestGormProductRepository_Delete(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	t.Run("deletes product and its variants", func(t *testing.T) {
		product := newTestProduct(t, "Disposable Product", "")
		require.NoError(t, product.AddVariant(newTestVariant(t, "Default", "SKU-DEL-1", 3.50)))
		require.NoError(t, repo.Save(ctx, product))

		err := repo.Delete(ctx, product.ID)
		require.NoError(t, err)

		_, err = repo.FindByID(ctx, product.ID)
		assert.Equal(t, shared.ErrNotFound, err)

		var variantCount int64
		require.NoError(t, db.Model(&catalog.ProductVariant{}).
			Where("product_id = ?", product.ID).
			Count(&variantCount).Error)
		assert.Equal(t, int64(0), variantCount)
	})

	t.Run("returns ErrNotFound for missing product", func(t *testing.T) {
		err := repo.Delete(ctx, uuid.New())
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormProductRepository_Count(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	draft := newTestProduct(t, "Count Draft", "")
	active := newTestProduct(t, "Count Active", "")
	require.NoError(t, active.Activate())
	require.NoError(t, repo.SaveBatch(ctx, []*catalog.Product{draft, active}))

	t.Run("counts all products", func(t *testing.T) {
		count, err := repo.Count(ctx, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("counts with status filter", func(t *testing.T) {
		count, err := repo.Count(ctx, shared.Filter{
			Filters: map[string]interface{}{"status": "draft"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestGormProductRepository_ExistsByHandle(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	product := newTestProduct(t, "Handle Check", "")
	require.NoError(t, repo.Save(ctx, product))

	exists, err := repo.ExistsByHandle(ctx, "handle-check")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByHandle(ctx, "missing-handle")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormProductRepository_SaveBatch_Empty(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)

	err := repo.SaveBatch(context.Background(), nil)
	assert.NoError(t, err)
}

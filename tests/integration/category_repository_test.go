package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pim/backend/internal/domain/catalog"
	"github.com/pim/backend/internal/domain/shared"
	"github.com/pim/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCategoryRepository_Integration tests the CategoryRepository against a real PostgreSQL database
func TestCategoryRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormCategoryRepository(testDB.DB)
	ctx := context.Background()

	t.Run("Save and FindByID", func(t *testing.T) {
		category, err := catalog.NewProductCategory("Smartphones")
		require.NoError(t, err)

		err = repo.Save(ctx, category)
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, category.ID)
		require.NoError(t, err)
		assert.Equal(t, category.ID, found.ID)
		assert.Equal(t, "Smartphones", found.Name)
		assert.Equal(t, "smartphones", found.Handle)
		assert.True(t, found.Active)
	})

	t.Run("FindByHandle", func(t *testing.T) {
		category, err := catalog.NewProductCategory("Home Decoration")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, category))

		found, err := repo.FindByHandle(ctx, "home-decoration")
		require.NoError(t, err)
		assert.Equal(t, category.ID, found.ID)

		_, err = repo.FindByHandle(ctx, "no-such-category")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("FindByName is case-insensitive", func(t *testing.T) {
		category, err := catalog.NewProductCategory("Groceries")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, category))

		found, err := repo.FindByName(ctx, "GROCERIES")
		require.NoError(t, err)
		assert.Equal(t, category.ID, found.ID)
		assert.Equal(t, "Groceries", found.Name)

		found, err = repo.FindByName(ctx, "  groceries  ")
		require.NoError(t, err)
		assert.Equal(t, category.ID, found.ID)

		_, err = repo.FindByName(ctx, "Unknown")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("FindByNames", func(t *testing.T) {
		for _, name := range []string{"Laptops", "Tablets", "Monitors"} {
			category, err := catalog.NewProductCategory(name)
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, category))
		}

		found, err := repo.FindByNames(ctx, []string{"LAPTOPS", "tablets", "Nonexistent"})
		require.NoError(t, err)
		assert.Len(t, found, 2)

		found, err = repo.FindByNames(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("Duplicate name is rejected case-insensitively", func(t *testing.T) {
		first, err := catalog.NewProductCategory("Furniture")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, first))

		second, err := catalog.NewProductCategory("FURNITURE")
		require.NoError(t, err)
		err = repo.Save(ctx, second)
		assert.Error(t, err)
	})

	t.Run("ExistsByName", func(t *testing.T) {
		category, err := catalog.NewProductCategory("Beauty")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, category))

		exists, err := repo.ExistsByName(ctx, "beauty")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByName(ctx, "nonexistent")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("HasProducts", func(t *testing.T) {
		productRepo := persistence.NewGormProductRepository(testDB.DB)

		occupied, err := catalog.NewProductCategory("Occupied")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, occupied))

		empty, err := catalog.NewProductCategory("Empty")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, empty))

		product, err := catalog.NewProduct("Occupant", "occupant")
		require.NoError(t, err)
		product.SetCategory(&occupied.ID)
		require.NoError(t, productRepo.Save(ctx, product))

		has, err := repo.HasProducts(ctx, occupied.ID)
		require.NoError(t, err)
		assert.True(t, has)

		has, err = repo.HasProducts(ctx, empty.ID)
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("Update category", func(t *testing.T) {
		category, err := catalog.NewProductCategory("Old Name")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, category))

		require.NoError(t, category.Rename("New Name"))
		category.SetDescription("Renamed category")
		require.NoError(t, repo.Save(ctx, category))

		found, err := repo.FindByID(ctx, category.ID)
		require.NoError(t, err)
		assert.Equal(t, "New Name", found.Name)
		assert.Equal(t, "new-name", found.Handle)
		assert.Equal(t, "Renamed category", found.Description)
		assert.Greater(t, found.Version, 1)
	})

	t.Run("Delete", func(t *testing.T) {
		category, err := catalog.NewProductCategory("Disposable")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, category))

		err = repo.Delete(ctx, category.ID)
		require.NoError(t, err)

		_, err = repo.FindByID(ctx, category.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		err = repo.Delete(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("DeleteBatch", func(t *testing.T) {
		var ids []uuid.UUID
		for i := range 3 {
			category, err := catalog.NewProductCategory(fmt.Sprintf("Batch Category %d", i))
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, category))
			ids = append(ids, category.ID)
		}

		err := repo.DeleteBatch(ctx, ids[:2])
		require.NoError(t, err)

		_, err = repo.FindByID(ctx, ids[0])
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = repo.FindByID(ctx, ids[2])
		require.NoError(t, err)

		// No-op on an empty id list
		require.NoError(t, repo.DeleteBatch(ctx, nil))
	})

	t.Run("FindAll and Count", func(t *testing.T) {
		testDB.CleanTables()

		for _, name := range []string{"Alpha", "Beta", "Gamma"} {
			category, err := catalog.NewProductCategory(name)
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, category))
		}

		all, err := repo.FindAll(ctx, shared.Filter{})
		require.NoError(t, err)
		require.Len(t, all, 3)

		// Default ordering is by name
		assert.Equal(t, "Alpha", all[0].Name)
		assert.Equal(t, "Gamma", all[2].Name)

		count, err := repo.Count(ctx, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		found, err := repo.FindAll(ctx, shared.Filter{Search: "Bet"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Beta", found[0].Name)
	})
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estoque/internal/models"
	"estoque/internal/repositories"
)

func newCategoryFixture(t *testing.T) (*CategoryService, *repositories.MockCategoryRepository) {
	t.Helper()
	repo := repositories.NewMockCategoryRepository()
	return NewCategoryService(repo), repo
}

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("creates root category", func(t *testing.T) {
		service, _ := newCategoryFixture(t)
		category := &models.Category{Name: "Beverages"}
		require.NoError(t, service.CreateCategory(ctx, category))
		assert.True(t, category.IsActive)
		assert.NotEmpty(t, category.ID)
	})

	t.Run("creates subcategory under existing parent", func(t *testing.T) {
		service, repo := newCategoryFixture(t)
		require.NoError(t, repo.Create(ctx, &models.Category{ID: "root", Name: "Beverages", IsActive: true}))

		parentID := "root"
		child := &models.Category{Name: "Juices", ParentID: &parentID}
		require.NoError(t, service.CreateCategory(ctx, child))
	})

	t.Run("rejects unknown parent", func(t *testing.T) {
		service, _ := newCategoryFixture(t)
		parentID := "missing"
		err := service.CreateCategory(ctx, &models.Category{Name: "Juices", ParentID: &parentID})
		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})
}

func TestListCategories(t *testing.T) {
	ctx := context.Background()
	service, repo := newCategoryFixture(t)

	rootID := "root"
	require.NoError(t, repo.Create(ctx, &models.Category{ID: rootID, Name: "Beverages", IsActive: true}))
	require.NoError(t, repo.Create(ctx, &models.Category{ID: "child", Name: "Juices", ParentID: &rootID, IsActive: true}))
	require.NoError(t, repo.Create(ctx, &models.Category{ID: "off", Name: "Archive", IsActive: false}))

	t.Run("flat excludes inactive by default", func(t *testing.T) {
		list, err := service.ListCategories(ctx, false, false)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("flat with inactive", func(t *testing.T) {
		list, err := service.ListCategories(ctx, false, true)
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})

	t.Run("hierarchical returns roots with children", func(t *testing.T) {
		roots, err := service.ListCategories(ctx, true, false)
		require.NoError(t, err)
		require.Len(t, roots, 1)
		assert.Equal(t, "Beverages", roots[0].Name)
		require.Len(t, roots[0].Children, 1)
		assert.Equal(t, "Juices", roots[0].Children[0].Name)
	})
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("reparents under another category", func(t *testing.T) {
		service, repo := newCategoryFixture(t)
		require.NoError(t, repo.Create(ctx, &models.Category{ID: "a", Name: "A", IsActive: true}))
		require.NoError(t, repo.Create(ctx, &models.Category{ID: "b", Name: "B", IsActive: true}))

		parentID := "a"
		updated, err := service.UpdateCategory(ctx, "b", UpdateCategoryInput{ParentID: &parentID})
		require.NoError(t, err)
		require.NotNil(t, updated.ParentID)
		assert.Equal(t, "a", *updated.ParentID)
	})

	t.Run("cannot become its own parent", func(t *testing.T) {
		service, repo := newCategoryFixture(t)
		require.NoError(t, repo.Create(ctx, &models.Category{ID: "a", Name: "A", IsActive: true}))

		parentID := "a"
		_, err := service.UpdateCategory(ctx, "a", UpdateCategoryInput{ParentID: &parentID})
		assert.ErrorIs(t, err, ErrCategoryOwnParent)
	})

	t.Run("rejects unknown parent", func(t *testing.T) {
		service, repo := newCategoryFixture(t)
		require.NoError(t, repo.Create(ctx, &models.Category{ID: "a", Name: "A", IsActive: true}))

		parentID := "missing"
		_, err := service.UpdateCategory(ctx, "a", UpdateCategoryInput{ParentID: &parentID})
		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})

	t.Run("unknown category", func(t *testing.T) {
		service, _ := newCategoryFixture(t)
		name := "X"
		_, err := service.UpdateCategory(ctx, "missing", UpdateCategoryInput{Name: &name})
		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes empty category", func(t *testing.T) {
		service, _ := newCategoryFixture(t)
		require.NoError(t, service.CreateCategory(ctx, &models.Category{ID: "a", Name: "A"}))

		deactivated, err := service.DeleteCategory(ctx, "a")
		require.NoError(t, err)
		assert.False(t, deactivated)

		_, err = service.GetCategoryByID(ctx, "a")
		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})

	t.Run("deactivates category with products", func(t *testing.T) {
		service, repo := newCategoryFixture(t)
		require.NoError(t, repo.Create(ctx, &models.Category{ID: "a", Name: "A", IsActive: true}))
		repo.AttachProduct("a", "p1")

		deactivated, err := service.DeleteCategory(ctx, "a")
		require.NoError(t, err)
		assert.True(t, deactivated)

		category, err := service.GetCategoryByID(ctx, "a")
		require.NoError(t, err)
		assert.False(t, category.IsActive)
	})

	t.Run("deactivates category with subcategories", func(t *testing.T) {
		service, repo := newCategoryFixture(t)
		rootID := "root"
		require.NoError(t, repo.Create(ctx, &models.Category{ID: rootID, Name: "Root", IsActive: true}))
		require.NoError(t, repo.Create(ctx, &models.Category{ID: "child", Name: "Child", ParentID: &rootID, IsActive: true}))

		deactivated, err := service.DeleteCategory(ctx, rootID)
		require.NoError(t, err)
		assert.True(t, deactivated)
	})
}

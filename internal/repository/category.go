package repository

import (
	"context"

	"blog/internal/cache"
	"blog/internal/database"
	"blog/internal/models"
)

// CategoryRepository defines read operations over categories.
type CategoryRepository interface {
	List(ctx context.Context) []models.Category
}

type categoryRepository struct {
	store *database.Accessor
	cache *cache.Cache
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(store *database.Accessor, c *cache.Cache) CategoryRepository {
	return &categoryRepository{store: store, cache: c}
}

func (r *categoryRepository) List(ctx context.Context) []models.Category {
	categories := []models.Category{}
	db := r.store.DB(ctx)
	if db == nil {
		fallback(ctx, "categories.list", nil)
		return categories
	}

	err := r.cache.Aside(ctx, cache.CategoriesKey, &categories, cache.CategoriesTTL, func() (bool, error) {
		return true, db.Order("name ASC").Find(&categories).Error
	})
	if err != nil {
		fallback(ctx, "categories.list", err)
		return []models.Category{}
	}
	return nonNil(categories)
}

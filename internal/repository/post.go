package repository

import (
	"context"
	"errors"

	"blog/internal/cache"
	"blog/internal/database"
	"blog/internal/models"

	"gorm.io/gorm"
)

// PublishedPostsLimit caps the published post listing.
const PublishedPostsLimit = 20

const newestFirst = "published_at DESC NULLS LAST, id DESC"

// PostRepository defines read operations over published posts.
type PostRepository interface {
	ListPublished(ctx context.Context) []models.Post
	GetPublishedBySlug(ctx context.Context, slug string) *models.Post
	ListPublishedByCategory(ctx context.Context, categoryID uint) []models.Post
	ExistsPublished(ctx context.Context, id uint) (bool, error)
}

type postRepository struct {
	store *database.Accessor
	cache *cache.Cache
}

// NewPostRepository creates a new post repository
func NewPostRepository(store *database.Accessor, c *cache.Cache) PostRepository {
	return &postRepository{store: store, cache: c}
}

func (r *postRepository) published(ctx context.Context) *gorm.DB {
	db := r.store.DB(ctx)
	if db == nil {
		return nil
	}
	return db.Model(&models.Post{}).Where("published = ?", models.PostPublished)
}

func (r *postRepository) ListPublished(ctx context.Context) []models.Post {
	posts := []models.Post{}
	q := r.published(ctx)
	if q == nil {
		fallback(ctx, "posts.list", nil)
		return posts
	}

	err := r.cache.Aside(ctx, cache.PublishedPostsKey, &posts, cache.PublishedPostsTTL, func() (bool, error) {
		return true, q.Order(newestFirst).Limit(PublishedPostsLimit).Find(&posts).Error
	})
	if err != nil {
		fallback(ctx, "posts.list", err)
		return []models.Post{}
	}
	return nonNil(posts)
}

func (r *postRepository) GetPublishedBySlug(ctx context.Context, slug string) *models.Post {
	q := r.published(ctx)
	if q == nil {
		fallback(ctx, "posts.bySlug", nil)
		return nil
	}

	var post models.Post
	err := r.cache.Aside(ctx, cache.PostSlugKey(slug), &post, cache.PostTTL, func() (bool, error) {
		err := q.Where("slug = ?", slug).First(&post).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		fallback(ctx, "posts.bySlug", err)
		return nil
	}
	if post.ID == 0 {
		return nil
	}
	return &post
}

func (r *postRepository) ListPublishedByCategory(ctx context.Context, categoryID uint) []models.Post {
	posts := []models.Post{}
	q := r.published(ctx)
	if q == nil {
		fallback(ctx, "posts.byCategory", nil)
		return posts
	}

	err := r.cache.Aside(ctx, cache.CategoryPostsKey(categoryID), &posts, cache.CategoryPostsTTL, func() (bool, error) {
		return true, q.Where("category_id = ?", categoryID).Order(newestFirst).Find(&posts).Error
	})
	if err != nil {
		fallback(ctx, "posts.byCategory", err)
		return []models.Post{}
	}
	return nonNil(posts)
}

// ExistsPublished reports whether a published post with id exists. Unlike
// the read paths it fails when the store is unavailable.
func (r *postRepository) ExistsPublished(ctx context.Context, id uint) (bool, error) {
	q := r.published(ctx)
	if q == nil {
		return false, database.ErrUnavailable
	}
	var count int64
	if err := q.Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

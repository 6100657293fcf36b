// Package service holds the blog's business logic between the API surface
// and the repositories.
package service

import (
	"context"

	"blog/internal/models"
	"blog/internal/repository"
)

// ContentService serves the public read paths.
type ContentService struct {
	posts      repository.PostRepository
	categories repository.CategoryRepository
	comments   repository.CommentRepository
}

func NewContentService(
	posts repository.PostRepository,
	categories repository.CategoryRepository,
	comments repository.CommentRepository,
) *ContentService {
	return &ContentService{
		posts:      posts,
		categories: categories,
		comments:   comments,
	}
}

// ListPublishedPosts returns up to 20 published posts, newest first.
func (s *ContentService) ListPublishedPosts(ctx context.Context) []models.Post {
	return s.posts.ListPublished(ctx)
}

// GetPostBySlug returns the published post with slug, or nil.
func (s *ContentService) GetPostBySlug(ctx context.Context, slug string) *models.Post {
	if slug == "" {
		return nil
	}
	return s.posts.GetPublishedBySlug(ctx, slug)
}

func (s *ContentService) ListCategories(ctx context.Context) []models.Category {
	return s.categories.List(ctx)
}

func (s *ContentService) ListPostsByCategory(ctx context.Context, categoryID uint) []models.Post {
	if categoryID == 0 {
		return []models.Post{}
	}
	return s.posts.ListPublishedByCategory(ctx, categoryID)
}

// ListApprovedComments returns the approved comments on a post, newest first.
func (s *ContentService) ListApprovedComments(ctx context.Context, postID uint) []models.Comment {
	if postID == 0 {
		return []models.Comment{}
	}
	return s.comments.ListApprovedByPost(ctx, postID)
}

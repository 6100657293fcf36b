package service

import (
	"context"
	"testing"

	"blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentService_Reads(t *testing.T) {
	t.Parallel()

	postRepo := noopPostRepo()
	postRepo.listPublishedFn = func(_ context.Context) []models.Post {
		return []models.Post{{ID: 2, Slug: "b"}, {ID: 1, Slug: "a"}}
	}
	postRepo.getBySlugFn = func(_ context.Context, slug string) *models.Post {
		if slug == "a" {
			return &models.Post{ID: 1, Slug: "a"}
		}
		return nil
	}
	postRepo.listByCategoryFn = func(_ context.Context, id uint) []models.Post {
		return []models.Post{{ID: 5, CategoryID: &id}}
	}
	categories := &categoryRepoStub{listFn: func(_ context.Context) []models.Category {
		return []models.Category{{ID: 1, Name: "Go"}}
	}}
	comments := noopCommentRepo()
	comments.listApproved = func(_ context.Context, postID uint) []models.Comment {
		return []models.Comment{{ID: 9, PostID: postID, Approved: models.CommentApproved}}
	}

	svc := NewContentService(postRepo, categories, comments)
	ctx := context.Background()

	assert.Len(t, svc.ListPublishedPosts(ctx), 2)

	post := svc.GetPostBySlug(ctx, "a")
	require.NotNil(t, post)
	assert.Equal(t, uint(1), post.ID)
	assert.Nil(t, svc.GetPostBySlug(ctx, "zzz"))

	assert.Len(t, svc.ListCategories(ctx), 1)
	assert.Len(t, svc.ListPostsByCategory(ctx, 4), 1)
	assert.Len(t, svc.ListApprovedComments(ctx, 3), 1)
}

func TestContentService_ZeroInputsSkipStore(t *testing.T) {
	t.Parallel()

	postRepo := &postRepoStub{
		getBySlugFn: func(_ context.Context, _ string) *models.Post {
			t.Error("unexpected store call")
			return nil
		},
		listByCategoryFn: func(_ context.Context, _ uint) []models.Post {
			t.Error("unexpected store call")
			return nil
		},
	}
	comments := &commentRepoStub{listApproved: func(_ context.Context, _ uint) []models.Comment {
		t.Error("unexpected store call")
		return nil
	}}
	svc := NewContentService(postRepo, &categoryRepoStub{}, comments)
	ctx := context.Background()

	assert.Nil(t, svc.GetPostBySlug(ctx, ""))
	assert.NotNil(t, svc.ListPostsByCategory(ctx, 0))
	assert.NotNil(t, svc.ListApprovedComments(ctx, 0))
}

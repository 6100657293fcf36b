package seed

import (
	"context"
	"testing"

	"blog/internal/models"
	"blog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeederRun(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	opts := Options{Users: 4, Categories: 3, Posts: 10, CommentsPerPost: 3, DraftEvery: 5, Seed: 42}

	summary, err := New(db, opts).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Users)
	assert.Equal(t, 3, summary.Categories)
	assert.Equal(t, 10, summary.Posts)
	assert.Equal(t, 2, summary.Drafts)

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	require.Len(t, posts, 10)
	for _, p := range posts {
		if p.Published == models.PostDraft {
			assert.Nil(t, p.PublishedAt, p.Slug)
		} else {
			assert.NotNil(t, p.PublishedAt, p.Slug)
		}
		assert.Equal(t, p.Slug, Slugify(p.Slug), "slug %q is not normalized", p.Slug)
	}

	var comments []models.Comment
	require.NoError(t, db.Find(&comments).Error)
	assert.Len(t, comments, summary.Comments)
	for _, c := range comments {
		var post models.Post
		require.NoError(t, db.First(&post, c.PostID).Error)
		assert.Equal(t, models.PostPublished, post.Published, "comment %d on a draft", c.ID)
	}

	var pending int64
	require.NoError(t, db.Model(&models.Comment{}).Where("approved = ?", models.CommentPending).Count(&pending).Error)
	assert.EqualValues(t, summary.Pending, pending)
}

func TestSeederRunTwiceReusesCategories(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	opts := Options{Users: 1, Categories: 2, Posts: 2}

	_, err := New(db, opts).Run(context.Background())
	require.NoError(t, err)
	_, err = New(db, opts).Run(context.Background())
	require.NoError(t, err)

	var categories, posts int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.EqualValues(t, 2, categories)
	assert.EqualValues(t, 4, posts)
}

func TestSeederClean(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	_, err := New(db, Options{Users: 3, Categories: 2, Posts: 6, CommentsPerPost: 2}).Run(context.Background())
	require.NoError(t, err)

	summary, err := New(db, Options{Users: 1, Categories: 1, Posts: 1, Clean: true}).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Comments)

	var users, posts, comments int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.EqualValues(t, 1, users)
	assert.EqualValues(t, 1, posts)
	assert.Zero(t, comments)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello, World!":       "hello-world",
		"  Leading spaces":    "leading-spaces",
		"Go 1.26 released":    "go-1-26-released",
		"Open Source":         "open-source",
		"trailing---dashes--": "trailing-dashes",
		"":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

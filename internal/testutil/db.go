// Package testutil provides shared fixtures for blog tests.
package testutil

import (
	"testing"
	"time"

	"blog/internal/database"
	"blog/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a migrated in-memory SQLite database that lives for the
// duration of the test.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// NewAccessor returns an accessor over a fresh in-memory database.
func NewAccessor(t *testing.T) (*database.Accessor, *gorm.DB) {
	t.Helper()
	db := NewSQLiteDB(t)
	return database.NewAccessorWithDB(db), db
}

// CreateUser inserts a member with the given open ID.
func CreateUser(t *testing.T, db *gorm.DB, openID string) *models.User {
	t.Helper()
	u := &models.User{OpenID: openID, Role: models.RoleMember, LastSignedIn: time.Now()}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateCategory inserts a category.
func CreateCategory(t *testing.T, db *gorm.DB, name, slug string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, Slug: slug}
	require.NoError(t, db.Create(c).Error)
	return c
}

// PostOption customizes a post fixture.
type PostOption func(*models.Post)

// Draft leaves the post unpublished.
func Draft() PostOption {
	return func(p *models.Post) {
		p.Published = models.PostDraft
		p.PublishedAt = nil
	}
}

// PublishedAt sets the publish time.
func PublishedAt(at time.Time) PostOption {
	return func(p *models.Post) { p.PublishedAt = &at }
}

// InCategory attaches the post to a category.
func InCategory(id uint) PostOption {
	return func(p *models.Post) { p.CategoryID = &id }
}

// CreatePost inserts a post, published now unless options say otherwise.
func CreatePost(t *testing.T, db *gorm.DB, slug string, opts ...PostOption) *models.Post {
	t.Helper()
	now := time.Now()
	p := &models.Post{
		Title:       "Post " + slug,
		Slug:        slug,
		Content:     "Content of " + slug,
		Published:   models.PostPublished,
		PublishedAt: &now,
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateComment inserts a comment with the given approval state.
func CreateComment(t *testing.T, db *gorm.DB, postID, userID uint, content string, approved int) *models.Comment {
	t.Helper()
	c := &models.Comment{PostID: postID, UserID: userID, Content: content, Approved: approved}
	require.NoError(t, db.Create(c).Error)
	return c
}

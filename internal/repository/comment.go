package repository

import (
	"context"
	"errors"
	"log/slog"

	"blog/internal/cache"
	"blog/internal/database"
	"blog/internal/middleware"
	"blog/internal/models"

	"gorm.io/gorm"
)

// Pending listing bounds for the moderation queue.
const (
	DefaultPendingLimit = 50
	MaxPendingLimit     = 200
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, postID, userID uint, content string) (*models.Comment, error)
	ListApprovedByPost(ctx context.Context, postID uint) []models.Comment
	ListPending(ctx context.Context, limit int) ([]models.Comment, error)
	Approve(ctx context.Context, id uint) (*models.Comment, error)
}

type commentRepository struct {
	store *database.Accessor
	cache *cache.Cache
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(store *database.Accessor, c *cache.Cache) CommentRepository {
	return &commentRepository{store: store, cache: c}
}

// Create inserts a pending comment. It fails with UNAVAILABLE when no store
// is configured so a submitted comment is never silently dropped.
func (r *commentRepository) Create(ctx context.Context, postID, userID uint, content string) (*models.Comment, error) {
	db := r.store.DB(ctx)
	if db == nil {
		middleware.Logger.WarnContext(ctx, "cannot create comment: database not available")
		return nil, models.NewUnavailableError("Database not available")
	}

	comment := &models.Comment{
		PostID:   postID,
		UserID:   userID,
		Content:  content,
		Approved: models.CommentPending,
	}
	if err := db.Create(comment).Error; err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to create comment",
			slog.Uint64("post_id", uint64(postID)),
			slog.String("error", err.Error()))
		return nil, models.NewInternalError(err)
	}
	return comment, nil
}

func (r *commentRepository) ListApprovedByPost(ctx context.Context, postID uint) []models.Comment {
	comments := []models.Comment{}
	db := r.store.DB(ctx)
	if db == nil {
		fallback(ctx, "comments.byPostId", nil)
		return comments
	}

	err := r.cache.Aside(ctx, cache.PostCommentsKey(postID), &comments, cache.CommentsTTL, func() (bool, error) {
		return true, db.
			Where("post_id = ? AND approved = ?", postID, models.CommentApproved).
			Order("created_at DESC, id DESC").
			Find(&comments).Error
	})
	if err != nil {
		fallback(ctx, "comments.byPostId", err)
		return []models.Comment{}
	}
	return nonNil(comments)
}

// ListPending returns comments awaiting moderation, oldest first.
func (r *commentRepository) ListPending(ctx context.Context, limit int) ([]models.Comment, error) {
	if limit <= 0 {
		limit = DefaultPendingLimit
	}
	if limit > MaxPendingLimit {
		limit = MaxPendingLimit
	}

	db := r.store.DB(ctx)
	if db == nil {
		return nil, models.NewUnavailableError("Database not available")
	}

	var comments []models.Comment
	err := db.Where("approved = ?", models.CommentPending).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return nonNil(comments), nil
}

// Approve marks a comment approved and drops the cached listing for its post.
func (r *commentRepository) Approve(ctx context.Context, id uint) (*models.Comment, error) {
	db := r.store.DB(ctx)
	if db == nil {
		return nil, models.NewUnavailableError("Database not available")
	}

	var comment models.Comment
	if err := db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}

	if comment.Approved != models.CommentApproved {
		if err := db.Model(&comment).Update("approved", models.CommentApproved).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
		comment.Approved = models.CommentApproved
	}

	r.cache.Invalidate(ctx, cache.PostCommentsKey(comment.PostID))
	return &comment, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"blog/internal/database"
	"blog/internal/models"
	"blog/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// ValidateCommentContent checks the comment length in characters.
func ValidateCommentContent(content string) error {
	n := utf8.RuneCountInString(content)
	if n < models.CommentMinLength {
		return models.NewValidationError("Content is required")
	}
	if n > models.CommentMaxLength {
		return models.NewValidationError(fmt.Sprintf("Comment too long (max %d characters)", models.CommentMaxLength))
	}
	return nil
}

// CreateComment stores a pending comment on a published post.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Sign in to comment")
	}
	if in.PostID == 0 {
		return nil, models.NewValidationError("postId must be a positive integer")
	}
	if err := ValidateCommentContent(in.Content); err != nil {
		return nil, err
	}

	exists, err := s.postRepo.ExistsPublished(ctx, in.PostID)
	switch {
	case errors.Is(err, database.ErrUnavailable):
		return nil, models.NewUnavailableError("Database not available")
	case err != nil:
		return nil, models.NewInternalError(err)
	case !exists:
		return nil, models.NewNotFoundError("Post", in.PostID)
	}

	return s.commentRepo.Create(ctx, in.PostID, in.UserID, in.Content)
}

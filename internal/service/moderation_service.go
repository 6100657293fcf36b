package service

import (
	"context"

	"blog/internal/models"
	"blog/internal/repository"
)

// ModerationService moves comments from pending to approved. It is only
// reachable from operator tooling.
type ModerationService struct {
	commentRepo repository.CommentRepository
}

func NewModerationService(commentRepo repository.CommentRepository) *ModerationService {
	return &ModerationService{commentRepo: commentRepo}
}

func (s *ModerationService) ListPending(ctx context.Context, limit int) ([]models.Comment, error) {
	return s.commentRepo.ListPending(ctx, limit)
}

func (s *ModerationService) Approve(ctx context.Context, commentID uint) (*models.Comment, error) {
	if commentID == 0 {
		return nil, models.NewValidationError("comment id must be a positive integer")
	}
	return s.commentRepo.Approve(ctx, commentID)
}

package service

import (
	"context"
	"errors"
	"testing"

	"blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	listPublishedFn   func(context.Context) []models.Post
	getBySlugFn       func(context.Context, string) *models.Post
	listByCategoryFn  func(context.Context, uint) []models.Post
	existsPublishedFn func(context.Context, uint) (bool, error)
}

func (s *postRepoStub) ListPublished(ctx context.Context) []models.Post {
	return s.listPublishedFn(ctx)
}
func (s *postRepoStub) GetPublishedBySlug(ctx context.Context, slug string) *models.Post {
	return s.getBySlugFn(ctx, slug)
}
func (s *postRepoStub) ListPublishedByCategory(ctx context.Context, id uint) []models.Post {
	return s.listByCategoryFn(ctx, id)
}
func (s *postRepoStub) ExistsPublished(ctx context.Context, id uint) (bool, error) {
	return s.existsPublishedFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		listPublishedFn:   func(_ context.Context) []models.Post { return []models.Post{} },
		getBySlugFn:       func(_ context.Context, _ string) *models.Post { return nil },
		listByCategoryFn:  func(_ context.Context, _ uint) []models.Post { return []models.Post{} },
		existsPublishedFn: func(_ context.Context, _ uint) (bool, error) { return true, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn      func(context.Context, uint, uint, string) (*models.Comment, error)
	listApproved  func(context.Context, uint) []models.Comment
	listPendingFn func(context.Context, int) ([]models.Comment, error)
	approveFn     func(context.Context, uint) (*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, postID, userID uint, content string) (*models.Comment, error) {
	return s.createFn(ctx, postID, userID, content)
}
func (s *commentRepoStub) ListApprovedByPost(ctx context.Context, postID uint) []models.Comment {
	return s.listApproved(ctx, postID)
}
func (s *commentRepoStub) ListPending(ctx context.Context, limit int) ([]models.Comment, error) {
	return s.listPendingFn(ctx, limit)
}
func (s *commentRepoStub) Approve(ctx context.Context, id uint) (*models.Comment, error) {
	return s.approveFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, postID, userID uint, content string) (*models.Comment, error) {
			return &models.Comment{ID: 1, PostID: postID, UserID: userID, Content: content}, nil
		},
		listApproved:  func(_ context.Context, _ uint) []models.Comment { return []models.Comment{} },
		listPendingFn: func(_ context.Context, _ int) ([]models.Comment, error) { return []models.Comment{}, nil },
		approveFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, Approved: models.CommentApproved}, nil
		},
	}
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	listFn func(context.Context) []models.Category
}

func (s *categoryRepoStub) List(ctx context.Context) []models.Category {
	return s.listFn(ctx)
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	upsertFn      func(context.Context, models.UserUpsert) error
	getByOpenIDFn func(context.Context, string) *models.User
	getByIDFn     func(context.Context, uint) *models.User
	setRoleFn     func(context.Context, string, models.Role) error
	listByRoleFn  func(context.Context, models.Role) ([]models.User, error)
}

func (s *userRepoStub) Upsert(ctx context.Context, in models.UserUpsert) error {
	return s.upsertFn(ctx, in)
}
func (s *userRepoStub) GetByOpenID(ctx context.Context, openID string) *models.User {
	return s.getByOpenIDFn(ctx, openID)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) *models.User {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) SetRole(ctx context.Context, openID string, role models.Role) error {
	return s.setRoleFn(ctx, openID, role)
}
func (s *userRepoStub) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	return s.listByRoleFn(ctx, role)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		upsertFn:      func(_ context.Context, _ models.UserUpsert) error { return nil },
		getByOpenIDFn: func(_ context.Context, openID string) *models.User { return &models.User{ID: 1, OpenID: openID} },
		getByIDFn:     func(_ context.Context, id uint) *models.User { return &models.User{ID: id} },
		setRoleFn:     func(_ context.Context, _ string, _ models.Role) error { return nil },
		listByRoleFn:  func(_ context.Context, _ models.Role) ([]models.User, error) { return []models.User{}, nil },
	}
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

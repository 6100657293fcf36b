package service

import (
	"context"
	"time"

	"blog/internal/models"
	"blog/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

// SignInInput carries the identity attributes asserted at sign-in.
type SignInInput struct {
	OpenID      string
	Name        models.Optional[string]
	Email       models.Optional[string]
	LoginMethod models.Optional[string]
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, now: time.Now}
}

// Upsert creates or updates a user keyed by open ID.
func (s *UserService) Upsert(ctx context.Context, in models.UserUpsert) error {
	return s.userRepo.Upsert(ctx, in)
}

func (s *UserService) GetByOpenID(ctx context.Context, openID string) *models.User {
	if openID == "" {
		return nil
	}
	return s.userRepo.GetByOpenID(ctx, openID)
}

// RecordSignIn upserts the signed-in user with a fresh last_signed_in and
// returns the stored row. Without a store there is no row to return and the
// sign-in fails as unavailable.
func (s *UserService) RecordSignIn(ctx context.Context, in SignInInput) (*models.User, error) {
	if in.OpenID == "" {
		return nil, models.NewValidationError("User openId is required for upsert")
	}
	err := s.userRepo.Upsert(ctx, models.UserUpsert{
		OpenID:       in.OpenID,
		Name:         in.Name,
		Email:        in.Email,
		LoginMethod:  in.LoginMethod,
		LastSignedIn: models.Some(s.now()),
	})
	if err != nil {
		return nil, err
	}

	user := s.userRepo.GetByOpenID(ctx, in.OpenID)
	if user == nil {
		return nil, models.NewUnavailableError("Database not available")
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) *models.User {
	if id == 0 {
		return nil
	}
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) SetRole(ctx context.Context, openID string, role models.Role) error {
	if openID == "" {
		return models.NewValidationError("openId is required")
	}
	return s.userRepo.SetRole(ctx, openID, role)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListByRole(ctx, models.RoleAdmin)
}

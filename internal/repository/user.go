package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"blog/internal/database"
	"blog/internal/middleware"
	"blog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Upsert(ctx context.Context, in models.UserUpsert) error
	GetByOpenID(ctx context.Context, openID string) *models.User
	GetByID(ctx context.Context, id uint) *models.User
	SetRole(ctx context.Context, openID string, role models.Role) error
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

type userRepository struct {
	store       *database.Accessor
	ownerOpenID string
}

// NewUserRepository returns a UserRepository. A user whose open ID equals
// ownerOpenID is created as admin unless a role is given explicitly.
func NewUserRepository(store *database.Accessor, ownerOpenID string) UserRepository {
	return &userRepository{store: store, ownerOpenID: ownerOpenID}
}

// Upsert inserts the user or, on an open ID conflict, overwrites only the
// fields the caller provided. Text fields provided as null or empty are
// cleared. An upsert that provides nothing still refreshes last_signed_in.
func (r *userRepository) Upsert(ctx context.Context, in models.UserUpsert) error {
	if in.OpenID == "" {
		return models.NewValidationError("User openId is required for upsert")
	}

	db := r.store.DB(ctx)
	if db == nil {
		middleware.Logger.WarnContext(ctx, "cannot upsert user: database not available")
		return nil
	}

	now := time.Now()
	values := models.User{OpenID: in.OpenID, Role: models.RoleMember, LastSignedIn: now}
	updates := map[string]interface{}{}

	assignText := func(column string, field models.Optional[string], dest **string) {
		if !field.IsSet() {
			return
		}
		if v, ok := field.Get(); ok && v != "" {
			*dest = &v
			updates[column] = v
			return
		}
		updates[column] = nil
	}
	assignText("name", in.Name, &values.Name)
	assignText("email", in.Email, &values.Email)
	assignText("login_method", in.LoginMethod, &values.LoginMethod)

	if in.LastSignedIn.IsSet() {
		if t, ok := in.LastSignedIn.Get(); ok {
			values.LastSignedIn = t
		}
		updates["last_signed_in"] = values.LastSignedIn
	}

	switch {
	case in.Role.IsSet():
		if role, ok := in.Role.Get(); ok {
			values.Role = role
		}
		updates["role"] = values.Role
	case r.ownerOpenID != "" && in.OpenID == r.ownerOpenID:
		values.Role = models.RoleAdmin
		updates["role"] = models.RoleAdmin
	}

	if len(updates) == 0 {
		updates["last_signed_in"] = now
	}
	updates["updated_at"] = now

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "open_id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&values).Error
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to upsert user",
			slog.String("open_id", in.OpenID),
			slog.String("error", err.Error()))
		return models.NewInternalError(err)
	}
	return nil
}

// GetByOpenID returns the user or nil when there is no such user or no store.
func (r *userRepository) GetByOpenID(ctx context.Context, openID string) *models.User {
	db := r.store.DB(ctx)
	if db == nil {
		fallback(ctx, "users.byOpenId", nil)
		return nil
	}

	var user models.User
	if err := db.Where("open_id = ?", openID).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			fallback(ctx, "users.byOpenId", err)
		}
		return nil
	}
	return &user
}

func (r *userRepository) GetByID(ctx context.Context, id uint) *models.User {
	db := r.store.DB(ctx)
	if db == nil {
		fallback(ctx, "users.byId", nil)
		return nil
	}

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			fallback(ctx, "users.byId", err)
		}
		return nil
	}
	return &user
}

func (r *userRepository) SetRole(ctx context.Context, openID string, role models.Role) error {
	if !role.Valid() {
		return models.NewValidationError("unknown role " + string(role))
	}
	db := r.store.DB(ctx)
	if db == nil {
		return models.NewUnavailableError("Database not available")
	}

	res := db.Model(&models.User{}).Where("open_id = ?", openID).Updates(map[string]interface{}{
		"role":       role,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", openID)
	}
	return nil
}

func (r *userRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	db := r.store.DB(ctx)
	if db == nil {
		return nil, models.NewUnavailableError("Database not available")
	}
	var users []models.User
	if err := db.Where("role = ?", role).Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return nonNil(users), nil
}

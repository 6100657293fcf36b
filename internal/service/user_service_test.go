package service

import (
	"context"
	"testing"
	"time"

	"blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_RecordSignIn(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var got models.UserUpsert
	repo := noopUserRepo()
	repo.upsertFn = func(_ context.Context, in models.UserUpsert) error {
		got = in
		return nil
	}

	svc := NewUserService(repo)
	svc.now = func() time.Time { return fixed }

	user, err := svc.RecordSignIn(context.Background(), SignInInput{
		OpenID: "u-1",
		Name:   models.Some("Ada"),
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.OpenID)

	assert.Equal(t, "u-1", got.OpenID)
	ts, ok := got.LastSignedIn.Get()
	require.True(t, ok)
	assert.Equal(t, fixed, ts)
	name, _ := got.Name.Get()
	assert.Equal(t, "Ada", name)
	assert.False(t, got.Email.IsSet())
	assert.False(t, got.Role.IsSet(), "sign-in never sets the role")
}

func TestUserService_RecordSignInWithoutStore(t *testing.T) {
	t.Parallel()

	repo := noopUserRepo()
	repo.getByOpenIDFn = func(_ context.Context, _ string) *models.User { return nil }

	_, err := NewUserService(repo).RecordSignIn(context.Background(), SignInInput{OpenID: "u-1"})
	assertAppError(t, err, models.CodeUnavailable)
}

func TestUserService_RecordSignInUpsertError(t *testing.T) {
	t.Parallel()

	repo := noopUserRepo()
	repo.upsertFn = func(_ context.Context, _ models.UserUpsert) error {
		return models.NewInternalError(assert.AnError)
	}

	_, err := NewUserService(repo).RecordSignIn(context.Background(), SignInInput{OpenID: "u-1"})
	assertAppError(t, err, models.CodeInternal)
}

func TestUserService_Validation(t *testing.T) {
	t.Parallel()

	svc := NewUserService(noopUserRepo())
	ctx := context.Background()

	_, err := svc.RecordSignIn(ctx, SignInInput{})
	assertAppError(t, err, models.CodeValidation)
	assertAppError(t, svc.SetRole(ctx, "", models.RoleAdmin), models.CodeValidation)
	assert.Nil(t, svc.GetByOpenID(ctx, ""))
	assert.Nil(t, svc.GetByID(ctx, 0))
	assert.Equal(t, uint(9), svc.GetByID(ctx, 9).ID)
}

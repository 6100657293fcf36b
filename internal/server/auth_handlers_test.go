package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blog/internal/auth"
	"blog/internal/models"
	"blog/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Upsert(ctx context.Context, in models.UserUpsert) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *MockUserRepository) GetByOpenID(ctx context.Context, openID string) *models.User {
	args := m.Called(ctx, openID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.User)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) *models.User {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.User)
}

func (m *MockUserRepository) SetRole(ctx context.Context, openID string, role models.Role) error {
	args := m.Called(ctx, openID, role)
	return args.Error(0)
}

func (m *MockUserRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]models.User), args.Error(1)
}

func TestCreateSessionHandler(t *testing.T) {
	cfg := testConfig()
	signedIn := mock.MatchedBy(func(in models.UserUpsert) bool {
		at, ok := in.LastSignedIn.Get()
		return in.OpenID == "reader" && ok && time.Since(at) < time.Minute
	})

	tests := []struct {
		name           string
		mockSetup      func(m *MockUserRepository)
		expectedStatus int
	}{
		{
			name: "Success",
			mockSetup: func(m *MockUserRepository) {
				m.On("Upsert", mock.Anything, signedIn).Return(nil)
				m.On("GetByOpenID", mock.Anything, "reader").Return(&models.User{ID: 3, OpenID: "reader", Role: models.RoleMember}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Store failure",
			mockSetup: func(m *MockUserRepository) {
				m.On("Upsert", mock.Anything, signedIn).Return(models.NewInternalError(assert.AnError))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name: "Row not readable",
			mockSetup: func(m *MockUserRepository) {
				m.On("Upsert", mock.Anything, signedIn).Return(nil)
				m.On("GetByOpenID", mock.Anything, "reader").Return(nil)
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.mockSetup(mockRepo)
			s := &Server{
				config:      cfg,
				sessions:    auth.NewSessions(cfg),
				userService: service.NewUserService(mockRepo),
			}

			app := fiber.New()
			app.Post("/session", s.CreateSession)

			token := signAssertion(t, jwt.MapClaims{"sub": "reader"})
			req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(fmt.Sprintf(`{"token":%q}`, token)))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			assert.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			hasCookie := strings.Contains(resp.Header.Get("Set-Cookie"), cfg.SessionCookieName+"=")
			assert.Equal(t, tt.expectedStatus == http.StatusOK, hasCookie)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestCreateSessionIdentityNotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.IdentitySecret = ""
	mockRepo := new(MockUserRepository)
	s := &Server{config: cfg, sessions: auth.NewSessions(cfg), userService: service.NewUserService(mockRepo)}

	app := fiber.New()
	app.Post("/session", s.CreateSession)

	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"token":"anything"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	assert.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	mockRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

package server

import (
	"errors"
	"log/slog"

	"blog/internal/auth"
	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SessionRequest is the body of POST /api/auth/session.
type SessionRequest struct {
	Token string `json:"token"`
}

// Identity resolves the session on every API request. Anonymous requests
// pass through with no user in locals.
func (s *Server) Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := s.sessions.Authenticate(c, s.userService)
		if user != nil {
			c.Locals("user", user)
			c.Locals("userID", user.ID)
			c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))
		}
		return c.Next()
	}
}

// CreateSession exchanges an identity provider assertion for a session
// cookie, recording the sign-in on the user row.
func (s *Server) CreateSession(c *fiber.Ctx) error {
	var req SessionRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("token is required"))
	}

	assertion, err := s.sessions.VerifyAssertion(req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrIdentityNotConfigured) {
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				models.NewUnavailableError("Sign-in is not configured"))
		}
		middleware.Logger.WarnContext(c.UserContext(), "rejected identity assertion", slog.String("error", err.Error()))
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid identity assertion"))
	}

	user, err := s.userService.RecordSignIn(c.UserContext(), service.SignInInput{
		OpenID:      assertion.OpenID,
		Name:        assertion.Name,
		Email:       assertion.Email,
		LoginMethod: assertion.LoginMethod,
	})
	if err != nil {
		return models.RespondWithError(c, models.HTTPStatus(err), err)
	}

	name := ""
	if user.Name != nil {
		name = *user.Name
	}
	token, err := s.sessions.IssueSession(user.OpenID, name)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	s.sessions.SetSessionCookie(c, token)

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// LoginURL returns where unauthenticated clients should send users to sign in.
func (s *Server) LoginURL(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"url": s.config.LoginURL})
}

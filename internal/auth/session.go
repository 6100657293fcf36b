// Package auth issues and verifies blog sessions and resolves the signed-in
// user for a request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog/internal/config"
	"blog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionIssuer   = "blog-api"
	sessionAudience = "blog-client"

	// SessionTTL is how long a session cookie and its token stay valid.
	SessionTTL = 365 * 24 * time.Hour
)

// ErrIdentityNotConfigured is returned when no identity provider secret is set.
var ErrIdentityNotConfigured = errors.New("identity provider not configured")

// UserLookup resolves a user by open ID.
type UserLookup interface {
	GetByOpenID(ctx context.Context, openID string) *models.User
}

// Sessions signs session tokens and reads them back from requests.
type Sessions struct {
	secret         []byte
	identitySecret []byte
	identityIssuer string
	cookieName     string
	secure         bool
	now            func() time.Time
}

// NewSessions builds session handling from cfg.
func NewSessions(cfg *config.Config) *Sessions {
	return &Sessions{
		secret:         []byte(cfg.JWTSecret),
		identitySecret: []byte(cfg.IdentitySecret),
		identityIssuer: cfg.IdentityIssuer,
		cookieName:     cfg.SessionCookieName,
		secure:         cfg.IsProduction(),
		now:            time.Now,
	}
}

// CookieName returns the session cookie name.
func (s *Sessions) CookieName() string {
	return s.cookieName
}

// IssueSession signs a session token for openID.
func (s *Sessions) IssueSession(openID, name string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}
	if openID == "" {
		return "", fmt.Errorf("session subject is required")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub":  openID,
		"name": name,
		"iss":  sessionIssuer,
		"aud":  sessionAudience,
		"exp":  now.Add(SessionTTL).Unix(),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"jti":  uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseSession verifies a session token and returns its open ID.
func (s *Sessions) ParseSession(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithAudience(sessionAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("session token has no subject")
	}
	return sub, nil
}

// Assertion is the identity provider's statement about a signed-in user.
// Claims missing from the token stay unset so they do not overwrite stored
// values.
type Assertion struct {
	OpenID      string
	Name        models.Optional[string]
	Email       models.Optional[string]
	LoginMethod models.Optional[string]
}

// VerifyAssertion checks an identity provider token signed with the shared
// identity secret.
func (s *Sessions) VerifyAssertion(tokenString string) (*Assertion, error) {
	if len(s.identitySecret) == 0 {
		return nil, ErrIdentityNotConfigured
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.identityIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.identityIssuer))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (interface{}, error) {
		return s.identitySecret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("identity assertion has no subject")
	}

	return &Assertion{
		OpenID:      sub,
		Name:        claimText(claims, "name"),
		Email:       claimText(claims, "email"),
		LoginMethod: claimText(claims, "login_method"),
	}, nil
}

func claimText(claims jwt.MapClaims, key string) models.Optional[string] {
	v, ok := claims[key]
	if !ok {
		return models.Optional[string]{}
	}
	if v == nil {
		return models.Null[string]()
	}
	s, ok := v.(string)
	if !ok {
		return models.Optional[string]{}
	}
	return models.OptionalString(s, true)
}

// TokenFromRequest returns the session token from the cookie, falling back
// to an Authorization bearer header.
func (s *Sessions) TokenFromRequest(c *fiber.Ctx) string {
	if token := c.Cookies(s.cookieName); token != "" {
		return token
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Authenticate resolves the signed-in user. Missing, invalid or expired
// sessions and unknown users all yield nil.
func (s *Sessions) Authenticate(c *fiber.Ctx, users UserLookup) *models.User {
	token := s.TokenFromRequest(c)
	if token == "" {
		return nil
	}
	openID, err := s.ParseSession(token)
	if err != nil {
		return nil
	}
	return users.GetByOpenID(c.UserContext(), openID)
}

// SetSessionCookie writes the session cookie.
func (s *Sessions) SetSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		Expires:  s.now().Add(SessionTTL),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie with the same attributes it
// was set with.
func (s *Sessions) ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	strong := "secure-secret-at-least-32-chars-long"

	tests := []struct {
		name        string
		cfg         Config
		expectError bool
	}{
		{
			name: "Development defaults",
			cfg:  Config{Env: "development", Port: "8375", JWTSecret: defaultJWTSecret, SessionCookieName: "sid", TracingSampleRatio: 1},
		},
		{
			name:        "Missing port",
			cfg:         Config{Env: "development", JWTSecret: strong, SessionCookieName: "sid"},
			expectError: true,
		},
		{
			name:        "Missing JWT secret",
			cfg:         Config{Env: "development", Port: "8375", SessionCookieName: "sid"},
			expectError: true,
		},
		{
			name:        "Missing cookie name",
			cfg:         Config{Env: "development", Port: "8375", JWTSecret: strong},
			expectError: true,
		},
		{
			name:        "Sample ratio out of range",
			cfg:         Config{Env: "development", Port: "8375", JWTSecret: strong, SessionCookieName: "sid", TracingSampleRatio: 1.5},
			expectError: true,
		},
		{
			name:        "Production with default secret",
			cfg:         Config{Env: "production", Port: "8375", JWTSecret: defaultJWTSecret, IdentitySecret: strong, SessionCookieName: "sid"},
			expectError: true,
		},
		{
			name:        "Production with short identity secret",
			cfg:         Config{Env: "prod", Port: "8375", JWTSecret: strong, IdentitySecret: "short", SessionCookieName: "sid"},
			expectError: true,
		},
		{
			name: "Production without database still starts",
			cfg:  Config{Env: "production", Port: "8375", JWTSecret: strong, IdentitySecret: strong, SessionCookieName: "sid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL", "  sqlite://blog.db  ")
	t.Setenv("OWNER_OPEN_ID", "owner-123")
	t.Setenv("PORT", "9000")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite://blog.db", c.DatabaseURL)
	assert.Equal(t, "owner-123", c.OwnerOpenID)
	assert.Equal(t, "9000", c.Port)
	assert.Equal(t, "app_session_id", c.SessionCookieName)
	assert.False(t, c.IsProduction())
}

func TestLoadConfig_EmptyDatabaseURLIsAllowed(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL", "")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, c.DatabaseURL)
}

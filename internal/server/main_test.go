package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"blog/internal/config"
	"blog/internal/database"
	"blog/internal/models"
	"blog/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testJWTSecret      = "test-session-secret-0123456789abcdef"
	testIdentitySecret = "test-identity-secret-0123456789abcdef"
	testOwnerOpenID    = "owner-open-id"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Env:                "test",
		OwnerOpenID:        testOwnerOpenID,
		JWTSecret:          testJWTSecret,
		IdentitySecret:     testIdentitySecret,
		IdentityIssuer:     "blog-identity",
		SessionCookieName:  "app_session_id",
		LoginURL:           "https://id.example.com/login",
		TracingSampleRatio: 1,
	}
}

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
}

// newTestEnv builds a server over an in-memory SQLite store. Pass a nil-handle
// accessor through store to run without a database.
func newTestEnv(t *testing.T, store *database.Accessor, rdb *redis.Client) *testEnv {
	t.Helper()
	var db *gorm.DB
	if store == nil {
		store, db = testutil.NewAccessor(t)
	}

	srv, err := NewServerWithDeps(testConfig(), store, rdb)
	require.NoError(t, err)

	app := srv.NewApp()
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	return &testEnv{server: srv, app: app, db: db}
}

type rpcResponse struct {
	Status int
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
	Code   string          `json:"code"`
	Header http.Header
}

func (e *testEnv) do(t *testing.T, req *http.Request) rpcResponse {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := rpcResponse{Status: resp.StatusCode, Header: resp.Header}
	if len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &out), "body: %s", body)
	}
	return out
}

// query calls a query procedure. input may be empty.
func (e *testEnv) query(t *testing.T, name, input string, cookies ...*http.Cookie) rpcResponse {
	t.Helper()
	target := "/api/rpc/" + name
	if input != "" {
		target += "?input=" + url.QueryEscape(input)
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(t, req)
}

// mutate calls a mutation procedure with a JSON body.
func (e *testEnv) mutate(t *testing.T, name, body string, cookies ...*http.Cookie) rpcResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/rpc/"+name, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(t, req)
}

// signIn creates a user and returns a session cookie for it.
func (e *testEnv) signIn(t *testing.T, openID string) (*models.User, *http.Cookie) {
	t.Helper()
	user := testutil.CreateUser(t, e.db, openID)
	token, err := e.server.sessions.IssueSession(openID, "")
	require.NoError(t, err)
	return user, &http.Cookie{Name: "app_session_id", Value: token}
}

func decodeResult[T any](t *testing.T, r rpcResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(r.Result, &out), "result: %s", r.Result)
	return out
}

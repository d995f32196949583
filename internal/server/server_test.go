package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatapp/internal/config"
	"chatapp/internal/models"
	"chatapp/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret-key-12345678901234567890123456789012"

type testEnv struct {
	t         *testing.T
	db        *gorm.DB
	mr        *miniredis.Miniredis
	srv       *Server
	app       *fiber.App
	uploadDir string
}

type envelope struct {
	Meta models.Meta     `json:"meta"`
	Data json.RawMessage `json:"data"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db := testutil.NewTestDB(t)
	mr, rdb := testutil.NewTestRedis(t)
	uploadDir := t.TempDir()

	cfg := &config.Config{
		Port:             "3333",
		Env:              "test",
		AppURL:           "http://localhost:3333",
		AppName:          "Chat App API",
		JWTSecret:        testJWTSecret,
		JWTTTLHours:      24 * 7,
		LoginFailureMode: config.LoginFailureValidation,
		UploadDir:        uploadDir,
		UploadMaxSizeMB:  2,
		StorageDriver:    "local",
	}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	srv.authService.SetBcryptCost(bcrypt.MinCost)

	return &testEnv{t: t, db: db, mr: mr, srv: srv, app: srv.NewApp(), uploadDir: uploadDir}
}

// user creates a user and returns it with a valid bearer token.
func (e *testEnv) user(username string) (*models.User, string) {
	e.t.Helper()
	u := testutil.CreateUser(e.t, e.db, username)
	token, _, err := e.srv.authService.IssueToken(u)
	require.NoError(e.t, err)
	return u, token
}

func (e *testEnv) do(method, path, token string, body any) (int, envelope) {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return e.send(req, token)
}

func newRawRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func (e *testEnv) upload(path, token, field, filename string, content []byte) (int, envelope) {
	e.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(e.t, err)
	_, err = part.Write(content)
	require.NoError(e.t, err)
	require.NoError(e.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return e.send(req, token)
}

func (e *testEnv) send(req *http.Request, token string) (int, envelope) {
	e.t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	if len(raw) > 0 {
		require.NoError(e.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}

func TestWelcome(t *testing.T) {
	e := newTestEnv(t)

	status, env := e.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.Meta{Status: 200, Message: "Welcome to Chat App API"}, env.Meta)
	assert.Equal(t, map[string]string{"name": "Chat App API", "version": "1.0.0"}, decode[map[string]string](t, env))
}

func TestHealthChecks(t *testing.T) {
	e := newTestEnv(t)

	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = e.app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	e.mr.Close()
	resp, err = e.app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.user("ann")

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"bearer header", "Bearer " + token, "", http.StatusOK},
		{"lowercase scheme", "bearer " + token, "", http.StatusOK},
		{"query param", "", token, http.StatusOK},
		{"wrong scheme", "Basic " + token, "", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/users/me"
			if tt.query != "" {
				path += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			status, env := e.send(req, "")
			assert.Equal(t, tt.status, status)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "Unauthorized access please login", env.Meta.Message)
			}
		})
	}
}

func TestUnknownRouteRendersEnvelope(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.user("ann")

	status, env := e.do(http.MethodGet, "/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 404, env.Meta.Status)
}

func TestMapServiceError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, mapServiceError(models.NewBadRequestError("x")))
	assert.Equal(t, http.StatusBadRequest, mapServiceError(models.NewFieldValidationError()))
	assert.Equal(t, http.StatusUnauthorized, mapServiceError(models.NewUnauthorizedError("x")))
	assert.Equal(t, http.StatusForbidden, mapServiceError(models.NewForbiddenError("x")))
	assert.Equal(t, http.StatusNotFound, mapServiceError(models.NewNotFoundError("Group")))
	assert.Equal(t, http.StatusInternalServerError, mapServiceError(io.EOF))
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("  bearer   abc "))
	assert.Empty(t, bearerToken("Bearer"))
	assert.Empty(t, bearerToken("Token abc"))
	assert.Empty(t, bearerToken(""))
}

package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/xyz-asif/oipet/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:           "test",
		FrontendURL:      "http://localhost:3000",
		StoreDriver:      "memory",
		JWTSecret:        "integration-access-secret",
		JWTRefreshSecret: "integration-refresh-secret",
		JWTExpiresIn:     time.Hour,
		JWTRefreshIn:     24 * time.Hour,
		BcryptCost:       4,
		RateLimitAuth:    100,
		RateLimitWindow:  time.Minute,
	}
}

func newApp(t *testing.T, cfg *config.Config, rdb *redis.Client) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := SetupRoutes(t.Context(), Deps{Config: cfg, Redis: rdb})
	require.NoError(t, err)
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func send(t *testing.T, h http.Handler, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

type session struct {
	AccessToken  string
	RefreshToken string
}

func register(t *testing.T, h http.Handler, name, email string) session {
	t.Helper()
	code, env := send(t, h, http.MethodPost, "/api/auth/register", "", gin.H{"name": name, "email": email, "password": "Abc123"})
	require.Equal(t, http.StatusCreated, code, env.Error)

	var data struct {
		Tokens struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return session{AccessToken: data.Tokens.AccessToken, RefreshToken: data.Tokens.RefreshToken}
}

func TestRegisterLoginAndOwnership(t *testing.T) {
	app := newApp(t, testConfig(), nil)
	h := app.Router

	alice := register(t, h, "A", "a@x.com")

	code, _ := send(t, h, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.com", "password": "Abc123"})
	require.Equal(t, http.StatusOK, code)

	code, env := send(t, h, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.com", "password": "Wrong123"})
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "INVALID_CREDENTIALS", env.Code)

	code, env = send(t, h, http.MethodPost, "/api/pets", alice.AccessToken,
		gin.H{"name": "Rex", "species": "dog", "birthDate": "2020-01-01", "weight": 20, "gender": "male"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var pet struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pet))

	code, _ = send(t, h, http.MethodPost, "/api/health/pets/"+pet.ID+"/records", alice.AccessToken,
		gin.H{"weight": 20.5, "mood": "happy"})
	require.Equal(t, http.StatusCreated, code)

	bob := register(t, h, "Bob", "b@x.com")
	code, env = send(t, h, http.MethodGet, "/api/pets/"+pet.ID, bob.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "NOT_FOUND", env.Code)

	code, _ = send(t, h, http.MethodGet, "/api/health/pets/"+pet.ID+"/records", bob.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, code)

	code, _ = send(t, h, http.MethodGet, "/api/admin/dashboard", alice.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, code)

	code, _ = send(t, h, http.MethodGet, "/api/pets", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminEmailGetsDashboard(t *testing.T) {
	cfg := testConfig()
	cfg.AdminEmails = []string{"root@oipet.com"}
	h := newApp(t, cfg, nil).Router

	root := register(t, h, "Root", "root@oipet.com")
	register(t, h, "Ana", "ana@x.com")

	code, env := send(t, h, http.MethodGet, "/api/admin/dashboard", root.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	var d struct {
		Users struct {
			Total  int `json:"total"`
			Admins int `json:"admins"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &d))
	require.Equal(t, 2, d.Users.Total)
	require.Equal(t, 1, d.Users.Admins)
}

func TestRedisBackedLimiterAndDenylist(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	cfg.RateLimitAuth = 4
	h := newApp(t, cfg, rdb).Router

	s := register(t, h, "A", "a@x.com")

	code, _ := send(t, h, http.MethodPost, "/api/auth/logout", s.AccessToken, gin.H{"refreshToken": s.RefreshToken})
	require.Equal(t, http.StatusOK, code)

	code, env := send(t, h, http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": s.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "INVALID_REFRESH_TOKEN", env.Code)

	// register and refresh used two of the four credential requests
	send(t, h, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.com", "password": "Abc123"})
	send(t, h, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.com", "password": "Abc123"})
	code, env = send(t, h, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.com", "password": "Abc123"})
	require.Equal(t, http.StatusTooManyRequests, code)
	require.Equal(t, "RATE_LIMITED", env.Code)
}

func TestMonitoringEndpoints(t *testing.T) {
	h := newApp(t, testConfig(), nil).Router

	code, env := send(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(env.Data), `"store":"memory"`)

	code, _ = send(t, h, http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = send(t, h, http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "NOT_FOUND", env.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "oipet_http_requests_total")
}

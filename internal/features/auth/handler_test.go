package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xyz-asif/oipet/internal/middleware"
)

func setupRouter(t *testing.T, exposeTokens bool) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := newFixture(t)

	r := gin.New()
	api := r.Group("/api")
	RegisterRoutes(api, NewHandler(f.svc, exposeTokens), middleware.Authenticate(f.svc), nil)
	return r, f
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details []string        `json:"details"`
}

func call(t *testing.T, r http.Handler, method, path, token string, body any) (int, envelope, string) {
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
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env, w.Body.String()
}

func TestRegisterLoginHTTP(t *testing.T) {
	r, _ := setupRouter(t, false)

	code, env, raw := call(t, r, http.MethodPost, "/api/auth/register", "",
		gin.H{"name": "A", "email": "a@x.com", "password": "Abc123"})
	require.Equal(t, http.StatusCreated, code)
	require.True(t, env.Success)
	require.NotContains(t, raw, "password\"")
	require.NotContains(t, raw, "verificationToken")

	var reg AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &reg))
	require.NotEmpty(t, reg.Tokens.AccessToken)

	code, _, _ = call(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.com", "password": "Abc123"})
	require.Equal(t, http.StatusOK, code)

	code, env, _ = call(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, code)
	require.False(t, env.Success)
	require.Equal(t, "INVALID_CREDENTIALS", env.Code)

	code, env, _ = call(t, r, http.MethodPost, "/api/auth/register", "",
		gin.H{"name": "A", "email": "a@x.com", "password": "Abc123"})
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "DUPLICATE_EMAIL", env.Code)

	code, env, _ = call(t, r, http.MethodGet, "/api/auth/me", reg.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(env.Data), "a@x.com")
}

func TestRegisterValidationHTTP(t *testing.T) {
	r, _ := setupRouter(t, false)

	code, env, _ := call(t, r, http.MethodPost, "/api/auth/register", "",
		gin.H{"name": "A", "email": "a@x.com", "password": "abc"})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "VALIDATION_ERROR", env.Code)
	require.GreaterOrEqual(t, len(env.Details), 3)
}

func TestRefreshAndLogoutHTTP(t *testing.T) {
	r, _ := setupRouter(t, false)

	_, env, _ := call(t, r, http.MethodPost, "/api/auth/register", "",
		gin.H{"name": "A", "email": "a@x.com", "password": "Abc123"})
	var reg AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &reg))

	code, env, _ := call(t, r, http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": reg.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(env.Data), "accessToken")

	code, env, _ = call(t, r, http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": reg.Tokens.AccessToken})
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "INVALID_REFRESH_TOKEN", env.Code)

	code, env, _ = call(t, r, http.MethodPost, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "MISSING_TOKEN", env.Code)

	code, _, _ = call(t, r, http.MethodPost, "/api/auth/logout", reg.Tokens.AccessToken,
		gin.H{"refreshToken": reg.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, code)

	code, _, _ = call(t, r, http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": reg.Tokens.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestForgotPasswordNeverRevealsAccounts(t *testing.T) {
	r, _ := setupRouter(t, false)
	call(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"name": "A", "email": "a@x.com", "password": "Abc123"})

	codeKnown, known, _ := call(t, r, http.MethodPost, "/api/auth/forgot-password", "", gin.H{"email": "a@x.com"})
	codeGhost, ghost, _ := call(t, r, http.MethodPost, "/api/auth/forgot-password", "", gin.H{"email": "ghost@x.com"})

	require.Equal(t, http.StatusOK, codeKnown)
	require.Equal(t, codeKnown, codeGhost)
	require.Equal(t, known, ghost)
}

func TestForgotAndResetPasswordInDevelopment(t *testing.T) {
	r, _ := setupRouter(t, true)
	call(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"name": "A", "email": "a@x.com", "password": "Abc123"})

	_, env, _ := call(t, r, http.MethodPost, "/api/auth/forgot-password", "", gin.H{"email": "a@x.com"})
	var out ForgotPasswordResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out.ResetToken, 64)

	code, _, _ := call(t, r, http.MethodPost, "/api/auth/reset-password", "", gin.H{"token": out.ResetToken, "password": "NewPass1"})
	require.Equal(t, http.StatusOK, code)

	code, env, _ = call(t, r, http.MethodPost, "/api/auth/reset-password", "", gin.H{"token": out.ResetToken, "password": "NewPass1"})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "INVALID_OR_EXPIRED_TOKEN", env.Code)
}

func TestFCMTokenHTTP(t *testing.T) {
	r, _ := setupRouter(t, false)
	_, env, _ := call(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"name": "A", "email": "a@x.com", "password": "Abc123"})
	var reg AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &reg))

	code, _, _ := call(t, r, http.MethodPut, "/api/auth/fcm-token", reg.Tokens.AccessToken, gin.H{"fcmToken": "device-1"})
	require.Equal(t, http.StatusOK, code)

	code, _, _ = call(t, r, http.MethodPut, "/api/auth/fcm-token", "", gin.H{"fcmToken": "device-1"})
	require.Equal(t, http.StatusUnauthorized, code)
}

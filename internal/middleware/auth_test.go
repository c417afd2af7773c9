package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

type stubAuthenticator struct {
	principals map[string]*Principal
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*Principal, error) {
	if p, ok := s.principals[token]; ok {
		return p, nil
	}
	return nil, apperrors.ErrUnauthorized
}

func setupAuthRouter() (*gin.Engine, *Principal) {
	gin.SetMode(gin.TestMode)
	user := &Principal{ID: primitive.NewObjectID(), Email: "user@example.com"}
	admin := &Principal{ID: primitive.NewObjectID(), Email: "admin@example.com", IsAdmin: true}
	auth := stubAuthenticator{principals: map[string]*Principal{"user-token": user, "admin-token": admin}}

	r := gin.New()
	r.GET("/protected", Authenticate(auth), func(c *gin.Context) {
		p := MustPrincipal(c)
		fromCtx, ok := PrincipalFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": p.ID.Hex(), "ctx": ok && fromCtx.ID == p.ID})
	})
	r.GET("/admin", Authenticate(auth), RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r, user
}

func doRequest(r http.Handler, path, authHeader string) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestAuthenticate_NoHeader(t *testing.T) {
	r, _ := setupAuthRouter()

	w, body := doRequest(r, "/protected", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, false, body["success"])
	require.Equal(t, "MISSING_TOKEN", body["code"])
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	r, _ := setupAuthRouter()

	w, body := doRequest(r, "/protected", "Token user-token")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "MISSING_TOKEN", body["code"])
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	r, _ := setupAuthRouter()

	w, body := doRequest(r, "/protected", "Bearer nope")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "INVALID_TOKEN", body["code"])
}

func TestAuthenticate_Valid(t *testing.T) {
	r, user := setupAuthRouter()

	w, body := doRequest(r, "/protected", "bearer user-token")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, user.ID.Hex(), body["id"])
	require.Equal(t, true, body["ctx"])
}

func TestRequireAdmin(t *testing.T) {
	r, _ := setupAuthRouter()

	w, body := doRequest(r, "/admin", "Bearer user-token")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "FORBIDDEN", body["code"])

	w, _ = doRequest(r, "/admin", "Bearer admin-token")
	require.Equal(t, http.StatusOK, w.Code)
}

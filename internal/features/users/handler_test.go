package users

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xyz-asif/oipet/internal/middleware"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

type singleUser struct{ p *middleware.Principal }

func (s singleUser) Authenticate(_ context.Context, token string) (*middleware.Principal, error) {
	if token != "ana" {
		return nil, apperrors.ErrUnauthorized
	}
	return s.p, nil
}

func newRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	r := gin.New()
	authn := singleUser{p: &middleware.Principal{ID: f.user.ID, Email: f.user.Email}}
	RegisterRoutes(r.Group("/api"), NewHandler(f.svc), middleware.Authenticate(authn))
	return r, f
}

func call(t *testing.T, r http.Handler, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer ana")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestProfileRoutes(t *testing.T) {
	r, f := newRouter(t)

	code, body := call(t, r, http.MethodGet, "/api/users/profile", nil)
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	require.Equal(t, "ana@oipet.com", data["email"])
	require.NotContains(t, data, "password")
	require.NotContains(t, data, "fcmToken")

	// email and isAdmin are not part of the request type and are ignored
	code, body = call(t, r, http.MethodPut, "/api/users/profile", gin.H{"name": "Ana S", "email": "x@x.com", "isAdmin": true})
	require.Equal(t, http.StatusOK, code)
	data = body["data"].(map[string]any)
	require.Equal(t, "Ana S", data["name"])
	require.Equal(t, "ana@oipet.com", data["email"])
	require.Equal(t, false, data["isAdmin"])

	code, body = call(t, r, http.MethodPut, "/api/users/change-password", gin.H{"currentPassword": "Abc123"})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "VALIDATION_ERROR", body["code"])

	code, _ = call(t, r, http.MethodPut, "/api/users/change-password", gin.H{"currentPassword": "Abc123", "newPassword": "Xyz789"})
	require.Equal(t, http.StatusOK, code)
	require.Len(t, f.passwords.calls, 1)

	code, _ = call(t, r, http.MethodDelete, "/api/users/account", nil)
	require.Equal(t, http.StatusOK, code)
	stored, err := f.store.FindByID(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)
}

func TestProfileRequiresToken(t *testing.T) {
	r, _ := newRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAvatarUpload(t *testing.T) {
	r, _ := newRouter(t)

	upload := func(filename string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, _ = part.Write([]byte("\x89PNG"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/users/avatar", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer ana")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusBadRequest, upload("me.svg").Code)

	w := upload("me.jpg")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "https://cdn.example/users/avatar1")
}

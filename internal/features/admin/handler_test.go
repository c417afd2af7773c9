package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xyz-asif/oipet/internal/features/auth"
	"github.com/xyz-asif/oipet/internal/middleware"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

// storeAuth resolves the bearer token as an email in the user store.
type storeAuth struct{ users *auth.MemoryStore }

func (a storeAuth) Authenticate(ctx context.Context, token string) (*middleware.Principal, error) {
	u, err := a.users.FindByEmail(ctx, token)
	if err != nil || u == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return &middleware.Principal{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}, nil
}

func request(t *testing.T, r http.Handler, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestAdminRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	ana := f.addUser(t, "ana@x.com", false, testNow)

	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(f.svc), middleware.Authenticate(storeAuth{users: f.users}))

	code, body := request(t, r, http.MethodGet, "/api/admin/dashboard", "ana@x.com", nil)
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "FORBIDDEN", body["code"])

	code, body = request(t, r, http.MethodGet, "/api/admin/dashboard", "root@oipet.com", nil)
	require.Equal(t, http.StatusOK, code)
	users := body["data"].(map[string]any)["users"].(map[string]any)
	require.Equal(t, float64(2), users["total"])

	code, body = request(t, r, http.MethodGet, "/api/admin/reports/MONTHLY", "root@oipet.com", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "monthly", body["data"].(map[string]any)["period"])

	code, body = request(t, r, http.MethodGet, "/api/admin/reports/hourly", "root@oipet.com", nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "VALIDATION_ERROR", body["code"])

	code, body = request(t, r, http.MethodGet, "/api/admin/users?limit=1", "root@oipet.com", nil)
	require.Equal(t, http.StatusOK, code)
	page := body["data"].(map[string]any)
	require.Len(t, page["items"], 1)
	require.Equal(t, float64(2), page["pagination"].(map[string]any)["total"])

	code, _ = request(t, r, http.MethodGet, "/api/admin/users/not-an-id", "root@oipet.com", nil)
	require.Equal(t, http.StatusNotFound, code)

	code, body = request(t, r, http.MethodPut, "/api/admin/users/"+ana.ID.Hex(), "root@oipet.com",
		gin.H{"isEmailVerified": true, "email": "evil@x.com"})
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	require.Equal(t, true, data["isEmailVerified"])
	require.Equal(t, "ana@x.com", data["email"])

	code, body = request(t, r, http.MethodDelete, "/api/admin/users/"+f.admin.ID.Hex(), "root@oipet.com", nil)
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "FORBIDDEN", body["code"])

	code, _ = request(t, r, http.MethodDelete, "/api/admin/users/"+ana.ID.Hex(), "root@oipet.com", nil)
	require.Equal(t, http.StatusOK, code)

	code, body = request(t, r, http.MethodGet, "/api/admin/users/"+ana.ID.Hex(), "root@oipet.com", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "USER_NOT_FOUND", body["code"])
}

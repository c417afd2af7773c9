package notifications

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

// emailAuth uses the bearer token as the user's email.
type emailAuth struct{ users *auth.MemoryStore }

func (a emailAuth) Authenticate(ctx context.Context, token string) (*middleware.Principal, error) {
	u, _ := a.users.FindByEmail(ctx, token)
	if u == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return &middleware.Principal{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}, nil
}

func TestNotificationRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	alice := f.user(t, "alice@x.com", "", true, false)
	f.user(t, "bob@x.com", "", true, false)
	f.user(t, "boss@x.com", "", true, true)

	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(f.svc), middleware.Authenticate(emailAuth{f.users}))

	call := func(method, path, token string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	send := gin.H{"userId": alice.ID.Hex(), "title": "Hi", "message": "Welcome", "type": "system"}
	w := call(http.MethodPost, "/api/notifications/admin/send", "alice@x.com", send)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = call(http.MethodPost, "/api/notifications/admin/send", "boss@x.com", send)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Data.ID.Hex()

	w = call(http.MethodPut, "/api/notifications/"+id+"/read", "bob@x.com", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	w = call(http.MethodDelete, "/api/notifications/"+id, "bob@x.com", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = call(http.MethodGet, "/api/notifications/unread", "alice@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"unreadCount":1`)

	w = call(http.MethodPut, "/api/notifications/"+id+"/read", "alice@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = call(http.MethodGet, "/api/notifications?unreadOnly=true", "alice@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"items":[]`)

	w = call(http.MethodDelete, "/api/notifications/admin/cleanup", "boss@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"deleted":0`)
}

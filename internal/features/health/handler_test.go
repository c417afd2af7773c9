package health

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xyz-asif/oipet/internal/middleware"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

type fixtureAuth struct{ f *fixture }

func (a fixtureAuth) Authenticate(_ context.Context, token string) (*middleware.Principal, error) {
	switch token {
	case "alice":
		return &middleware.Principal{ID: a.f.alice}, nil
	case "bob":
		return &middleware.Principal{ID: a.f.bob}, nil
	}
	return nil, apperrors.ErrUnauthorized
}

func serve(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
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
	return w
}

func TestRecordRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(f.svc), middleware.Authenticate(fixtureAuth{f}))

	rex := f.pet(t, f.alice, "Rex").Hex()
	base := "/api/health/pets/" + rex

	w := serve(t, r, http.MethodPost, base+"/records", "", gin.H{"weight": 20})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(t, r, http.MethodPost, base+"/records", "alice", gin.H{
		"date": "2024-03-09", "weight": 20.5, "mood": "happy",
		"activity": gin.H{"type": "walk", "duration": 30, "intensity": "low"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotContains(t, w.Body.String(), "ownerId")

	foreign := serve(t, r, http.MethodGet, base+"/records", "bob", nil)
	malformed := serve(t, r, http.MethodGet, "/api/health/pets/not-an-id/records", "bob", nil)
	require.Equal(t, http.StatusNotFound, foreign.Code)
	require.JSONEq(t, foreign.Body.String(), malformed.Body.String())

	w = serve(t, r, http.MethodGet, base+"/records/"+created.Data.ID.Hex(), "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(t, r, http.MethodPut, base+"/records/"+created.Data.ID.Hex(), "alice", gin.H{"notes": "tired", "version": 7})
	require.Equal(t, http.StatusConflict, w.Code)

	w = serve(t, r, http.MethodGet, base+"/stats?days=7", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"totalRecords":1`)

	for _, path := range []string{"/weight-history", "/activity-summary", "/alerts", "/medications/upcoming"} {
		w = serve(t, r, http.MethodGet, base+path, "alice", nil)
		require.Equal(t, http.StatusOK, w.Code, path)
	}

	w = serve(t, r, http.MethodDelete, base+"/records/"+created.Data.ID.Hex(), "bob", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	w = serve(t, r, http.MethodDelete, base+"/records/"+created.Data.ID.Hex(), "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

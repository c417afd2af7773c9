package pets

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
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/oipet/internal/middleware"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

// tokenAuth treats the bearer token as the principal key.
type tokenAuth map[string]*middleware.Principal

func (a tokenAuth) Authenticate(_ context.Context, token string) (*middleware.Principal, error) {
	if p, ok := a[token]; ok {
		return p, nil
	}
	return nil, apperrors.ErrUnauthorized
}

func setupRouter(t *testing.T) (*gin.Engine, tokenAuth) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _, _ := newTestService(t)

	auth := tokenAuth{
		"alice": {ID: primitive.NewObjectID()},
		"bob":   {ID: primitive.NewObjectID()},
		"admin": {ID: primitive.NewObjectID(), IsAdmin: true},
	}
	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(svc), middleware.Authenticate(auth))
	return r, auth
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) (int, map[string]any) {
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

func TestPetCRUDHTTP(t *testing.T) {
	r, _ := setupRouter(t)

	code, body := do(t, r, http.MethodPost, "/api/pets", "alice",
		gin.H{"name": "Rex", "species": "dog", "birthDate": "2020-01-01", "weight": 25, "gender": "male", "ownerId": primitive.NewObjectID().Hex()})
	require.Equal(t, http.StatusCreated, code)
	pet := body["data"].(map[string]any)
	id := pet["id"].(string)
	require.Equal(t, float64(2), pet["age"])

	code, _ = do(t, r, http.MethodGet, "/api/pets/"+id, "alice", nil)
	require.Equal(t, http.StatusOK, code)

	codeForeign, foreign := do(t, r, http.MethodGet, "/api/pets/"+id, "bob", nil)
	codeMissing, missing := do(t, r, http.MethodGet, "/api/pets/"+primitive.NewObjectID().Hex(), "bob", nil)
	require.Equal(t, http.StatusNotFound, codeForeign)
	require.Equal(t, codeMissing, codeForeign)
	require.Equal(t, missing, foreign)

	code, body = do(t, r, http.MethodPut, "/api/pets/"+id, "alice", gin.H{"weight": 26, "version": 1})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(2), body["data"].(map[string]any)["version"])

	code, body = do(t, r, http.MethodPut, "/api/pets/"+id, "alice", gin.H{"weight": 27, "version": 1})
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "CONFLICT", body["code"])

	code, body = do(t, r, http.MethodGet, "/api/pets?limit=5", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	page := body["data"].(map[string]any)
	require.Len(t, page["items"], 1)
	require.Equal(t, float64(5), page["pagination"].(map[string]any)["limit"])

	code, _ = do(t, r, http.MethodDelete, "/api/pets/"+id, "bob", nil)
	require.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, r, http.MethodDelete, "/api/pets/"+id, "alice", nil)
	require.Equal(t, http.StatusOK, code)
}

func TestPetAdminRoutes(t *testing.T) {
	r, _ := setupRouter(t)
	do(t, r, http.MethodPost, "/api/pets", "alice",
		gin.H{"name": "Rex", "species": "dog", "birthDate": "2020-01-01", "weight": 25, "gender": "male"})

	code, body := do(t, r, http.MethodGet, "/api/pets/admin/all", "alice", nil)
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "FORBIDDEN", body["code"])

	code, body = do(t, r, http.MethodGet, "/api/pets/admin/stats", "admin", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(1), body["data"].(map[string]any)["total"])
}

func TestPetListOversizedPage(t *testing.T) {
	r, _ := setupRouter(t)
	do(t, r, http.MethodPost, "/api/pets", "alice",
		gin.H{"name": "Rex", "species": "dog", "birthDate": "2020-01-01", "weight": 25, "gender": "male"})

	code, body := do(t, r, http.MethodGet, "/api/pets?page=4611686018427387905&limit=2", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, body["data"].(map[string]any)["items"])
}

func TestPetAvatarRequiresImage(t *testing.T) {
	r, _ := setupRouter(t)
	_, body := do(t, r, http.MethodPost, "/api/pets", "alice",
		gin.H{"name": "Rex", "species": "dog", "birthDate": "2020-01-01", "weight": 25, "gender": "male"})
	id := body["data"].(map[string]any)["id"].(string)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "rex.exe")
	require.NoError(t, err)
	_, _ = part.Write([]byte("MZ"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/pets/"+id+"/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	buf.Reset()
	mw = multipart.NewWriter(&buf)
	part, err = mw.CreateFormFile("image", "rex.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG"))
	require.NoError(t, mw.Close())

	req = httptest.NewRequest(http.MethodPost, "/api/pets/"+id+"/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer alice")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "https://cdn.example/pets/img1")
}

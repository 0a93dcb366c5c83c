package category

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := NewService(NewGORMRepository(openDB(t)), zap.NewNop())

	authMW := func(c *gin.Context) {
		if c.GetHeader("X-Test-Role") == "" {
			common.RespondWithError(c, common.ErrUnauthorized)
			return
		}
		c.Next()
	}
	adminMW := func(c *gin.Context) {
		if c.GetHeader("X-Test-Role") != "admin" {
			common.RespondWithError(c, common.ErrForbidden)
			return
		}
		c.Next()
	}
	r := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api/v1"), authMW, adminMW)
	return r
}

func send(r *gin.Engine, method, path, role string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type categoryEnvelope struct {
	Data CategoryResponse `json:"data"`
}

func TestHandler_AdminLifecycle(t *testing.T) {
	r := newTestRouter(t)

	w := send(r, http.MethodPost, "/api/v1/categories", "admin", map[string]string{"name": "Home & Garden"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created categoryEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Home & Garden", created.Data.Name)
	assert.Equal(t, "home-and-garden", created.Data.Slug)

	w = send(r, http.MethodGet, "/api/v1/categories/home-and-garden", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = send(r, http.MethodGet, "/api/v1/categories/"+created.Data.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(r, http.MethodPut, "/api/v1/categories/"+created.Data.ID.String(), "admin",
		map[string]string{"name": "Garden", "slug": "Outdoor Garden"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated categoryEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "outdoor-garden", updated.Data.Slug)

	w = send(r, http.MethodGet, "/api/v1/categories", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "outdoor-garden")

	w = send(r, http.MethodDelete, "/api/v1/categories/"+created.Data.ID.String(), "admin", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = send(r, http.MethodGet, "/api/v1/categories/outdoor-garden", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Errors(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, send(r, http.MethodPost, "/api/v1/categories", "", map[string]string{"name": "X"}).Code)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodPost, "/api/v1/categories", "donor", map[string]string{"name": "X"}).Code)

	w := send(r, http.MethodPost, "/api/v1/categories", "admin", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")

	w = send(r, http.MethodPost, "/api/v1/categories", "admin", map[string]string{"name": "<b></b>"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "name without letters")

	require.Equal(t, http.StatusCreated, send(r, http.MethodPost, "/api/v1/categories", "admin", map[string]string{"name": "Food"}).Code)
	assert.Equal(t, http.StatusConflict, send(r, http.MethodPost, "/api/v1/categories", "admin", map[string]string{"name": "Food"}).Code)

	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodDelete, "/api/v1/categories/food", "admin", nil).Code)
}

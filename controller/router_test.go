package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"tms/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func adminTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AuthMiddleware([]string{auth.RoleAdmin}), func(c *gin.Context) {
		c.Status(200)
	})
	return r
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	r := adminTestRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin", nil))
	assert.Equal(t, 401, w.Code)
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	r := adminTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	assert.Equal(t, 401, w.Code)
}

func TestAuthMiddlewareRejectsMissingRole(t *testing.T) {
	token, err := auth.CreateToken("scorekeeper", []string{"viewer"})
	assert.NoError(t, err)

	r := adminTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, 403, w.Code)
}

func TestAuthMiddlewareAcceptsAdminBearerToken(t *testing.T) {
	token, err := auth.CreateToken("league-admin", []string{auth.RoleAdmin})
	assert.NoError(t, err)

	r := adminTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)
}

func TestAuthMiddlewareReadsAuthCookie(t *testing.T) {
	token, err := auth.CreateToken("league-admin", []string{auth.RoleAdmin})
	assert.NoError(t, err)

	r := adminTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: token})
	r.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)
}

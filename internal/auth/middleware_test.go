package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(m *JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthRequired(m), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "role": GetUserRole(c)})
	})
	r.GET("/staff", AuthRequired(m), RequireStaff(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	r := newTestRouter(m)

	t.Run("missing header", func(t *testing.T) {
		w := doGet(r, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("other", time.Minute)
		token, err := other.GenerateAccessToken("u1", "a@b.c", RoleGuest)
		require.NoError(t, err)
		w := doGet(r, "/me", token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := m.GenerateAccessToken("u1", "a@b.c", RoleGuest)
		require.NoError(t, err)
		w := doGet(r, "/me", token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"u1","role":"guest"}`, w.Body.String())
	})
}

func TestRequireStaff(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	r := newTestRouter(m)

	guest, err := m.GenerateAccessToken("u1", "a@b.c", RoleGuest)
	require.NoError(t, err)
	staff, err := m.GenerateAccessToken("u2", "s@b.c", RoleStaff)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, doGet(r, "/staff", guest).Code)
	assert.Equal(t, http.StatusNoContent, doGet(r, "/staff", staff).Code)
}

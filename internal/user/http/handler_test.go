package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/user"
	"github.com/nekogravitycat/hotel-booking-backend/internal/user/usertest"
)

func TestMe(t *testing.T) {
	gin.SetMode(gin.TestMode)

	users := usertest.NewMemoryRepository(user.User{
		ID: "u1", Email: "u1@example.com", FullName: "Lan", Role: auth.RoleGuest, PointsBalance: 8_100,
	})
	jwt := auth.NewJWTManager("secret", time.Hour)
	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewUserHandler(user.NewService(users)), auth.AuthRequired(jwt))

	get := func(userID string) *httptest.ResponseRecorder {
		token, err := jwt.GenerateAccessToken(userID, userID+"@example.com", auth.RoleGuest)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("u1")
	require.Equal(t, http.StatusOK, w.Code)
	var resp UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Lan", resp.FullName)
	assert.Equal(t, int64(8_100), resp.PointsBalance)

	// A valid token for an account this service never saw.
	w = get("ghost")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	InitAuth("middleware-test-secret")
	r := gin.New()
	r.GET("/admin", RequireRole(RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, Actor(c))
	})
	r.GET("/taxpayer/:id", RequireRole(RoleTaxpayer, RoleAdmin), func(c *gin.Context) {
		if !CanActFor(c, 7) {
			c.Status(http.StatusForbidden)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func get(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireRole(t *testing.T) {
	r := newAuthRouter()
	admin, err := IssueToken("alice", RoleAdmin, 0, time.Hour)
	require.NoError(t, err)
	operator, err := IssueToken("bob", RoleOperator, 0, time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken("alice", RoleAdmin, 0, -time.Minute)
	require.NoError(t, err)

	w := get(r, "/admin", "Bearer "+admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", "Bearer "+operator).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", "Bearer "+expired).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", "Token "+admin).Code)
}

func TestRequireRole_RejectsForeignSignature(t *testing.T) {
	r := newAuthRouter()
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "mallory", "role": RoleAdmin}).
		SignedString([]byte("another-secret"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", "Bearer "+forged).Code)
}

func TestTaxpayerScope(t *testing.T) {
	r := newAuthRouter()
	own, err := IssueToken("t7", RoleTaxpayer, 7, time.Hour)
	require.NoError(t, err)
	other, err := IssueToken("t8", RoleTaxpayer, 8, time.Hour)
	require.NoError(t, err)
	unscoped, err := IssueToken("t0", RoleTaxpayer, 0, time.Hour)
	require.NoError(t, err)
	admin, err := IssueToken("alice", RoleAdmin, 0, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(r, "/taxpayer/7", "Bearer "+own).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/taxpayer/7", "Bearer "+other).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/taxpayer/7", "Bearer "+unscoped).Code)
	assert.Equal(t, http.StatusOK, get(r, "/taxpayer/7", "Bearer "+admin).Code)
}

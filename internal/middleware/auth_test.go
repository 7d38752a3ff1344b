package middleware_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beast-summon-backend/internal/middleware"
	"beast-summon-backend/internal/services"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *services.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := services.NewJWTService("test-secret", time.Hour)
	router := gin.New()
	router.GET("/protected", middleware.AuthMiddleware(jwtService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64("user_id")})
	})
	return router, jwtService
}

func TestAuthMiddlewareBearer(t *testing.T) {
	router, jwtService := newAuthRouter(t)

	token, _, err := jwtService.GenerateToken(42, "summoner")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":42`)
}

func TestAuthMiddlewareQueryToken(t *testing.T) {
	router, jwtService := newAuthRouter(t)

	token, _, err := jwtService.GenerateToken(42, "summoner")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareRejections(t *testing.T) {
	router, _ := newAuthRouter(t)

	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"malformed", "Token abc"},
		{"garbage", "Bearer not.a.token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func signBody(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func newProviderRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/fulfill", middleware.ProviderAuthMiddleware(secret), func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.JSON(http.StatusOK, gin.H{"len": len(body)})
	})
	return router
}

func TestProviderAuthValidSignature(t *testing.T) {
	router := newProviderRouter("provider-secret")
	body := `{"request_id":"abc","random_value":"00ff"}`

	req := httptest.NewRequest(http.MethodPost, "/fulfill", strings.NewReader(body))
	req.Header.Set("X-Provider-Signature", signBody("provider-secret", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// The handler still sees the full body after the middleware read it.
	assert.Contains(t, w.Body.String(), `"len":42`)
}

func TestProviderAuthRejectsBadSignature(t *testing.T) {
	router := newProviderRouter("provider-secret")
	body := `{"request_id":"abc"}`

	req := httptest.NewRequest(http.MethodPost, "/fulfill", strings.NewReader(body))
	req.Header.Set("X-Provider-Signature", signBody("wrong-secret", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProviderAuthRejectsMissingSignature(t *testing.T) {
	router := newProviderRouter("provider-secret")

	req := httptest.NewRequest(http.MethodPost, "/fulfill", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

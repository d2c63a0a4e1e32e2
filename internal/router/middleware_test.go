package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prepmood-verify/internal/config"
	"github.com/prepmood-verify/internal/service"

	"github.com/gin-gonic/gin"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	if strings.TrimSpace(w2.Header().Get(requestIDHeader)) == "" {
		t.Fatalf("generated request id should not be empty")
	}
}

func newAuthServiceForTest(t *testing.T, cfg config.AdminConfig) *service.AuthService {
	t.Helper()
	authService, err := service.NewAuthService(cfg)
	if err != nil {
		t.Fatalf("new auth service failed: %v", err)
	}
	return authService
}

func adminRouterForTest(authService *service.AuthService) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/admin/ping", AdminJWTAuthMiddleware(authService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": c.GetString("username")})
	})
	return r
}

func decodeStatusCode(t *testing.T, body []byte) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func TestAdminJWTAuthMiddlewareDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authService := newAuthServiceForTest(t, config.AdminConfig{Username: "admin"})
	r := adminRouterForTest(authService)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	r.ServeHTTP(w, req)

	if got := decodeStatusCode(t, w.Body.Bytes()); got != 401 {
		t.Fatalf("status_code want 401 got %d", got)
	}
}

func TestAdminJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.AdminConfig{
		Username:       "admin",
		Password:       "prep-secret",
		JWTSecret:      "0123456789abcdef0123456789abcdef",
		JWTExpireHours: 1,
	}
	authService := newAuthServiceForTest(t, cfg)
	r := adminRouterForTest(authService)

	// 无认证头
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	r.ServeHTTP(w, req)
	if got := decodeStatusCode(t, w.Body.Bytes()); got != 401 {
		t.Fatalf("missing header status_code want 401 got %d", got)
	}

	// 非法 token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)
	if got := decodeStatusCode(t, w.Body.Bytes()); got != 401 {
		t.Fatalf("bad token status_code want 401 got %d", got)
	}

	// 合法 token
	token, _, err := authService.Login("admin", "prep-secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["username"] != "admin" {
		t.Fatalf("username want admin got %s", resp["username"])
	}
}

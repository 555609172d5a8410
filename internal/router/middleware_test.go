package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holdcart/internal/config"
	"github.com/holdcart/internal/models"
	"github.com/holdcart/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func TestCORSPolicyOriginFor(t *testing.T) {
	wildcard := newCORSPolicy(config.CORSConfig{})
	if got := wildcard.originFor("https://example.com"); got != "*" {
		t.Fatalf("wildcard origin = %q, want *", got)
	}

	withCreds := newCORSPolicy(config.CORSConfig{AllowCredentials: true})
	if got := withCreds.originFor("https://example.com"); got != "https://example.com" {
		t.Fatalf("credentialed wildcard should echo origin, got %q", got)
	}

	listed := newCORSPolicy(config.CORSConfig{
		AllowedOrigins: []string{"https://a.example.com", "https://b.example.com"},
	})
	if got := listed.originFor("https://A.example.com"); got != "https://A.example.com" {
		t.Fatalf("allow-list match should echo origin, got %q", got)
	}
	if got := listed.originFor("https://x.example.com"); got != "" {
		t.Fatalf("unlisted origin should be rejected, got %q", got)
	}
	if got := listed.originFor(""); got != "" {
		t.Fatalf("empty origin should be rejected, got %q", got)
	}
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CORSMiddleware(config.CORSConfig{MaxAge: 600}))
	r.POST("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin = %q, want *", got)
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("max-age = %q, want 600", got)
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatalf("allow-methods header missing")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": requestIDFrom(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if got := w.Header().Get(requestIDHeader); got != "req-123" {
		t.Fatalf("echoed request id = %q, want req-123", got)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id = %q, want req-123", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w2.Header().Get(requestIDHeader) == "" {
		t.Fatalf("request id should be generated when absent")
	}
}

func TestUserJWTAuthMiddlewareRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		secret string
		header string
	}{
		{"missing secret", "", ""},
		{"missing header", "test-secret-key-0123456789abcdef", ""},
		{"non-bearer header", "test-secret-key-0123456789abcdef", "Token abc"},
		{"garbage token", "test-secret-key-0123456789abcdef", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(UserJWTAuthMiddleware(tc.secret, stubUserRepo{}))
			r.GET("/user/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/user/ping", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("transport status = %d, want 200", w.Code)
			}
			var resp struct {
				StatusCode int `json:"status_code"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.StatusCode != 401 {
				t.Fatalf("status_code = %d, want 401", resp.StatusCode)
			}
		})
	}
}

func TestUserJWTAuthMiddlewareGrantsAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)

	secret := "test-secret-key-0123456789abcdef"
	user := &models.User{ID: 42, Email: "u@example.com", Status: "active", TokenVersion: 1}
	token, _, err := service.GenerateUserJWT(config.JWTConfig{SecretKey: secret, ExpireHours: 1}, user)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	r := gin.New()
	r.Use(UserJWTAuthMiddleware(secret, stubUserRepo{user: user}))
	r.GET("/user/ping", func(c *gin.Context) {
		uid, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": uid})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/user/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	var resp struct {
		UserID uint `json:"user_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.UserID != 42 {
		t.Fatalf("user_id = %d, want 42", resp.UserID)
	}
}

func TestClaimsDenyKey(t *testing.T) {
	now := time.Now()
	claims := &service.UserJWTClaims{
		UserID:       1,
		TokenVersion: 3,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	if key := claimsDenyKey(claims, "active", 3, 0); key != "" {
		t.Fatalf("healthy claims denied: %s", key)
	}
	if key := claimsDenyKey(claims, "disabled", 3, 0); key != "error.user_disabled" {
		t.Fatalf("disabled status key = %s", key)
	}
	if key := claimsDenyKey(claims, "active", 4, 0); key != "error.token_revoked" {
		t.Fatalf("version mismatch key = %s", key)
	}
	if key := claimsDenyKey(claims, "active", 3, now.Add(time.Hour).Unix()); key != "error.token_revoked" {
		t.Fatalf("stale issue time key = %s", key)
	}
}

type stubUserRepo struct {
	user *models.User
}

func (s stubUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.user, nil
}

func (s stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}

func (s stubUserRepo) Create(ctx context.Context, user *models.User) error {
	return nil
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/marketplace-backend/internal/cache"
	"github.com/princeprakhar/marketplace-backend/internal/config"
	"github.com/princeprakhar/marketplace-backend/internal/models"
	"github.com/princeprakhar/marketplace-backend/internal/services"
	"github.com/princeprakhar/marketplace-backend/internal/testutil"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
	"github.com/redis/go-redis/v9"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp utils.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil {
		return ""
	}
	return resp.Error.Code
}

func authRouter() *gin.Engine {
	cfg := &config.Config{JWTSecret: testSecret}
	r := gin.New()
	r.GET("/me", AuthMiddleware(cfg, nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint("user_id"), "role": c.GetString("user_role")})
	})
	r.GET("/admin", AuthMiddleware(cfg, nil), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func bearer(t *testing.T, userID uint, role string) string {
	t.Helper()
	return "Bearer " + testutil.AccessToken(t, userID, "user@example.com", role, testSecret)
}

func TestAuthMiddleware(t *testing.T) {
	r := authRouter()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid token", bearer(t, 7, models.RoleUser), http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("status: got %d, want %d (%s)", w.Code, tc.status, w.Body.String())
			}
			if tc.status == http.StatusUnauthorized && errorCode(t, w) != utils.CodeUnauthorized {
				t.Errorf("error code: got %q", errorCode(t, w))
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	r := authRouter()

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, 7, models.RoleUser))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden || errorCode(t, w) != utils.CodeForbidden {
		t.Fatalf("user on admin route: got %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, 1, models.RoleAdmin))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("admin: got %d", w.Code)
	}
}

type fakeProvisioner struct {
	err   error
	calls []uint
}

func (p *fakeProvisioner) EnsureUser(_ context.Context, id uint, email, role string) error {
	p.calls = append(p.calls, id)
	return p.err
}

func TestAuthMiddleware_ProvisionsUser(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"provisioned", nil, http.StatusOK, ""},
		{"email owned by another account", services.ErrEmailTaken, http.StatusConflict, utils.CodeConflict},
		{"database down", errors.New("connection refused"), http.StatusInternalServerError, utils.CodeServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			users := &fakeProvisioner{err: tc.err}
			r := gin.New()
			r.GET("/me", AuthMiddleware(&config.Config{JWTSecret: testSecret}, users), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", bearer(t, 42, models.RoleUser))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("status: got %d, want %d", w.Code, tc.status)
			}
			if tc.code != "" && errorCode(t, w) != tc.code {
				t.Errorf("error code: got %q, want %q", errorCode(t, w), tc.code)
			}
			if len(users.calls) != 1 || users.calls[0] != 42 {
				t.Errorf("provisioner calls: got %v", users.calls)
			}
		})
	}
}

func limitedRouter(rdb *redis.Client) *gin.Engine {
	cfg := &config.Config{RateLimitRPS: 2}
	r := gin.New()
	r.Use(RateLimitMiddleware(cfg, rdb))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hitLimit(t *testing.T, r *gin.Engine) {
	t.Helper()
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: got %d, want 429", w.Code)
	}
	if errorCode(t, w) != utils.CodeRateLimited {
		t.Errorf("error code: got %q", errorCode(t, w))
	}
}

func TestRateLimitMiddleware_Memory(t *testing.T) {
	hitLimit(t, limitedRouter(nil))
}

func TestRateLimitMiddleware_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := cache.Connect(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	hitLimit(t, limitedRouter(rdb))
}

func TestCORSMiddleware(t *testing.T) {
	cfg := &config.Config{AllowedOrigins: []string{"https://app.example.com"}}
	r := gin.New()
	r.Use(CORSMiddleware(cfg))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allow origin: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("unknown origin: got %d, want 403", w.Code)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edirooss/nvr-server/internal/domain/camera"
	"github.com/edirooss/nvr-server/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := serve(r, http.MethodGet, "/")
	if id := w.Header().Get(RequestIDHeader); id == "" || id != w.Body.String() {
		t.Fatalf("generated id %q, body %q", id, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc" {
		t.Fatalf("client id not kept: %q", w.Body.String())
	}

	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if len(w.Body.String()) > maxRequestIDLen {
		t.Fatal("oversized client id kept")
	}
}

func TestIPLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newIPLimiter(100, 2*time.Second, func() time.Time { return now })

	for i := 0; i < 100; i++ {
		if !l.allow("10.0.0.1") {
			t.Fatalf("request %d rejected inside burst", i)
		}
	}
	if l.allow("10.0.0.1") {
		t.Fatal("request beyond burst allowed")
	}
	if !l.allow("10.0.0.2") {
		t.Fatal("clients must not share a budget")
	}

	now = now.Add(20 * time.Millisecond) // one token
	if !l.allow("10.0.0.1") {
		t.Fatal("token not refilled")
	}

	now = now.Add(limiterIdleTTL + time.Second)
	l.allow("10.0.0.3")
	if _, ok := l.clients["10.0.0.2"]; ok {
		t.Fatal("idle client not pruned")
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(2, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i, want := range []int{200, 200, 429} {
		if w := serve(r, http.MethodGet, "/"); w.Code != want {
			t.Fatalf("request %d: status %d, want %d", i, w.Code, want)
		}
	}
}

func TestLimitConcurrentRequests(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	r := gin.New()
	r.GET("/", LimitConcurrentRequests(1), func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})

	done := make(chan int)
	go func() { done <- serve(r, http.MethodGet, "/").Code }()
	<-entered

	if w := serve(r, http.MethodGet, "/"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status %d", w.Code)
	}
	close(release)
	if code := <-done; code != http.StatusOK {
		t.Fatalf("first request status %d", code)
	}
}

func TestRequireKnownCamera(t *testing.T) {
	cams := camera.List{{ID: "cam1", Name: "Porch"}}
	r := gin.New()
	r.GET("/c/:id", RequireKnownCamera(cams), func(c *gin.Context) {
		c.String(http.StatusOK, GetCamera(c).Name)
	})

	if w := serve(r, http.MethodGet, "/c/cam1"); w.Code != http.StatusOK || w.Body.String() != "Porch" {
		t.Fatalf("known camera: %d %q", w.Code, w.Body.String())
	}
	if w := serve(r, http.MethodGet, "/c/nope"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown camera: %d", w.Code)
	}
}

func TestRequireAPIKey(t *testing.T) {
	hash := func(s string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}
		return string(h)
	}
	authsvc, err := service.NewAuthService(zap.NewNop(), service.AuthServiceOptions{
		Username:     "admin",
		PasswordHash: hash("secret"),
		APIKeyHash:   hash("key-123"),
		CookieKey:    "0123456789abcdef0123",
	})
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.Use(authsvc.UserSession.Middleware())
	r.GET("/api/:apikey/x", RequireAPIKey(authsvc), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/x", RequireSession(authsvc), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, http.MethodGet, "/api/key-123/x"); w.Code != http.StatusOK {
		t.Fatalf("valid key: %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/wrong/x"); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/x"); w.Code != http.StatusUnauthorized {
		t.Fatalf("no session: %d", w.Code)
	}
}

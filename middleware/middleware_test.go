package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"caredesk/utils"

	"github.com/gin-gonic/gin"
)

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("adminID"))
	})
	return r
}

func doGet(r http.Handler, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitWith_BlocksAfterAllowance(t *testing.T) {
	r := newRouter(RateLimitWith(2))
	for i := 0; i < 2; i++ {
		if w := doGet(r, "X-Forwarded-For", "10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	if w := doGet(r, "X-Forwarded-For", "10.0.0.1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w := doGet(r, "X-Forwarded-For", "10.0.0.2"); w.Code != http.StatusOK {
		t.Fatalf("expected other client to pass, got %d", w.Code)
	}
}

func TestAdminAuth_AcceptsAdminToken(t *testing.T) {
	const secret = "s3cret"
	token, err := utils.GenerateAdminToken(secret, "ops", time.Minute)
	if err != nil {
		t.Fatalf("expected token, got %v", err)
	}
	r := newRouter(AdminAuthWith(func() string { return secret }))

	w := doGet(r, "Authorization", "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "ops" {
		t.Fatalf("expected subject ops, got %q", w.Body.String())
	}
}

func TestAdminAuth_RejectsMissingAndForeignTokens(t *testing.T) {
	r := newRouter(AdminAuthWith(func() string { return "s3cret" }))

	if w := doGet(r, "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", w.Code)
	}
	other, _ := utils.GenerateAdminToken("other", "ops", time.Minute)
	if w := doGet(r, "Authorization", "Bearer "+other); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign signature, got %d", w.Code)
	}
}

func TestGetClientIP_PrefersForwardedHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "192.168.1.5:4000"

	if ip := getClientIP(c); ip != "192.168.1.5" {
		t.Fatalf("expected remote addr host, got %q", ip)
	}
	c.Request.Header.Set("X-Real-IP", " 172.16.0.9 ")
	if ip := getClientIP(c); ip != "172.16.0.9" {
		t.Fatalf("expected X-Real-IP, got %q", ip)
	}
	c.Request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if ip := getClientIP(c); ip != "203.0.113.7" {
		t.Fatalf("expected first forwarded IP, got %q", ip)
	}
}

package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"real-estate-cms/internal/auth"
	"real-estate-cms/internal/config"

	"github.com/gin-gonic/gin"
)

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		AdminEmail:      "admin@example.com",
		AdminPassword:   "correct horse battery staple",
		SessionSecret:   "test-secret-do-not-use",
		SessionTTLHours: 1,
		CookieName:      "admin_session",
	}
}

func TestLogin_RoundTrip(t *testing.T) {
	svc := auth.NewService(testConfig())

	token, err := svc.Login("admin@example.com", "correct horse battery staple")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	email, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if email != "admin@example.com" {
		t.Fatalf("wrong email in claims: %s", email)
	}
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	svc := auth.NewService(testConfig())

	cases := []struct{ email, password string }{
		{"admin@example.com", "wrong"},
		{"intruder@example.com", "correct horse battery staple"},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := svc.Login(tc.email, tc.password); err != auth.ErrInvalidCredentials {
			t.Fatalf("Login(%q, %q) should fail with ErrInvalidCredentials, got %v", tc.email, tc.password, err)
		}
	}
}

func TestVerify_RejectsForeignSignature(t *testing.T) {
	svc := auth.NewService(testConfig())

	otherCfg := testConfig()
	otherCfg.SessionSecret = "a-different-secret"
	other := auth.NewService(otherCfg)

	token, err := other.Login("admin@example.com", "correct horse battery staple")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Verify(token); err == nil {
		t.Fatalf("token signed with another secret must be rejected")
	}
}

func TestVerify_RejectsMalformedToken(t *testing.T) {
	svc := auth.NewService(testConfig())

	token, err := svc.Login("admin@example.com", "correct horse battery staple")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Verify("not.a.token"); err == nil {
		t.Fatalf("malformed token must be rejected")
	}
	if _, err := svc.Verify(token + "tampered"); err == nil {
		t.Fatalf("tampered token must be rejected")
	}
}

func newMiddlewareRouter(svc *auth.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/admin/me", svc.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": auth.ActorFromContext(c)})
	})
	return r
}

func TestMiddleware_RejectsMissingCookie(t *testing.T) {
	svc := auth.NewService(testConfig())
	r := newMiddlewareRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session cookie, got %d", w.Code)
	}
}

func TestMiddleware_AcceptsValidCookie(t *testing.T) {
	svc := auth.NewService(testConfig())
	r := newMiddlewareRouter(svc)

	token, err := svc.Login("admin@example.com", "correct horse battery staple")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.AddCookie(&http.Cookie{Name: svc.CookieName(), Value: token, Expires: time.Now().Add(time.Hour)})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with a valid session, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMiddleware_RejectsGarbageCookie(t *testing.T) {
	svc := auth.NewService(testConfig())
	r := newMiddlewareRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.AddCookie(&http.Cookie{Name: svc.CookieName(), Value: "garbage"})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with a garbage cookie, got %d", w.Code)
	}
}

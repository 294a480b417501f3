// Package auth implements the single-admin session: credential check against
// configured values, a signed JWT in an HttpOnly cookie, and the gin
// middleware that guards every /api/admin route.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"real-estate-cms/internal/config"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Service issues and verifies admin session tokens.
type Service struct {
	cfg config.AuthConfig
}

func NewService(cfg config.AuthConfig) *Service {
	return &Service{cfg: cfg}
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Login checks the supplied credentials and returns a signed session token.
// Comparison is constant-time so timing does not leak which field was wrong.
func (s *Service) Login(email, password string) (string, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.cfg.AdminEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1
	if !emailOK || !passOK {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SessionTTL())),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.SessionSecret))
}

// Verify parses and validates a session token, returning the admin email.
func (s *Service) Verify(tokenStr string) (string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.SessionSecret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid session token")
	}
	return claims.Email, nil
}

// CookieName returns the session cookie name
func (s *Service) CookieName() string {
	return s.cfg.CookieName
}

// SetSessionCookie writes the session cookie on a login response.
func (s *Service) SetSessionCookie(c *gin.Context, token string) {
	maxAge := int(s.cfg.SessionTTL().Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.CookieName, token, maxAge, "/", "", s.cfg.CookieSecure, true)
}

// ClearSessionCookie expires the session cookie on logout.
func (s *Service) ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.CookieName, "", -1, "/", "", s.cfg.CookieSecure, true)
}

// Middleware rejects requests without a valid session cookie. On success the
// admin email is stored in the context under "admin_email".
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(s.cfg.CookieName)
		if err != nil || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		email, err := s.Verify(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired or invalid"})
			return
		}

		c.Set("admin_email", email)
		c.Next()
	}
}

// ActorFromContext returns the logged-in admin email, or "system" when the
// request did not pass through the auth middleware.
func ActorFromContext(c *gin.Context) string {
	if v, ok := c.Get("admin_email"); ok {
		if email, ok := v.(string); ok && email != "" {
			return email
		}
	}
	return "system"
}

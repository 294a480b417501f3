package handlers

import (
	"log"
	"net/http"

	"real-estate-cms/internal/auth"
	"real-estate-cms/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles admin login and logout
type AuthHandler struct {
	auth    *auth.Service
	limiter *ratelimit.ClientLimiter
}

// NewAuthHandler creates a new auth handler. limiter may be nil to disable
// login throttling.
func NewAuthHandler(authSvc *auth.Service, limiter *ratelimit.ClientLimiter) *AuthHandler {
	return &AuthHandler{auth: authSvc, limiter: limiter}
}

// Login checks credentials and sets the session cookie
func (h *AuthHandler) Login(c *gin.Context) {
	if h.limiter != nil && !h.limiter.AllowRequest(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts, try again later"})
		return
	}

	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(req.Email, req.Password)
	if err == auth.ErrInvalidCredentials {
		log.Printf("Auth: failed login attempt for %s from %s", req.Email, c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.auth.SetSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"email": req.Email})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	h.auth.ClearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the logged-in admin, used by the UI to restore sessions
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"email": auth.ActorFromContext(c)})
}

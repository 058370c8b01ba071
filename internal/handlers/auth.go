package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homeservices-marketplace/internal/auth"
	"homeservices-marketplace/internal/services"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	tokens      *auth.TokenManager
	secure      bool
	log         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. secure marks the session cookie
// as HTTPS only.
func NewAuthHandler(authService *services.AuthService, tokens *auth.TokenManager, secure bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
		secure:      secure,
		log:         log,
	}
}

// MockLogin signs in as a fixed sandbox identity and sets the session cookie.
// POST /api/auth/mock {"userType": "homeowner|contractor|dual"}
func (h *AuthHandler) MockLogin(c *gin.Context) {
	var req struct {
		UserType string `json:"userType"`
	}
	// An empty body falls back to the default user type.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	session, err := h.authService.MockLogin(c.Request.Context(), req.UserType)
	if err != nil {
		respondError(c, h.log, err, "Failed to authenticate")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, session.Token, int(h.tokens.TTL().Seconds()), "/", "", h.secure, true)

	c.JSON(http.StatusOK, session)
}

// Logout clears the session cookie (stateless JWT, nothing to revoke)
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.secure, true)

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
	})
}

// GetMe returns the currently authenticated user
// GET /api/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

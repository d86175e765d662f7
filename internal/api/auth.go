package api

import (
	"net/http"

	"github.com/blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type tokenObtainRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// AuthHandler handles token and password endpoints
type AuthHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(services *service.Services, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		services: services,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

// Obtain handles POST /auth/token/
func (h *AuthHandler) Obtain(c *gin.Context) {
	var req tokenObtainRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.services.Auth.Obtain(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Refresh handles POST /auth/token/refresh/
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}
	access, err := h.services.Auth.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

// Blacklist handles POST /auth/token/blacklist/
func (h *AuthHandler) Blacklist(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.services.Auth.Blacklist(c.Request.Context(), req.Refresh); err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// ChangePassword handles POST /change-password/
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		renderError(c, h.log, service.ErrNotAuthenticated)
		return
	}
	var in service.PasswordChange
	if !bindJSON(c, &in) {
		return
	}
	if err := h.services.Auth.ChangePassword(c.Request.Context(), actor, &in); err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Password updated successfully."})
}

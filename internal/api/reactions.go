package api

import (
	"net/http"

	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type reactionRequest struct {
	Post uint `json:"post" binding:"required"`
}

// ReactionHandler handles like and dislike toggles
type ReactionHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(services *service.Services, log zerolog.Logger) *ReactionHandler {
	return &ReactionHandler{
		services: services,
		log:      log.With().Str("handler", "reaction").Logger(),
	}
}

// Toggle handles POST /like/ and /dislike/
func (h *ReactionHandler) Toggle(reaction models.Reaction) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := currentActor(c)
		if actor == nil {
			renderError(c, h.log, service.ErrNotAuthenticated)
			return
		}
		var req reactionRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := h.services.Reactions.Toggle(c.Request.Context(), actor, req.Post, reaction)
		if err != nil {
			renderError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"detail": res.Detail})
	}
}

package api

import (
	"net/http"

	"github.com/blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CommentHandler handles comment endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// List handles GET /comments/
func (h *CommentHandler) List(c *gin.Context) {
	res, err := h.services.Comments.List(c.Request.Context(), currentActor(c), c.Query("status"), c.Query("page"), c.Query("page_size"))
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	renderPage(c, res.Page, newCommentResponses(res.Items))
}

// Get handles GET /comments/:id/
func (h *CommentHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	comment, err := h.services.Comments.Get(c.Request.Context(), currentActor(c), id)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newCommentResponse(comment))
}

// Create handles POST /comments/
func (h *CommentHandler) Create(c *gin.Context) {
	var in service.CommentInput
	if !bindJSON(c, &in) {
		return
	}
	comment, err := h.services.Comments.Create(c.Request.Context(), currentActor(c), &in)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, newCommentResponse(comment))
}

// Update handles PUT and PATCH /comments/:id/
func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in service.CommentInput
	if !bindJSON(c, &in) {
		return
	}
	comment, err := h.services.Comments.Update(c.Request.Context(), currentActor(c), id, &in, c.Request.Method == http.MethodPatch)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newCommentResponse(comment))
}

// Delete handles DELETE /comments/:id/
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.services.Comments.Delete(c.Request.Context(), currentActor(c), id); err != nil {
		renderError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package api

import (
	"net/http"

	"github.com/blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// TagHandler handles tag endpoints; route groups apply the staff checks
type TagHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewTagHandler creates a new TagHandler
func NewTagHandler(services *service.Services, log zerolog.Logger) *TagHandler {
	return &TagHandler{
		services: services,
		log:      log.With().Str("handler", "tag").Logger(),
	}
}

// List handles GET /tags/
func (h *TagHandler) List(c *gin.Context) {
	res, err := h.services.Tags.List(c.Request.Context(), c.Query("page"), c.Query("page_size"))
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	renderPage(c, res.Page, newTagResponses(res.Items))
}

// Get handles GET /tags/:id/
func (h *TagHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	tag, err := h.services.Tags.Get(c.Request.Context(), id)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newTagResponse(tag))
}

// Create handles POST /tags/
func (h *TagHandler) Create(c *gin.Context) {
	var in service.TagInput
	if !bindJSON(c, &in) {
		return
	}
	tag, err := h.services.Tags.Create(c.Request.Context(), &in)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, newTagResponse(tag))
}

// Update handles PUT and PATCH /tags/:id/
func (h *TagHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in service.TagInput
	if !bindJSON(c, &in) {
		return
	}
	tag, err := h.services.Tags.Update(c.Request.Context(), id, &in, c.Request.Method == http.MethodPatch)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newTagResponse(tag))
}

// Delete handles DELETE /tags/:id/
func (h *TagHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.services.Tags.Delete(c.Request.Context(), id); err != nil {
		renderError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package api

import (
	"net/http"

	"github.com/blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// UserHandler handles account endpoints
type UserHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(services *service.Services, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		services: services,
		log:      log.With().Str("handler", "user").Logger(),
	}
}

// List handles GET /users/
func (h *UserHandler) List(c *gin.Context) {
	res, err := h.services.Users.List(c.Request.Context(), c.Query("page"), c.Query("page_size"))
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	renderPage(c, res.Page, newUserResponses(res.Items))
}

// Register handles POST /users/. The v2 response carries the new ID.
func (h *UserHandler) Register(withID bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in service.UserInput
		if !bindJSON(c, &in) {
			return
		}
		user, err := h.services.Users.Register(c.Request.Context(), &in)
		if err != nil {
			renderError(c, h.log, err)
			return
		}
		c.JSON(http.StatusCreated, newRegisteredUser(user, withID))
	}
}

// Get handles GET /users/:id/
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	user, err := h.services.Users.Get(c.Request.Context(), id)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

// Update handles PUT and PATCH /users/:id/
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in service.UserInput
	if !bindJSON(c, &in) {
		return
	}
	// the password is changed through its own endpoint
	in.Password, in.Password2 = nil, nil

	user, err := h.services.Users.Update(c.Request.Context(), currentActor(c), id, &in, c.Request.Method == http.MethodPatch)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

// Delete handles DELETE /users/:id/
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.services.Users.Delete(c.Request.Context(), currentActor(c), id); err != nil {
		renderError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

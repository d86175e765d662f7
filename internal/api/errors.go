package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/blog-api/internal/service"
	"github.com/blog-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"
)

// Response bodies for the error cases shared by every handler
const (
	detailNotAuthenticated = "Authentication credentials were not provided."
	detailForbidden        = "You do not have permission to perform this action."
	detailNotFound         = "Not found."
	detailBadToken         = "Given token not valid for any token type"
	detailTokenInvalid     = "Token is invalid or expired"
	detailNoAccount        = "No active account found with the given credentials"
	detailInternal         = "Internal server error"
	codeTokenNotValid      = "token_not_valid"
)

// renderError writes the response matching err and logs unexpected failures
func renderError(c *gin.Context, log zerolog.Logger, err error) {
	var verr *validation.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
	case errors.Is(err, service.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": detailNotAuthenticated})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": detailForbidden})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": detailNoAccount})
	case errors.Is(err, service.ErrTokenInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": detailTokenInvalid, "code": codeTokenNotValid})
	default:
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternal})
	}
}

// bindJSON decodes the request body into dst and runs binding validation.
// An empty body counts as an empty object. It writes a 400 and returns
// false on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(dst)
	}
	if err == nil {
		return true
	}

	if verr := validation.FromBinding(err); verr != nil {
		c.JSON(http.StatusBadRequest, verr.Fields)
		return false
	}

	if verr := validation.FromTypeError(err); verr != nil {
		c.JSON(http.StatusBadRequest, verr.Fields)
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
	return false
}

// parseID reads the :id path parameter. Anything but a positive integer
// does not name a resource.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
		return 0, false
	}
	return uint(id), true
}

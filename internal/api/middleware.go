package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/blog-api/internal/metrics"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/permission"
	"github.com/blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	actorKey        = "actor"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("request_id", c.GetString(requestIDKey)).
					Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": detailInternal})
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware tags every request with an ID, reusing the caller's
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware logs requests and records request metrics
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		metrics.RecordRequest(c.Request.Method, c.FullPath(), statusCode, duration.Seconds())

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		if actor := currentActor(c); actor != nil {
			event = event.Uint("user_id", actor.ID)
		}
		event.
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authMiddleware resolves a Bearer access token into the request actor.
// Requests without credentials continue anonymously; a bad token is rejected.
func authMiddleware(auth service.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authorization header must contain two space-delimited values"})
			return
		}

		actor, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			if !errors.Is(err, service.ErrTokenInvalid) {
				renderError(c, log, err)
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detailBadToken, "code": codeTokenNotValid})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// requireStaff limits every method to staff users
func requireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := currentActor(c)
		if err := permission.Check(actor, permission.IsStaff(actor)); err != nil {
			abortPermission(c, err)
			return
		}
		c.Next()
	}
}

// requireStaffForWrites lets anyone read and only staff write
func requireStaffForWrites() gin.HandlerFunc {
	return func(c *gin.Context) {
		if permission.IsSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		requireStaff()(c)
	}
}

func abortPermission(c *gin.Context, err error) {
	if errors.Is(err, permission.ErrNotAuthenticated) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detailNotAuthenticated})
		return
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": detailForbidden})
}

// currentActor returns the authenticated user, or nil for anonymous requests
func currentActor(c *gin.Context) *models.User {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*models.User)
	return actor
}

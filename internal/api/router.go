package api

import (
	"context"
	"net/http"
	"time"

	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/service"
	"github.com/blog-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router. health may be nil.
func NewRouter(services *service.Services, health HealthChecker, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.UseJSONNames(v)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())
	router.Use(authMiddleware(services.Auth, log))

	// Handlers
	users := NewUserHandler(services, log)
	authH := NewAuthHandler(services, log)
	posts := NewPostHandler(services, log)
	tags := NewTagHandler(services, log)
	comments := NewCommentHandler(services, log)
	reactions := NewReactionHandler(services, log)

	// Operational endpoints
	router.GET("/health", healthHandler(health))
	router.GET("/stats", statsHandler(services, log))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/users/", users.List)
		v1.POST("/users/", users.Register(false))
		v1.GET("/users/:id/", users.Get)
		v1.PUT("/users/:id/", users.Update)
		v1.PATCH("/users/:id/", users.Update)
		v1.DELETE("/users/:id/", users.Delete)

		v1.GET("/posts/", posts.List)
		v1.POST("/posts/", posts.Create)
		v1.GET("/posts/:id/", posts.Retrieve)
		v1.PUT("/posts/:id/", posts.Update)
		v1.PATCH("/posts/:id/", posts.Update)
		v1.DELETE("/posts/:id/", posts.Delete)

		v1Tags := v1.Group("/tags", requireStaff())
		{
			v1Tags.GET("/", tags.List)
			v1Tags.POST("/", tags.Create)
			v1Tags.GET("/:id/", tags.Get)
			v1Tags.PUT("/:id/", tags.Update)
			v1Tags.PATCH("/:id/", tags.Update)
			v1Tags.DELETE("/:id/", tags.Delete)
		}

		v1.GET("/comments/", comments.List)
		v1.POST("/comments/", comments.Create)
		v1.GET("/comments/:id/", comments.Get)
		v1.PUT("/comments/:id/", comments.Update)
		v1.PATCH("/comments/:id/", comments.Update)
		v1.DELETE("/comments/:id/", comments.Delete)

		v1.POST("/like/", reactions.Toggle(models.ReactionLike))
		v1.POST("/dislike/", reactions.Toggle(models.ReactionDislike))
		v1.GET("/search/", posts.Search)
		v1.GET("/popular-posts/", posts.Popular)
	}

	// API v2
	v2 := router.Group("/api/v2")
	{
		v2.POST("/auth/token/", authH.Obtain)
		v2.POST("/auth/token/refresh/", authH.Refresh)
		v2.POST("/auth/token/blacklist/", authH.Blacklist)
		v2.POST("/change-password/", authH.ChangePassword)

		v2.GET("/users/", users.List)
		v2.POST("/users/", users.Register(true))
		v2.GET("/users/:id/", users.Get)
		v2.PUT("/users/:id/", users.Update)
		v2.PATCH("/users/:id/", users.Update)
		v2.DELETE("/users/:id/", users.Delete)

		v2.GET("/posts/", posts.ListV2)
		v2.POST("/posts/", posts.CreateV2)
		v2.GET("/posts/:id/", posts.RetrieveV2)
		v2.PUT("/posts/:id/", posts.UpdateV2)
		v2.PATCH("/posts/:id/", posts.UpdateV2)
		v2.DELETE("/posts/:id/", posts.Delete)

		v2Tags := v2.Group("/tags", requireStaffForWrites())
		{
			v2Tags.GET("/", tags.List)
			v2Tags.POST("/", tags.Create)
			v2Tags.GET("/:id/", tags.Get)
			v2Tags.PUT("/:id/", tags.Update)
			v2Tags.PATCH("/:id/", tags.Update)
			v2Tags.DELETE("/:id/", tags.Delete)
		}

		v2.GET("/search/", posts.SearchV2)
		v2.GET("/popular-posts/", posts.PopularV2)
	}

	return router
}

// healthHandler returns the health status
func healthHandler(health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		database := "ok"

		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := health.HealthCheck(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
				database = err.Error()
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"database":  database,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "blog-api",
		})
	}
}

// statsHandler returns row counts per resource
func statsHandler(services *service.Services, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := services.Stats.Counts(c.Request.Context())
		if err != nil {
			renderError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"database":  counts,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

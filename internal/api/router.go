// Package api exposes the social services over HTTP with gin.
//
// Handlers resolve the caller from the access token, delegate to one
// service call and translate domain error kinds into status codes. Mutations
// that only toggle a relation answer 204 No Content.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/tastefeed/server/internal/storage"
	"github.com/tastefeed/server/pkg/logging"
)

// HealthChecker is a dependency probed by /health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Options configures the router
type Options struct {
	ServiceName    string
	AllowedOrigins []string
	RequestTimeout time.Duration
	MaxUploadBytes int64
	// Checks are probed by /health, keyed by dependency name
	Checks map[string]HealthChecker
}

// Router sets up API routes
type Router struct {
	services Services
	auth     *Authenticator
	images   storage.ImageStore
	opts     Options
	logger   *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(services Services, auth *Authenticator, images storage.ImageStore, opts Options) *Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "tastefeed"
	}
	return &Router{
		services: services,
		auth:     auth,
		images:   images,
		opts:     opts,
		logger:   logging.WithComponent("api-router"),
	}
}

// SetupRoutes registers middleware and all routes on engine
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(otelgin.Middleware(r.opts.ServiceName))
	engine.Use(gin.Recovery())
	engine.Use(requestLogger())
	if len(r.opts.AllowedOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:  r.opts.AllowedOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowHeaders:  []string{"Authorization", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if mem, ok := r.images.(*storage.Memory); ok {
		engine.GET(storage.MemoryBaseURL+"/*key", serveMemory(mem))
	}

	v1 := engine.Group("/api/v1")
	v1.Use(requestTimeout(r.opts.RequestTimeout))

	posts := v1.Group("/posts")
	{
		posts.GET("", r.optionalAuth, r.listPosts)
		posts.GET("/feed", r.requireAuth, r.homeFeed)
		posts.GET("/discover", r.optionalAuth, r.discoverFeed)
		posts.GET("/showcase", r.optionalAuth, r.showcaseFeed)
		posts.POST("", r.requireAuth, r.createPost)

		post := posts.Group("/:id")
		{
			post.GET("", r.optionalAuth, r.getPost)
			post.PATCH("", r.requireAuth, r.updatePost)
			post.DELETE("", r.requireAuth, r.deletePost)
			post.POST("/image", r.requireAuth, r.uploadPostImage)

			post.POST("/like", r.requireAuth, r.likePost)
			post.DELETE("/like", r.requireAuth, r.unlikePost)
			post.POST("/favorite", r.requireAuth, r.favoritePost)
			post.DELETE("/favorite", r.requireAuth, r.unfavoritePost)

			post.GET("/comments", r.listComments)
			post.POST("/comments", r.requireAuth, r.createComment)
		}
	}

	v1.DELETE("/comments/:id", r.requireAuth, r.deleteComment)

	users := v1.Group("/users/:id")
	{
		users.GET("", r.optionalAuth, r.getProfile)
		users.GET("/posts", r.optionalAuth, r.listUserPosts)
		users.GET("/followers", r.listFollowers)
		users.GET("/following", r.listFollowing)
		users.POST("/follow", r.requireAuth, r.followUser)
		users.DELETE("/follow", r.requireAuth, r.unfollowUser)
	}

	me := v1.Group("/me", r.requireAuth)
	{
		me.GET("", r.getMe)
		me.PATCH("", r.updateMe)
		me.POST("/avatar", r.uploadAvatar)
		me.GET("/favorites", r.listFavorites)
	}

	notifications := v1.Group("/notifications", r.requireAuth)
	{
		notifications.GET("", r.listNotifications)
		notifications.GET("/unread-count", r.unreadCount)
		notifications.POST("/read-all", r.markAllRead)
		notifications.POST("/:id/read", r.markRead)
		notifications.DELETE("/:id", r.deleteNotification)
		notifications.DELETE("", r.clearNotifications)
	}

	tags := v1.Group("/tags")
	{
		tags.GET("", r.listTags)
		tags.POST("", r.requireAuth, r.createTag)
		tags.PATCH("/:id", r.requireAuth, r.renameTag)
		tags.DELETE("/:id", r.requireAuth, r.deleteTag)
	}
}

// healthHandler reports OK only when every dependency answers
func (r *Router) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}
	for name, checker := range r.opts.Checks {
		if err := checker.Health(ctx); err != nil {
			r.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "DOWN"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "OK"
	}

	overall := "OK"
	if status != http.StatusOK {
		overall = "DEGRADED"
	}
	c.JSON(status, gin.H{
		"status":  overall,
		"service": r.opts.ServiceName,
		"checks":  checks,
	})
}

package api

import (
	"net/http"
	"strings"
	"time"

	"eshop/internal/auth"
	"eshop/internal/config"
	"eshop/internal/entity"
	"eshop/internal/model"
	"eshop/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HTTPHandler wires the credential subsystem to its HTTP surface.
type HTTPHandler struct {
	cfg    config.Config
	repo   model.Repository
	tokens *auth.Manager
	users  *service.UserService
	policy *AccessPolicy
}

// NewHTTPHandler creates the handler with its collaborators.
func NewHTTPHandler(cfg config.Config, repo model.Repository, tokens *auth.Manager, users *service.UserService) *HTTPHandler {
	return &HTTPHandler{
		cfg:    cfg,
		repo:   repo,
		tokens: tokens,
		users:  users,
		policy: DefaultPolicy(),
	}
}

// Router builds the request pipeline: logging, CORS, recovery, identity
// resolution, the authorization policy table, then the route handlers.
func (h *HTTPHandler) Router() *gin.Engine {
	r := gin.New()

	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware(h.cfg))
	r.Use(gin.Recovery())
	r.Use(h.IdentityMiddleware())
	r.Use(h.PolicyMiddleware())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	rest := r.Group("/api/v1/rest")
	rest.POST("/login", h.Login)
	rest.POST("/registration", h.Register)
	rest.GET("/activate/:code", h.Activate)
	rest.POST("/forgot", h.ForgotPassword)
	rest.GET("/reset/:code", h.GetPasswordResetCode)
	rest.POST("/reset", h.PasswordReset)

	user := rest.Group("/user")
	user.GET("/me", h.Me)
	user.PUT("/profile", h.UpdateProfile)

	admin := rest.Group("/admin")
	admin.Use(h.RequireRole(entity.RoleAdmin))
	admin.GET("/user", h.ListUsers)
	admin.PUT("/user/:id/roles", h.SetUserRoles)

	return r
}

// CORSMiddleware applies the configured cross-origin policy. The
// Access-Control-Allow-Origin header admits a single value, so the request's
// Origin is echoed back when it is on the allow-list.
func CORSMiddleware(cfg config.Config) gin.HandlerFunc {
	allowAny := false
	allowed := make(map[string]bool, len(cfg.CORSAllowedOrigins))
	for _, origin := range cfg.CORSAllowedOrigins {
		if origin == "*" {
			allowAny = true
			continue
		}
		allowed[origin] = true
	}

	methods := strings.Join(cfg.CORSAllowedMethods, ", ")
	headers := strings.Join(cfg.CORSAllowedHeaders, ", ")
	credentials := "false"
	if cfg.CORSAllowCredential {
		credentials = "true"
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		case allowAny:
			c.Header("Access-Control-Allow-Origin", "*")
		}
		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)
		c.Header("Access-Control-Allow-Credentials", credentials)
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware records one structured line per request.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration.String(),
			"size":      c.Writer.Size(),
			"client_ip": c.ClientIP(),
		}).Info("http_request")
	}
}

package gateway

import (
	"net/http"
	"time"

	"github.com/campusline/platform/shared/config"
	"github.com/campusline/platform/shared/logger"
	"github.com/gin-gonic/gin"
)

const (
	HealthMessage   = "API Gateway is Up and Running!"
	upstreamTimeout = 30 * time.Second
)

func NewClient() *http.Client {
	return &http.Client{Timeout: upstreamTimeout}
}

// RegisterRoutes mirrors the public routes of the user and notification
// services. Authentication stays with the user service.
func RegisterRoutes(r gin.IRouter, cfg *config.GatewayConfig, client *http.Client, log logger.Logger) {
	users := proxyTo(cfg.UserServiceURL, client, log)
	notifications := proxyTo(cfg.NotificationServiceURL, client, log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": HealthMessage})
	})

	// Auth routes
	r.POST("/api/auth/register", users)
	r.POST("/api/auth/login", users)

	// User routes
	r.GET("/api/users/profile", users)
	r.GET("/api/users", users)
	r.GET("/api/users/:id", users)
	r.PUT("/api/users/:id", users)
	r.PUT("/api/users/:id/password", users)
	r.DELETE("/api/users/:id", users)

	// Notification routes
	r.POST("/api/notifications/email", notifications)
	r.POST("/api/notifications/sms", notifications)
	r.POST("/api/notifications/push", notifications)
}

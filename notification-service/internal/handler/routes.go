package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const HealthMessage = "Notification Service is Up and Running!"

// RegisterRoutes mounts the health check and, when sendEnabled, the direct
// send endpoints.
func RegisterRoutes(r gin.IRouter, h *NotificationHandler, sendEnabled bool) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": HealthMessage})
	})
	if !sendEnabled {
		return
	}

	n := r.Group("/api/notifications")
	{
		n.POST("/email", h.SendEmail)
		n.POST("/sms", h.SendSMS)
		n.POST("/push", h.SendPush)
	}
}

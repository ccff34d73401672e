package handler

import (
	"context"
	"net/http"

	"github.com/campusline/platform/notification-service/internal/notification"
	"github.com/campusline/platform/notification-service/internal/provider"
	"github.com/campusline/platform/shared/middleware"
	"github.com/gin-gonic/gin"
)

// Sender is the command side used by the direct HTTP send endpoints.
type Sender interface {
	SendEmail(ctx context.Context, p notification.EmailPayload) (provider.EmailResult, error)
	SendSMS(ctx context.Context, p notification.SMSPayload) (provider.SMSResult, error)
	SendPush(ctx context.Context, p notification.PushPayload) (provider.PushResult, error)
}

type NotificationHandler struct {
	commands Sender
}

func NewNotificationHandler(commands Sender) *NotificationHandler {
	return &NotificationHandler{commands: commands}
}

func (h *NotificationHandler) SendEmail(c *gin.Context) {
	var p notification.EmailPayload
	if !bindJob(c, &p) {
		return
	}

	result, err := h.commands.SendEmail(c.Request.Context(), p)
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email sent successfully via HTTP", "emailId": result.ID})
}

func (h *NotificationHandler) SendSMS(c *gin.Context) {
	var p notification.SMSPayload
	if !bindJob(c, &p) {
		return
	}

	result, err := h.commands.SendSMS(c.Request.Context(), p)
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "SMS sent successfully via HTTP", "sid": result.SID})
}

func (h *NotificationHandler) SendPush(c *gin.Context) {
	var p notification.PushPayload
	if !bindJob(c, &p) {
		return
	}

	result, err := h.commands.SendPush(c.Request.Context(), p)
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Push notification sent successfully via HTTP", "response": result.Response})
}

// bindJob decodes and validates the body into job, answering 400 itself on
// failure.
func bindJob(c *gin.Context, job notification.Job) bool {
	if err := c.ShouldBindJSON(job); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := job.Validate(); err != nil {
		middleware.RespondWithAppError(c, err)
		return false
	}
	return true
}

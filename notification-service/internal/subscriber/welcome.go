package subscriber

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/campusline/platform/notification-service/internal/notification"
	"github.com/campusline/platform/notification-service/internal/provider"
	"github.com/campusline/platform/shared/events"
	"github.com/campusline/platform/shared/logger"
)

type EmailSender interface {
	SendEmail(ctx context.Context, p notification.EmailPayload) (provider.EmailResult, error)
}

type DeliveryLog interface {
	AlreadySent(ctx context.Context, userID string) bool
	MarkSent(ctx context.Context, userID string)
}

// Welcome sends a welcome email for every user.registered event.
type Welcome struct {
	emails  EmailSender
	sent    DeliveryLog
	subject string
	log     logger.Logger
}

func NewWelcome(emails EmailSender, sent DeliveryLog, subject string, log logger.Logger) *Welcome {
	return &Welcome{emails: emails, sent: sent, subject: subject, log: log}
}

// HandleUserEvent is an events.Handler. A returned error leaves the stream
// entry pending for redelivery; a missing email provider is not retried.
func (w *Welcome) HandleUserEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.UserRegistered {
		return nil
	}

	var user events.UserEvent
	if err := events.DecodeData(event, &user); err != nil {
		return fmt.Errorf("failed to decode %s event: %w", event.Type, err)
	}
	fields := logger.Fields{"userId": user.UserID, "to": user.Email}
	if user.Email == "" {
		w.log.Warn("user.registered event without email, skipping welcome email", fields)
		return nil
	}
	if w.sent.AlreadySent(ctx, user.UserID) {
		w.log.Info("welcome email already sent, skipping duplicate event", fields)
		return nil
	}

	_, err := w.emails.SendEmail(ctx, welcomeEmail(user, w.subject))
	if errors.Is(err, provider.ErrNotConfigured) {
		w.log.Warn("email provider not configured, welcome email skipped", fields)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	w.sent.MarkSent(ctx, user.UserID)
	return nil
}

func welcomeEmail(user events.UserEvent, subject string) notification.EmailPayload {
	return notification.EmailPayload{
		To:      user.Email,
		Subject: subject,
		HTML:    fmt.Sprintf("<p>Hi %s,</p><p>Your %s account is ready.</p>", html.EscapeString(user.Username), html.EscapeString(user.Role)),
		Text:    fmt.Sprintf("Hi %s,\n\nYour %s account is ready.", user.Username, user.Role),
	}
}

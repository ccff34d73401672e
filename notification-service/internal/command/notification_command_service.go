package command

import (
	"context"
	"fmt"

	"github.com/campusline/platform/notification-service/internal/notification"
	"github.com/campusline/platform/notification-service/internal/provider"
	"github.com/campusline/platform/shared/logger"
	"github.com/campusline/platform/shared/metrics"
)

type EmailSender interface {
	Send(ctx context.Context, p notification.EmailPayload) (provider.EmailResult, error)
}

type SMSSender interface {
	Send(ctx context.Context, p notification.SMSPayload) (provider.SMSResult, error)
}

type PushSender interface {
	Send(ctx context.Context, p notification.PushPayload) (provider.PushResult, error)
}

// NotificationCommandService routes validated jobs to their provider. It is
// shared by the queue consumer, the HTTP surface and the event subscriber.
type NotificationCommandService struct {
	email EmailSender
	sms   SMSSender
	push  PushSender
	log   logger.Logger
}

func NewNotificationCommandService(email EmailSender, sms SMSSender, push PushSender, log logger.Logger) *NotificationCommandService {
	return &NotificationCommandService{email: email, sms: sms, push: push, log: log}
}

// Dispatch sends job on its channel. Exactly one provider call is made.
func (s *NotificationCommandService) Dispatch(ctx context.Context, job notification.Job) error {
	switch j := job.(type) {
	case notification.EmailPayload:
		_, err := s.SendEmail(ctx, j)
		return err
	case notification.SMSPayload:
		_, err := s.SendSMS(ctx, j)
		return err
	case notification.PushPayload:
		_, err := s.SendPush(ctx, j)
		return err
	default:
		return fmt.Errorf("%w: %T", notification.ErrUnknownType, job)
	}
}

func (s *NotificationCommandService) SendEmail(ctx context.Context, p notification.EmailPayload) (provider.EmailResult, error) {
	result, err := s.email.Send(ctx, p)
	s.record(notification.TypeEmail, err, logger.Fields{"to": p.To, "emailId": result.ID})
	return result, err
}

func (s *NotificationCommandService) SendSMS(ctx context.Context, p notification.SMSPayload) (provider.SMSResult, error) {
	result, err := s.sms.Send(ctx, p)
	s.record(notification.TypeSMS, err, logger.Fields{"to": p.To, "sid": result.SID})
	return result, err
}

func (s *NotificationCommandService) SendPush(ctx context.Context, p notification.PushPayload) (provider.PushResult, error) {
	result, err := s.push.Send(ctx, p)
	s.record(notification.TypePush, err, logger.Fields{"deviceToken": p.DeviceToken, "response": result.Response})
	return result, err
}

func (s *NotificationCommandService) record(channel notification.Type, err error, fields logger.Fields) {
	fields["channel"] = string(channel)
	if err != nil {
		metrics.RecordNotification(string(channel), metrics.OutcomeFailed)
		fields["error"] = err
		s.log.Error("notification send failed", fields)
		return
	}
	metrics.RecordNotification(string(channel), metrics.OutcomeSent)
	s.log.Info("notification sent", fields)
}

package provider

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/campusline/platform/notification-service/internal/notification"
	"github.com/campusline/platform/shared/errs"
	"google.golang.org/api/option"
)

// FCMSender is the part of the Firebase messaging client used here.
type FCMSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type PushResult struct {
	Response string `json:"response"`
}

type Push struct {
	sender FCMSender
}

// NewPush initialises Firebase from a service account file. An empty path
// yields an unconfigured channel. On failure the returned Push is still
// usable (unconfigured) so the caller can log and carry on.
func NewPush(ctx context.Context, credentialsPath string) (*Push, error) {
	if credentialsPath == "" {
		return &Push{}, nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return &Push{}, fmt.Errorf("failed to initialise firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return &Push{}, fmt.Errorf("failed to initialise firebase messaging: %w", err)
	}
	return NewPushWithClient(client), nil
}

func NewPushWithClient(sender FCMSender) *Push {
	return &Push{sender: sender}
}

func (p *Push) Configured() bool {
	return p.sender != nil
}

func (p *Push) Send(ctx context.Context, payload notification.PushPayload) (PushResult, error) {
	if !p.Configured() {
		return PushResult{}, ErrPushNotConfigured
	}

	data := payload.Data
	if data == nil {
		data = map[string]string{}
	}
	response, err := p.sender.Send(ctx, &messaging.Message{
		Token: payload.DeviceToken,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: data,
	})
	if err != nil {
		return PushResult{}, errs.Wrap(errs.Upstream, "Failed to send push notification: "+err.Error(), err)
	}
	return PushResult{Response: response}, nil
}

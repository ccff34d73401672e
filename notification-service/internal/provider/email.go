package provider

import (
	"context"
	"net/http"

	"github.com/campusline/platform/notification-service/internal/notification"
	"github.com/campusline/platform/shared/errs"
	"github.com/resend/resend-go/v2"
)

// ResendEmails is the part of the Resend SDK used here. *resend.Client's
// Emails field satisfies it.
type ResendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type EmailResult struct {
	ID string `json:"emailId"`
}

// Email sends through Resend. It needs both an API key and a sender address.
type Email struct {
	emails ResendEmails
	from   string
}

func NewEmail(apiKey, from string) *Email {
	if apiKey == "" {
		return &Email{from: from}
	}
	client := resend.NewCustomClient(&http.Client{Transport: statusRecorder{base: http.DefaultTransport}}, apiKey)
	return NewEmailWithClient(client.Emails, from)
}

func NewEmailWithClient(emails ResendEmails, from string) *Email {
	return &Email{emails: emails, from: from}
}

func (e *Email) Configured() bool {
	return e.emails != nil && e.from != ""
}

func (e *Email) Send(ctx context.Context, p notification.EmailPayload) (EmailResult, error) {
	if !e.Configured() {
		return EmailResult{}, ErrEmailNotConfigured
	}

	status := 0
	resp, err := e.emails.SendWithContext(context.WithValue(ctx, statusKey{}, &status), &resend.SendEmailRequest{
		From:    e.from,
		To:      []string{p.To},
		Subject: p.Subject,
		Html:    p.HTML,
		Text:    p.Text,
	})
	if err != nil {
		message := "Failed to send email: " + err.Error()
		if status >= http.StatusBadRequest {
			return EmailResult{}, errs.UpstreamWithStatus(status, message, err)
		}
		return EmailResult{}, errs.Wrap(errs.Upstream, message, err)
	}
	return EmailResult{ID: resp.Id}, nil
}

type statusKey struct{}

// statusRecorder stores each response status in the *int the request context
// carries under statusKey. Resend errors do not expose the status themselves.
type statusRecorder struct {
	base http.RoundTripper
}

func (r statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.base.RoundTrip(req)
	if err == nil {
		if status, ok := req.Context().Value(statusKey{}).(*int); ok {
			*status = resp.StatusCode
		}
	}
	return resp, err
}

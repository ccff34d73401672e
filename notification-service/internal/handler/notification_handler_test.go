package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campusline/platform/notification-service/internal/notification"
	"github.com/campusline/platform/notification-service/internal/provider"
	"github.com/campusline/platform/shared/errs"
	"github.com/campusline/platform/shared/logger"
	"github.com/campusline/platform/shared/middleware"
	"github.com/gin-gonic/gin"
)

// ---- mock implementations ----

type mockSender struct {
	emailFn func(notification.EmailPayload) (provider.EmailResult, error)
	smsFn   func(notification.SMSPayload) (provider.SMSResult, error)
	pushFn  func(notification.PushPayload) (provider.PushResult, error)
	calls   int
}

func (m *mockSender) SendEmail(_ context.Context, p notification.EmailPayload) (provider.EmailResult, error) {
	m.calls++
	if m.emailFn != nil {
		return m.emailFn(p)
	}
	return provider.EmailResult{}, fmt.Errorf("not configured")
}

func (m *mockSender) SendSMS(_ context.Context, p notification.SMSPayload) (provider.SMSResult, error) {
	m.calls++
	if m.smsFn != nil {
		return m.smsFn(p)
	}
	return provider.SMSResult{}, fmt.Errorf("not configured")
}

func (m *mockSender) SendPush(_ context.Context, p notification.PushPayload) (provider.PushResult, error) {
	m.calls++
	if m.pushFn != nil {
		return m.pushFn(p)
	}
	return provider.PushResult{}, fmt.Errorf("not configured")
}

// ---- helpers ----

func newTestRouter(sender Sender, sendEnabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler(logger.Nop(), false))
	RegisterRoutes(r, NewNotificationHandler(sender), sendEnabled)
	return r
}

func post(router *gin.Engine, url, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", w.Body.String(), err)
	}
	return body
}

// ---- tests ----

func TestHealth(t *testing.T) {
	r := newTestRouter(&mockSender{}, false)
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decode(t, w)["status"]; got != HealthMessage {
		t.Errorf("unexpected health status %v", got)
	}
}

func TestSendEndpointsDisabled(t *testing.T) {
	sender := &mockSender{}
	w := post(newTestRouter(sender, false), "/api/notifications/email", `{"to":"a@b.co","subject":"s","text":"t"}`)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 when disabled, got %d", w.Code)
	}
	if sender.calls != 0 {
		t.Errorf("expected no sends, got %d", sender.calls)
	}
}

func TestSendEmail(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		emailFn         func(notification.EmailPayload) (provider.EmailResult, error)
		expectedStatus  int
		expectedMessage string
		expectedCalls   int
	}{
		{
			name: "sent",
			body: `{"to":"a@b.co","subject":"Hello","html":"<p>hi</p>"}`,
			emailFn: func(p notification.EmailPayload) (provider.EmailResult, error) {
				if p.To != "a@b.co" || p.HTML != "<p>hi</p>" {
					return provider.EmailResult{}, fmt.Errorf("unexpected payload %+v", p)
				}
				return provider.EmailResult{ID: "email-1"}, nil
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "Email sent successfully via HTTP",
			expectedCalls:   1,
		},
		{
			name:            "missing body fields",
			body:            `{"to":"a@b.co","subject":"Hello"}`,
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Missing required fields for email: to, subject, and either html or text",
		},
		{
			name:            "malformed json",
			body:            `{"to":`,
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid request body",
		},
		{
			name: "provider not configured",
			body: `{"to":"a@b.co","subject":"Hello","text":"hi"}`,
			emailFn: func(notification.EmailPayload) (provider.EmailResult, error) {
				return provider.EmailResult{}, provider.ErrEmailNotConfigured
			},
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Email service not fully configured.",
			expectedCalls:   1,
		},
		{
			name: "provider rejected",
			body: `{"to":"a@b.co","subject":"Hello","text":"hi"}`,
			emailFn: func(notification.EmailPayload) (provider.EmailResult, error) {
				return provider.EmailResult{}, errs.UpstreamWithStatus(http.StatusUnprocessableEntity, "Failed to send email: invalid from", fmt.Errorf("422"))
			},
			expectedStatus:  http.StatusUnprocessableEntity,
			expectedMessage: "Failed to send email: invalid from",
			expectedCalls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &mockSender{emailFn: tt.emailFn}
			w := post(newTestRouter(sender, true), "/api/notifications/email", tt.body)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			body := decode(t, w)
			if body["message"] != tt.expectedMessage {
				t.Errorf("expected message %q, got %v", tt.expectedMessage, body["message"])
			}
			if sender.calls != tt.expectedCalls {
				t.Errorf("expected %d sends, got %d", tt.expectedCalls, sender.calls)
			}
			if tt.expectedStatus == http.StatusOK && body["emailId"] != "email-1" {
				t.Errorf("expected emailId, got %v", body["emailId"])
			}
		})
	}
}

func TestSendSMS(t *testing.T) {
	sender := &mockSender{smsFn: func(p notification.SMSPayload) (provider.SMSResult, error) {
		return provider.SMSResult{SID: "SM1"}, nil
	}}
	r := newTestRouter(sender, true)

	w := post(r, "/api/notifications/sms", `{"to":"+14155550100","body":"code 1234"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["message"] != "SMS sent successfully via HTTP" || body["sid"] != "SM1" {
		t.Errorf("unexpected body %v", body)
	}

	w = post(r, "/api/notifications/sms", `{"to":"+14155550100"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if got := decode(t, w)["message"]; got != "Missing required fields for SMS: to (phone number), body" {
		t.Errorf("unexpected message %v", got)
	}
	if sender.calls != 1 {
		t.Errorf("expected 1 send, got %d", sender.calls)
	}
}

func TestSendPush(t *testing.T) {
	var got notification.PushPayload
	sender := &mockSender{pushFn: func(p notification.PushPayload) (provider.PushResult, error) {
		got = p
		return provider.PushResult{Response: "projects/p/messages/1"}, nil
	}}
	r := newTestRouter(sender, true)

	w := post(r, "/api/notifications/push", `{"deviceToken":"tok","title":"T","body":"B","data":{"k":"v"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["message"] != "Push notification sent successfully via HTTP" || body["response"] != "projects/p/messages/1" {
		t.Errorf("unexpected body %v", body)
	}
	if got.Data["k"] != "v" {
		t.Errorf("expected data to be forwarded, got %v", got.Data)
	}

	sender.pushFn = func(notification.PushPayload) (provider.PushResult, error) {
		return provider.PushResult{}, provider.ErrPushNotConfigured
	}
	w = post(r, "/api/notifications/push", `{"deviceToken":"tok","title":"T","body":"B"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if msg := decode(t, w)["message"]; msg != "Firebase Admin SDK not initialized for push sending." {
		t.Errorf("unexpected message %v", msg)
	}
}

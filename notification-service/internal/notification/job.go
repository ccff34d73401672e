package notification

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/campusline/platform/shared/errs"
	"github.com/go-playground/validator/v10"
)

type Type string

const (
	TypeEmail Type = "email"
	TypeSMS   Type = "sms"
	TypePush  Type = "push"
)

var (
	// ErrUnknownType marks a message whose type tag has no matching channel.
	ErrUnknownType = errors.New("unknown notification type")
	// ErrMalformed marks a message body that is not a valid job envelope.
	ErrMalformed = errors.New("malformed notification message")

	ErrInvalidEmail = errs.New(errs.Validation, "Missing required fields for email: to, subject, and either html or text")
	ErrInvalidSMS   = errs.New(errs.Validation, "Missing required fields for SMS: to (phone number), body")
	ErrInvalidPush  = errs.New(errs.Validation, "Missing required fields for Push Notification: deviceToken, title, body")
)

var validate = validator.New()

// Job is one of EmailPayload, SMSPayload or PushPayload.
type Job interface {
	Type() Type
	Validate() error
}

type EmailPayload struct {
	To      string `json:"to" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	HTML    string `json:"html,omitempty" validate:"required_without=Text"`
	Text    string `json:"text,omitempty" validate:"required_without=HTML"`
}

func (EmailPayload) Type() Type { return TypeEmail }

func (p EmailPayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return errs.Wrap(errs.Validation, ErrInvalidEmail.Message, err)
	}
	return nil
}

type SMSPayload struct {
	To   string `json:"to" validate:"required"`
	Body string `json:"body" validate:"required"`
}

func (SMSPayload) Type() Type { return TypeSMS }

func (p SMSPayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return errs.Wrap(errs.Validation, ErrInvalidSMS.Message, err)
	}
	return nil
}

type PushPayload struct {
	DeviceToken string            `json:"deviceToken" validate:"required"`
	Title       string            `json:"title" validate:"required"`
	Body        string            `json:"body" validate:"required"`
	Data        map[string]string `json:"data,omitempty"`
}

func (PushPayload) Type() Type { return TypePush }

func (p PushPayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return errs.Wrap(errs.Validation, ErrInvalidPush.Message, err)
	}
	return nil
}

type envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode parses a queue message body into a validated Job. The returned
// error wraps ErrUnknownType, ErrMalformed or a validation error.
func Decode(body []byte) (Job, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var job Job
	switch env.Type {
	case TypeEmail:
		var p EmailPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		job = p
	case TypeSMS:
		var p SMSPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		job = p
	case TypePush:
		var p PushPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		job = p
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

// Encode builds the queue message body for job.
func Encode(job Job) ([]byte, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: job.Type(), Payload: payload})
}

func decodePayload(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", ErrMalformed)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

package provider

import (
	"errors"

	"github.com/campusline/platform/shared/errs"
)

// ErrNotConfigured is wrapped by every channel's not-configured error.
var ErrNotConfigured = errors.New("provider not configured")

var (
	ErrEmailNotConfigured = errs.Wrap(errs.Configuration, "Email service not fully configured.", ErrNotConfigured)
	ErrSMSNotConfigured   = errs.Wrap(errs.Configuration, "Twilio service not fully configured.", ErrNotConfigured)
	ErrPushNotConfigured  = errs.Wrap(errs.Configuration, "Firebase Admin SDK not initialized for push sending.", ErrNotConfigured)
)

package provider

import (
	"context"
	"errors"

	"github.com/campusline/platform/notification-service/internal/notification"
	"github.com/campusline/platform/shared/errs"
	"github.com/nyaruka/phonenumbers"
	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioMessages is the part of the Twilio SDK used here. *openapi.ApiService
// (twilio.RestClient.Api) satisfies it.
type TwilioMessages interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type SMSResult struct {
	SID string `json:"sid"`
}

// SMS sends through Twilio from a fixed sender number.
type SMS struct {
	messages TwilioMessages
	from     string
}

func NewSMS(accountSID, authToken, from string) *SMS {
	if accountSID == "" || authToken == "" {
		return &SMS{from: from}
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return NewSMSWithClient(client.Api, from)
}

func NewSMSWithClient(messages TwilioMessages, from string) *SMS {
	return &SMS{messages: messages, from: from}
}

func (s *SMS) Configured() bool {
	return s.messages != nil && s.from != ""
}

// Send ignores ctx cancellation; the Twilio SDK call is not context aware.
func (s *SMS) Send(_ context.Context, p notification.SMSPayload) (SMSResult, error) {
	if !s.Configured() {
		return SMSResult{}, ErrSMSNotConfigured
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(normalizeNumber(p.To))
	params.SetFrom(s.from)
	params.SetBody(p.Body)

	msg, err := s.messages.CreateMessage(params)
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) && restErr.Status >= 400 {
			return SMSResult{}, errs.UpstreamWithStatus(restErr.Status, "Failed to send SMS: "+restErr.Message, err)
		}
		return SMSResult{}, errs.Wrap(errs.Upstream, "Failed to send SMS: "+err.Error(), err)
	}

	result := SMSResult{}
	if msg != nil && msg.Sid != nil {
		result.SID = *msg.Sid
	}
	return result, nil
}

// normalizeNumber formats international numbers as E.164. Anything that does
// not parse is passed to Twilio unchanged.
func normalizeNumber(to string) string {
	num, err := phonenumbers.Parse(to, "")
	if err != nil {
		return to
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

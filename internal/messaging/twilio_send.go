package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

var twilioSendTracer = otel.Tracer("whatsapp-triage.internal.messaging.twilio_send")

type messageCreator interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

// ReplySender delivers one outbound WhatsApp message.
type ReplySender interface {
	SendReply(ctx context.Context, to, body string) (string, error)
}

// TwilioSender sends WhatsApp replies through the Twilio Messages API.
// A send is attempted once.
type TwilioSender struct {
	from   string
	client messageCreator
	logger *logging.Logger
}

// NewTwilioSender builds a sender for the configured WhatsApp number.
func NewTwilioSender(accountSID, authToken, from string, logger *logging.Logger) (*TwilioSender, error) {
	if strings.TrimSpace(accountSID) == "" || strings.TrimSpace(authToken) == "" {
		return nil, errors.New("messaging: twilio credentials missing")
	}
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newTwilioSender(rest.Api, from, logger)
}

func newTwilioSender(creator messageCreator, from string, logger *logging.Logger) (*TwilioSender, error) {
	address := WhatsAppAddress(from)
	if address == "" {
		return nil, errors.New("messaging: whatsapp from number required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSender{from: address, client: creator, logger: logger}, nil
}

// SendReply posts body to the WhatsApp address and returns the message sid.
func (s *TwilioSender) SendReply(ctx context.Context, to, body string) (string, error) {
	recipient := WhatsAppAddress(to)
	if recipient == "" {
		return "", errors.New("messaging: to required")
	}
	if strings.TrimSpace(body) == "" {
		return "", errors.New("messaging: body required")
	}

	_, span := twilioSendTracer.Start(ctx, "messaging.twilio.send")
	defer span.End()
	span.SetAttributes(attribute.String("triage.to", maskAddress(recipient)))

	params := &api.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.CreateMessage(params)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("messaging: twilio send failed: %w", err)
	}
	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	status := ""
	if resp != nil && resp.Status != nil {
		status = *resp.Status
	}
	s.logger.Info("whatsapp reply sent", "to", maskAddress(recipient), "message_sid", sid, "status", status)
	return sid, nil
}

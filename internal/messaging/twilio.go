package messaging

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/twilio/twilio-go/client"
)

// ErrMalformedWebhook marks an inbound payload the pipeline cannot use.
var ErrMalformedWebhook = errors.New("messaging: malformed whatsapp webhook")

// InboundMessage is one WhatsApp message as delivered by Twilio.
type InboundMessage struct {
	MessageSID       string
	AccountSID       string
	From             string
	To               string
	Body             string
	NumMedia         int
	MediaURL         string
	MediaContentType string
	ProfileName      string
	ReceivedAt       time.Time
}

// ParseWhatsAppWebhook parses the form-encoded Twilio payload. Only the
// sender is required; the body may be empty for media-only messages.
func ParseWhatsAppWebhook(r *http.Request) (*InboundMessage, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: failed to parse form: %w", ErrMalformedWebhook, err)
	}

	msg := &InboundMessage{
		MessageSID:       strings.TrimSpace(r.PostFormValue("MessageSid")),
		AccountSID:       strings.TrimSpace(r.PostFormValue("AccountSid")),
		From:             strings.TrimSpace(r.PostFormValue("From")),
		To:               strings.TrimSpace(r.PostFormValue("To")),
		Body:             r.PostFormValue("Body"),
		MediaURL:         strings.TrimSpace(r.PostFormValue("MediaUrl0")),
		MediaContentType: strings.TrimSpace(r.PostFormValue("MediaContentType0")),
		ProfileName:      strings.TrimSpace(r.PostFormValue("ProfileName")),
		ReceivedAt:       time.Now().UTC(),
	}
	if msg.From == "" {
		return nil, fmt.Errorf("%w: missing From", ErrMalformedWebhook)
	}
	if raw := strings.TrimSpace(r.PostFormValue("NumMedia")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: invalid NumMedia %q", ErrMalformedWebhook, raw)
		}
		msg.NumMedia = n
	}
	if msg.NumMedia == 0 && msg.MediaURL != "" {
		msg.NumMedia = 1
	}
	return msg, nil
}

// ValidateTwilioSignature checks X-Twilio-Signature against the webhook URL
// and the POST form. The form must already be parsed or parseable.
func ValidateTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" || authToken == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}

	params := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	validator := client.NewRequestValidator(authToken)
	return validator.Validate(webhookURL, params, signature)
}

// buildAbsoluteURL reconstructs the URL Twilio signed. A configured public
// base URL wins over forwarded headers.
func buildAbsoluteURL(r *http.Request, publicBaseURL string) string {
	if r.URL == nil {
		return ""
	}
	if base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"); base != "" {
		return base + r.URL.RequestURI()
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}

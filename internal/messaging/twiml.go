package messaging

import (
	"fmt"

	"github.com/twilio/twilio-go/twiml"
)

// EmptyTwiML acknowledges a webhook without replying.
const EmptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// MessageTwiML renders a TwiML response carrying one reply message.
func MessageTwiML(body string) (string, error) {
	doc, err := twiml.Messages([]twiml.Element{&twiml.MessagingMessage{Body: body}})
	if err != nil {
		return "", fmt.Errorf("messaging: failed to render twiml: %w", err)
	}
	return doc, nil
}

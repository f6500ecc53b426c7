package messaging

import (
	"regexp"
	"strings"
)

const whatsAppPrefix = "whatsapp:"

var phoneDigitsRe = regexp.MustCompile(`\d+`)

// NormalizeE164 ensures the value begins with + and only contains digits afterward.
func NormalizeE164(value string) string {
	value = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), whatsAppPrefix))
	if value == "" {
		return ""
	}
	digits := sanitizePhone(value)
	if digits == "" {
		return ""
	}
	return "+" + digits
}

// WhatsAppAddress returns the "whatsapp:+E164" form Twilio expects for the
// WhatsApp channel.
func WhatsAppAddress(value string) string {
	number := NormalizeE164(value)
	if number == "" {
		return ""
	}
	return whatsAppPrefix + number
}

func sanitizePhone(value string) string {
	if value == "" {
		return ""
	}
	return strings.Join(phoneDigitsRe.FindAllString(value, -1), "")
}

// maskAddress keeps the last four digits for logs.
func maskAddress(value string) string {
	digits := sanitizePhone(value)
	if len(digits) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

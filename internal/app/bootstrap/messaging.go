package bootstrap

import (
	"fmt"

	appconfig "github.com/wolfman30/whatsapp-triage/internal/config"
	"github.com/wolfman30/whatsapp-triage/internal/messaging"
	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

// BuildReplySender returns the REST sender for REPLY_MODE, or nil when
// replies go inline as TwiML. The string names the effective mode.
func BuildReplySender(cfg *appconfig.Config, logger *logging.Logger) (messaging.ReplySender, string, error) {
	switch cfg.ReplyMode {
	case "twiml":
		return nil, "twiml", nil
	case "", "auto":
		if !cfg.TwilioConfigured() || cfg.TwilioWhatsAppFrom == "" {
			logger.Info("twilio rest sender not configured; replying inline")
			return nil, "twiml", nil
		}
	case "rest":
		if !cfg.TwilioConfigured() || cfg.TwilioWhatsAppFrom == "" {
			return nil, "", fmt.Errorf("bootstrap: REPLY_MODE=rest requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_WHATSAPP_FROM")
		}
	default:
		return nil, "", fmt.Errorf("bootstrap: unknown reply mode %q", cfg.ReplyMode)
	}

	sender, err := messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom, logger.Component("twilio"))
	if err != nil {
		return nil, "", fmt.Errorf("bootstrap: build twilio sender: %w", err)
	}
	return sender, "rest", nil
}

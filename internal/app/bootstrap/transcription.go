package bootstrap

import (
	"context"
	"fmt"

	"github.com/wolfman30/whatsapp-triage/internal/transcription"
	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

// BuildTranscriber wires the voice-note adapter. A missing provider key is
// not fatal: voice notes then get the "could not understand" reply.
func (c *clients) BuildTranscriber(ctx context.Context, observer transcription.Observer, logger *logging.Logger) (*transcription.Adapter, error) {
	var tr transcription.Transcriber
	switch c.cfg.Transcriber {
	case "", ProviderGemini:
		client, err := c.geminiClient(ctx)
		if err != nil {
			logger.Warn("voice notes disabled", "transcriber", "gemini", "error", err)
			return nil, nil
		}
		tr = transcription.NewGeminiTranscriber(client, c.cfg.GeminiModel)
	case "whisper", ProviderOpenAI:
		client, err := c.openAIClient()
		if err != nil {
			logger.Warn("voice notes disabled", "transcriber", "whisper", "error", err)
			return nil, nil
		}
		tr = transcription.NewWhisperTranscriber(client, c.cfg.WhisperModel)
	default:
		return nil, fmt.Errorf("bootstrap: unknown transcriber %q", c.cfg.Transcriber)
	}

	if !c.cfg.TwilioConfigured() {
		logger.Warn("twilio credentials missing; media downloads are unauthenticated")
	}
	downloader := transcription.NewMediaDownloader(c.cfg.TwilioAccountSID, c.cfg.TwilioAuthToken, c.cfg.MediaMaxBytes, nil)
	logger.Info("voice notes enabled", "transcriber", tr.Name())
	return transcription.NewAdapter(downloader, tr, c.cfg.TranscriptionTimeout, observer, logger.Component("transcription")), nil
}

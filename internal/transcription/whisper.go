package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// WhisperTranscriber uses OpenAI's speech-to-text endpoint.
type WhisperTranscriber struct {
	client *openai.Client
	model  string
}

// NewWhisperTranscriber builds a transcriber on an existing OpenAI client.
func NewWhisperTranscriber(client *openai.Client, model string) *WhisperTranscriber {
	if client == nil {
		panic("transcription: openai client cannot be nil")
	}
	if strings.TrimSpace(model) == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{client: client, model: model}
}

func (t *WhisperTranscriber) Name() string { return "whisper" }

// Transcribe implements Transcriber.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", errors.New("whisper: audio is empty")
	}
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model: t.model,
		// The API infers the codec from the file extension.
		FilePath: "voice-note" + audioExtension(audio.MIMEType),
		Reader:   bytes.NewReader(audio.Data),
	})
	if err != nil {
		return "", fmt.Errorf("whisper: create transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func audioExtension(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a", "audio/aac":
		return ".m4a"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/webm":
		return ".webm"
	case "audio/amr":
		return ".amr"
	default:
		return ".ogg"
	}
}

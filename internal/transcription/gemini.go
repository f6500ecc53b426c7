package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

const geminiTranscribePrompt = "Transcribe the following audio recording into the language being spoken. Provide only the text transcription."

type geminiContentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiTranscriber sends voice notes to Gemini as inline audio.
type GeminiTranscriber struct {
	model geminiContentGenerator
}

// NewGeminiTranscriber uses client with the given model id.
func NewGeminiTranscriber(client *genai.Client, modelID string) *GeminiTranscriber {
	if client == nil {
		panic("transcription: gemini client cannot be nil")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}
	model := client.GenerativeModel(modelID)
	model.SetTemperature(0)
	return &GeminiTranscriber{model: model}
}

func (t *GeminiTranscriber) Name() string { return "gemini" }

// Transcribe implements Transcriber.
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", errors.New("gemini: audio is empty")
	}
	mimeType := audio.MIMEType
	if mimeType == "" {
		mimeType = "audio/ogg"
	}

	resp, err := t.model.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: audio.Data},
		genai.Text(geminiTranscribePrompt),
	)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	return geminiResponseText(resp)
}

func geminiResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", errors.New("gemini: empty content")
	}
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return strings.TrimSpace(text.String()), nil
}

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	appconfig "github.com/wolfman30/whatsapp-triage/internal/config"
	"github.com/wolfman30/whatsapp-triage/internal/conversation"
	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

type recordingTriage struct {
	seen []conversation.Inbound
}

func (r *recordingTriage) Handle(_ context.Context, in conversation.Inbound) conversation.Reply {
	r.seen = append(r.seen, in)
	return conversation.Reply{Body: "reply to " + in.Body, Path: conversation.PathLLM, Language: "en"}
}

func TestConverseSendsEachLine(t *testing.T) {
	svc := &recordingTriage{}
	var out bytes.Buffer

	err := converse(context.Background(), svc, "cli", strings.NewReader("fever\n\n  cough  \n"), &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(svc.seen) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(svc.seen))
	}
	if svc.seen[1].Body != "cough" || svc.seen[1].Sender != "cli" {
		t.Fatalf("unexpected inbound %+v", svc.seen[1])
	}
	if !strings.Contains(out.String(), "[llm/en]\nreply to fever") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func cliConfig() *appconfig.Config {
	return &appconfig.Config{
		LLMProvider:          "openai",
		OpenAIAPIKey:         "sk-test",
		OpenAIModel:          "gpt-4o-mini",
		Transcriber:          "whisper",
		WhisperModel:         "whisper-1",
		TranscriptionTimeout: time.Second,
		LLMTimeout:           time.Second,
		SessionStore:         "memory",
		SessionTimeout:       5 * time.Minute,
		HistoryMaxTurns:      6,
	}
}

func TestRunAnswersEmergencyOffline(t *testing.T) {
	var out bytes.Buffer

	err := run(context.Background(), cliConfig(), logging.Discard(), "cli", "", "", strings.NewReader("chest pain\n"), &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "[emergency/") || !strings.Contains(out.String(), "108") {
		t.Fatalf("expected emergency reply, got %q", out.String())
	}
}

func TestRunReturnsBuildError(t *testing.T) {
	cfg := cliConfig()
	cfg.LLMProvider = "carrier-pigeon"

	err := run(context.Background(), cfg, logging.Discard(), "cli", "", "", strings.NewReader("fever"), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "build triage service") {
		t.Fatalf("expected build error, got %v", err)
	}
}

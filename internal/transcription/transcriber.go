package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

var tracer = otel.Tracer("whatsapp-triage.internal.transcription")

// ErrTranscription is matched by every error returned from Adapter.
var ErrTranscription = errors.New("transcription: failed")

// Error records which stage of the voice-note pipeline failed.
type Error struct {
	Provider string
	Stage    string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transcription: %s %s: %v", e.Provider, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTranscription) hold for every *Error.
func (e *Error) Is(target error) bool { return target == ErrTranscription }

// Audio is a downloaded voice note.
type Audio struct {
	Data     []byte
	MIMEType string
}

// Transcriber turns audio into text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// Downloader fetches media referenced by a webhook.
type Downloader interface {
	Download(ctx context.Context, mediaURL, contentType string) (Audio, error)
}

// Observer records transcription outcomes.
type Observer interface {
	ObserveTranscription(provider, status string)
}

// Adapter downloads a voice note and transcribes it.
type Adapter struct {
	downloader  Downloader
	transcriber Transcriber
	timeout     time.Duration
	observer    Observer
	logger      *logging.Logger
}

// NewAdapter wires the download and transcription stages.
func NewAdapter(downloader Downloader, transcriber Transcriber, timeout time.Duration, observer Observer, logger *logging.Logger) *Adapter {
	if downloader == nil {
		panic("transcription: downloader cannot be nil")
	}
	if transcriber == nil {
		panic("transcription: transcriber cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Adapter{
		downloader:  downloader,
		transcriber: transcriber,
		timeout:     timeout,
		observer:    observer,
		logger:      logger,
	}
}

// TranscribeURL downloads mediaURL and returns its transcript. Every failure,
// including an empty transcript, is returned as *Error.
func (a *Adapter) TranscribeURL(ctx context.Context, mediaURL, contentType string) (string, error) {
	provider := a.transcriber.Name()
	ctx, span := tracer.Start(ctx, "transcription.transcribe_url")
	defer span.End()
	span.SetAttributes(
		attribute.String("triage.transcription.provider", provider),
		attribute.String("triage.media.content_type", contentType),
	)

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	fail := func(stage string, err error) (string, error) {
		span.RecordError(err)
		a.observe(provider, "error")
		a.logger.Warn("voice note transcription failed", "provider", provider, "stage", stage, "error", err)
		return "", &Error{Provider: provider, Stage: stage, Err: err}
	}

	audio, err := a.downloader.Download(ctx, mediaURL, contentType)
	if err != nil {
		return fail("download", err)
	}

	text, err := a.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return fail("transcribe", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fail("transcribe", errors.New("empty transcript"))
	}

	a.observe(provider, "ok")
	a.logger.Debug("voice note transcribed", "provider", provider, "bytes", len(audio.Data), "chars", len(text))
	return text, nil
}

func (a *Adapter) observe(provider, status string) {
	if a.observer != nil {
		a.observer.ObserveTranscription(provider, status)
	}
}

// IsAudio reports whether a media content type should be transcribed. Twilio
// omits the type for some voice notes, so an empty type counts as audio.
func IsAudio(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return ct == "" || strings.HasPrefix(ct, "audio/")
}

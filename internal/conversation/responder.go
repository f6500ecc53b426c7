package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

// LLMObserver records reasoning-call outcomes.
type LLMObserver interface {
	ObserveLLM(status string, seconds float64)
}

type ResponderConfig struct {
	Provider    string
	Model       string
	MaxTurns    int
	Temperature float32
	MaxTokens   int32
	Timeout     time.Duration
}

// Responder asks the reasoning model for a triage reply with the sender's
// recent history as context.
type Responder struct {
	llm      LLMClient
	cfg      ResponderConfig
	observer LLMObserver
	logger   *logging.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

func NewResponder(llm LLMClient, cfg ResponderConfig, observer LLMObserver, logger *logging.Logger) *Responder {
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Responder{
		llm:      llm,
		cfg:      cfg,
		observer: observer,
		logger:   logger,
		tracer:   otel.Tracer("whatsapp-triage.internal.conversation.responder"),
		now:      time.Now,
	}
}

// Respond makes exactly one completion request. On success the exchange is
// appended to sess. Every failure wraps ErrLLMUnavailable.
func (r *Responder) Respond(ctx context.Context, sess *Session, text, lang string) (string, error) {
	ctx, span := r.tracer.Start(ctx, "conversation.respond")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", r.cfg.Provider),
		attribute.String("language", lang),
		attribute.Int("history.turns", len(sess.History)),
	)

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	messages := append(sess.Messages(), ChatMessage{Role: ChatRoleUser, Content: text})
	req := LLMRequest{
		Model:       r.cfg.Model,
		System:      []string{BuildSystemPrompt(lang)},
		Messages:    messages,
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	}

	start := time.Now()
	resp, err := r.llm.Complete(ctx, req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		status := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = "timeout"
		}
		r.observe(status, elapsed)
		span.RecordError(err)
		return "", fmt.Errorf("%w: %w", ErrLLMUnavailable, err)
	}

	reply := strings.TrimSpace(resp.Text)
	if reply == "" {
		r.observe("empty", elapsed)
		return "", fmt.Errorf("%w: %w", ErrLLMUnavailable, ErrEmptyCompletion)
	}

	guard := ScanOutputForLeaks(reply)
	if guard.Leaked {
		r.logger.Warn("output guard flagged reply",
			"sender", maskSender(sess.Sender),
			"reasons", guard.Reasons,
			"blocked", guard.Sanitized == "",
		)
		if guard.Sanitized == "" {
			r.observe("blocked", elapsed)
			return "", fmt.Errorf("%w: %w", ErrLLMUnavailable, ErrUnsafeReply)
		}
		reply = guard.Sanitized
	}

	r.observe("ok", elapsed)
	r.logger.Debug("llm reply received",
		"sender", maskSender(sess.Sender),
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason,
	)
	sess.AppendTurn(text, reply, r.now(), r.cfg.MaxTurns)
	return reply, nil
}

func (r *Responder) observe(status string, seconds float64) {
	if r.observer != nil {
		r.observer.ObserveLLM(status, seconds)
	}
}

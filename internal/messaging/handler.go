package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/whatsapp-triage/internal/conversation"
	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

var twilioTracer = otel.Tracer("whatsapp-triage.internal.messaging.twilio")

// IndexMessage is served on GET /.
const IndexMessage = "✅ WhatsApp health assistant is running."

// DefaultInlineReplyBudget keeps inline TwiML replies inside Twilio's 15s
// webhook timeout.
const DefaultInlineReplyBudget = 13 * time.Second

// Triager turns one inbound message into one reply.
type Triager interface {
	Handle(ctx context.Context, in conversation.Inbound) conversation.Reply
}

// DeliveryObserver records outbound sends and webhook latency.
type DeliveryObserver interface {
	ObserveOutbound(mode, status string)
	ObserveWebhookLatency(seconds float64)
}

// SenderLimiter decides whether a sender may be triaged right now.
type SenderLimiter interface {
	Allow(key string) bool
}

// Handler serves the WhatsApp webhook.
type Handler struct {
	triage        Triager
	sender        ReplySender
	webhookSecret string
	publicBaseURL string
	observer      DeliveryObserver
	logger        *logging.Logger

	limiter      SenderLimiter
	urgent       func(text string) bool
	inlineBudget time.Duration
	inflight     sync.WaitGroup
}

// HandlerOption configures optional Handler behaviour.
type HandlerOption func(*Handler)

// WithSenderLimiter throttles each sender separately. Messages for which
// urgent reports true are never throttled.
func WithSenderLimiter(limiter SenderLimiter, urgent func(text string) bool) HandlerOption {
	return func(h *Handler) {
		h.limiter = limiter
		h.urgent = urgent
	}
}

// WithInlineReplyBudget bounds triage of inline TwiML replies. Zero or less
// removes the bound.
func WithInlineReplyBudget(d time.Duration) HandlerOption {
	return func(h *Handler) {
		h.inlineBudget = d
	}
}

// NewHandler creates the webhook handler. A nil sender means every reply is
// returned inline as TwiML; otherwise the webhook is acknowledged at once and
// the reply is sent through the REST API in the background.
func NewHandler(triage Triager, sender ReplySender, webhookSecret, publicBaseURL string, observer DeliveryObserver, logger *logging.Logger, opts ...HandlerOption) *Handler {
	if triage == nil {
		panic("messaging: triage service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{
		triage:        triage,
		sender:        sender,
		webhookSecret: webhookSecret,
		publicBaseURL: publicBaseURL,
		observer:      observer,
		logger:        logger,
		inlineBudget:  DefaultInlineReplyBudget,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// WhatsAppWebhook handles POST /whatsapp.
func (h *Handler) WhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := twilioTracer.Start(r.Context(), "messaging.whatsapp.webhook")
	defer span.End()
	defer func() {
		if h.observer != nil {
			h.observer.ObserveWebhookLatency(time.Since(start).Seconds())
		}
	}()

	if h.webhookSecret != "" {
		if !ValidateTwilioSignature(r, h.webhookSecret, buildAbsoluteURL(r, h.publicBaseURL)) {
			h.logger.Warn("invalid twilio signature")
			span.RecordError(errors.New("invalid twilio signature"))
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	msg, err := ParseWhatsAppWebhook(r)
	if err != nil {
		// Twilio retries non-2xx responses; a malformed payload will not improve.
		h.logger.Error("invalid whatsapp payload", "error", err)
		span.RecordError(err)
		writeTwiML(w, EmptyTwiML)
		return
	}
	span.SetAttributes(
		attribute.String("triage.twilio.message_sid", msg.MessageSID),
		attribute.Int("triage.twilio.num_media", msg.NumMedia),
	)
	h.logger.Info("whatsapp message received",
		"message_sid", msg.MessageSID,
		"from", maskAddress(msg.From),
		"num_media", msg.NumMedia,
		"media_type", msg.MediaContentType,
	)

	if !h.allow(msg) {
		h.logger.Warn("sender rate limited", "message_sid", msg.MessageSID, "from", maskAddress(msg.From))
		h.observeOutbound("none", "rate_limited")
		writeTwiML(w, EmptyTwiML)
		return
	}

	in := conversation.Inbound{
		Sender:           msg.From,
		Body:             msg.Body,
		MediaURL:         msg.MediaURL,
		MediaContentType: msg.MediaContentType,
		NumMedia:         msg.NumMedia,
	}

	// The reply must still go out if Twilio hangs up first.
	if h.sender != nil {
		h.inflight.Add(1)
		go h.deliver(context.WithoutCancel(ctx), msg, in)
		writeTwiML(w, EmptyTwiML)
		return
	}

	triageCtx := context.WithoutCancel(ctx)
	if h.inlineBudget > 0 {
		var cancel context.CancelFunc
		triageCtx, cancel = context.WithTimeout(triageCtx, h.inlineBudget)
		defer cancel()
	}
	reply := h.triage.Handle(triageCtx, in)
	span.SetAttributes(
		attribute.String("triage.path", string(reply.Path)),
		attribute.String("triage.language", reply.Language),
	)

	doc, err := MessageTwiML(reply.Body)
	if err != nil {
		h.observeOutbound("twiml", "error")
		h.logger.Error("failed to render reply", "message_sid", msg.MessageSID, "error", err)
		writeTwiML(w, EmptyTwiML)
		return
	}
	h.observeOutbound("twiml", "ok")
	writeTwiML(w, doc)
}

// deliver triages one acknowledged message and sends the reply over REST.
func (h *Handler) deliver(ctx context.Context, msg *InboundMessage, in conversation.Inbound) {
	defer h.inflight.Done()
	ctx, span := twilioTracer.Start(ctx, "messaging.whatsapp.deliver")
	defer span.End()
	defer func() {
		if rec := recover(); rec != nil {
			h.observeOutbound("rest", "error")
			h.logger.Error("whatsapp delivery panicked", "message_sid", msg.MessageSID, "panic", rec)
		}
	}()

	reply := h.triage.Handle(ctx, in)
	span.SetAttributes(
		attribute.String("triage.twilio.message_sid", msg.MessageSID),
		attribute.String("triage.path", string(reply.Path)),
		attribute.String("triage.language", reply.Language),
	)

	sid, err := h.sender.SendReply(ctx, msg.From, reply.Body)
	if err != nil {
		h.observeOutbound("rest", "error")
		span.RecordError(err)
		h.logger.Error("whatsapp reply not delivered", "message_sid", msg.MessageSID, "from", maskAddress(msg.From), "path", reply.Path, "error", err)
		return
	}
	h.observeOutbound("rest", "ok")
	h.logger.Info("whatsapp reply delivered", "message_sid", msg.MessageSID, "reply_sid", sid, "path", reply.Path)
}

// Drain waits for background deliveries to finish or for ctx to end.
func (h *Handler) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) allow(msg *InboundMessage) bool {
	if h.limiter == nil {
		return true
	}
	if h.urgent != nil && h.urgent(msg.Body) {
		return true
	}
	return h.limiter.Allow(NormalizeE164(msg.From))
}

// HealthCheck returns a simple health check response.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Index answers GET / with a plain liveness line.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(IndexMessage))
}

func (h *Handler) observeOutbound(mode, status string) {
	if h.observer != nil {
		h.observer.ObserveOutbound(mode, status)
	}
}

func writeTwiML(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

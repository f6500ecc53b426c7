package messaging

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/whatsapp-triage/internal/conversation"
	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

type stubTriage struct {
	mu     sync.Mutex
	calls  []conversation.Inbound
	reply  conversation.Reply
	ctxErr error
}

func (s *stubTriage) Handle(ctx context.Context, in conversation.Inbound) conversation.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, in)
	s.ctxErr = ctx.Err()
	return s.reply
}

type stubSender struct {
	to, body string
	calls    int
	err      error
}

func (s *stubSender) SendReply(_ context.Context, to, body string) (string, error) {
	s.calls++
	s.to, s.body = to, body
	if s.err != nil {
		return "", s.err
	}
	return "SM-out-1", nil
}

type recordingObserver struct {
	outbound []string
	latency  int
}

func (o *recordingObserver) ObserveOutbound(mode, status string) {
	o.outbound = append(o.outbound, mode+":"+status)
}

func (o *recordingObserver) ObserveWebhookLatency(float64) { o.latency++ }

func whatsappForm(body string) url.Values {
	form := url.Values{}
	form.Set("MessageSid", "SM123")
	form.Set("AccountSid", "AC456")
	form.Set("From", "whatsapp:+919812345678")
	form.Set("To", "whatsapp:+14155238886")
	form.Set("Body", body)
	form.Set("NumMedia", "0")
	form.Set("ProfileName", "Asha")
	return form
}

func newWebhookRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "https://triage.example.com/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func twilioSignature(authToken, webhookURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var payload strings.Builder
	payload.WriteString(webhookURL)
	for _, k := range keys {
		payload.WriteString(k)
		payload.WriteString(form.Get(k))
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWhatsAppWebhookInlineReply(t *testing.T) {
	triage := &stubTriage{reply: conversation.Reply{Body: "Rest & drink fluids <3", Path: conversation.PathLLM, Language: "en"}}
	obs := &recordingObserver{}
	h := NewHandler(triage, nil, "", "", obs, logging.Discard())

	rr := httptest.NewRecorder()
	h.WhatsAppWebhook(rr, newWebhookRequest(whatsappForm("I have a fever")))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/xml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "<Message>")
	assert.Contains(t, rr.Body.String(), "Rest &amp; drink fluids &lt;3")

	require.Len(t, triage.calls, 1)
	assert.Equal(t, conversation.Inbound{Sender: "whatsapp:+919812345678", Body: "I have a fever"}, triage.calls[0])
	assert.Equal(t, []string{"twiml:ok"}, obs.outbound)
	assert.Equal(t, 1, obs.latency)
}

func TestWhatsAppWebhookRESTReply(t *testing.T) {
	triage := &stubTriage{reply: conversation.Reply{Body: "Call 108", Path: conversation.PathEmergency}}
	sender := &stubSender{}
	obs := &recordingObserver{}
	h := NewHandler(triage, sender, "", "", obs, logging.Discard())

	rr := httptest.NewRecorder()
	h.WhatsAppWebhook(rr, newWebhookRequest(whatsappForm("chest pain")))
	require.NoError(t, h.Drain(context.Background()))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, EmptyTwiML, rr.Body.String())
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "whatsapp:+919812345678", sender.to)
	assert.Equal(t, "Call 108", sender.body)
	assert.Equal(t, []string{"rest:ok"}, obs.outbound)
}

type blockingTriage struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingTriage) Handle(context.Context, conversation.Inbound) conversation.Reply {
	close(b.started)
	<-b.release
	return conversation.Reply{Body: "Drink ORS", Path: conversation.PathLLM}
}

func TestWhatsAppWebhookRESTAckDoesNotWaitForTriage(t *testing.T) {
	triage := &blockingTriage{started: make(chan struct{}), release: make(chan struct{})}
	sender := &stubSender{}
	h := NewHandler(triage, sender, "", "", nil, logging.Discard())

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rr := httptest.NewRecorder()
		h.WhatsAppWebhook(rr, newWebhookRequest(whatsappForm("loose motions")))
		done <- rr
	}()

	var rr *httptest.ResponseRecorder
	select {
	case rr = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook ack waited for triage")
	}
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, EmptyTwiML, rr.Body.String())

	<-triage.started
	close(triage.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Drain(ctx))
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "Drink ORS", sender.body)
}

func TestWhatsAppWebhookRESTFailureIsNotRetried(t *testing.T) {
	triage := &stubTriage{reply: conversation.Reply{Body: "Drink ORS", Path: conversation.PathLLM}}
	sender := &stubSender{err: errors.New("twilio 500")}
	obs := &recordingObserver{}
	h := NewHandler(triage, sender, "", "", obs, logging.Discard())

	rr := httptest.NewRecorder()
	h.WhatsAppWebhook(rr, newWebhookRequest(whatsappForm("loose motions")))
	require.NoError(t, h.Drain(context.Background()))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, EmptyTwiML, rr.Body.String())
	assert.Equal(t, 1, sender.calls, "send is not retried")
	assert.Equal(t, []string{"rest:error"}, obs.outbound)
}

func TestWhatsAppWebhookRESTSurvivesTriagePanic(t *testing.T) {
	obs := &recordingObserver{}
	h := NewHandler(panickingTriage{}, &stubSender{}, "", "", obs, logging.Discard())

	rr := httptest.NewRecorder()
	h.WhatsAppWebhook(rr, newWebhookRequest(whatsappForm("fever")))
	require.NoError(t, h.Drain(context.Background()))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"rest:error"}, obs.outbound)
}

type panickingTriage struct{}

func (panickingTriage) Handle(context.Context, conversation.Inbound) conversation.Reply {
	panic("boom")
}

type deadlineTriage struct {
	hadDeadline bool
	remaining   time.Duration
}

func (d *deadlineTriage) Handle(ctx context.Context, _ conversation.Inbound) conversation.Reply {
	deadline, ok := ctx.Deadline()
	d.hadDeadline = ok
	d.remaining = time.Until(deadline)
	<-ctx.Done()
	return conversation.Reply{Body: "Sorry, please try again", Path: conversation.PathFallback}
}

func TestWhatsAppWebhookInlineReplyIsBounded(t *testing.T) {
	triage := &deadlineTriage{}
	h := NewHandler(triage, nil, "", "", nil, logging.Discard(), WithInlineReplyBudget(50*time.Millisecond))

	start := time.Now()
	rr := httptest.NewRecorder()
	h.WhatsAppWebhook(rr, newWebhookRequest(whatsappForm("fever")))

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, triage.hadDeadline)
	assert.LessOrEqual(t, triage.remaining, 50*time.Millisecond)
	assert.Contains(t, rr.Body.String(), "Sorry, please try again")
}

func TestNewHandlerDefaultsInlineBudget(t *testing.T) {
	h := NewHandler(&stubTriage{}, nil, "", "", nil, logging.Discard())
	assert.Equal(t, DefaultInlineReplyBudget, h.inlineBudget)
	assert.Less(t, DefaultInlineReplyBudget, 15*time.Second)
}

type countingLimiter struct {
	mu      sync.Mutex
	allowed int
	keys    []string
}

func (c *countingLimiter) Allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, key)
	if c.allowed == 0 {
		return false
	}
	c.allowed--
	return true
}

func TestWhatsAppWebhookSenderLimiter(t *testing.T) {
	urgent := func(text string) bool { return strings.Contains(text, "chest pain") }

	t.Run("throttled sender gets empty ack", func(t *testing.T) {
		triage := &stubTriage{reply: conversation.Reply{Body: "ok"}}
		limiter := &countingLimiter{allowed: 1}
		obs := &recordingObserver{}
		h := NewHandler(triage, nil, "", "", obs, logging.Discard(), WithSenderLimiter(limiter, urgent))

		first := httptest.NewRecorder()
		h.WhatsAppWebhook(first, newWebhookRequest(whatsappForm("fever")))
		second := httptest.NewRecorder()
		h.WhatsAppWebhook(second, newWebhookRequest(whatsappForm("fever again")))

		assert.Contains(t, first.Body.String(), "<Message>")
		assert.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, EmptyTwiML, second.Body.String())
		assert.Len(t, triage.calls, 1)
		assert.Equal(t, []string{"+919812345678", "+919812345678"}, limiter.keys)
		assert.Equal(t, []string{"twiml:ok", "none:rate_limited"}, obs.outbound)
	})

	t.Run("emergency bypasses limiter", func(t *testing.T) {
		triage := &stubTriage{reply: conversation.Reply{Body: "Call 108"}}
		limiter := &countingLimiter{}
		h := NewHandler(triage, nil, "", "", nil, logging.Discard(), WithSenderLimiter(limiter, urgent))

		rr := httptest.NewRecorder()
		h.WhatsAppWebhook(rr, newWebhookRequest(whatsappForm("severe chest pain")))

		assert.Contains(t, rr.Body.String(), "Call 108")
		assert.Len(t, triage.calls, 1)
		assert.Empty(t, limiter.keys)
	})
}

func TestWhatsAppWebhookMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		req  *http.Request
	}{
		{"missing from", func() *http.Request {
			form := whatsappForm("hello")
			form.Del("From")
			return newWebhookRequest(form)
		}()},
		{"bad num media", func() *http.Request {
			form := whatsappForm("hello")
			form.Set("NumMedia", "many")
			return newWebhookRequest(form)
		}()},
		{"unparseable body", func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/whatsapp", strings.NewReader("From=%zz"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return req
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			triage := &stubTriage{}
			h := NewHandler(triage, nil, "", "", nil, logging.Discard())

			rr := httptest.NewRecorder()
			h.WhatsAppWebhook(rr, tt.req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, EmptyTwiML, rr.Body.String())
			assert.Empty(t, triage.calls)
		})
	}
}

func TestWhatsAppWebhookSignature(t *testing.T) {
	const secret = "test_token"
	form := whatsappForm("fever")

	t.Run("valid", func(t *testing.T) {
		triage := &stubTriage{reply: conversation.Reply{Body: "ok"}}
		h := NewHandler(triage, nil, secret, "", nil, logging.Discard())
		req := newWebhookRequest(form)
		req.Header.Set("X-Twilio-Signature", twilioSignature(secret, "https://triage.example.com/whatsapp", form))

		rr := httptest.NewRecorder()
		h.WhatsAppWebhook(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, triage.calls, 1)
	})

	t.Run("public base url", func(t *testing.T) {
		triage := &stubTriage{reply: conversation.Reply{Body: "ok"}}
		h := NewHandler(triage, nil, secret, "https://public.example.org/", nil, logging.Discard())
		req := newWebhookRequest(form)
		req.Header.Set("X-Twilio-Signature", twilioSignature(secret, "https://public.example.org/whatsapp", form))

		rr := httptest.NewRecorder()
		h.WhatsAppWebhook(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("invalid", func(t *testing.T) {
		triage := &stubTriage{}
		h := NewHandler(triage, nil, secret, "", nil, logging.Discard())
		req := newWebhookRequest(form)
		req.Header.Set("X-Twilio-Signature", "bogus")

		rr := httptest.NewRecorder()
		h.WhatsAppWebhook(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Empty(t, triage.calls)
	})

	t.Run("missing", func(t *testing.T) {
		h := NewHandler(&stubTriage{}, nil, secret, "", nil, logging.Discard())
		rr := httptest.NewRecorder()
		h.WhatsAppWebhook(rr, newWebhookRequest(form))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestWhatsAppWebhookSurvivesClientCancel(t *testing.T) {
	triage := &stubTriage{reply: conversation.Reply{Body: "ok"}}
	h := NewHandler(triage, nil, "", "", nil, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := newWebhookRequest(whatsappForm("fever")).WithContext(ctx)

	h.WhatsAppWebhook(httptest.NewRecorder(), req)

	require.Len(t, triage.calls, 1)
	assert.NoError(t, triage.ctxErr)
}

func TestHealthAndIndex(t *testing.T) {
	h := NewHandler(&stubTriage{}, nil, "", "", nil, logging.Discard())

	rr := httptest.NewRecorder()
	h.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, IndexMessage, rr.Body.String())
}

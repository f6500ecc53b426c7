package conversation

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wolfman30/whatsapp-triage/internal/language"
	"github.com/wolfman30/whatsapp-triage/internal/referral"
	"github.com/wolfman30/whatsapp-triage/internal/safety"
	"github.com/wolfman30/whatsapp-triage/internal/transcription"
	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

// Path names the terminal branch a message took through the pipeline.
type Path string

const (
	PathEmergency           Path = "emergency"
	PathLLM                 Path = "llm"
	PathFallback            Path = "fallback"
	PathExit                Path = "exit"
	PathEmpty               Path = "empty"
	PathTranscriptionFailed Path = "transcription_failed"
)

// MaxReplyRunes is the WhatsApp body limit for one outbound message.
const MaxReplyRunes = 1600

// Inbound is the pipeline's view of one user message.
type Inbound struct {
	Sender           string
	Body             string
	MediaURL         string
	MediaContentType string
	NumMedia         int
}

// HasAudio reports whether the message carries a voice note to transcribe.
func (in Inbound) HasAudio() bool {
	return in.NumMedia > 0 && strings.TrimSpace(in.MediaURL) != "" && transcription.IsAudio(in.MediaContentType)
}

// Reply is the outbound text for one inbound message.
type Reply struct {
	Body     string
	Path     Path
	Language string
}

type AudioTranscriber interface {
	TranscribeURL(ctx context.Context, mediaURL, contentType string) (string, error)
}

type LanguageDetector interface {
	DetectConfident(text string) (string, bool)
}

type ReplyObserver interface {
	ObserveInbound(kind string)
	ObserveReply(path, language string)
}

type serviceConfig struct {
	transcriber    AudioTranscriber
	detector       LanguageDetector
	linker         *referral.Linker
	observer       ReplyObserver
	sessionTimeout time.Duration
	maxReplyRunes  int
	now            func() time.Time
}

type ServiceOption func(*serviceConfig)

func WithTranscriber(t AudioTranscriber) ServiceOption {
	return func(c *serviceConfig) { c.transcriber = t }
}

func WithLanguageDetector(d LanguageDetector) ServiceOption {
	return func(c *serviceConfig) { c.detector = d }
}

func WithReferralLinker(l *referral.Linker) ServiceOption {
	return func(c *serviceConfig) { c.linker = l }
}

func WithReplyObserver(o ReplyObserver) ServiceOption {
	return func(c *serviceConfig) { c.observer = o }
}

// WithSessionTimeout sets the inactivity window after which a sender starts
// a fresh session.
func WithSessionTimeout(d time.Duration) ServiceOption {
	return func(c *serviceConfig) { c.sessionTimeout = d }
}

func WithMaxReplyRunes(n int) ServiceOption {
	return func(c *serviceConfig) {
		if n > 0 {
			c.maxReplyRunes = n
		}
	}
}

func withClock(now func() time.Time) ServiceOption {
	return func(c *serviceConfig) { c.now = now }
}

// Service runs the triage pipeline for one inbound message at a time per
// sender.
type Service struct {
	responder *Responder
	store     SessionStore
	filter    *safety.Filter
	logger    *logging.Logger
	locks     *senderLocks
	cfg       serviceConfig
}

func NewService(responder *Responder, store SessionStore, filter *safety.Filter, logger *logging.Logger, opts ...ServiceOption) *Service {
	if responder == nil {
		panic("conversation: responder cannot be nil")
	}
	if store == nil {
		panic("conversation: session store cannot be nil")
	}
	if filter == nil {
		filter = safety.NewFilter(safety.DefaultKeywords())
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := serviceConfig{
		linker:         referral.NewLinker(""),
		sessionTimeout: 5 * time.Minute,
		maxReplyRunes:  MaxReplyRunes,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Service{
		responder: responder,
		store:     store,
		filter:    filter,
		logger:    logger,
		locks:     newSenderLocks(),
		cfg:       cfg,
	}
}

// Handle produces the reply for one inbound message. It never fails: every
// dependency error maps to a localized fallback text.
func (s *Service) Handle(ctx context.Context, in Inbound) Reply {
	unlock := s.locks.Lock(in.Sender)
	defer unlock()

	now := s.cfg.now()
	sess := s.loadSession(ctx, in.Sender, now)

	audio := in.HasAudio()
	switch {
	case audio:
		s.observeInbound("audio")
	case in.NumMedia > 0:
		s.observeInbound("media")
	default:
		s.observeInbound("text")
	}

	text := in.Body
	if audio {
		transcript, err := s.transcribe(ctx, in)
		if err != nil {
			s.logger.Error("failed to transcribe voice note", "sender", maskSender(in.Sender), "error", err)
			sess.LastSeen = now
			s.saveSession(ctx, sess)
			return s.finish(Reply{Body: AudioFallbackMessage(sessionLanguage(sess)), Path: PathTranscriptionFailed, Language: sessionLanguage(sess)})
		}
		s.logger.Debug("voice note transcribed", "sender", maskSender(in.Sender), "chars", utf8.RuneCountInString(transcript))
		text = transcript
	}

	text = strings.TrimSpace(text)
	if text == "" {
		lang := sessionLanguage(sess)
		return s.finish(Reply{Body: EmptyMessage(lang), Path: PathEmpty, Language: lang})
	}

	lang := s.resolveLanguage(sess, text)
	firstMessage := sess.MessageCount == 0
	sess.MessageCount++
	sess.LastSeen = now

	if phrase, ok := s.filter.MatchEmergency(text); ok {
		s.logger.Warn("emergency keyword detected",
			"sender", maskSender(in.Sender),
			"keyword", phrase,
			"language", lang,
			"emergency", true,
		)
		s.deleteSession(ctx, in.Sender)
		return s.finish(Reply{Body: s.withReferral(EmergencyMessage(lang), lang), Path: PathEmergency, Language: lang})
	}

	if s.filter.IsExit(text) {
		s.logger.Info("conversation ended by sender", "sender", maskSender(in.Sender))
		s.deleteSession(ctx, in.Sender)
		return s.finish(Reply{Body: GoodbyeMessage(lang), Path: PathExit, Language: lang})
	}

	answer, err := s.responder.Respond(ctx, sess, text, lang)
	s.saveSession(ctx, sess)
	if err != nil {
		s.logger.Error("llm reply failed", "sender", maskSender(in.Sender), "language", lang, "error", err)
		return s.finish(Reply{Body: s.withReferral(FallbackMessage(lang), lang), Path: PathFallback, Language: lang})
	}

	prefix := ""
	if firstMessage && !audio {
		prefix = "*" + WelcomeMessage(lang) + "*\n\n---\n"
	}
	return s.finish(Reply{Body: s.compose(prefix, answer, lang), Path: PathLLM, Language: lang})
}

func (s *Service) loadSession(ctx context.Context, sender string, now time.Time) *Session {
	sess, err := s.store.Load(ctx, sender)
	if err != nil {
		s.logger.Error("failed to load session", "sender", maskSender(sender), "error", err)
		sess = nil
	}
	if sess == nil || sess.Expired(now, s.cfg.sessionTimeout) {
		return NewSession(sender, now)
	}
	return sess
}

// Writes outlive the request deadline so a timed-out reply keeps its state.
func (s *Service) saveSession(ctx context.Context, sess *Session) {
	if err := s.store.Save(context.WithoutCancel(ctx), sess); err != nil {
		s.logger.Error("failed to save session", "sender", maskSender(sess.Sender), "error", err)
	}
}

func (s *Service) deleteSession(ctx context.Context, sender string) {
	if err := s.store.Delete(context.WithoutCancel(ctx), sender); err != nil {
		s.logger.Error("failed to delete session", "sender", maskSender(sender), "error", err)
	}
}

func (s *Service) transcribe(ctx context.Context, in Inbound) (string, error) {
	if s.cfg.transcriber == nil {
		return "", &transcription.Error{Provider: "none", Stage: "configure", Err: transcription.ErrTranscription}
	}
	return s.cfg.transcriber.TranscribeURL(ctx, in.MediaURL, in.MediaContentType)
}

// resolveLanguage fixes the session language at the first confident
// detection and re-detects until then.
func (s *Service) resolveLanguage(sess *Session, text string) string {
	if sess.LanguageSettled && language.IsSupported(sess.Language) {
		return sess.Language
	}
	lang, confident := language.Default, false
	if s.cfg.detector != nil {
		lang, confident = s.cfg.detector.DetectConfident(text)
		lang = language.Normalize(lang)
	}
	if !confident && sess.Language != "" {
		return sess.Language
	}
	sess.Language = lang
	sess.LanguageSettled = confident
	return lang
}

func sessionLanguage(sess *Session) string {
	if sess != nil && language.IsSupported(sess.Language) {
		return sess.Language
	}
	return language.Default
}

func (s *Service) withReferral(body, lang string) string {
	if s.cfg.linker == nil {
		return body
	}
	return s.cfg.linker.Append(body, lang)
}

// compose joins the welcome prefix, the model answer and the referral footer,
// shortening the answer so the whole body fits one message.
func (s *Service) compose(prefix, answer, lang string) string {
	footer := ""
	if s.cfg.linker != nil {
		footer = s.cfg.linker.Footer(lang)
	}
	answer = strings.TrimRight(answer, " \n")
	budget := s.cfg.maxReplyRunes - utf8.RuneCountInString(prefix) - utf8.RuneCountInString(footer)
	if budget > 0 {
		answer = truncateRunes(answer, budget)
	}
	return prefix + answer + footer
}

func truncateRunes(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	if limit == 1 {
		return "…"
	}
	return strings.TrimRight(string(runes[:limit-1]), " \n") + "…"
}

func (s *Service) observeInbound(kind string) {
	if s.cfg.observer != nil {
		s.cfg.observer.ObserveInbound(kind)
	}
}

func (s *Service) finish(reply Reply) Reply {
	if s.cfg.observer != nil {
		s.cfg.observer.ObserveReply(string(reply.Path), reply.Language)
	}
	return reply
}

// maskSender keeps the last four digits of a sender id for logs.
func maskSender(sender string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, sender)
	if len(digits) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

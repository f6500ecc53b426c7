package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/whatsapp-triage/internal/config"
	"github.com/wolfman30/whatsapp-triage/internal/conversation"
	"github.com/wolfman30/whatsapp-triage/internal/language"
	"github.com/wolfman30/whatsapp-triage/internal/observability/metrics"
	"github.com/wolfman30/whatsapp-triage/internal/referral"
	"github.com/wolfman30/whatsapp-triage/internal/safety"
	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

// Runtime holds the wired triage pipeline and the resources it owns.
type Runtime struct {
	Service *conversation.Service
	// Filter is the emergency filter the service uses; the webhook consults
	// it so emergencies bypass sender throttling.
	Filter  *safety.Filter
	clients *clients
	redis   *redis.Client
}

// BuildTriageService wires keywords, language detection, LLM, transcription
// and the session store into a conversation.Service.
func BuildTriageService(ctx context.Context, cfg *appconfig.Config, m *metrics.TriageMetrics, logger *logging.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	keywords := safety.DefaultKeywords()
	if cfg.EmergencyKeywordsFile != "" {
		loaded, err := safety.LoadKeywords(cfg.EmergencyKeywordsFile)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		keywords = loaded
	}
	logger.Info("emergency keywords loaded", "emergency", len(keywords.Emergency), "exit", len(keywords.Exit))

	rt := &Runtime{clients: &clients{cfg: cfg}}

	llm, model, err := rt.clients.BuildLLMClient(ctx, logger)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	transcriber, err := rt.clients.BuildTranscriber(ctx, m, logger)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	store, redisClient, err := BuildSessionStore(ctx, cfg, logger)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.redis = redisClient

	responder := conversation.NewResponder(llm, conversation.ResponderConfig{
		Provider:    cfg.LLMProvider,
		Model:       model,
		MaxTurns:    cfg.HistoryMaxTurns,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   int32(cfg.LLMMaxTokens),
		Timeout:     cfg.LLMTimeout,
	}, m, logger.Component("responder"))

	opts := []conversation.ServiceOption{
		conversation.WithLanguageDetector(language.NewDetector()),
		conversation.WithReferralLinker(referral.NewLinker(cfg.ReferralLocation)),
		conversation.WithReplyObserver(m),
		conversation.WithSessionTimeout(cfg.SessionTimeout),
	}
	if transcriber != nil {
		opts = append(opts, conversation.WithTranscriber(transcriber))
	}

	rt.Filter = safety.NewFilter(keywords)
	rt.Service = conversation.NewService(responder, store, rt.Filter, logger.Component("triage"), opts...)
	return rt, nil
}

// Close releases provider clients and the Redis connection.
func (r *Runtime) Close() error {
	var errs []error
	if r.clients != nil {
		errs = append(errs, r.clients.Close())
	}
	if r.redis != nil {
		errs = append(errs, r.redis.Close())
	}
	return errors.Join(errs...)
}

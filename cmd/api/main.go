package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/whatsapp-triage/internal/api/router"
	"github.com/wolfman30/whatsapp-triage/internal/app/bootstrap"
	appconfig "github.com/wolfman30/whatsapp-triage/internal/config"
	httpmiddleware "github.com/wolfman30/whatsapp-triage/internal/http/middleware"
	"github.com/wolfman30/whatsapp-triage/internal/messaging"
	"github.com/wolfman30/whatsapp-triage/internal/observability/metrics"
	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	envErr := godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if envErr != nil {
		logger.Debug("no .env file loaded", "error", envErr)
	}
	logger.Info("starting whatsapp triage server",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
		"session_store", cfg.SessionStore,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	metricsHandler, triageMetrics := setupMetrics()

	rt, err := bootstrap.BuildTriageService(ctx, cfg, triageMetrics, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("failed to release clients", "error", err)
		}
	}()

	sender, replyMode, err := bootstrap.BuildReplySender(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("reply delivery configured", "mode", replyMode)

	if sender == nil && cfg.TranscriptionTimeout+cfg.LLMTimeout > cfg.InlineReplyBudget {
		logger.Warn("inline replies capped below provider timeout",
			"inline_reply_budget", cfg.InlineReplyBudget.String(),
			"transcription_timeout", cfg.TranscriptionTimeout.String(),
			"llm_timeout", cfg.LLMTimeout.String(),
		)
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()

	handler := messaging.NewHandler(rt.Service, sender, cfg.TwilioWebhookSecret, cfg.PublicBaseURL, triageMetrics, logger.Component("webhook"),
		messaging.WithSenderLimiter(limiter, rt.Filter.IsEmergency),
		messaging.WithInlineReplyBudget(cfg.InlineReplyBudget),
	)
	srv := newServer(cfg, router.New(&router.Config{
		Logger:           logger,
		MessagingHandler: handler,
		MetricsHandler:   metricsHandler,
	}))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := handler.Drain(shutdownCtx); err != nil {
		return fmt.Errorf("pending replies not delivered: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// newServer sizes the write timeout to cover a transcription plus an LLM call.
func newServer(cfg *appconfig.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.TranscriptionTimeout + cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func setupMetrics() (http.Handler, *metrics.TriageMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewTriageMetrics(reg)
}

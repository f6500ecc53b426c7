package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/whatsapp-triage/internal/config"
	"github.com/wolfman30/whatsapp-triage/internal/conversation"
	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore selects the session backend named by SESSION_STORE.
// The returned client, when non-nil, must be closed by the caller.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (conversation.SessionStore, *redis.Client, error) {
	switch cfg.SessionStore {
	case "", "memory":
		logger.Info("using in-memory session store", "session_timeout", cfg.SessionTimeout.String())
		return conversation.NewMemorySessionStore(cfg.SessionTimeout), nil, nil
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, nil, fmt.Errorf("bootstrap: SESSION_STORE=redis requires REDIS_ADDR")
		}
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return nil, nil, fmt.Errorf("bootstrap: redis at %s is not reachable", cfg.RedisAddr)
		}
		logger.Info("using redis session store", "redis", cfg.RedisAddr, "session_timeout", cfg.SessionTimeout.String())
		return conversation.NewRedisSessionStore(client, cfg.SessionTimeout), client, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown session store %q", cfg.SessionStore)
	}
}

package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"

	appconfig "github.com/wolfman30/whatsapp-triage/internal/config"
	"github.com/wolfman30/whatsapp-triage/internal/conversation"
	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

const (
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
)

// clients opens provider SDK clients on first use so one Gemini client
// serves both completion and transcription.
type clients struct {
	cfg    *appconfig.Config
	gemini *genai.Client
	openai *openai.Client
}

func (c *clients) geminiClient(ctx context.Context) (*genai.Client, error) {
	if c.gemini != nil {
		return c.gemini, nil
	}
	client, err := conversation.NewGeminiClient(ctx, c.cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	c.gemini = client
	return client, nil
}

func (c *clients) openAIClient() (*openai.Client, error) {
	if c.openai != nil {
		return c.openai, nil
	}
	if strings.TrimSpace(c.cfg.OpenAIAPIKey) == "" {
		return nil, fmt.Errorf("bootstrap: OPENAI_API_KEY is required")
	}
	c.openai = openai.NewClient(c.cfg.OpenAIAPIKey)
	return c.openai, nil
}

func (c *clients) Close() error {
	if c.gemini != nil {
		return c.gemini.Close()
	}
	return nil
}

// buildProvider returns the LLM client and default model for one provider.
func (c *clients) buildProvider(ctx context.Context, provider string) (conversation.LLMClient, string, error) {
	switch provider {
	case ProviderGemini:
		client, err := c.geminiClient(ctx)
		if err != nil {
			return nil, "", err
		}
		return conversation.NewGeminiLLMClient(client, c.cfg.GeminiModel), c.cfg.GeminiModel, nil
	case ProviderOpenAI:
		client, err := c.openAIClient()
		if err != nil {
			return nil, "", err
		}
		return conversation.NewOpenAILLMClient(client, c.cfg.OpenAIModel), c.cfg.OpenAIModel, nil
	case ProviderBedrock:
		if strings.TrimSpace(c.cfg.BedrockModelID) == "" {
			return nil, "", fmt.Errorf("bootstrap: BEDROCK_MODEL_ID is required")
		}
		awsCfg, err := LoadAWSConfig(ctx, c.cfg)
		if err != nil {
			return nil, "", fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		return conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), c.cfg.BedrockModelID), c.cfg.BedrockModelID, nil
	default:
		return nil, "", fmt.Errorf("bootstrap: unknown llm provider %q", provider)
	}
}

// BuildLLMClient wires the primary provider and, when configured, a fallback
// provider behind it. The returned model is the primary's default.
func (c *clients) BuildLLMClient(ctx context.Context, logger *logging.Logger) (conversation.LLMClient, string, error) {
	primary, model, err := c.buildProvider(ctx, c.cfg.LLMProvider)
	if err != nil {
		return nil, "", err
	}

	fallbackName := c.cfg.LLMFallbackProvider
	if fallbackName == "" || fallbackName == c.cfg.LLMProvider {
		logger.Info("llm configured", "provider", c.cfg.LLMProvider, "model", model)
		return primary, model, nil
	}

	fallback, _, err := c.buildProvider(ctx, fallbackName)
	if err != nil {
		logger.Warn("fallback llm unavailable", "provider", fallbackName, "error", err)
		return primary, model, nil
	}
	logger.Info("llm configured", "provider", c.cfg.LLMProvider, "model", model, "fallback_provider", fallbackName)
	// The fallback keeps its own model, so requests carry none.
	return conversation.NewFallbackLLMClient(primary, fallback, logger), "", nil
}

package model

import (
	"context"
	"fmt"
	"time"

	"lawgic/internal/config"
	"lawgic/internal/utils"
	"lawgic/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
)

// NewChatModel creates the model that answers conversation turns.
func NewChatModel(ctx context.Context, cfg *config.Config) (einoModel.ChatModel, error) {
	return newProviderModel(ctx, cfg, cfg.OpenAI.Model)
}

// NewSummaryModel creates the model used for one-shot document summaries.
// Only the OpenAI provider distinguishes a summary model name.
func NewSummaryModel(ctx context.Context, cfg *config.Config) (einoModel.ChatModel, error) {
	name := cfg.OpenAI.SummaryModel
	if name == "" {
		name = cfg.OpenAI.Model
	}
	return newProviderModel(ctx, cfg, name)
}

func newProviderModel(ctx context.Context, cfg *config.Config, openAIModel string) (einoModel.ChatModel, error) {
	if cfg.ProviderAPIKey() == "" {
		return nil, fmt.Errorf("no API key configured for provider %s", cfg.Model.Provider)
	}

	switch cfg.Model.Provider {
	case config.ProviderOpenAI:
		return createOpenAIModel(cfg.OpenAI, openAIModel, cfg.Model.Timeout, cfg.Log.Level == "debug"), nil
	case config.ProviderDoubao:
		return createDoubaoModel(ctx, cfg.Doubao, cfg.Model.Timeout)
	case config.ProviderQwen:
		return createQwenModel(ctx, cfg.Qwen, cfg.Model.Timeout)
	case config.ProviderAnthropic:
		return newAnthropicChatModel(cfg.Anthropic, cfg.Model.Timeout, cfg.Log.Level == "debug"), nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Model.Provider)
	}
}

func createOpenAIModel(c config.OpenAIConfig, name string, timeout time.Duration, debug bool) einoModel.ChatModel {
	logger.Infof("Using OpenAI model: %s", name)
	c.Model = name
	return newOpenAIChatModel(c, utils.NewHTTPClient(timeout, debug))
}

func createDoubaoModel(ctx context.Context, c config.DoubaoConfig, timeout time.Duration) (einoModel.ChatModel, error) {
	logger.Infof("Using Doubao model: %s (key %s)", c.Model, maskKey(c.APIKey))

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:  c.APIKey,
		BaseURL: c.BaseURL,
		Model:   c.Model,
		Timeout: &timeout,
		CustomHeader: map[string]string{
			"X-Ark-Thinking-Mode": "disable",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create doubao model: %w", err)
	}

	return chatModel, nil
}

func createQwenModel(ctx context.Context, c config.QwenConfig, timeout time.Duration) (einoModel.ChatModel, error) {
	logger.Infof("Using Qwen model: %s, base URL: %s (key %s)", c.Model, c.BaseURL, maskKey(c.APIKey))

	chatModel, err := qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   &c.MaxTokens,
		Temperature: &c.Temperature,
		TopP:        &c.TopP,
		Timeout:     timeout,
		HTTPClient:  utils.NewHTTPClient(timeout, c.DebugRequest),
	})
	if err != nil {
		return nil, fmt.Errorf("create qwen model: %w", err)
	}

	return chatModel, nil
}

func maskKey(key string) string {
	if len(key) <= 6 {
		return "***"
	}
	return key[:6] + "..."
}

package commands

import (
	"context"
	"fmt"

	"lawgic/internal/config"
	"lawgic/internal/model"
	"lawgic/internal/service"
	"lawgic/internal/utils"
	"lawgic/pkg/logger"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, nil
}

// newGateway builds the provider models and, when enabled, the file_search
// retriever that answers chat turns.
func newGateway(ctx context.Context, cfg *config.Config) (*service.LLMGateway, error) {
	chatModel, err := model.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	summaryModel, err := model.NewSummaryModel(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var retriever service.Retriever
	if cfg.Retrieval.Enabled {
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("retrieval requires an OpenAI API key")
		}
		retriever = service.NewFileSearchRetriever(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.BaseURL,
			cfg.Retrieval.Model,
			cfg.Retrieval.VectorStoreID,
			utils.NewHTTPClient(cfg.Model.Timeout, cfg.Log.Level == "debug"),
		)
	}

	return service.NewLLMGateway(ctx, service.GatewayOptions{
		Provider:      cfg.Model.Provider,
		ChatModel:     chatModel,
		SummaryModel:  summaryModel,
		SummaryPrompt: cfg.Assistant.SummaryPrompt,
		SummaryLimit:  cfg.Document.SummaryLimit,
		Retriever:     retriever,
		Timeout:       cfg.Model.Timeout,
	})
}

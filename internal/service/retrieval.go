package service

import (
	"context"
	"fmt"
	"net/http"

	"lawgic/internal/model"
	"lawgic/pkg/logger"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

// Retriever answers a conversation turn grounded on an external knowledge base.
type Retriever interface {
	Respond(ctx context.Context, history []model.Message) (string, error)
}

// FileSearchRetriever uses the Responses API with the file_search tool bound
// to a single vector store.
type FileSearchRetriever struct {
	client        openai.Client
	model         string
	vectorStoreID string
}

func NewFileSearchRetriever(apiKey, baseURL, modelName, vectorStoreID string, httpClient *http.Client) *FileSearchRetriever {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	logger.Infof("Using file_search retrieval on vector store %s with model %s", vectorStoreID, modelName)

	return &FileSearchRetriever{
		client:        openai.NewClient(opts...),
		model:         modelName,
		vectorStoreID: vectorStoreID,
	}
}

func (r *FileSearchRetriever) Respond(ctx context.Context, history []model.Message) (string, error) {
	input := make(responses.ResponseInputParam, 0, len(history))
	for _, msg := range history {
		input = append(input, responses.ResponseInputItemParamOfMessage(msg.Content, inputRole(msg.Role)))
	}

	resp, err := r.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ResponsesModel(r.model),
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: input},
		Tools: []responses.ToolUnionParam{
			{OfFileSearch: &responses.FileSearchToolParam{VectorStoreIDs: []string{r.vectorStoreID}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("responses.create: %w", err)
	}

	return resp.OutputText(), nil
}

func inputRole(role model.Role) responses.EasyInputMessageRole {
	switch role {
	case model.RoleSystem:
		return responses.EasyInputMessageRoleSystem
	case model.RoleAssistant:
		return responses.EasyInputMessageRoleAssistant
	default:
		return responses.EasyInputMessageRoleUser
	}
}

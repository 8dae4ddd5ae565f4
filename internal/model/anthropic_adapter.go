package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lawgic/internal/config"
	"lawgic/internal/utils"
	"lawgic/pkg/logger"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type anthropicChatModel struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

func newAnthropicChatModel(c config.AnthropicConfig, timeout time.Duration, debug bool) *anthropicChatModel {
	opts := []option.RequestOption{
		option.WithAPIKey(c.APIKey),
		option.WithHTTPClient(utils.NewHTTPClient(timeout, debug)),
	}
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
	}

	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	logger.Infof("Using Anthropic model: %s", c.Model)

	return &anthropicChatModel{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(c.Model),
		maxTokens: maxTokens,
	}
}

func (m *anthropicChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	msgs, system := convertToAnthropicMessages(messages)

	params := anthropic.MessageNewParams{
		Model:     m.model,
		Messages:  msgs,
		MaxTokens: m.maxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("no text in Anthropic response")
	}

	return &schema.Message{
		Role:    schema.Assistant,
		Content: text.String(),
	}, nil
}

// Stream returns the full reply as a single chunk.
func (m *anthropicChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *anthropicChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

// convertToAnthropicMessages moves system turns, including injected document
// context, into the separate system parameter.
func convertToAnthropicMessages(messages []*schema.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var system []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case schema.System:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case schema.Assistant:
			if msg.Content == "" {
				continue
			}
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return out, system
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"lawgic/internal/model"
	"lawgic/internal/pdf"
	"lawgic/pkg/logger"

	"github.com/cloudwego/eino/callbacks"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// SummaryLimit is the number of characters of a document sent for summary.
const SummaryLimit = 15000

const summaryInstruction = "Summarise this document:\n\n{document}"

var errEmptyReply = errors.New("provider returned an empty reply")

// Gateway is the only path to the language model provider. Calls are
// blocking and are never retried. Every failure is a *model.GatewayError.
type Gateway interface {
	Summarize(ctx context.Context, documentText string) (string, error)
	Converse(ctx context.Context, history []model.Message) (string, error)
}

type GatewayOptions struct {
	Provider      string
	ChatModel     einoModel.ChatModel
	SummaryModel  einoModel.ChatModel
	SummaryPrompt string
	SummaryLimit  int
	// Retriever, when set, answers conversation turns instead of ChatModel.
	Retriever Retriever
	Timeout   time.Duration
}

// LLMGateway runs both operations as compiled eino graphs.
type LLMGateway struct {
	provider     string
	summaryLimit int
	timeout      time.Duration
	retriever    Retriever
	summarize    compose.Runnable[map[string]any, *schema.Message]
	converse     compose.Runnable[[]model.Message, *schema.Message]
	cbHandler    callbacks.Handler
}

func NewLLMGateway(ctx context.Context, opts GatewayOptions) (*LLMGateway, error) {
	if opts.ChatModel == nil {
		return nil, errors.New("gateway: chat model is required")
	}
	if opts.SummaryModel == nil {
		opts.SummaryModel = opts.ChatModel
	}
	if opts.SummaryLimit <= 0 {
		opts.SummaryLimit = SummaryLimit
	}

	summarize, err := composeSummaryGraph(ctx, opts.SummaryModel, opts.SummaryPrompt)
	if err != nil {
		return nil, err
	}
	converse, err := composeConverseGraph(ctx, opts.ChatModel)
	if err != nil {
		return nil, err
	}

	return &LLMGateway{
		provider:     opts.Provider,
		summaryLimit: opts.SummaryLimit,
		timeout:      opts.Timeout,
		retriever:    opts.Retriever,
		summarize:    summarize,
		converse:     converse,
		cbHandler:    logCallback(opts.Provider),
	}, nil
}

// Summarize sends at most the first summaryLimit characters of documentText.
func (g *LLMGateway) Summarize(ctx context.Context, documentText string) (string, error) {
	if strings.TrimSpace(documentText) == "" {
		return "", model.NewValidationError("document", "The document contains no extractable text.")
	}

	text, truncated := pdf.Truncate(documentText, g.summaryLimit)
	if truncated {
		logger.Debugf("summary input truncated to %d characters", g.summaryLimit)
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	out, err := g.summarize.Invoke(ctx, map[string]any{"document": text}, compose.WithCallbacks(g.cbHandler))
	return g.reply(out, "summarize", err)
}

// Converse returns the assistant's next turn for the full history.
func (g *LLMGateway) Converse(ctx context.Context, history []model.Message) (string, error) {
	if len(history) == 0 {
		return "", model.NewValidationError("history", "conversation is empty")
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	if g.retriever != nil {
		text, err := g.retriever.Respond(ctx, history)
		if err != nil {
			return "", &model.GatewayError{Provider: "openai", Op: "file_search", Err: err}
		}
		if text == "" {
			return "", &model.GatewayError{Provider: "openai", Op: "file_search", Err: errEmptyReply}
		}
		return text, nil
	}

	out, err := g.converse.Invoke(ctx, history, compose.WithCallbacks(g.cbHandler))
	return g.reply(out, "converse", err)
}

func (g *LLMGateway) reply(out *schema.Message, op string, err error) (string, error) {
	if err != nil {
		return "", &model.GatewayError{Provider: g.provider, Op: op, Err: err}
	}
	if out == nil || out.Content == "" {
		return "", &model.GatewayError{Provider: g.provider, Op: op, Err: errEmptyReply}
	}
	return out.Content, nil
}

func (g *LLMGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func newSummaryPrompt(summaryPrompt string) prompt.ChatTemplate {
	// braces in a configured prompt are literal text
	escaped := strings.NewReplacer("{", "{{", "}", "}}").Replace(summaryPrompt)
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(escaped),
		schema.UserMessage(summaryInstruction),
	)
}

func composeSummaryGraph(ctx context.Context, cm einoModel.ChatModel, summaryPrompt string) (compose.Runnable[map[string]any, *schema.Message], error) {
	g := compose.NewGraph[map[string]any, *schema.Message]()

	if err := g.AddChatTemplateNode("SummaryTemplate", newSummaryPrompt(summaryPrompt)); err != nil {
		return nil, err
	}
	if err := g.AddChatModelNode("SummaryModel", cm); err != nil {
		return nil, err
	}
	if err := g.AddEdge(compose.START, "SummaryTemplate"); err != nil {
		return nil, err
	}
	if err := g.AddEdge("SummaryTemplate", "SummaryModel"); err != nil {
		return nil, err
	}
	if err := g.AddEdge("SummaryModel", compose.END); err != nil {
		return nil, err
	}

	return g.Compile(ctx, compose.WithGraphName("Summarize"))
}

func composeConverseGraph(ctx context.Context, cm einoModel.ChatModel) (compose.Runnable[[]model.Message, *schema.Message], error) {
	g := compose.NewGraph[[]model.Message, *schema.Message]()

	toSchema := compose.InvokableLambda(func(ctx context.Context, history []model.Message) ([]*schema.Message, error) {
		return model.ToSchemaMessages(history), nil
	})

	if err := g.AddLambdaNode("HistoryToMessages", toSchema); err != nil {
		return nil, err
	}
	if err := g.AddChatModelNode("ChatModel", cm); err != nil {
		return nil, err
	}
	if err := g.AddEdge(compose.START, "HistoryToMessages"); err != nil {
		return nil, err
	}
	if err := g.AddEdge("HistoryToMessages", "ChatModel"); err != nil {
		return nil, err
	}
	if err := g.AddEdge("ChatModel", compose.END); err != nil {
		return nil, err
	}

	return g.Compile(ctx, compose.WithGraphName("Converse"))
}

// logCallback traces graph nodes at debug level.
func logCallback(provider string) callbacks.Handler {
	return callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
			logger.WithFields(logger.Fields{"provider": provider, "node": info.Name, "component": info.Component}).Debug("node start")
			return ctx
		}).
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
			logger.WithFields(logger.Fields{"provider": provider, "node": info.Name}).Debug("node end")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			logger.WithFields(logger.Fields{"provider": provider, "node": info.Name}).Warnf("node failed: %v", err)
			return ctx
		}).
		Build()
}

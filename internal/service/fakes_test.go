package service

import (
	"context"
	"errors"
	"sync"

	"lawgic/internal/model"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// fakeChatModel records every prompt it receives.
type fakeChatModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, input)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

func (f *fakeChatModel) lastCall() []*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeChatModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeGateway stands in for the provider at the service level.
type fakeGateway struct {
	mu         sync.Mutex
	reply      string
	summary    string
	err        error
	histories  [][]model.Message
	summarized []string

	// when set, Converse signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (g *fakeGateway) Converse(ctx context.Context, history []model.Message) (string, error) {
	if g.entered != nil {
		g.entered <- struct{}{}
		<-g.release
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.histories = append(g.histories, append([]model.Message(nil), history...))
	if g.err != nil {
		return "", &model.GatewayError{Provider: "fake", Op: "converse", Err: g.err}
	}
	return g.reply, nil
}

func (g *fakeGateway) Summarize(ctx context.Context, text string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.summarized = append(g.summarized, text)
	if g.err != nil {
		return "", &model.GatewayError{Provider: "fake", Op: "summarize", Err: g.err}
	}
	return g.summary, nil
}

func (g *fakeGateway) converseCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.histories)
}

// fakeReader returns fixed pages, or err.
type fakeReader struct {
	pages []string
	err   error
}

func (r fakeReader) ReadPages(data []byte) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.pages, nil
}

type fakeRetriever struct {
	text string
	err  error
	got  []model.Message
}

func (r *fakeRetriever) Respond(ctx context.Context, history []model.Message) (string, error) {
	r.got = history
	return r.text, r.err
}

var errProvider = errors.New("connection refused")

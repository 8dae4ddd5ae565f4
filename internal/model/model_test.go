package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lawgic/internal/config"

	"github.com/cloudwego/eino/schema"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "system", want: RoleSystem},
		{in: " User ", want: RoleUser},
		{in: "assistant", want: RoleAssistant},
		{in: "tool", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !IsValidation(err) {
			t.Errorf("ParseRole(%q) error is not a ValidationError: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParsePage(t *testing.T) {
	for in, want := range map[string]Page{"landing": PageLanding, "Homepage": PageLanding, "chat": PageChat} {
		got, err := ParsePage(in)
		if err != nil || got != want {
			t.Errorf("ParsePage(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParsePage("settings"); !IsValidation(err) {
		t.Errorf("ParsePage(settings) error = %v, want ValidationError", err)
	}
}

func TestSessionCloneIsIndependent(t *testing.T) {
	s := &Session{ID: "s1", Messages: []Message{{Role: RoleSystem, Content: "sys"}}}
	c := s.Clone()
	c.Messages = append(c.Messages, Message{Role: RoleUser, Content: "hi"})
	c.Messages[0].Content = "changed"

	if len(s.Messages) != 1 || s.Messages[0].Content != "sys" {
		t.Errorf("original mutated through clone: %+v", s.Messages)
	}
}

func TestTranscriptSkipsSystemMessages(t *testing.T) {
	s := &Session{Messages: []Message{
		{Role: RoleSystem, Content: "prompt"},
		{Role: RoleUser, Content: "q"},
		{Role: RoleSystem, Content: "document context"},
		{Role: RoleAssistant, Content: "a"},
	}}

	got := s.Transcript()
	if len(got) != 2 || got[0].Content != "q" || got[1].Content != "a" {
		t.Errorf("Transcript() = %+v", got)
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("boom")
	gw := fmt.Errorf("ask: %w", &GatewayError{Provider: "openai", Op: "converse", Err: cause})
	doc := &DocumentParseError{Err: cause}
	val := NewValidationError("message", "message must not be empty")

	if !IsGateway(gw) || !errors.Is(gw, ErrGateway) || !errors.Is(gw, cause) {
		t.Errorf("gateway error not matched: %v", gw)
	}
	if !IsDocumentParse(doc) || !errors.Is(doc, ErrDocumentParse) {
		t.Errorf("document error not matched: %v", doc)
	}
	if !IsValidation(val) || !errors.Is(val, ErrValidation) {
		t.Errorf("validation error not matched: %v", val)
	}
	if IsGateway(val) || IsValidation(gw) {
		t.Error("error kinds overlap")
	}
	if UserMessage(val) != "message must not be empty" {
		t.Errorf("UserMessage(val) = %q", UserMessage(val))
	}
	if UserMessage(cause) == "" {
		t.Error("UserMessage of plain error should not be empty")
	}
}

func TestToSchemaMessages(t *testing.T) {
	got := ToSchemaMessages([]Message{
		{Role: RoleSystem, Content: "s"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleAssistant, Content: "a"},
	})
	want := []schema.RoleType{schema.System, schema.User, schema.Assistant}
	for i, m := range got {
		if m.Role != want[i] {
			t.Errorf("message %d role = %s, want %s", i, m.Role, want[i])
		}
	}
}

func TestOpenAIChatModelGenerate(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"o4-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"You are entitled to notice."},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	m := newOpenAIChatModel(config.OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Model: "o4-mini"}, srv.Client())
	msg, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("Can my landlord evict me without notice?"),
		{Role: schema.Assistant, Content: ""},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if msg.Content != "You are entitled to notice." {
		t.Errorf("Generate() content = %q", msg.Content)
	}
	if gotBody.Model != "o4-mini" || len(gotBody.Messages) != 2 {
		t.Errorf("request = %+v, want model o4-mini and empty assistant turn dropped", gotBody)
	}
}

func TestOpenAIChatModelGenerateError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	m := newOpenAIChatModel(config.OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Model: "o4-mini"}, srv.Client())
	if _, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")}); err == nil {
		t.Error("Generate() expected error for 401")
	}
}

func TestAnthropicChatModelGenerate(t *testing.T) {
	var system []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if s, ok := body["system"].([]any); ok {
			for _, b := range s {
				system = append(system, b.(map[string]any))
			}
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude",
			"content":[{"type":"text","text":"Plain answer."}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`)
	}))
	defer srv.Close()

	m := newAnthropicChatModel(config.AnthropicConfig{APIKey: "k", BaseURL: srv.URL, Model: "claude"}, 5*time.Second, false)
	msg, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("q"),
		schema.SystemMessage("document"),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if msg.Content != "Plain answer." {
		t.Errorf("Generate() content = %q", msg.Content)
	}
	if len(system) != 2 {
		t.Errorf("system blocks = %d, want 2", len(system))
	}
}

func TestNewChatModelRequiresKey(t *testing.T) {
	cfg := &config.Config{Model: config.ModelConfig{Provider: config.ProviderOpenAI}}
	if _, err := NewChatModel(context.Background(), cfg); err == nil {
		t.Error("NewChatModel() expected error without API key")
	}

	cfg.OpenAI = config.OpenAIConfig{APIKey: "k", Model: "o4-mini", SummaryModel: "gpt-4.1-mini"}
	if _, err := NewSummaryModel(context.Background(), cfg); err != nil {
		t.Errorf("NewSummaryModel() error = %v", err)
	}
}

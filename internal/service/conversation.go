package service

import (
	"strings"
	"time"

	"lawgic/internal/model"

	"github.com/google/uuid"
)

// DocumentContextPrefix introduces PDF text injected as system context.
const DocumentContextPrefix = "This is the uploaded legal document content:\n\n"

// NewSession starts a conversation whose first message is the system prompt.
// That message is never removed or rewritten afterwards.
func NewSession(systemPrompt string) *model.Session {
	now := time.Now()
	return &model.Session{
		ID: uuid.New().String(),
		Messages: []model.Message{
			newMessage(model.RoleSystem, systemPrompt, now),
		},
		CurrentPage:    model.PageLanding,
		SidebarVisible: true,
		TopicFilter:    model.Topics[0],
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Reset truncates the conversation back to the leading system prompt.
func Reset(session *model.Session) {
	if len(session.Messages) > 1 {
		session.Messages = session.Messages[:1:1]
	}
}

func AddUserMessage(session *model.Session, text string) error {
	if strings.TrimSpace(text) == "" {
		return model.NewValidationError("message", "Please enter a question.")
	}
	return appendMessage(session, model.RoleUser, text)
}

// AddSystemContext appends auxiliary context as its own system message, so
// repeated uploads accumulate instead of replacing the prompt.
func AddSystemContext(session *model.Session, text string) error {
	if strings.TrimSpace(text) == "" {
		return model.NewValidationError("document", "The document contains no extractable text.")
	}
	return appendMessage(session, model.RoleSystem, text)
}

func AddAssistantMessage(session *model.Session, text string) error {
	if text == "" {
		return model.NewValidationError("reply", "empty assistant reply")
	}
	return appendMessage(session, model.RoleAssistant, text)
}

func appendMessage(session *model.Session, role model.Role, text string) error {
	if len(session.Messages) == 0 || session.Messages[0].Role != model.RoleSystem {
		return model.NewValidationError("session", "session has no system prompt")
	}
	now := time.Now()
	session.Messages = append(session.Messages, newMessage(role, text, now))
	session.UpdatedAt = now
	return nil
}

func newMessage(role model.Role, content string, ts time.Time) model.Message {
	return model.Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: ts,
	}
}

package model

import (
	"strings"
	"time"
)

// Role tags a message. Only the three constants below are valid.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", NewValidationError("role", "unknown role "+s)
	}
	return r, nil
}

// Page is the view a session currently shows.
type Page string

const (
	PageLanding Page = "landing"
	PageChat    Page = "chat"
)

// ParsePage accepts the page names used by the navigation sidebar.
// "homepage" is kept as an alias of landing.
func ParsePage(s string) (Page, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "landing", "homepage", "home":
		return PageLanding, nil
	case "chat":
		return PageChat, nil
	}
	return "", NewValidationError("page", "unknown page "+s)
}

// Topics offered by the chat view's filter. The filter is display-only.
var Topics = []string{"All", "Housing", "Employment", "Immigration", "Legal Documentation"}

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Session struct {
	ID             string    `json:"id"`
	Messages       []Message `json:"messages"`
	CurrentPage    Page      `json:"current_page"`
	SidebarVisible bool      `json:"sidebar_visible"`
	TopicFilter    string    `json:"topic_filter"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Clone returns a deep copy; stores hand out clones so callers never share
// the backing message slice.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = make([]Message, len(s.Messages))
	copy(c.Messages, s.Messages)
	return &c
}

// Transcript is the visible part of the conversation: everything after the
// leading system prompt, minus injected document context.
func (s *Session) Transcript() []Message {
	if len(s.Messages) <= 1 {
		return nil
	}
	out := make([]Message, 0, len(s.Messages)-1)
	for _, m := range s.Messages[1:] {
		if m.Role == RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

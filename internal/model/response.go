package model

import "time"

type ChatResponse struct {
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
	Role      Role   `json:"role"`
	Timestamp int64  `json:"timestamp"`
}

type SessionResponse struct {
	SessionID      string    `json:"session_id"`
	CurrentPage    Page      `json:"current_page"`
	SidebarVisible bool      `json:"sidebar_visible"`
	TopicFilter    string    `json:"topic_filter"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	MessageCount   int       `json:"message_count"`
}

func NewSessionResponse(s *Session) SessionResponse {
	return SessionResponse{
		SessionID:      s.ID,
		CurrentPage:    s.CurrentPage,
		SidebarVisible: s.SidebarVisible,
		TopicFilter:    s.TopicFilter,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		MessageCount:   len(s.Messages),
	}
}

// DocumentResponse is returned after a PDF was folded into the conversation.
type DocumentResponse struct {
	SessionID string `json:"session_id"`
	Preview   string `json:"preview"`
	Truncated bool   `json:"truncated"`
	Pages     int    `json:"pages"`
}

type SummaryResponse struct {
	Summary   string `json:"summary"`
	Truncated bool   `json:"truncated"`
	Pages     int    `json:"pages"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

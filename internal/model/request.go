package model

type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
}

type NavigateRequest struct {
	Page string `json:"page" binding:"required"`
}

type TopicRequest struct {
	Topic string `json:"topic" binding:"required"`
}

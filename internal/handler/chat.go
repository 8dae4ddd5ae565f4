package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"lawgic/internal/model"
	"lawgic/internal/service"
	"lawgic/internal/utils"
	"lawgic/pkg/logger"

	"github.com/gin-gonic/gin"
)

// HeartbeatInterval is how often an idle SSE stream sends a keepalive event.
var HeartbeatInterval = 30 * time.Second

type ChatHandler struct {
	chatService    *service.ChatService
	maxUploadBytes int64
}

func NewChatHandler(chatService *service.ChatService, maxUploadBytes int64) *ChatHandler {
	return &ChatHandler{
		chatService:    chatService,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	session, err := h.chatService.CreateSession()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSessionResponse(session))
}

func (h *ChatHandler) GetSession(c *gin.Context) {
	session, err := h.chatService.GetSession(c.Param("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSessionResponse(session))
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	sessionID := c.Param("session_id")

	messages, err := h.chatService.GetMessages(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"messages":   messages,
	})
}

func (h *ChatHandler) GetSessionList(c *gin.Context) {
	sessions, err := h.chatService.ListSessions()
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]model.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, model.NewSessionResponse(s))
	}

	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	if err := h.chatService.DeleteSession(c.Param("session_id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, model.NewValidationError("request", err.Error()))
		return
	}

	answer, err := h.chatService.Ask(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, chatResponse(req.SessionID, answer))
}

// StreamChat answers over SSE. The provider call is not streamed: the client
// gets status events, heartbeats while waiting, then the whole reply.
func (h *ChatHandler) StreamChat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, model.NewValidationError("request", err.Error()))
		return
	}

	sseWriter := utils.NewSSEWriter(c.Writer)
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	type result struct {
		answer *model.Message
		err    error
	}
	done := make(chan result, 1)
	go func() {
		answer, err := h.chatService.Ask(ctx, req.SessionID, req.Message)
		done <- result{answer, err}
	}()

	_ = sseWriter.WriteJSON("status", gin.H{
		"type":      "processing_start",
		"timestamp": time.Now().Unix(),
	})

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-heartbeat.C:
			if err := sseWriter.WriteJSON("heartbeat", gin.H{"timestamp": time.Now().Unix()}); err != nil {
				logger.Warnf("heartbeat failed: %v", err)
				return
			}

		case res := <-done:
			if res.err != nil {
				_, kind := errorStatus(res.err)
				_ = sseWriter.WriteJSON("error", model.ErrorResponse{Error: userMessage(res.err), Type: kind})
				sseWriter.Close()
				return
			}

			if err := sseWriter.WriteJSON("message", chatResponse(req.SessionID, res.answer)); err != nil {
				logger.Errorf("Failed to write SSE: %v", err)
				return
			}
			_ = sseWriter.WriteJSON("status", gin.H{
				"type":      "processing_complete",
				"timestamp": time.Now().Unix(),
			})
			sseWriter.Close()
			return

		case <-ctx.Done():
			return
		}
	}
}

func (h *ChatHandler) UploadDocument(c *gin.Context) {
	data, err := h.readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.chatService.UploadDocument(c.Request.Context(), c.Param("session_id"), data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) Summarize(c *gin.Context) {
	data, err := h.readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.chatService.SummarizeDocument(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) Reset(c *gin.Context) {
	session, err := h.chatService.Reset(c.Param("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSessionResponse(session))
}

func (h *ChatHandler) Navigate(c *gin.Context) {
	var req model.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, model.NewValidationError("request", err.Error()))
		return
	}

	page, err := model.ParsePage(req.Page)
	if err != nil {
		respondError(c, err)
		return
	}

	session, err := h.chatService.Navigate(c.Param("session_id"), page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSessionResponse(session))
}

func (h *ChatHandler) ToggleSidebar(c *gin.Context) {
	session, err := h.chatService.ToggleSidebar(c.Param("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSessionResponse(session))
}

func (h *ChatHandler) SetTopic(c *gin.Context) {
	var req model.TopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, model.NewValidationError("request", err.Error()))
		return
	}

	session, err := h.chatService.SetTopic(c.Param("session_id"), req.Topic)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSessionResponse(session))
}

// readUpload reads the multipart "file" field, refusing anything over the
// upload cap.
func (h *ChatHandler) readUpload(c *gin.Context) ([]byte, error) {
	return readUploadedFile(c, h.maxUploadBytes)
}

// multipartOverhead is the room left for form boundaries and part headers on
// top of the upload limit.
const multipartOverhead = 64 << 10

func readUploadedFile(c *gin.Context, maxBytes int64) ([]byte, error) {
	tooLarge := model.NewValidationError("file", fmt.Sprintf("The file is larger than %d bytes.", maxBytes))
	if maxBytes > 0 {
		if c.Request.ContentLength > maxBytes+multipartOverhead {
			return nil, tooLarge
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, tooLarge
		}
		return nil, model.NewValidationError("file", "Please choose a PDF file to upload.")
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, tooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	return io.ReadAll(f)
}

func chatResponse(sessionID string, m *model.Message) model.ChatResponse {
	return model.ChatResponse{
		SessionID: sessionID,
		MessageID: m.ID,
		Content:   m.Content,
		Role:      m.Role,
		Timestamp: m.Timestamp.Unix(),
	}
}

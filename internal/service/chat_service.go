package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"lawgic/internal/config"
	"lawgic/internal/model"
	"lawgic/internal/pdf"
	"lawgic/internal/storage"
	"lawgic/pkg/logger"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Event names passed to observers.
const (
	EventCreated  = "created"
	EventMessage  = "message"
	EventDocument = "document"
	EventReset    = "reset"
	EventNavigate = "navigate"
	EventSidebar  = "sidebar"
	EventTopic    = "topic"
	EventDeleted  = "deleted"
	EventExpired  = "expired"
)

// Observer is notified after a session change has been stored. The session
// passed in is a copy.
type Observer func(event string, session *model.Session)

// Limits bounds the document text used by each operation.
type Limits struct {
	PreviewLimit   int
	ContextLimit   int
	SummaryLimit   int
	MaxUploadBytes int64
}

func LimitsFromConfig(c config.DocumentConfig) Limits {
	return Limits{
		PreviewLimit:   c.PreviewLimit,
		ContextLimit:   c.ContextLimit,
		SummaryLimit:   c.SummaryLimit,
		MaxUploadBytes: c.MaxUploadBytes,
	}
}

// ChatService owns the sessions and sequences every user action on them.
// Actions on one session run one at a time; a failed action stores nothing.
type ChatService struct {
	storage      storage.Storage
	gateway      Gateway
	extractor    *pdf.Extractor
	systemPrompt string
	limits       Limits
	session      config.SessionConfig

	locks sync.Map // session id -> *sync.Mutex

	mu        sync.RWMutex
	observers []Observer
}

func NewChatService(cfg *config.Config, store storage.Storage, gateway Gateway, extractor *pdf.Extractor) *ChatService {
	prompt := cfg.Assistant.SystemPrompt
	if prompt == "" {
		prompt = config.DefaultSystemPrompt
	}
	if extractor == nil {
		extractor = pdf.NewExtractor()
	}

	return &ChatService{
		storage:      store,
		gateway:      gateway,
		extractor:    extractor,
		systemPrompt: prompt,
		limits:       LimitsFromConfig(cfg.Document),
		session:      cfg.Session,
	}
}

// OnChange registers fn to be called after every stored change.
func (s *ChatService) OnChange(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *ChatService) notify(event string, session *model.Session) {
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(event, session.Clone())
	}
}

func (s *ChatService) CreateSession() (*model.Session, error) {
	session := NewSession(s.systemPrompt)
	if err := s.storage.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	logger.WithSession(session.ID).Info("session created")
	s.notify(EventCreated, session)
	return session, nil
}

func (s *ChatService) GetSession(sessionID string) (*model.Session, error) {
	session, err := s.storage.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// GetMessages returns the transcript shown to the user. Injected document
// context and the system prompt are not part of it.
func (s *ChatService) GetMessages(sessionID string) ([]model.Message, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Transcript(), nil
}

func (s *ChatService) ListSessions() ([]*model.Session, error) {
	sessions, err := s.storage.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (s *ChatService) DeleteSession(sessionID string) error {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.GetSession(sessionID)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.locks.Delete(sessionID)
	s.notify(EventDeleted, session)
	return nil
}

// Ask sends question with the whole history to the model. The question and
// the reply are stored together, and only if the model answered.
func (s *ChatService) Ask(ctx context.Context, sessionID, question string) (*model.Message, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	if err := AddUserMessage(session, question); err != nil {
		return nil, err
	}

	reply, err := s.gateway.Converse(ctx, session.Messages)
	if err != nil {
		logger.WithSession(sessionID).Errorf("converse failed: %v", err)
		return nil, err
	}

	if err := AddAssistantMessage(session, reply); err != nil {
		return nil, err
	}
	if err := s.save(EventMessage, session); err != nil {
		return nil, err
	}

	answer := session.Messages[len(session.Messages)-1]
	return &answer, nil
}

// UploadDocument folds the text of a PDF into the conversation as system
// context, capped at the context limit.
func (s *ChatService) UploadDocument(ctx context.Context, sessionID string, data []byte) (*model.DocumentResponse, error) {
	if err := s.checkSize(data); err != nil {
		return nil, err
	}

	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	result, err := s.extractor.Extract(data, s.limits.ContextLimit)
	if err != nil {
		logger.WithSession(sessionID).Warnf("document rejected: %v", err)
		return nil, err
	}

	if strings.TrimSpace(result.Text) == "" {
		return nil, model.NewValidationError("document", "The document contains no extractable text.")
	}
	if err := AddSystemContext(session, DocumentContextPrefix+result.Text); err != nil {
		return nil, err
	}
	if err := s.save(EventDocument, session); err != nil {
		return nil, err
	}

	logger.WithSession(sessionID).Infof("document added: %d pages, truncated=%t", result.Pages, result.Truncated)

	return &model.DocumentResponse{
		SessionID: sessionID,
		Preview:   pdf.Preview(result.Text, s.limits.PreviewLimit),
		Truncated: result.Truncated,
		Pages:     result.Pages,
	}, nil
}

// SummarizeDocument is stateless: no session is read or written.
func (s *ChatService) SummarizeDocument(ctx context.Context, data []byte) (*model.SummaryResponse, error) {
	if err := s.checkSize(data); err != nil {
		return nil, err
	}

	result, err := s.extractor.Extract(data, s.limits.SummaryLimit)
	if err != nil {
		return nil, err
	}

	summary, err := s.gateway.Summarize(ctx, result.Text)
	if err != nil {
		logger.Errorf("summarize failed: %v", err)
		return nil, err
	}

	return &model.SummaryResponse{
		Summary:   summary,
		Truncated: result.Truncated,
		Pages:     result.Pages,
	}, nil
}

// Reset drops everything after the system prompt, including uploaded
// document context.
func (s *ChatService) Reset(sessionID string) (*model.Session, error) {
	return s.mutate(sessionID, EventReset, func(session *model.Session) error {
		Reset(session)
		return nil
	})
}

func (s *ChatService) Navigate(sessionID string, page model.Page) (*model.Session, error) {
	return s.mutate(sessionID, EventNavigate, func(session *model.Session) error {
		return Navigate(session, page)
	})
}

func (s *ChatService) ToggleSidebar(sessionID string) (*model.Session, error) {
	return s.mutate(sessionID, EventSidebar, func(session *model.Session) error {
		ToggleSidebar(session)
		return nil
	})
}

func (s *ChatService) SetTopic(sessionID, topic string) (*model.Session, error) {
	return s.mutate(sessionID, EventTopic, func(session *model.Session) error {
		return SetTopic(session, topic)
	})
}

func (s *ChatService) mutate(sessionID, event string, fn func(*model.Session) error) (*model.Session, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	if err := s.save(event, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) save(event string, session *model.Session) error {
	session.UpdatedAt = time.Now()
	if err := s.storage.UpdateSession(session); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, session.ID)
		}
		return fmt.Errorf("failed to update session: %w", err)
	}
	s.notify(event, session)
	return nil
}

func (s *ChatService) checkSize(data []byte) error {
	if s.limits.MaxUploadBytes > 0 && int64(len(data)) > s.limits.MaxUploadBytes {
		return model.NewValidationError("file", fmt.Sprintf("The file is larger than %d bytes.", s.limits.MaxUploadBytes))
	}
	return nil
}

func (s *ChatService) lock(sessionID string) func() {
	v, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Run removes sessions idle for longer than the configured TTL until ctx is
// cancelled.
func (s *ChatService) Run(ctx context.Context) {
	if s.session.TTL <= 0 || s.session.CleanupInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.session.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.CleanupExpired(now)
		}
	}
}

// CleanupExpired deletes every session last updated before now minus TTL and
// returns how many were removed.
func (s *ChatService) CleanupExpired(now time.Time) int {
	sessions, err := s.storage.ListSessions()
	if err != nil {
		logger.Errorf("Failed to list sessions for cleanup: %v", err)
		return 0
	}

	cutoff := now.Add(-s.session.TTL)
	removed := 0
	for _, session := range sessions {
		if !session.UpdatedAt.Before(cutoff) {
			continue
		}
		if expired, ok := s.deleteIfExpired(session.ID, cutoff); ok {
			s.notify(EventExpired, expired)
			logger.Infof("Cleaned up expired session: %s", session.ID)
			removed++
		}
	}
	return removed
}

// deleteIfExpired re-reads the session under its lock, so an action that
// finished while cleanup was waiting keeps the session alive.
func (s *ChatService) deleteIfExpired(sessionID string, cutoff time.Time) (*model.Session, bool) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.storage.GetSession(sessionID)
	if err != nil || !session.UpdatedAt.Before(cutoff) {
		return nil, false
	}
	if err := s.storage.DeleteSession(sessionID); err != nil {
		logger.Errorf("Failed to delete expired session %s: %v", sessionID, err)
		return nil, false
	}
	s.locks.Delete(sessionID)
	return session, true
}

package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"lawgic/internal/config"
	"lawgic/internal/model"
)

// TestStorageContract runs the same behaviour checks against every backend.
func TestStorageContract(t *testing.T) {
	backends := []struct {
		name string
		new  func(t *testing.T) Storage
	}{
		{"Memory", func(t *testing.T) Storage { return NewMemoryStorage() }},
		{"SQLite", func(t *testing.T) Storage {
			return NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "sessions.db"))
		}},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Run("CreateGetRoundTrip", func(t *testing.T) { testCreateGet(t, open(t, b.new)) })
			t.Run("ReturnsCopies", func(t *testing.T) { testReturnsCopies(t, open(t, b.new)) })
			t.Run("UpdateReplacesMessages", func(t *testing.T) { testUpdate(t, open(t, b.new)) })
			t.Run("DeleteAndNotFound", func(t *testing.T) { testDelete(t, open(t, b.new)) })
			t.Run("ListNewestFirst", func(t *testing.T) { testList(t, open(t, b.new)) })
			t.Run("DuplicateCreate", func(t *testing.T) { testDuplicate(t, open(t, b.new)) })
		})
	}
}

func open(t *testing.T, newStore func(t *testing.T) Storage) Storage {
	t.Helper()
	s := newStore(t)
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newSession(id string, updated time.Time) *model.Session {
	return &model.Session{
		ID: id,
		Messages: []model.Message{
			{ID: id + "-0", Role: model.RoleSystem, Content: "You are Lawgic.", Timestamp: updated},
		},
		CurrentPage:    model.PageLanding,
		SidebarVisible: true,
		TopicFilter:    "All",
		CreatedAt:      updated,
		UpdatedAt:      updated,
	}
}

func testCreateGet(t *testing.T, s Storage) {
	now := time.Now().Truncate(time.Millisecond)
	in := newSession("s1", now)
	in.Messages = append(in.Messages, model.Message{ID: "m1", Role: model.RoleUser, Content: "Can I sublet?", Timestamp: now})

	if err := s.CreateSession(in); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	got, err := s.GetSession("s1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != model.RoleSystem || got.Messages[1].Content != "Can I sublet?" {
		t.Errorf("GetSession() messages = %+v", got.Messages)
	}
	if got.CurrentPage != model.PageLanding || !got.SidebarVisible || got.TopicFilter != "All" {
		t.Errorf("GetSession() state = %+v", got)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("GetSession() updated_at = %v, want %v", got.UpdatedAt, now)
	}
}

func testReturnsCopies(t *testing.T, s Storage) {
	in := newSession("s1", time.Now())
	if err := s.CreateSession(in); err != nil {
		t.Fatal(err)
	}
	in.Messages = append(in.Messages, model.Message{ID: "x", Role: model.RoleUser, Content: "leak"})

	got, _ := s.GetSession("s1")
	got.Messages = append(got.Messages, model.Message{ID: "y", Role: model.RoleUser, Content: "leak"})

	again, _ := s.GetSession("s1")
	if len(again.Messages) != 1 {
		t.Errorf("stored session changed without UpdateSession: %+v", again.Messages)
	}
}

func testUpdate(t *testing.T, s Storage) {
	in := newSession("s1", time.Now())
	if err := s.CreateSession(in); err != nil {
		t.Fatal(err)
	}

	in.Messages = append(in.Messages,
		model.Message{ID: "u", Role: model.RoleUser, Content: "q"},
		model.Message{ID: "a", Role: model.RoleAssistant, Content: "a"},
	)
	in.CurrentPage = model.PageChat
	in.SidebarVisible = false
	if err := s.UpdateSession(in); err != nil {
		t.Fatalf("UpdateSession() error = %v", err)
	}

	got, _ := s.GetSession("s1")
	if len(got.Messages) != 3 || got.Messages[2].Role != model.RoleAssistant {
		t.Errorf("messages after update = %+v", got.Messages)
	}
	if got.CurrentPage != model.PageChat || got.SidebarVisible {
		t.Errorf("state after update = %+v", got)
	}

	in.Messages = in.Messages[:1]
	if err := s.UpdateSession(in); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetSession("s1")
	if len(got.Messages) != 1 {
		t.Errorf("messages after reset = %d, want 1", len(got.Messages))
	}

	if err := s.UpdateSession(newSession("missing", time.Now())); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("UpdateSession(missing) error = %v, want ErrSessionNotFound", err)
	}
}

func testDelete(t *testing.T, s Storage) {
	if err := s.CreateSession(newSession("s1", time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteSession("s1"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := s.GetSession("s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetSession() after delete error = %v", err)
	}
	if err := s.DeleteSession("s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("DeleteSession() twice error = %v", err)
	}
}

func testList(t *testing.T, s Storage) {
	base := time.Now()
	for i, id := range []string{"old", "new", "mid"} {
		offsets := []time.Duration{-2 * time.Hour, 0, -time.Hour}
		session := newSession(id, base.Add(offsets[i]))
		for j := 0; j < i; j++ {
			session.Messages = append(session.Messages, model.Message{
				ID: fmt.Sprintf("%s-%d", id, j+1), Role: model.RoleUser, Content: "question", Timestamp: base,
			})
		}
		if err := s.CreateSession(session); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(list) != 3 || list[0].ID != "new" || list[1].ID != "mid" || list[2].ID != "old" {
		ids := make([]string, len(list))
		for i, s := range list {
			ids[i] = s.ID
		}
		t.Fatalf("ListSessions() order = %v", ids)
	}

	wantCounts := map[string]int{"old": 1, "new": 2, "mid": 3}
	for _, session := range list {
		if got := len(session.Messages); got != wantCounts[session.ID] {
			t.Errorf("ListSessions() %s has %d messages, want %d", session.ID, got, wantCounts[session.ID])
		}
		if session.Messages[0].Role != model.RoleSystem {
			t.Errorf("ListSessions() %s first role = %s", session.ID, session.Messages[0].Role)
		}
	}
}

func testDuplicate(t *testing.T, s Storage) {
	if err := s.CreateSession(newSession("s1", time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateSession(newSession("s1", time.Now())); !errors.Is(err, ErrSessionExists) {
		t.Errorf("CreateSession() duplicate error = %v, want ErrSessionExists", err)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(config.StorageConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("New(memory) error = %v", err)
	}
	if _, ok := s.(*MemoryStorage); !ok {
		t.Errorf("New(memory) = %T", s)
	}

	if _, err := New(config.StorageConfig{Type: "disk"}); !errors.Is(err, ErrStorageInit) {
		t.Errorf("New(disk) error = %v, want ErrStorageInit", err)
	}
}

func TestNewSQLiteIsReadyAndCloses(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "sessions.db")
	s, err := New(config.StorageConfig{Type: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("New(sqlite) error = %v", err)
	}

	sqlite, ok := s.(*SQLiteStorage)
	if !ok {
		t.Fatalf("New(sqlite) = %T", s)
	}
	db := sqlite.db

	if err := s.CreateSession(newSession("s1", time.Now())); err != nil {
		t.Fatalf("CreateSession() on a new store error = %v", err)
	}

	if err := s.Init(); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	if sqlite.db != db {
		t.Error("second Init() opened another database handle")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := s.GetSession("s1"); err == nil {
		t.Error("GetSession() after Close() succeeded")
	}
}

package storage

import (
	"fmt"

	"lawgic/internal/config"
	"lawgic/internal/model"
)

// Storage keeps live sessions. Implementations store and return deep copies,
// so a caller mutating a session it fetched does not affect the stored one
// until UpdateSession succeeds.
type Storage interface {
	CreateSession(session *model.Session) error
	GetSession(sessionID string) (*model.Session, error)
	UpdateSession(session *model.Session) error
	DeleteSession(sessionID string) error
	// ListSessions returns full sessions, messages included, newest first.
	ListSessions() ([]*model.Session, error)

	Init() error
	Close() error
}

// New builds the backend selected by cfg and initializes it.
func New(cfg config.StorageConfig) (Storage, error) {
	var store Storage
	switch cfg.Type {
	case "", "memory":
		store = NewMemoryStorage()
	case "sqlite":
		store = NewSQLiteStorage(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: unknown storage type %q", ErrStorageInit, cfg.Type)
	}

	if err := store.Init(); err != nil {
		return nil, err
	}
	return store, nil
}

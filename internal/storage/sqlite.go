package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lawgic/internal/model"
	"lawgic/pkg/logger"

	_ "modernc.org/sqlite"
)

// SQLiteStorage keeps live sessions in a SQLite file so they survive a
// process restart. Expired sessions are removed by the chat service, not here.
type SQLiteStorage struct {
	dsn string
	db  *sql.DB
}

func NewSQLiteStorage(dsn string) *SQLiteStorage {
	return &SQLiteStorage{dsn: dsn}
}

// Init opens the database and creates the schema. Calling it on an open
// store is a no-op.
func (s *SQLiteStorage) Init() error {
	if s.db != nil {
		return nil
	}
	if err := s.createDirectories(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite", s.dsn)
	if err != nil {
		return fmt.Errorf("%w: open database: %v", ErrStorageInit, err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("%w: ping database: %v", ErrStorageInit, err)
	}

	s.db = db
	if err := s.initialize(); err != nil {
		db.Close()
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	logger.Infof("SQLite session storage initialized at %s", s.dsn)
	return nil
}

func (s *SQLiteStorage) createDirectories() error {
	if s.dsn == "" || s.dsn == ":memory:" || strings.HasPrefix(s.dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(s.dsn)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o700)
}

func (s *SQLiteStorage) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		current_page TEXT NOT NULL,
		sidebar_visible INTEGER NOT NULL,
		topic_filter TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (session_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStorage) CreateSession(session *model.Session) error {
	if session == nil || session.ID == "" {
		return ErrInvalidData
	}

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO sessions (id, current_page, sidebar_visible, topic_filter, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			session.ID, string(session.CurrentPage), session.SidebarVisible, session.TopicFilter,
			session.CreatedAt.UnixNano(), session.UpdatedAt.UnixNano())
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				return ErrSessionExists
			}
			return err
		}
		return insertMessages(tx, session.ID, session.Messages)
	})
}

func (s *SQLiteStorage) GetSession(sessionID string) (*model.Session, error) {
	row := s.db.QueryRow(`SELECT id, current_page, sidebar_visible, topic_filter, created_at, updated_at
		FROM sessions WHERE id = ?`, sessionID)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	messages, err := s.loadMessages(sessionID)
	if err != nil {
		return nil, err
	}
	session.Messages = messages

	return session, nil
}

func (s *SQLiteStorage) UpdateSession(session *model.Session) error {
	if session == nil {
		return ErrInvalidData
	}

	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE sessions SET current_page = ?, sidebar_visible = ?, topic_filter = ?, updated_at = ?
			WHERE id = ?`,
			string(session.CurrentPage), session.SidebarVisible, session.TopicFilter,
			session.UpdatedAt.UnixNano(), session.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrSessionNotFound
		}

		if _, err := tx.Exec(`DELETE FROM messages WHERE session_id = ?`, session.ID); err != nil {
			return err
		}
		return insertMessages(tx, session.ID, session.Messages)
	})
}

func (s *SQLiteStorage) DeleteSession(sessionID string) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrSessionNotFound
		}
		_, err = tx.Exec(`DELETE FROM messages WHERE session_id = ?`, sessionID)
		return err
	})
}

// ListSessions returns every session with its messages, newest first.
func (s *SQLiteStorage) ListSessions() ([]*model.Session, error) {
	sessions, err := s.listMetadata()
	if err != nil {
		return nil, err
	}

	// messages are loaded after the session rows are closed; the pool holds
	// a single connection
	for _, session := range sessions {
		messages, err := s.loadMessages(session.ID)
		if err != nil {
			return nil, err
		}
		session.Messages = messages
	}
	return sessions, nil
}

func (s *SQLiteStorage) listMetadata() ([]*model.Session, error) {
	rows, err := s.db.Query(`SELECT id, current_page, sidebar_visible, topic_filter, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

func (s *SQLiteStorage) loadMessages(sessionID string) ([]model.Message, error) {
	rows, err := s.db.Query(`SELECT id, role, content, created_at FROM messages
		WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var (
			msg  model.Message
			role string
			ts   int64
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &ts); err != nil {
			return nil, err
		}
		msg.Role = model.Role(role)
		if !msg.Role.Valid() {
			return nil, fmt.Errorf("%w: role %q in session %s", ErrInvalidData, role, sessionID)
		}
		msg.Timestamp = time.Unix(0, ts)
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (s *SQLiteStorage) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Errorf("rollback failed: %v", rbErr)
		}
		return err
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	var (
		session          model.Session
		page             string
		created, updated int64
	)
	if err := row.Scan(&session.ID, &page, &session.SidebarVisible, &session.TopicFilter, &created, &updated); err != nil {
		return nil, err
	}
	session.CurrentPage = model.Page(page)
	session.CreatedAt = time.Unix(0, created)
	session.UpdatedAt = time.Unix(0, updated)
	return &session, nil
}

func insertMessages(tx *sql.Tx, sessionID string, messages []model.Message) error {
	stmt, err := tx.Prepare(`INSERT INTO messages (session_id, seq, id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, msg := range messages {
		if _, err := stmt.Exec(sessionID, i, msg.ID, string(msg.Role), msg.Content, msg.Timestamp.UnixNano()); err != nil {
			return err
		}
	}
	return nil
}

package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SessionStore persists the active conversation between invocations
type SessionStore struct {
	db   *sql.DB
	path string
}

// StoredSession is the conversation read back from the store
type StoredSession struct {
	ID        string
	Model     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Turns     []Turn
}

// OpenSessionStore opens the store at path
func OpenSessionStore(path string) (*SessionStore, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StoreError{Path: path, Op: "open", Err: err}
	}
	return &SessionStore{db: db, path: path}, nil
}

// Close releases the database
func (s *SessionStore) Close() error {
	return s.db.Close()
}

// Path returns the database location
func (s *SessionStore) Path() string {
	return s.path
}

// LoadActive returns the stored conversation, or nil when the store is empty.
// Assistant display text is regenerated with render.
func (s *SessionStore) LoadActive(ctx context.Context, render RenderFunc) (*StoredSession, error) {
	if render == nil {
		render = RenderMarkdown
	}

	var stored StoredSession
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, model, created_at, updated_at FROM session ORDER BY updated_at DESC LIMIT 1",
	).Scan(&stored.ID, &stored.Model, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Path: s.path, Op: "load", Err: err}
	}
	stored.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	stored.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content, attachment_path FROM turns WHERE session_id = ? ORDER BY seq",
		stored.ID,
	)
	if err != nil {
		return nil, &StoreError{Path: s.path, Op: "load", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var roleStr, content, attachment string
		if err := rows.Scan(&roleStr, &content, &attachment); err != nil {
			return nil, &StoreError{Path: s.path, Op: "load", Err: fmt.Errorf("scan failed: %w", err)}
		}
		role, err := ParseRole(roleStr)
		if err != nil {
			return nil, &StoreError{Path: s.path, Op: "load", Err: err}
		}
		if role == RoleAssistant {
			stored.Turns = append(stored.Turns, NewAssistantTurn(content, render))
		} else {
			stored.Turns = append(stored.Turns, NewUserTurn(content, attachment))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Path: s.path, Op: "load", Err: fmt.Errorf("rows iteration error: %w", err)}
	}

	return &stored, nil
}

// SaveActive replaces the stored conversation with sess in one transaction
func (s *SessionStore) SaveActive(ctx context.Context, sess *Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StoreError{Path: s.path, Op: "save", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM turns"); err != nil {
		return &StoreError{Path: s.path, Op: "save", Err: err}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM session"); err != nil {
		return &StoreError{Path: s.path, Op: "save", Err: err}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO session (id, model, created_at, updated_at) VALUES (?, ?, ?, ?)",
		sess.ID, sess.Model(), sess.CreatedAt.UTC().Format(time.RFC3339Nano), now,
	); err != nil {
		return &StoreError{Path: s.path, Op: "save", Err: err}
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO turns (session_id, seq, role, content, attachment_path) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return &StoreError{Path: s.path, Op: "save", Err: err}
	}
	defer stmt.Close()

	for i, turn := range sess.Ledger().Turns() {
		if _, err := stmt.ExecContext(ctx, sess.ID, i, string(turn.Role), turn.CanonicalContent, turn.AttachmentPath); err != nil {
			return &StoreError{Path: s.path, Op: "save", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StoreError{Path: s.path, Op: "save", Err: err}
	}
	LogDebug("Saved session %s (%d turns)", sess.ID, sess.Ledger().Len())
	return nil
}

// ClearActive removes the stored conversation
func (s *SessionStore) ClearActive(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StoreError{Path: s.path, Op: "clear", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM turns"); err != nil {
		return &StoreError{Path: s.path, Op: "clear", Err: err}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM session"); err != nil {
		return &StoreError{Path: s.path, Op: "clear", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &StoreError{Path: s.path, Op: "clear", Err: err}
	}
	return nil
}

// Restore loads the stored conversation into sess. It reports whether
// anything was restored.
func (s *SessionStore) Restore(ctx context.Context, sess *Session) (bool, error) {
	stored, err := s.LoadActive(ctx, sess.Ledger().render)
	if err != nil {
		return false, err
	}
	if stored == nil {
		return false, nil
	}
	sess.Replace(stored.Turns, stored.Model, stored.CreatedAt)
	sess.ID = stored.ID
	return true, nil
}

// Package server implements the atelier backend: the HTTP contract the chat
// client consumes, a SQLite-backed session store, and a pluggable image
// generator.
package server

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/atelier-go/internal/api"
)

// ErrNotFound is returned when a session or message id is unknown.
var ErrNotFound = errors.New("not found")

const titleMaxLen = 30

// Store persists sessions and their messages in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if needed creates) the sessions database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_busy_timeout=10000&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open sessions db: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		ord INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT ''
	);`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListSessions returns all sessions in creation order. The client renders
// the listing reversed, so the contract here is oldest first.
func (s *Store) ListSessions() ([]api.SessionSummary, error) {
	rows, err := s.db.Query(`SELECT id, title FROM sessions ORDER BY created_at ASC, rowid ASC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []api.SessionSummary{}
	for rows.Next() {
		var sum api.SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Title); err != nil {
			return nil, err
		}
		sessions = append(sessions, sum)
	}
	return sessions, rows.Err()
}

// GetSession returns the full record of one session, or ErrNotFound.
func (s *Store) GetSession(id string) (*api.SessionRecord, error) {
	var record api.SessionRecord
	err := s.db.QueryRow(`SELECT title FROM sessions WHERE id = ?;`, id).Scan(&record.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT id, sender, text, image_url, status
		FROM messages WHERE session_id = ? ORDER BY ord ASC;`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	record.Messages = []api.Message{}
	for rows.Next() {
		var m api.Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Text, &m.ImageURL, &m.Status); err != nil {
			return nil, err
		}
		record.Messages = append(record.Messages, m)
	}
	return &record, rows.Err()
}

// HasSession reports whether a session id exists.
func (s *Store) HasSession(id string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM sessions WHERE id = ?;`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// CreateSession creates a new session titled after the prompt (truncated to
// 30 characters) and returns its id.
func (s *Store) CreateSession(prompt string) (string, error) {
	title := prompt
	if len(title) > titleMaxLen {
		title = title[:titleMaxLen] + "..."
	}
	id := mintID()
	if _, err := s.db.Exec(`INSERT INTO sessions (id, title, created_at) VALUES (?,?,?);`,
		id, title, time.Now().UTC()); err != nil {
		return "", err
	}
	return id, nil
}

// AppendMessage adds a message to the end of a session's history.
func (s *Store) AppendMessage(sessionID string, m api.Message) error {
	_, err := s.db.Exec(`INSERT INTO messages (id, session_id, sender, text, image_url, status)
		VALUES (?,?,?,?,?,?);`, m.ID, sessionID, m.Sender, m.Text, m.ImageURL, m.Status)
	return err
}

// UpdateStatus sets the feedback status of the message with the given id.
// Returns ErrNotFound when no message carries that id.
func (s *Store) UpdateStatus(messageID, status string) error {
	res, err := s.db.Exec(`UPDATE messages SET status = ? WHERE id = ?;`, status, messageID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindPrompt locates the prompt behind a message: the user message
// immediately preceding it in the same session, falling back to the
// message's own text.
func (s *Store) FindPrompt(messageID string) (sessionID, prompt string, err error) {
	var ord int64
	var text string
	err = s.db.QueryRow(`SELECT session_id, ord, text FROM messages WHERE id = ?;`,
		messageID).Scan(&sessionID, &ord, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", err
	}

	var prevSender, prevText string
	err = s.db.QueryRow(`SELECT sender, text FROM messages
		WHERE session_id = ? AND ord < ? ORDER BY ord DESC LIMIT 1;`,
		sessionID, ord).Scan(&prevSender, &prevText)
	if err == nil && prevSender == api.SenderUser {
		return sessionID, prevText, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", "", err
	}
	return sessionID, text, nil
}

// AllPrompts returns every user prompt of a session joined with ". ",
// which the generate flow prepends so follow-up prompts refine the image.
func (s *Store) AllPrompts(sessionID string) (string, error) {
	rows, err := s.db.Query(`SELECT text FROM messages
		WHERE session_id = ? AND sender = ? AND text != '' ORDER BY ord ASC;`,
		sessionID, api.SenderUser)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var prompts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return "", err
		}
		prompts = append(prompts, text)
	}
	return strings.Join(prompts, ". "), rows.Err()
}

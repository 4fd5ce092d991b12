package store

import (
	"fmt"
	"time"

	"github.com/impertio/talkbridge/internal/domain"
)

// ConversationStore persists conversation turns, bounded per conversation.
// It implements history.Store so conversations survive restarts.
type ConversationStore struct {
	db  *DB
	cap int
}

// NewConversationStore creates a store keeping at most cap turns per
// conversation. A cap below 1 keeps everything.
func NewConversationStore(db *DB, cap int) *ConversationStore {
	return &ConversationStore{db: db, cap: cap}
}

func (s *ConversationStore) Append(key domain.ConversationKey, turn domain.Turn) error {
	ts := turn.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.sql.Exec(
		`INSERT INTO turns (username, token, role, author, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		key.Username, key.Token, string(turn.Role), turn.Author, turn.Content, ts.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	if s.cap > 0 {
		// Drop the oldest rows past the cap.
		_, err = s.db.sql.Exec(
			`DELETE FROM turns WHERE username = ? AND token = ? AND id NOT IN (
				SELECT id FROM turns WHERE username = ? AND token = ? ORDER BY id DESC LIMIT ?
			)`,
			key.Username, key.Token, key.Username, key.Token, s.cap,
		)
		if err != nil {
			return fmt.Errorf("trimming turns: %w", err)
		}
	}
	return nil
}

func (s *ConversationStore) Snapshot(key domain.ConversationKey) ([]domain.Turn, error) {
	rows, err := s.db.sql.Query(
		`SELECT role, author, content, created_at FROM turns WHERE username = ? AND token = ? ORDER BY id ASC`,
		key.Username, key.Token,
	)
	if err != nil {
		return nil, fmt.Errorf("loading turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var t domain.Turn
		var role, createdAt string
		if err := rows.Scan(&role, &t.Author, &t.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Role = domain.Role(role)
		t.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *ConversationStore) Evict(key domain.ConversationKey) error {
	_, err := s.db.sql.Exec(
		`DELETE FROM turns WHERE username = ? AND token = ?`,
		key.Username, key.Token,
	)
	if err != nil {
		return fmt.Errorf("evicting turns: %w", err)
	}
	return nil
}

func (s *ConversationStore) Len(key domain.ConversationKey) (int, error) {
	var n int
	err := s.db.sql.QueryRow(
		`SELECT COUNT(*) FROM turns WHERE username = ? AND token = ?`,
		key.Username, key.Token,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting turns: %w", err)
	}
	return n, nil
}

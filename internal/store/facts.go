package store

import (
	"fmt"
	"time"

	"github.com/impertio/talkbridge/internal/domain"
)

// maxFactsPerConversation bounds remembered facts; oldest dropped first.
const maxFactsPerConversation = 20

// FactStore keeps per-conversation remembered facts. Facts are prepended
// to every assistant prompt so they survive history eviction.
type FactStore struct {
	db *DB
}

// NewFactStore creates a FactStore on the given database.
func NewFactStore(db *DB) *FactStore {
	return &FactStore{db: db}
}

// Add remembers a fact for the conversation, dropping the oldest past the cap.
func (s *FactStore) Add(key domain.ConversationKey, fact string) error {
	_, err := s.db.sql.Exec(
		`INSERT INTO key_facts (username, token, fact, created_at) VALUES (?, ?, ?, ?)`,
		key.Username, key.Token, fact, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("adding fact: %w", err)
	}
	_, err = s.db.sql.Exec(
		`DELETE FROM key_facts WHERE username = ? AND token = ? AND id NOT IN (
			SELECT id FROM key_facts WHERE username = ? AND token = ? ORDER BY id DESC LIMIT ?
		)`,
		key.Username, key.Token, key.Username, key.Token, maxFactsPerConversation,
	)
	if err != nil {
		return fmt.Errorf("trimming facts: %w", err)
	}
	return nil
}

// List returns the conversation's facts, oldest first.
func (s *FactStore) List(key domain.ConversationKey) ([]string, error) {
	rows, err := s.db.sql.Query(
		`SELECT fact FROM key_facts WHERE username = ? AND token = ? ORDER BY id ASC`,
		key.Username, key.Token,
	)
	if err != nil {
		return nil, fmt.Errorf("listing facts: %w", err)
	}
	defer rows.Close()

	var facts []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scanning fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// Remove forgets the n-th fact (1-based, in List order).
// Returns ErrNotFound when no such fact exists.
func (s *FactStore) Remove(key domain.ConversationKey, n int) error {
	if n < 1 {
		return ErrNotFound
	}
	res, err := s.db.sql.Exec(
		`DELETE FROM key_facts WHERE id IN (
			SELECT id FROM key_facts WHERE username = ? AND token = ? ORDER BY id ASC LIMIT 1 OFFSET ?
		)`,
		key.Username, key.Token, n-1,
	)
	if err != nil {
		return fmt.Errorf("removing fact: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

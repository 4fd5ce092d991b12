package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/impertio/talkbridge/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// TaskBotStore is the registry linking Talk conversations to Deck cards.
type TaskBotStore struct {
	db *DB
}

// NewTaskBotStore creates a TaskBotStore on the given database.
func NewTaskBotStore(db *DB) *TaskBotStore {
	return &TaskBotStore{db: db}
}

// Create registers a task conversation. The token must not already be registered.
func (s *TaskBotStore) Create(tb *domain.TaskBot) error {
	if tb.Status == "" {
		tb.Status = domain.TaskStatusActive
	}
	if tb.CreatedAt.IsZero() {
		tb.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.sql.Exec(
		`INSERT INTO task_bots (token, title, board_id, stack_id, card_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tb.Token, tb.Title, tb.BoardID, tb.StackID, tb.CardID, string(tb.Status),
		tb.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("creating task bot: %w", err)
	}
	tb.ID, _ = res.LastInsertId()
	return nil
}

// GetByToken looks up the task registered for a conversation.
// Returns ErrNotFound when the conversation has no task.
func (s *TaskBotStore) GetByToken(token string) (*domain.TaskBot, error) {
	row := s.db.sql.QueryRow(
		`SELECT id, token, title, board_id, stack_id, card_id, status, created_at, completed_at
		 FROM task_bots WHERE token = ?`,
		token,
	)

	var tb domain.TaskBot
	var status, createdAt string
	var completedAt sql.NullString
	err := row.Scan(&tb.ID, &tb.Token, &tb.Title, &tb.BoardID, &tb.StackID, &tb.CardID,
		&status, &createdAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading task bot: %w", err)
	}

	tb.Status = domain.TaskStatus(status)
	tb.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, completedAt.String)
		tb.CompletedAt = &t
	}
	return &tb, nil
}

// Complete marks the conversation's task completed at the given time.
func (s *TaskBotStore) Complete(token string, at time.Time) error {
	res, err := s.db.sql.Exec(
		`UPDATE task_bots SET status = ?, completed_at = ? WHERE token = ? AND status = ?`,
		string(domain.TaskStatusCompleted), at.UTC().Format(time.RFC3339Nano),
		token, string(domain.TaskStatusActive),
	)
	if err != nil {
		return fmt.Errorf("completing task bot: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

package domain

import "time"

// TaskStatus tracks the lifecycle of a task-scoped conversation.
type TaskStatus string

const (
	TaskStatusActive    TaskStatus = "active"
	TaskStatusCompleted TaskStatus = "completed"
)

// TaskBot links a Talk conversation to a Deck card. Conversations with a
// registry row get completion-intent detection and card comment mirroring.
type TaskBot struct {
	ID          int64      `json:"id"`
	Token       string     `json:"token"`
	Title       string     `json:"title"`
	BoardID     int64      `json:"boardId"`
	StackID     int64      `json:"stackId"`
	CardID      int64      `json:"cardId"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Active reports whether the task is still open.
func (t *TaskBot) Active() bool {
	return t.Status == TaskStatusActive
}

// Package invoker runs the assistant as a subordinate process.
package invoker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/impertio/talkbridge/internal/domain"
)

// ErrTimeout is returned when the assistant process exceeded its wall-clock
// budget and was killed.
var ErrTimeout = errors.New("invoker: assistant timed out")

// FailureError is returned when the assistant process exited non-zero or
// produced unusable output. Diagnostics is already truncated; it is for
// logs only and must never reach the chat user.
type FailureError struct {
	Diagnostics string
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("invoker: assistant failed: %s", e.Diagnostics)
}

// TaskContext focuses the assistant on a registered task conversation.
type TaskContext struct {
	Title       string
	Description string
}

// Request carries everything one invocation needs. It is built per webhook
// and never persisted.
type Request struct {
	Profile *domain.BotProfile
	History []domain.Turn
	Facts   []string
	Task    *TaskContext
	Author  string
	Message string
}

// Result is the assistant's reply.
type Result struct {
	Reply     string
	SessionID string
	CostUSD   float64
	Duration  time.Duration
}

// Invoker runs one assistant invocation. Implementations must honor
// context cancellation by terminating the subordinate process.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Result, error)
}

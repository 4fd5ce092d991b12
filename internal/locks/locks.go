// Package locks serializes assistant invocations per conversation.
package locks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/impertio/talkbridge/internal/domain"
)

// ErrLockTimeout is returned when a request waited the full bounded wait
// behind an in-flight invocation for the same conversation.
var ErrLockTimeout = errors.New("locks: timed out waiting for conversation lock")

// entry is one conversation's lock. ch acts as a mutex: sending acquires,
// receiving releases. Blocked senders are woken in FIFO order.
type entry struct {
	ch   chan struct{}
	refs int
}

// Manager hands out exclusive per-conversation locks with a bounded wait.
// Locks are created lazily and garbage-collected once the last holder or
// waiter is gone.
type Manager struct {
	mu      sync.Mutex
	wait    time.Duration
	entries map[domain.ConversationKey]*entry
}

// NewManager creates a Manager whose Acquire waits at most wait.
func NewManager(wait time.Duration) *Manager {
	return &Manager{
		wait:    wait,
		entries: make(map[domain.ConversationKey]*entry),
	}
}

// Acquire takes the conversation's lock, queueing behind any holder. It
// fails with ErrLockTimeout after the bounded wait, or with the context's
// error on cancellation. The returned release function is idempotent and
// must be called on every exit path.
func (m *Manager) Acquire(ctx context.Context, key domain.ConversationKey) (func(), error) {
	e := m.retain(key)

	timer := time.NewTimer(m.wait)
	defer timer.Stop()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		release := func() {
			once.Do(func() {
				<-e.ch
				m.unretain(key)
			})
		}
		return release, nil
	case <-timer.C:
		m.unretain(key)
		return nil, ErrLockTimeout
	case <-ctx.Done():
		m.unretain(key)
		return nil, ctx.Err()
	}
}

// Active returns the number of conversations with a live lock entry.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Manager) retain(key domain.ConversationKey) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	return e
}

func (m *Manager) unretain(key domain.ConversationKey) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(m.entries, key)
	}
}

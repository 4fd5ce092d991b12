package history

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/impertio/talkbridge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(role domain.Role, content string) domain.Turn {
	return domain.Turn{Role: role, Content: content, Timestamp: time.Now()}
}

func TestAppendAndSnapshot(t *testing.T) {
	s := NewMemoryStore(10)
	key := domain.ConversationKey{Username: "alice", Token: "tok"}

	require.NoError(t, s.Append(key, turn(domain.RoleUser, "hello")))
	require.NoError(t, s.Append(key, turn(domain.RoleAssistant, "hi")))

	turns, err := s.Snapshot(key)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, domain.RoleAssistant, turns[1].Role)

	n, err := s.Len(key)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCapEvictsOldestFirst(t *testing.T) {
	s := NewMemoryStore(3)
	key := domain.ConversationKey{Username: "alice", Token: "tok"}

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(key, turn(domain.RoleUser, fmt.Sprintf("m%d", i))))
	}

	turns, err := s.Snapshot(key)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "m2", turns[0].Content)
	assert.Equal(t, "m4", turns[2].Content)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewMemoryStore(10)
	key := domain.ConversationKey{Username: "alice", Token: "tok"}
	require.NoError(t, s.Append(key, turn(domain.RoleUser, "original")))

	turns, err := s.Snapshot(key)
	require.NoError(t, err)
	turns[0].Content = "mutated"

	again, err := s.Snapshot(key)
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Content)
}

func TestEvict(t *testing.T) {
	s := NewMemoryStore(10)
	key := domain.ConversationKey{Username: "alice", Token: "tok"}
	require.NoError(t, s.Append(key, turn(domain.RoleUser, "hello")))

	require.NoError(t, s.Evict(key))
	n, err := s.Len(key)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConversationsAreIndependent(t *testing.T) {
	s := NewMemoryStore(10)
	k1 := domain.ConversationKey{Username: "alice", Token: "a"}
	k2 := domain.ConversationKey{Username: "alice", Token: "b"}

	require.NoError(t, s.Append(k1, turn(domain.RoleUser, "one")))
	require.NoError(t, s.Append(k2, turn(domain.RoleUser, "two")))
	require.NoError(t, s.Evict(k1))

	turns, err := s.Snapshot(k2)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "two", turns[0].Content)
}

func TestConcurrentAppends(t *testing.T) {
	s := NewMemoryStore(1000)
	key := domain.ConversationKey{Username: "alice", Token: "tok"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append(key, turn(domain.RoleUser, fmt.Sprintf("m%d", i)))
		}(i)
	}
	wg.Wait()

	n, err := s.Len(key)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}

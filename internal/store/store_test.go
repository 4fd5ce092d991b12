package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/impertio/talkbridge/internal/domain"
	"github.com/impertio/talkbridge/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", logging.Silent())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.migrate())

	var count int
	require.NoError(t, db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)
}

func TestConversationStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	s := NewConversationStore(db, 100)
	key := domain.ConversationKey{Username: "alice", Token: "tok"}

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, s.Append(key, domain.Turn{Role: domain.RoleUser, Author: "Alice", Content: "hello", Timestamp: now}))
	require.NoError(t, s.Append(key, domain.Turn{Role: domain.RoleAssistant, Content: "hi"}))

	turns, err := s.Snapshot(key)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, "Alice", turns[0].Author)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, now, turns[0].Timestamp)

	n, err := s.Len(key)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.Evict(key))
	n, err = s.Len(key)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConversationStoreCap(t *testing.T) {
	db := openTestDB(t)
	s := NewConversationStore(db, 3)
	key := domain.ConversationKey{Username: "alice", Token: "tok"}

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(key, domain.Turn{Role: domain.RoleUser, Content: fmt.Sprintf("m%d", i)}))
	}

	turns, err := s.Snapshot(key)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "m2", turns[0].Content)
	assert.Equal(t, "m4", turns[2].Content)
}

func TestConversationStoreIsolatesKeys(t *testing.T) {
	db := openTestDB(t)
	s := NewConversationStore(db, 10)
	k1 := domain.ConversationKey{Username: "alice", Token: "a"}
	k2 := domain.ConversationKey{Username: "bob", Token: "a"}

	require.NoError(t, s.Append(k1, domain.Turn{Role: domain.RoleUser, Content: "alice's"}))
	require.NoError(t, s.Append(k2, domain.Turn{Role: domain.RoleUser, Content: "bob's"}))

	turns, err := s.Snapshot(k1)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "alice's", turns[0].Content)
}

func TestTaskBotLifecycle(t *testing.T) {
	db := openTestDB(t)
	s := NewTaskBotStore(db)

	tb := &domain.TaskBot{Token: "tok", Title: "Fix the gutter", BoardID: 1, StackID: 2, CardID: 3}
	require.NoError(t, s.Create(tb))
	assert.NotZero(t, tb.ID)

	got, err := s.GetByToken("tok")
	require.NoError(t, err)
	assert.Equal(t, "Fix the gutter", got.Title)
	assert.True(t, got.Active())
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, s.Complete("tok", time.Now()))
	got, err = s.GetByToken("tok")
	require.NoError(t, err)
	assert.False(t, got.Active())
	require.NotNil(t, got.CompletedAt)

	// Completing twice is a no-op.
	assert.ErrorIs(t, s.Complete("tok", time.Now()), ErrNotFound)
}

func TestTaskBotGetUnknownToken(t *testing.T) {
	db := openTestDB(t)
	s := NewTaskBotStore(db)

	_, err := s.GetByToken("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFactStoreAddListRemove(t *testing.T) {
	db := openTestDB(t)
	s := NewFactStore(db)
	key := domain.ConversationKey{Username: "alice", Token: "tok"}

	require.NoError(t, s.Add(key, "deadline is friday"))
	require.NoError(t, s.Add(key, "budget is 500"))

	facts, err := s.List(key)
	require.NoError(t, err)
	assert.Equal(t, []string{"deadline is friday", "budget is 500"}, facts)

	require.NoError(t, s.Remove(key, 1))
	facts, err = s.List(key)
	require.NoError(t, err)
	assert.Equal(t, []string{"budget is 500"}, facts)

	assert.ErrorIs(t, s.Remove(key, 5), ErrNotFound)
	assert.ErrorIs(t, s.Remove(key, 0), ErrNotFound)
}

func TestFactStoreCap(t *testing.T) {
	db := openTestDB(t)
	s := NewFactStore(db)
	key := domain.ConversationKey{Username: "alice", Token: "tok"}

	for i := 0; i < maxFactsPerConversation+5; i++ {
		require.NoError(t, s.Add(key, fmt.Sprintf("fact %d", i)))
	}

	facts, err := s.List(key)
	require.NoError(t, err)
	require.Len(t, facts, maxFactsPerConversation)
	assert.Equal(t, "fact 5", facts[0])
}

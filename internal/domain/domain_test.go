package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationKeyString(t *testing.T) {
	tests := []struct {
		name string
		key  ConversationKey
		want string
	}{
		{
			name: "regular",
			key:  ConversationKey{Username: "alice", Token: "abc123"},
			want: "alice:abc123",
		},
		{
			name: "empty fields",
			key:  ConversationKey{},
			want: ":",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.String())
		})
	}
}

func TestConversationKeyEquality(t *testing.T) {
	k1 := ConversationKey{Username: "alice", Token: "tok"}
	k2 := ConversationKey{Username: "alice", Token: "tok"}
	k3 := ConversationKey{Username: "bob", Token: "tok"}

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestBotProfileSecretNotMarshaled(t *testing.T) {
	p := BotProfile{
		Username:          "alice",
		Secret:            "topsecret",
		WorkingDir:        "/srv/alice",
		TaskAPISecret:     "apisecret",
		NextcloudPassword: "ncpass",
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	raw := string(data)
	assert.NotContains(t, raw, "topsecret")
	assert.NotContains(t, raw, "apisecret")
	assert.NotContains(t, raw, "ncpass")
	assert.Contains(t, raw, "/srv/alice")
}

func TestBotProfileCredentialChecks(t *testing.T) {
	p := BotProfile{}
	assert.False(t, p.HasTaskCredentials())
	assert.False(t, p.HasNextcloudAccount())

	p.TaskAPIKey = "k"
	assert.False(t, p.HasTaskCredentials())
	p.TaskAPISecret = "s"
	assert.True(t, p.HasTaskCredentials())

	p.NextcloudUser = "svc"
	p.NextcloudPassword = "pw"
	assert.True(t, p.HasNextcloudAccount())
}

func TestTaskBotActive(t *testing.T) {
	tb := TaskBot{Status: TaskStatusActive}
	assert.True(t, tb.Active())

	now := time.Now()
	tb.Status = TaskStatusCompleted
	tb.CompletedAt = &now
	assert.False(t, tb.Active())
}

func TestTurnJSON(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	turn := Turn{Role: RoleUser, Author: "alice", Content: "hello", Timestamp: now}

	data, err := json.Marshal(turn)
	require.NoError(t, err)

	var decoded Turn
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, turn, decoded)
}

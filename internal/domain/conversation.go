package domain

import "time"

// Role classifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationKey uniquely identifies one ongoing dialogue: the bot user
// addressed by the webhook URL plus the Talk conversation token.
type ConversationKey struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// String returns a canonical string form of the conversation key.
func (k ConversationKey) String() string {
	return k.Username + ":" + k.Token
}

// Turn is a single message within a conversation's history.
type Turn struct {
	Role      Role      `json:"role"`
	Author    string    `json:"author,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

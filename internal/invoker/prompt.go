package invoker

import (
	"fmt"
	"strings"

	"github.com/impertio/talkbridge/internal/domain"
)

// BuildPrompt assembles the stdin payload for the assistant: remembered
// facts first so they survive history eviction, then the task context,
// the conversation so far, and finally the new message.
func BuildPrompt(req Request) string {
	var b strings.Builder

	if len(req.Facts) > 0 {
		b.WriteString("=== KEY FACTS ===\n")
		for _, f := range req.Facts {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	if req.Task != nil {
		b.WriteString("=== CURRENT TASK ===\n")
		fmt.Fprintf(&b, "Title: %s\n", req.Task.Title)
		if req.Task.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", req.Task.Description)
		}
		b.WriteString("Stay focused on completing this task. Ask when you need more information and report progress clearly.\n\n")
	}

	if len(req.History) > 0 {
		b.WriteString("=== CONVERSATION SO FAR ===\n")
		for _, turn := range req.History {
			b.WriteString(formatTurn(turn))
			b.WriteString("\n")
		}
		b.WriteString("\n=== NEW MESSAGE ===\n")
	}

	author := req.Author
	if author == "" {
		author = "User"
	}
	fmt.Fprintf(&b, "[%s]: %s", author, req.Message)
	return b.String()
}

func formatTurn(turn domain.Turn) string {
	if turn.Role == domain.RoleAssistant {
		return "Assistant: " + turn.Content
	}
	author := turn.Author
	if author == "" {
		author = "User"
	}
	return fmt.Sprintf("[%s]: %s", author, turn.Content)
}

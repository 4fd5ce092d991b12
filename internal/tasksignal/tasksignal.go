// Package tasksignal detects task-completion language in chat messages.
package tasksignal

import "strings"

// Intent classifies a detected completion signal.
type Intent string

const (
	// IntentComplete means the user explicitly closed the task.
	IntentComplete Intent = "complete"
	// IntentConfirm means the user hinted at completion; ask first.
	IntentConfirm Intent = "confirm"
)

// Signal is a detected completion intent with the phrase that triggered it.
type Signal struct {
	Intent Intent
	Phrase string
}

// Explicit phrases complete the task immediately. Matching is substring
// based over the lowercased message; the phrases are specific enough that
// loose keyword hits ("done" alone) cannot spuriously close a task.
var explicitPhrases = []string{
	"complete the task", "finish the task", "close the task",
	"mark as done", "mark as complete", "mark as completed",
	"mark it done", "move to done", "set to done",
	"task done", "task is done", "task is finished", "task is complete", "task completed",
	"this is done", "everything is done", "all done here",
	"we are done", "we're done", "i am done", "i'm done with the task",
	"done with the task", "wrap up the task",
}

// Confirmation phrases hint at completion; the dispatcher asks before acting.
var confirmPhrases = []string{
	"can we wrap up", "can we close this", "can we finish up",
	"should we close the task", "is the task done", "are we done",
	"are you done", "can this be closed", "shall we close",
	"ready to close",
}

// Detect inspects a message for task-completion language. It is pure:
// no I/O, no state. The second return is false when nothing matched.
func Detect(text string) (Signal, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Signal{}, false
	}

	for _, phrase := range explicitPhrases {
		if strings.Contains(lower, phrase) {
			return Signal{Intent: IntentComplete, Phrase: phrase}, true
		}
	}
	for _, phrase := range confirmPhrases {
		if strings.Contains(lower, phrase) {
			return Signal{Intent: IntentConfirm, Phrase: phrase}, true
		}
	}
	return Signal{}, false
}

// IsAffirmative reports whether a short reply confirms a pending
// completion question.
func IsAffirmative(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y", "yes please", "yep", "yeah", "sure", "ok", "okay", "confirm", "do it", "go ahead":
		return true
	}
	return false
}

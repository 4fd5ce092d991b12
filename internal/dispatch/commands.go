package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/impertio/talkbridge/internal/domain"
	"github.com/impertio/talkbridge/internal/store"
	"github.com/impertio/talkbridge/internal/talk"
)

const helpText = `Available commands:
/reset - clear this conversation's history
/history - show how many turns are remembered
/whoami - show which bot profile you're talking to
/task <title> [| <description>] - create a task card for this conversation
/boards - list available boards
/done - complete this conversation's task
/status - show this conversation's task status
/remember <fact> - remember a fact for this conversation
/facts - list remembered facts
/forget <n> - forget fact number n
/transcribe - how audio transcription works
/help - this message`

// handleCommand runs a slash command. Commands bypass the assistant;
// most only touch stores and external APIs, but /reset mutates history
// and therefore takes the session lock like the invoke path.
func (d *Dispatcher) handleCommand(ctx context.Context, profile *domain.BotProfile, key domain.ConversationKey, msg *talk.Message, text string) Result {
	cmd, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	var response string
	switch strings.ToLower(cmd) {
	case "/reset":
		// Queue behind any in-flight exchange so its post-invoke append
		// cannot land after the clear.
		release, err := d.opts.Locks.Acquire(ctx, key)
		if err != nil {
			return d.result(http.StatusServiceUnavailable,
				map[string]any{"error": "conversation busy, retry shortly"}, OutcomeBusy, profile.Secret)
		}
		err = d.opts.History.Evict(key)
		release()
		if err != nil {
			d.log.Error().Err(err).Str("token", key.Token).Msg("history evict failed")
			response = apologyFailure
			break
		}
		response = "Conversation history cleared. Starting fresh!"

	case "/history":
		n, err := d.opts.History.Len(key)
		if err != nil {
			response = apologyFailure
			break
		}
		response = fmt.Sprintf("This conversation has %d turns in history.", n)

	case "/whoami":
		response = fmt.Sprintf("You're talking to **%s** (working directory: %s).", profile.Username, profile.WorkingDir)

	case "/help":
		response = helpText

	case "/transcribe":
		response = "Send a voice message and I'll transcribe it automatically before answering."

	case "/boards":
		response = d.cmdBoards(ctx, profile)

	case "/task":
		response = d.cmdTask(ctx, profile, key, arg)

	case "/done":
		if task := d.activeTask(key.Token); task != nil {
			return d.completeTask(ctx, profile, msg, task)
		}
		response = "This conversation has no open task."

	case "/status":
		response = d.cmdStatus(key.Token)

	case "/remember":
		response = d.cmdRemember(key, arg)

	case "/facts":
		response = d.cmdFacts(key)

	case "/forget":
		response = d.cmdForget(key, arg)

	default:
		response = fmt.Sprintf("Unknown command %s. Try /help.", cmd)
	}

	d.reply(ctx, profile, msg, response)
	return d.result(http.StatusOK, map[string]any{"status": "ok"}, OutcomeOK, profile.Secret)
}

func (d *Dispatcher) cmdBoards(ctx context.Context, profile *domain.BotProfile) string {
	if d.opts.Boards == nil || !profile.HasNextcloudAccount() {
		return "Board access is not configured for this bot."
	}
	boards, err := d.opts.Boards.ListBoards(ctx, profile)
	if err != nil {
		d.log.Warn().Err(err).Msg("listing boards failed")
		return "Could not reach the board service right now."
	}
	if len(boards) == 0 {
		return "No boards found."
	}
	var b strings.Builder
	b.WriteString("Boards:\n")
	for _, board := range boards {
		fmt.Fprintf(&b, "- %s\n", board.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *Dispatcher) cmdTask(ctx context.Context, profile *domain.BotProfile, key domain.ConversationKey, arg string) string {
	if arg == "" {
		return "Usage: /task <title> [| <description>]"
	}
	if d.opts.Boards == nil || d.opts.Registry == nil || !profile.HasNextcloudAccount() {
		return "Board access is not configured for this bot."
	}
	if task := d.activeTask(key.Token); task != nil {
		return fmt.Sprintf("This conversation already tracks the task \"%s\". Use /done to complete it first.", task.Title)
	}

	title, description, _ := strings.Cut(arg, "|")
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	boards, err := d.opts.Boards.ListBoards(ctx, profile)
	if err != nil || len(boards) == 0 {
		d.log.Warn().Err(err).Msg("listing boards failed")
		return "Could not reach the board service right now."
	}
	board := boards[0]
	stacks, err := d.opts.Boards.ListStacks(ctx, profile, board.ID)
	if err != nil || len(stacks) == 0 {
		d.log.Warn().Err(err).Int64("boardId", board.ID).Msg("listing stacks failed")
		return "Could not reach the board service right now."
	}
	stack := stacks[0]

	card, err := d.opts.Boards.CreateCard(ctx, profile, board.ID, stack.ID, title, description)
	if err != nil {
		d.log.Warn().Err(err).Msg("creating card failed")
		return "Could not create the task card."
	}

	tb := &domain.TaskBot{
		Token:   key.Token,
		Title:   title,
		BoardID: board.ID,
		StackID: stack.ID,
		CardID:  card.ID,
	}
	if err := d.opts.Registry.Create(tb); err != nil {
		d.log.Error().Err(err).Str("token", key.Token).Msg("registering task failed")
		return "The card was created but the task could not be linked to this conversation."
	}
	return fmt.Sprintf("📋 Task \"%s\" created on board \"%s\". This conversation now tracks it; say the task is done (or /done) to complete it.", title, board.Title)
}

func (d *Dispatcher) cmdStatus(token string) string {
	if d.opts.Registry == nil {
		return "Task tracking is not configured for this bot."
	}
	tb, err := d.opts.Registry.GetByToken(token)
	if errors.Is(err, store.ErrNotFound) {
		return "This conversation has no task."
	}
	if err != nil {
		return apologyFailure
	}
	if tb.Active() {
		return fmt.Sprintf("Task \"%s\" is active (created %s).", tb.Title, tb.CreatedAt.Format("2006-01-02"))
	}
	// Rows written by older schema versions may lack completed_at.
	if tb.CompletedAt == nil {
		return fmt.Sprintf("Task \"%s\" was completed.", tb.Title)
	}
	return fmt.Sprintf("Task \"%s\" was completed %s.", tb.Title, tb.CompletedAt.Format("2006-01-02"))
}

func (d *Dispatcher) cmdRemember(key domain.ConversationKey, arg string) string {
	if d.opts.Facts == nil {
		return "Fact storage is not configured for this bot."
	}
	if arg == "" {
		return "Usage: /remember <fact>"
	}
	if err := d.opts.Facts.Add(key, arg); err != nil {
		d.log.Error().Err(err).Str("token", key.Token).Msg("remembering fact failed")
		return apologyFailure
	}
	return "Noted. I'll keep that in mind for this conversation."
}

func (d *Dispatcher) cmdFacts(key domain.ConversationKey) string {
	if d.opts.Facts == nil {
		return "Fact storage is not configured for this bot."
	}
	facts, err := d.opts.Facts.List(key)
	if err != nil {
		return apologyFailure
	}
	if len(facts) == 0 {
		return "No facts remembered for this conversation."
	}
	var b strings.Builder
	b.WriteString("Remembered facts:\n")
	for i, f := range facts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *Dispatcher) cmdForget(key domain.ConversationKey, arg string) string {
	if d.opts.Facts == nil {
		return "Fact storage is not configured for this bot."
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return "Usage: /forget <n> (see /facts for numbers)"
	}
	if err := d.opts.Facts.Remove(key, n); err != nil {
		return fmt.Sprintf("No fact number %d found.", n)
	}
	return fmt.Sprintf("Forgot fact %d.", n)
}

package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/impertio/talkbridge/internal/domain"
	"github.com/impertio/talkbridge/internal/hooks"
	"github.com/impertio/talkbridge/internal/metrics"
	"github.com/impertio/talkbridge/internal/talk"
	"github.com/impertio/talkbridge/internal/tasksignal"
)

const confirmQuestion = "Should I mark this task as done? Reply \"yes\" to confirm."

// activeTask returns the conversation's open task, or nil.
func (d *Dispatcher) activeTask(token string) *domain.TaskBot {
	if d.opts.Registry == nil {
		return nil
	}
	tb, err := d.opts.Registry.GetByToken(token)
	if err != nil || !tb.Active() {
		return nil
	}
	return tb
}

// handleTaskIntent checks a task conversation's message for completion
// language. Returns handled=false when the message should continue to the
// assistant.
func (d *Dispatcher) handleTaskIntent(ctx context.Context, profile *domain.BotProfile, key domain.ConversationKey, msg *talk.Message, text string) (Result, bool) {
	task := d.activeTask(key.Token)
	if task == nil {
		return Result{}, false
	}

	if sig, ok := tasksignal.Detect(text); ok {
		switch sig.Intent {
		case tasksignal.IntentComplete:
			return d.completeTask(ctx, profile, msg, task), true
		case tasksignal.IntentConfirm:
			d.setPending(key.Token, true)
			d.reply(ctx, profile, msg, confirmQuestion)
			return d.result(http.StatusOK, map[string]any{"status": "ok"}, OutcomeOK, profile.Secret), true
		}
	}

	if d.isPending(key.Token) {
		d.setPending(key.Token, false)
		if tasksignal.IsAffirmative(text) {
			return d.completeTask(ctx, profile, msg, task), true
		}
	}

	return Result{}, false
}

// completeTask marks the registry row, moves the Deck card and announces.
// The board update is best-effort: its failure never changes the response.
func (d *Dispatcher) completeTask(ctx context.Context, profile *domain.BotProfile, msg *talk.Message, task *domain.TaskBot) Result {
	d.setPending(task.Token, false)

	if err := d.opts.Registry.Complete(task.Token, time.Now()); err != nil {
		d.log.Error().Err(err).Str("token", task.Token).Msg("completing task registry row failed")
	}
	if d.opts.Boards != nil {
		if err := d.opts.Boards.MoveCardToDone(ctx, profile, task.BoardID, task.StackID, task.CardID); err != nil {
			metrics.BoardUpdateFailures.Inc()
			d.log.Warn().Err(err).Int64("cardId", task.CardID).Msg("moving card to done failed")
		}
	}
	d.opts.Hooks.EmitAsync(ctx, hooks.EventTaskCompleted, map[string]any{
		"user":   profile.Username,
		"token":  task.Token,
		"cardId": task.CardID,
	})

	d.reply(ctx, profile, msg, fmt.Sprintf("✅ Task completed! \"%s\" has been marked as done.", task.Title))
	return d.result(http.StatusOK, map[string]any{"status": "ok"}, OutcomeOK, profile.Secret)
}

// mirrorToCard posts the exchange as Deck card comments, best-effort.
func (d *Dispatcher) mirrorToCard(ctx context.Context, profile *domain.BotProfile, task *domain.TaskBot, author, userText, reply string) {
	if d.opts.Boards == nil {
		return
	}
	for _, comment := range []string{
		fmt.Sprintf("**%s:** %s", author, userText),
		"**Assistant:** " + reply,
	} {
		if err := d.opts.Boards.CommentOnCard(ctx, profile, task.CardID, comment); err != nil {
			metrics.BoardUpdateFailures.Inc()
			d.log.Warn().Err(err).Int64("cardId", task.CardID).Msg("card comment failed")
			return
		}
	}
}

func (d *Dispatcher) setPending(token string, v bool) {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	if v {
		d.pending[token] = true
	} else {
		delete(d.pending, token)
	}
}

func (d *Dispatcher) isPending(token string) bool {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	return d.pending[token]
}

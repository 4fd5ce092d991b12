// Package dispatch wires webhook verification, session locking, assistant
// invocation and task detection into the per-request pipeline.
package dispatch

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/impertio/talkbridge/internal/deck"
	"github.com/impertio/talkbridge/internal/domain"
	"github.com/impertio/talkbridge/internal/history"
	"github.com/impertio/talkbridge/internal/hooks"
	"github.com/impertio/talkbridge/internal/invoker"
	"github.com/impertio/talkbridge/internal/locks"
	"github.com/impertio/talkbridge/internal/logging"
	"github.com/impertio/talkbridge/internal/metrics"
	"github.com/impertio/talkbridge/internal/talk"
	"github.com/impertio/talkbridge/internal/transcribe"
)

// Request outcomes, used for logging and metrics labels.
const (
	OutcomeOK           = "ok"
	OutcomeRejected     = "rejected"
	OutcomeBusy         = "busy"
	OutcomeIgnored      = "ignored"
	OutcomeInvokeFailed = "invoke_failed"
)

// User-facing fallback texts. The raw failure never leaves the logs.
const (
	apologyFailure    = "Sorry, something went wrong while handling that. Please try again."
	apologyTimeout    = "Sorry, that took longer than I'm allowed to spend. Please try again, or break the request into smaller steps."
	apologyTranscribe = "Sorry, I could not transcribe that audio message."
	thinkingText      = "_Thinking..._"
)

// Messenger posts replies and fetches shared files. Satisfied by talk.Client.
type Messenger interface {
	SendMessage(ctx context.Context, secret, token, message string, replyTo int) error
	Download(ctx context.Context, fileURL, user, password, destDir string) (string, error)
}

// BoardClient updates Deck cards. Satisfied by deck.Client.
type BoardClient interface {
	ListBoards(ctx context.Context, profile *domain.BotProfile) ([]deck.Board, error)
	ListStacks(ctx context.Context, profile *domain.BotProfile, boardID int64) ([]deck.Stack, error)
	CreateCard(ctx context.Context, profile *domain.BotProfile, boardID, stackID int64, title, description string) (*deck.Card, error)
	MoveCardToDone(ctx context.Context, profile *domain.BotProfile, boardID, stackID, cardID int64) error
	CommentOnCard(ctx context.Context, profile *domain.BotProfile, cardID int64, message string) error
}

// TaskRegistry links conversations to Deck cards. Satisfied by store.TaskBotStore.
type TaskRegistry interface {
	Create(tb *domain.TaskBot) error
	GetByToken(token string) (*domain.TaskBot, error)
	Complete(token string, at time.Time) error
}

// FactKeeper stores per-conversation remembered facts. Satisfied by store.FactStore.
type FactKeeper interface {
	Add(key domain.ConversationKey, fact string) error
	List(key domain.ConversationKey) ([]string, error)
	Remove(key domain.ConversationKey, n int) error
}

// Options wires a Dispatcher. Boards, Registry, Facts and Transcriber are
// optional; the matching features turn off when nil.
type Options struct {
	BaseURL     string
	Profiles    map[string]domain.BotProfile
	Verifier    *talk.Verifier
	Messenger   Messenger
	History     history.Store
	Locks       *locks.Manager
	Invoker     invoker.Invoker
	Boards      BoardClient
	Registry    TaskRegistry
	Facts       FactKeeper
	Transcriber transcribe.Transcriber
	Hooks       *hooks.Manager
	Log         *logging.Logger
}

// Result is the HTTP outcome of one webhook. Secret, when set, is used by
// the gateway to sign the response body.
type Result struct {
	Status  int
	Body    map[string]any
	Outcome string
	Secret  string
}

// Dispatcher runs the per-request pipeline: verify, parse, command or
// transcription, lock, invoke, detect, reply. The lock is released on
// every path before the Result is returned.
type Dispatcher struct {
	opts Options
	log  *logging.Logger

	// Conversations awaiting a yes/no on task completion.
	pendingMu sync.Mutex
	pending   map[string]bool
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	return &Dispatcher{
		opts:    opts,
		log:     opts.Log.Sub("dispatch"),
		pending: make(map[string]bool),
	}
}

// Handle processes one webhook delivery for the addressed bot user.
func (d *Dispatcher) Handle(ctx context.Context, username string, header http.Header, body []byte) Result {
	// Unknown users verify against an empty secret, which always fails:
	// the rejection is indistinguishable from a bad signature.
	profile, known := d.opts.Profiles[username]
	var secret string
	if known {
		secret = profile.Secret
	}
	if err := d.opts.Verifier.Verify(secret, header, body); err != nil {
		d.log.Warn().Str("user", username).Msg("webhook rejected")
		return d.result(http.StatusUnauthorized, map[string]any{"error": "invalid signature"}, OutcomeRejected, "")
	}

	msg, err := talk.ParseMessage(body, d.opts.BaseURL, profile.NextcloudUser)
	if errors.Is(err, talk.ErrSkip) {
		return d.result(http.StatusOK, map[string]any{"status": "ignored"}, OutcomeIgnored, secret)
	}
	if err != nil {
		return d.result(http.StatusBadRequest, map[string]any{"error": "invalid payload"}, OutcomeIgnored, secret)
	}

	key := domain.ConversationKey{Username: username, Token: msg.Token}
	d.log.Info().
		Str("user", username).
		Str("token", msg.Token).
		Str("from", msg.Actor).
		Msg("message received")
	d.opts.Hooks.Emit(ctx, hooks.EventMessageReceived, map[string]any{
		"user":  username,
		"token": msg.Token,
	})

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		return d.handleCommand(ctx, &profile, key, msg, text)
	}

	if msg.Audio != nil {
		transcript, err := d.transcribeAudio(ctx, &profile, msg.Audio)
		if err != nil {
			metrics.TranscriptionFailures.Inc()
			d.log.Warn().Err(err).Str("token", msg.Token).Msg("transcription failed")
			d.reply(ctx, &profile, msg, apologyTranscribe)
			return d.result(http.StatusOK, map[string]any{"status": "ignored"}, OutcomeIgnored, secret)
		}
		text = "[audio transcript]: " + transcript
	}
	if text == "" {
		return d.result(http.StatusOK, map[string]any{"status": "ignored"}, OutcomeIgnored, secret)
	}

	if res, handled := d.handleTaskIntent(ctx, &profile, key, msg, text); handled {
		return res
	}

	return d.converse(ctx, &profile, key, msg, text)
}

// converse is the locked invoke path.
func (d *Dispatcher) converse(ctx context.Context, profile *domain.BotProfile, key domain.ConversationKey, msg *talk.Message, text string) Result {
	release, err := d.opts.Locks.Acquire(ctx, key)
	if err != nil {
		outcome := OutcomeBusy
		if !errors.Is(err, locks.ErrLockTimeout) {
			d.log.Warn().Err(err).Str("token", key.Token).Msg("lock wait aborted")
		}
		return d.result(http.StatusServiceUnavailable,
			map[string]any{"error": "conversation busy, retry shortly"}, outcome, profile.Secret)
	}
	defer release()

	past, err := d.opts.History.Snapshot(key)
	if err != nil {
		d.log.Error().Err(err).Str("token", key.Token).Msg("history snapshot failed")
	}
	if err := d.opts.History.Append(key, domain.Turn{
		Role:      domain.RoleUser,
		Author:    msg.Actor,
		Content:   text,
		Timestamp: time.Now(),
	}); err != nil {
		d.log.Error().Err(err).Str("token", key.Token).Msg("history append failed")
	}

	req := invoker.Request{
		Profile: profile,
		History: past,
		Author:  msg.Actor,
		Message: text,
	}
	if d.opts.Facts != nil {
		if facts, err := d.opts.Facts.List(key); err == nil {
			req.Facts = facts
		}
	}
	task := d.activeTask(key.Token)
	if task != nil {
		req.Task = &invoker.TaskContext{Title: task.Title}
	}

	d.reply(ctx, profile, msg, thinkingText)

	start := time.Now()
	res, err := d.opts.Invoker.Invoke(ctx, req)
	metrics.InvocationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		d.opts.Hooks.EmitAsync(ctx, hooks.EventInvokeFailed, map[string]any{
			"user":  key.Username,
			"token": key.Token,
		})
		apology := apologyFailure
		if errors.Is(err, invoker.ErrTimeout) {
			apology = apologyTimeout
			d.log.Warn().Str("token", key.Token).Msg("assistant invocation timed out")
		} else {
			d.log.Error().Err(err).Str("token", key.Token).Msg("assistant invocation failed")
		}
		d.reply(ctx, profile, msg, apology)
		return d.result(http.StatusOK, map[string]any{"status": "error"}, OutcomeInvokeFailed, profile.Secret)
	}

	if err := d.opts.History.Append(key, domain.Turn{
		Role:      domain.RoleAssistant,
		Content:   res.Reply,
		Timestamp: time.Now(),
	}); err != nil {
		d.log.Error().Err(err).Str("token", key.Token).Msg("history append failed")
	}

	d.reply(ctx, profile, msg, res.Reply)
	if task != nil {
		d.mirrorToCard(ctx, profile, task, msg.Actor, text, res.Reply)
	}
	d.opts.Hooks.EmitAsync(ctx, hooks.EventReplySent, map[string]any{
		"user":    key.Username,
		"token":   key.Token,
		"costUsd": res.CostUSD,
	})

	return d.result(http.StatusOK, map[string]any{"status": "ok"}, OutcomeOK, profile.Secret)
}

// transcribeAudio downloads the attachment and runs speech-to-text,
// removing the temp file afterwards.
func (d *Dispatcher) transcribeAudio(ctx context.Context, profile *domain.BotProfile, audio *talk.AudioFile) (string, error) {
	if d.opts.Transcriber == nil {
		return "", transcribe.ErrUnavailable
	}
	path, err := d.opts.Messenger.Download(ctx, audio.URL, profile.NextcloudUser, profile.NextcloudPassword, "")
	if err != nil {
		return "", err
	}
	defer os.Remove(path)
	return d.opts.Transcriber.Transcribe(ctx, path)
}

// reply posts a bot message; delivery failures are logged, never fatal.
func (d *Dispatcher) reply(ctx context.Context, profile *domain.BotProfile, msg *talk.Message, text string) {
	if err := d.opts.Messenger.SendMessage(ctx, profile.Secret, msg.Token, text, msg.MessageID); err != nil {
		d.log.Warn().Err(err).Str("token", msg.Token).Msg("reply delivery failed")
	}
}

func (d *Dispatcher) result(status int, body map[string]any, outcome, secret string) Result {
	metrics.WebhookRequests.WithLabelValues(outcome).Inc()
	return Result{Status: status, Body: body, Outcome: outcome, Secret: secret}
}

package invoker

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/impertio/talkbridge/internal/config"
	"github.com/impertio/talkbridge/internal/logging"
)

// maxDiagnostics bounds captured process output before it reaches a log
// line or error value.
const maxDiagnostics = 2000

// CLI invokes the claude CLI as a subordinate process.
type CLI struct {
	command  string
	timeout  time.Duration
	maxReply int
	log      *logging.Logger
}

// NewCLI creates a CLI invoker from config.
func NewCLI(cfg config.InvokerConfig, log *logging.Logger) *CLI {
	return &CLI{
		command:  cfg.Command,
		timeout:  time.Duration(cfg.TimeoutMinutes) * time.Minute,
		maxReply: cfg.MaxReplyChars,
		log:      log.Sub("invoker"),
	}
}

// Invoke runs one assistant completion. The process's working directory is
// the profile's working_dir and its HOME is the profile's config_dir, so
// each bot user gets an isolated assistant state. The prompt goes in via
// stdin; the reply comes back as the CLI's JSON result object.
func (c *CLI) Invoke(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := BuildPrompt(req)
	args := []string{"-p", "--output-format", "json", "--permission-mode", "bypassPermissions"}

	c.log.Debug().
		Str("cmd", c.command).
		Str("user", req.Profile.Username).
		Str("workingDir", req.Profile.WorkingDir).
		Int("promptBytes", len(prompt)).
		Msg("invoking assistant")

	start := time.Now()

	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Dir = req.Profile.WorkingDir
	cmd.Stdin = strings.NewReader(prompt)
	if req.Profile.ConfigDir != "" {
		cmd.Env = append(os.Environ(), "HOME="+req.Profile.ConfigDir)
	}

	out, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		c.log.Warn().
			Str("user", req.Profile.Username).
			Dur("after", time.Since(start)).
			Msg("assistant killed on timeout")
		return nil, ErrTimeout
	}
	if err != nil {
		diag := err.Error()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			diag = string(exitErr.Stderr)
		}
		diag = truncate(strings.TrimSpace(diag), maxDiagnostics)
		c.log.Error().
			Str("user", req.Profile.Username).
			Str("stderr", diag).
			Msg("assistant process failed")
		return nil, &FailureError{Diagnostics: diag}
	}

	reply, sessionID, costUSD, err := parseResult(out)
	if err != nil {
		diag := truncate(err.Error(), maxDiagnostics)
		c.log.Error().
			Str("user", req.Profile.Username).
			Str("parse", diag).
			Msg("assistant output unusable")
		return nil, &FailureError{Diagnostics: diag}
	}

	res := &Result{
		Reply:     truncate(reply, c.maxReply),
		SessionID: sessionID,
		CostUSD:   costUSD,
		Duration:  time.Since(start),
	}

	c.log.Debug().
		Str("user", req.Profile.Username).
		Dur("duration", res.Duration).
		Float64("costUsd", res.CostUSD).
		Int("replyChars", len(res.Reply)).
		Msg("assistant replied")
	return res, nil
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "\n\n[response truncated]"
}

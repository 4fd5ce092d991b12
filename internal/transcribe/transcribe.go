// Package transcribe turns audio files into text via a Whisper subprocess.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/impertio/talkbridge/internal/config"
	"github.com/impertio/talkbridge/internal/logging"
)

// ErrUnavailable is returned when transcription fails for any reason.
// Callers degrade to a "could not transcribe" reply; audio problems never
// break text-message handling.
var ErrUnavailable = errors.New("transcribe: transcription unavailable")

// Transcriber converts a local audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Whisper runs OpenAI Whisper through a configurable python interpreter.
type Whisper struct {
	python  string
	model   string
	timeout time.Duration
	log     *logging.Logger
}

// NewWhisper creates a Whisper transcriber from config.
func NewWhisper(cfg config.TranscribeConfig, log *logging.Logger) *Whisper {
	return &Whisper{
		python:  cfg.Python,
		model:   cfg.Model,
		timeout: time.Duration(cfg.TimeoutMinutes) * time.Minute,
		log:     log.Sub("transcribe"),
	}
}

// Transcribe loads the configured model and transcribes the file. The
// audio path is passed as an argument, not interpolated into the script.
func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	script := fmt.Sprintf(`
import sys
import whisper
model = whisper.load_model(%q)
result = model.transcribe(sys.argv[1])
print(result["text"])
`, w.model)

	start := time.Now()
	cmd := exec.CommandContext(ctx, w.python, "-c", script, audioPath)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		stderr := err.Error()
		if errors.As(err, &exitErr) {
			stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
		w.log.Warn().
			Str("path", audioPath).
			Str("stderr", stderr).
			Msg("whisper failed")
		return "", fmt.Errorf("%w: %s", ErrUnavailable, stderr)
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", ErrUnavailable
	}
	w.log.Debug().
		Str("path", audioPath).
		Dur("duration", time.Since(start)).
		Int("chars", len(text)).
		Msg("audio transcribed")
	return text, nil
}

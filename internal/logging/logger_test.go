package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubTagsSubsystem(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "json")
	log.Sub("dispatch").Info().Msg("hello")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"subsystem":"dispatch"`)
	assert.Contains(t, out, `"hello"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "json")
	log.Info().Msg("quiet")
	log.Warn().Msg("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
}

func TestSilentDiscardsEverything(t *testing.T) {
	log := Silent()
	log.Error().Msg("nothing")
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "", Redact(""))
	assert.Equal(t, "…", Redact("ab"))
	redacted := Redact("supersecretvalue")
	assert.Equal(t, "su…", redacted)
	assert.False(t, strings.Contains(redacted, "secret"))
}

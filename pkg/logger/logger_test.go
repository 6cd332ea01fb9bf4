package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestPrintfHelpersWriteThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	prev := zlog
	SetLogger(zerolog.New(&buf))
	defer SetLogger(prev)

	Info("loaded %d files", 2)
	Warn("slow %s", "upload")

	out := buf.String()
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, "loaded 2 files")
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, "slow upload")
}

func TestWithDraftID(t *testing.T) {
	var buf bytes.Buffer
	prev := zlog
	SetLogger(zerolog.New(&buf))
	defer SetLogger(prev)

	l := WithDraftID("d-1")
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"draft_id":"d-1"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := zlog
	SetLogger(zerolog.New(&buf))
	defer SetLogger(prev)

	l := WithRequestID("req-9")
	l.Warn().Msg("slow")
	assert.Contains(t, buf.String(), `"request_id":"req-9"`)
}

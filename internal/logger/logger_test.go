package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithWriter("warn", false, &buf))

	Info("hidden", "k", "v")
	Warn("shown", "event_id", "E001", "err", errors.New("boom"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, `"event_id":"E001"`)
	assert.Contains(t, out, `"err":"boom"`)
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, INFO, getLevelFromString("verbose"))
	assert.Equal(t, DEBUG, getLevelFromString("debug"))
}

package auth

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSignal(t *testing.T) {
	s := NewFileSignal(filepath.Join(t.TempDir(), "continue.txt"))

	assert.False(t, s.Present())
	require.NoError(t, s.Consume(), "consuming an absent signal is not an error")

	require.NoError(t, s.Raise())
	assert.True(t, s.Present())

	require.NoError(t, s.Consume())
	assert.False(t, s.Present())
}

func TestShowChallengeGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowChallengeGuide(&buf, "lincoln_bot", "continue.txt", 10*time.Minute)

	out := buf.String()
	assert.Contains(t, out, "lincoln_bot")
	assert.Contains(t, out, "continue.txt")
	assert.Contains(t, out, "igfollow continue")
	assert.Contains(t, out, "10m0s")
}

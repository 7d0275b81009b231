package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactMasksSecretKeys(t *testing.T) {
	out := redact([]any{"user_id", 7, "access_token", "abc", "Password", "pw", "path", "/api"})

	assert.Equal(t, []any{"user_id", 7, "access_token", "[REDACTED]", "Password", "[REDACTED]", "path", "/api"}, out)
}

func TestRedactLeavesInputUntouched(t *testing.T) {
	in := []any{"token", "abc"}
	_ = redact(in)
	assert.Equal(t, "abc", in[1])
}

func TestRedactOddLength(t *testing.T) {
	assert.Equal(t, []any{"dangling"}, redact([]any{"dangling"}))
	assert.Equal(t, []any{"secret", "[REDACTED]", "tail"}, redact([]any{"secret", "x", "tail"}))
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"production", "development", ""} {
		l, err := New(mode)
		assert.NoError(t, err)
		assert.NotNil(t, l)
	}
	Nop().Info("discarded", "k", "v")
}

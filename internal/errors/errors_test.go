package errors

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrHealth,
		ErrEnv,
		ErrInput,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "Invalid profile file format",
			suggestion: "Check the JSON structure of claude_configs.json",
		},
		{
			name:       "health error",
			code:       ErrHealth,
			message:    "Status endpoint unreachable",
			suggestion: "Check HEALTH_STATUS_URL or your proxy settings",
		},
		{
			name:       "env error",
			code:       ErrEnv,
			message:    "Failed to write shell config",
			suggestion: "Check permissions on ~/.zshrc",
		},
		{
			name:       "input error",
			code:       ErrInput,
			message:    "No profile matches work",
			suggestion: "Run 'aisw list' to see profile names",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	err := New(ErrConfig, "Invalid settings format", "Check settings.yaml")
	out := err.Error()

	assert.True(t, strings.HasPrefix(out, "✗ Invalid settings format"))
	assert.Contains(t, out, "Check settings.yaml")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := WrapWithCode(cause, ErrEnv, "Failed to write shell config", "Check permissions")

	assert.Contains(t, err.Error(), "permission denied")
	assert.True(t, errors.Is(err, cause))

	var swErr *Error
	require.True(t, errors.As(err, &swErr))
	assert.Equal(t, ErrEnv, swErr.Code)
}

func TestWrapDefaultsToConfig(t *testing.T) {
	err := Wrap(errors.New("boom"), "Failed to load")
	assert.Equal(t, ErrConfig, err.Code)
}

func TestIsCode(t *testing.T) {
	err := New(ErrHealth, "fetch failed", "")
	assert.True(t, IsCode(err, ErrHealth))
	assert.False(t, IsCode(err, ErrConfig))
	assert.False(t, IsCode(nil, ErrHealth))
	assert.False(t, IsCode(errors.New("plain"), ErrHealth))

	wrapped := WrapWithCode(err, ErrInput, "outer", "")
	assert.True(t, IsCode(wrapped, ErrInput))
}

package envfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempApplier(t *testing.T) (*Applier, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".zshrc")
	return &Applier{Path: path}, path
}

func TestWriteEnvCreatesFile(t *testing.T) {
	applier, path := tempApplier(t)

	got, err := applier.WriteEnv(map[string]string{
		"ANTHROPIC_AUTH_TOKEN": "sk-1",
		"ANTHROPIC_BASE_URL":   "https://a.example",
	})
	require.NoError(t, err)
	assert.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"export ANTHROPIC_AUTH_TOKEN=\"sk-1\"\nexport ANTHROPIC_BASE_URL=\"https://a.example\"\n",
		string(data))
}

func TestWriteEnvIdempotent(t *testing.T) {
	applier, path := tempApplier(t)
	vars := map[string]string{"ANTHROPIC_AUTH_TOKEN": "sk-1", "ANTHROPIC_BASE_URL": "https://a"}

	_, err := applier.WriteEnv(vars)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = applier.WriteEnv(vars)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestWriteEnvReplacesOldAssignments(t *testing.T) {
	applier, path := tempApplier(t)
	existing := "alias ll='ls -l'\nexport ANTHROPIC_AUTH_TOKEN=\"old\"\nANTHROPIC_BASE_URL=https://old\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	_, err := applier.WriteEnv(map[string]string{
		"ANTHROPIC_AUTH_TOKEN": "new",
		"ANTHROPIC_BASE_URL":   "https://new",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "alias ll='ls -l'")
	assert.Contains(t, content, "export ANTHROPIC_AUTH_TOKEN=\"new\"")
	assert.NotContains(t, content, "old")
	// Exactly one assignment per key survives.
	assert.Equal(t, 1, countLinesWithPrefix(content, "export ANTHROPIC_AUTH_TOKEN="))
}

func TestRemoveEnv(t *testing.T) {
	applier, path := tempApplier(t)
	existing := "alias ll='ls -l'\nexport OPENAI_API_KEY=\"sk\"\nexport OPENAI_BASE_URL=\"https://x\"\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	got, err := applier.RemoveEnv([]string{"OPENAI_API_KEY", "OPENAI_BASE_URL"})
	require.NoError(t, err)
	assert.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alias ll='ls -l'\n", string(data))
}

func TestRemoveEnvMissingFile(t *testing.T) {
	applier, _ := tempApplier(t)
	_, err := applier.RemoveEnv([]string{"OPENAI_API_KEY"})
	require.NoError(t, err)
}

func TestExportLinesSortedAndQuoted(t *testing.T) {
	lines := ExportLines(map[string]string{
		"B_VAR": "two",
		"A_VAR": "one two",
	})
	assert.Equal(t, "export A_VAR=\"one two\"\nexport B_VAR=\"two\"", lines)
}

func TestDetectShellConfigZsh(t *testing.T) {
	t.Setenv("SHELL", "/bin/zsh")
	assert.Contains(t, DetectShellConfig(), ".zshrc")
}

func TestAssignsAny(t *testing.T) {
	keys := []string{"FOO"}
	assert.True(t, assignsAny("export FOO=bar", keys))
	assert.True(t, assignsAny("  FOO=bar", keys))
	assert.False(t, assignsAny("export FOOBAR=1", keys))
	assert.False(t, assignsAny("# export FOO=bar", keys))
}

func countLinesWithPrefix(content, prefix string) int {
	count := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, prefix) {
			count++
		}
	}
	return count
}

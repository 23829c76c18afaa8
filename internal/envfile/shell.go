// Package envfile persists environment variables into the user's shell
// startup file. Writes are remove-old-then-append, so applying the same
// variables twice leaves the file byte-identical to applying them once.
package envfile

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LynnGuo666/ai-switch-cli/internal/errors"
)

// Applier writes and removes export lines in a shell startup file.
// A zero Path resolves the user's preferred shell config on first use.
type Applier struct {
	// Path overrides the shell config file location. Empty means auto-detect
	// (zshrc when zsh is the login shell or on PATH, else bash_profile).
	Path string
}

// ShellConfigPath returns the shell startup file the applier writes to.
func (a *Applier) ShellConfigPath() string {
	if a.Path != "" {
		return a.Path
	}
	return DetectShellConfig()
}

// DetectShellConfig picks the user's shell startup file: ~/.zshrc when zsh is
// the login shell or available on PATH, otherwise ~/.bash_profile.
func DetectShellConfig() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	shell := os.Getenv("SHELL")
	if strings.Contains(shell, "zsh") {
		return filepath.Join(home, ".zshrc")
	}
	if _, err := exec.LookPath("zsh"); err == nil {
		return filepath.Join(home, ".zshrc")
	}
	return filepath.Join(home, ".bash_profile")
}

// ExportLines builds the export statements for the variables, one per line,
// in sorted key order for deterministic output.
func ExportLines(vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("export %s=%q", k, vars[k]))
	}
	return strings.Join(lines, "\n")
}

// WriteEnv persists the variables into the shell startup file: existing
// assignments for the same keys are stripped, then fresh export lines are
// appended. Returns the path written.
func (a *Applier) WriteEnv(vars map[string]string) (string, error) {
	path := a.ShellConfigPath()

	lines, err := readLines(path)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrEnv,
			"Failed to read shell config",
			"Check permissions on "+path)
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	filtered := dropAssignments(lines, keys)

	// Blank line between existing content and our exports.
	if len(filtered) > 0 && strings.TrimSpace(filtered[len(filtered)-1]) != "" {
		filtered = append(filtered, "")
	}
	sort.Strings(keys)
	for _, k := range keys {
		filtered = append(filtered, fmt.Sprintf("export %s=%q", k, vars[k]))
	}

	if err := writeLines(path, filtered, true); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrEnv,
			"Failed to write shell config",
			"Check permissions on "+path)
	}
	return path, nil
}

// RemoveEnv strips any assignment lines for the keys from the shell startup
// file. Returns the path rewritten.
func (a *Applier) RemoveEnv(keys []string) (string, error) {
	path := a.ShellConfigPath()

	lines, err := readLines(path)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrEnv,
			"Failed to read shell config",
			"Check permissions on "+path)
	}

	filtered := dropAssignments(lines, keys)
	if err := writeLines(path, filtered, len(filtered) > 0); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrEnv,
			"Failed to write shell config",
			"Check permissions on "+path)
	}
	return path, nil
}

// dropAssignments removes lines that assign any of the keys, in either
// `export KEY=` or bare `KEY=` form.
func dropAssignments(lines []string, keys []string) []string {
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		if assignsAny(line, keys) {
			continue
		}
		filtered = append(filtered, line)
	}
	return filtered
}

func assignsAny(line string, keys []string) bool {
	stripped := strings.TrimSpace(line)
	for _, k := range keys {
		if strings.HasPrefix(stripped, "export "+k+"=") || strings.HasPrefix(stripped, k+"=") {
			return true
		}
	}
	return false
}

// readLines reads the file as a slice of lines without trailing newlines.
// A missing file yields an empty slice.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

// writeLines rewrites the file atomically (temp file + rename) so a signal
// mid-write never corrupts the shell config.
func writeLines(path string, lines []string, trailingNewline bool) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	content := strings.Join(lines, "\n")
	if trailingNewline {
		content += "\n"
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

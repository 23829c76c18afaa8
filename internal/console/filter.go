package console

import (
	"os"
	"strings"

	"github.com/LynnGuo666/ai-switch-cli/internal/config"
)

// applyFilter recomputes filteredIndices from the profile list and the search
// text. Recomputing always resets the cursor and scroll to the top; selection
// does not survive a filter change.
func (m *Model) applyFilter() {
	m.filtered = filterIndices(m.profiles, m.searchInput.Value())
	m.selected = 0
	m.scroll = 0
}

// filterIndices returns the indices of profiles whose name+group blob
// contains the search text, case-insensitively, preserving original order.
// An empty search matches everything.
func filterIndices(profiles []config.Profile, search string) []int {
	needle := strings.ToLower(strings.TrimSpace(search))
	indices := make([]int, 0, len(profiles))
	for i, p := range profiles {
		if needle == "" {
			indices = append(indices, i)
			continue
		}
		blob := strings.ToLower(p.Name + " " + p.Group)
		if strings.Contains(blob, needle) {
			indices = append(indices, i)
		}
	}
	return indices
}

// moveSelection shifts the cursor by delta, clamped into the filtered range,
// and scrolls minimally to keep the cursor visible.
func (m *Model) moveSelection(delta int) {
	if len(m.filtered) == 0 {
		m.selected = 0
		m.scroll = 0
		return
	}
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(m.filtered) {
		m.selected = len(m.filtered) - 1
	}
	m.clampScroll()
}

// clampScroll moves the scroll window no more than required to bring the
// cursor back into the visible row budget.
func (m *Model) clampScroll() {
	rows := m.visibleRows()
	if m.selected < m.scroll {
		m.scroll = m.selected
	}
	if m.selected >= m.scroll+rows {
		m.scroll = m.selected - rows + 1
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

// visibleRows is the profile-row budget for the current terminal height,
// leaving room for the header, status strip, and message log.
func (m *Model) visibleRows() int {
	reserved := 10
	rows := m.height - reserved
	if rows < 3 {
		rows = 3
	}
	return rows
}

// ActiveStatus describes what the process environment currently holds for a
// kind relative to the known profile list.
type ActiveStatus struct {
	// Label is "unconfigured", a profile name, or "custom".
	Label string
	// Fragment is the redacted live secret shown for an unmatched custom
	// value, empty otherwise.
	Fragment string
}

// activeProfileStatus reads the kind's two environment variables and matches
// them against the profile list. Both empty means unconfigured; an exact
// match on both fields names the profile; anything else is a custom value
// shown redacted rather than failed.
func activeProfileStatus(kind config.Kind, profiles []config.Profile) ActiveStatus {
	secretVar, endpointVar := kind.EnvVars()
	secret := os.Getenv(secretVar)
	endpoint := os.Getenv(endpointVar)

	if secret == "" && endpoint == "" {
		return ActiveStatus{Label: "unconfigured"}
	}
	for _, p := range profiles {
		if p.Secret == secret && p.Endpoint == endpoint {
			return ActiveStatus{Label: p.Name}
		}
	}
	return ActiveStatus{Label: "custom", Fragment: redact(secret)}
}

// redact keeps the first and last four characters of a secret. Counts runes
// so multibyte secrets are never split mid-character.
func redact(s string) string {
	const keep = 4
	runes := []rune(s)
	if len(runes) <= keep*2 {
		return s
	}
	return string(runes[:keep]) + "…" + string(runes[len(runes)-keep:])
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

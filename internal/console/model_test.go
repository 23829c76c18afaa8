package console

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LynnGuo666/ai-switch-cli/internal/config"
	"github.com/LynnGuo666/ai-switch-cli/internal/health"
	"github.com/LynnGuo666/ai-switch-cli/internal/logger"
)

// fakeStore is an in-memory ProfileStore.
type fakeStore struct {
	profiles map[config.Kind][]config.Profile
	settings config.Settings
	saved    int
}

func (f *fakeStore) LoadProfiles(kind config.Kind) ([]config.Profile, error) {
	return f.profiles[kind], nil
}

func (f *fakeStore) LoadSettings() (*config.Settings, error) {
	s := f.settings
	if s.HealthURL == "" {
		s.HealthURL = config.DefaultHealthURL
	}
	return &s, nil
}

func (f *fakeStore) SaveSettings(settings *config.Settings) error {
	f.settings = *settings
	f.saved++
	return nil
}

// fakeApplier records env writes without touching the filesystem.
type fakeApplier struct {
	written []map[string]string
	removed [][]string
}

func (f *fakeApplier) WriteEnv(vars map[string]string) (string, error) {
	f.written = append(f.written, vars)
	return "/tmp/.zshrc", nil
}

func (f *fakeApplier) RemoveEnv(keys []string) (string, error) {
	f.removed = append(f.removed, keys)
	return "/tmp/.zshrc", nil
}

// fakeFetcher returns a canned snapshot.
type fakeFetcher struct {
	snapshot health.Snapshot
	errMsg   string
	calls    int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, kind config.Kind, timeout time.Duration) (health.Snapshot, string) {
	f.calls++
	return f.snapshot, f.errMsg
}

func claudeProfiles() []config.Profile {
	return []config.Profile{
		{Name: "work", Kind: config.KindClaude, Secret: "sk-work", Endpoint: "https://a.example", Group: "relay-a"},
		{Name: "pro-relay", Kind: config.KindClaude, Secret: "sk-pro", Endpoint: "https://b.example", Group: "relay-b"},
		{Name: "backup", Kind: config.KindClaude, Secret: "sk-bak", Endpoint: "https://c.example", Group: "relay-a"},
	}
}

func newTestModel(t *testing.T) (Model, *fakeStore, *fakeApplier, *fakeFetcher) {
	t.Helper()
	store := &fakeStore{profiles: map[config.Kind][]config.Profile{
		config.KindClaude: claudeProfiles(),
		config.KindCodex:  {{Name: "gpt-main", Kind: config.KindCodex, Secret: "sk-gpt", Endpoint: "https://d.example"}},
	}}
	applier := &fakeApplier{}
	fetcher := &fakeFetcher{}
	m := NewModel(store, applier, fetcher, logger.Noop())
	return m, store, applier, fetcher
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestInitialState(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	assert.Equal(t, ModeList, m.mode)
	assert.Equal(t, config.KindClaude, m.kind)
	assert.Equal(t, []int{0, 1, 2}, m.filtered)
	assert.Equal(t, 0, m.selected)
}

func TestSearchFiltersByNameAndGroup(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	// "pro" matches only profile[1] by name.
	m.HandleKeyMsg(key("/"))
	require.True(t, m.searching)
	for _, r := range "pro" {
		m.HandleKeyMsg(key(string(r)))
	}
	assert.Equal(t, []int{1}, m.filtered)
	assert.Equal(t, 0, m.selected)

	// Group substring matches too.
	m.HandleKeyMsg(key("esc"))
	m.HandleKeyMsg(key("/"))
	for _, r := range "relay-a" {
		m.HandleKeyMsg(key(string(r)))
	}
	assert.Equal(t, []int{0, 2}, m.filtered)
}

func TestFilterIndicesProperties(t *testing.T) {
	profiles := claudeProfiles()

	assert.Equal(t, []int{0, 1, 2}, filterIndices(profiles, ""))
	assert.Equal(t, []int{0, 1, 2}, filterIndices(profiles, "  "))
	assert.Equal(t, []int{1}, filterIndices(profiles, "PRO"))
	assert.Empty(t, filterIndices(profiles, "zzz"))
	assert.Empty(t, filterIndices(nil, "x"))
}

func TestSelectionStaysInBounds(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	m.moveSelection(-5)
	assert.Equal(t, 0, m.selected)
	m.moveSelection(100)
	assert.Equal(t, len(m.filtered)-1, m.selected)
	m.moveSelection(1)
	assert.Equal(t, len(m.filtered)-1, m.selected)

	// Narrowing the filter resets the cursor.
	m.searchInput.SetValue("pro")
	m.applyFilter()
	assert.Equal(t, 0, m.selected)
	assert.Equal(t, 0, m.scroll)

	// Empty filter keeps moves harmless.
	m.searchInput.SetValue("zzz")
	m.applyFilter()
	m.moveSelection(1)
	assert.Equal(t, 0, m.selected)
}

func TestConfirmApplyFlow(t *testing.T) {
	m, _, applier, _ := newTestModel(t)
	secretVar, endpointVar := config.KindClaude.EnvVars()
	t.Setenv(secretVar, "")
	t.Setenv(endpointVar, "")
	os.Unsetenv(secretVar)
	os.Unsetenv(endpointVar)

	m.HandleKeyMsg(key("enter"))
	require.Equal(t, ModeConfirmApply, m.mode)
	require.NotNil(t, m.pendingConfirm)
	assert.Equal(t, "work", m.pendingConfirm.Name)

	m.HandleKeyMsg(key("y"))
	assert.Equal(t, ModeList, m.mode)
	assert.Nil(t, m.pendingConfirm)
	require.Len(t, applier.written, 1)
	assert.Equal(t, "sk-work", applier.written[0][secretVar])
	assert.Equal(t, "https://a.example", applier.written[0][endpointVar])
	assert.Equal(t, "sk-work", os.Getenv(secretVar))
}

func TestConfirmDeclineLeavesNoMutation(t *testing.T) {
	m, _, applier, _ := newTestModel(t)
	secretVar, _ := config.KindClaude.EnvVars()
	t.Setenv(secretVar, "pre-existing")

	m.HandleKeyMsg(key("enter"))
	require.Equal(t, ModeConfirmApply, m.mode)

	m.HandleKeyMsg(key("n"))
	assert.Equal(t, ModeList, m.mode)
	assert.Nil(t, m.pendingConfirm)
	assert.Empty(t, applier.written)
	assert.Equal(t, "pre-existing", os.Getenv(secretVar))
	assert.Contains(t, m.messages[len(m.messages)-1], "cancelled")
}

func TestCustomKeyFlow(t *testing.T) {
	m, _, applier, _ := newTestModel(t)
	secretVar, endpointVar := config.KindClaude.EnvVars()

	m.HandleKeyMsg(key("u"))
	require.Equal(t, ModeCustomKeyInput, m.mode)

	// Whitespace-only submit is ignored, not an error.
	m.customKeyInput.SetValue("   ")
	m.HandleKeyMsg(key("enter"))
	assert.Equal(t, ModeCustomKeyInput, m.mode)

	m.customKeyInput.SetValue("sk-adhoc")
	m.HandleKeyMsg(key("enter"))
	require.Equal(t, ModeConfirmApplyCustomKey, m.mode)
	assert.Equal(t, "sk-adhoc", m.pendingCustomKey)

	m.HandleKeyMsg(key("y"))
	require.Len(t, applier.written, 1)
	assert.Equal(t, "sk-adhoc", applier.written[0][secretVar])
	// The selected profile's endpoint rides along.
	assert.Equal(t, "https://a.example", applier.written[0][endpointVar])
	assert.Empty(t, m.pendingCustomKey)
}

func TestCustomKeyRequiresSelection(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	m.searchInput.SetValue("zzz")
	m.applyFilter()

	m.HandleKeyMsg(key("u"))
	assert.Equal(t, ModeList, m.mode)
}

func TestAddCustomProfile(t *testing.T) {
	m, store, _, _ := newTestModel(t)

	m.HandleKeyMsg(key("a"))
	require.Equal(t, ModeAddCustomProfile, m.mode)

	m.addInputs[addStepName].SetValue("mine")
	m.HandleKeyMsg(key("enter"))
	m.addInputs[addStepSecret].SetValue("sk-mine")
	m.HandleKeyMsg(key("enter"))
	m.addInputs[addStepEndpoint].SetValue("https://mine.example")
	m.HandleKeyMsg(key("enter"))

	assert.Equal(t, ModeList, m.mode)
	require.Len(t, store.settings.CustomProfiles[config.KindClaude], 1)
	added := store.settings.CustomProfiles[config.KindClaude][0]
	assert.Equal(t, "mine", added.Name)
	assert.True(t, added.IsCustom)
	assert.Equal(t, 1, store.saved)

	// Reload picked up the merged custom profile.
	assert.Len(t, m.profiles, 4)
}

func TestAddCustomProfileEmptyKeyStays(t *testing.T) {
	m, store, _, _ := newTestModel(t)

	m.HandleKeyMsg(key("a"))
	m.addInputs[addStepName].SetValue("mine")
	m.HandleKeyMsg(key("enter"))
	// Leave the key empty and step through to the final submit.
	m.HandleKeyMsg(key("enter"))
	m.HandleKeyMsg(key("enter"))

	assert.Equal(t, ModeAddCustomProfile, m.mode)
	assert.Empty(t, store.settings.CustomProfiles[config.KindClaude])
	assert.Equal(t, 0, store.saved)
}

func TestToggleKindReloadsAndClearsSearch(t *testing.T) {
	m, _, _, fetcher := newTestModel(t)
	m = settleStartupFetch(m)
	m.searchInput.SetValue("pro")
	m.applyFilter()
	require.Equal(t, []int{1}, m.filtered)

	_, cmd := m.HandleKeyMsg(key("t"))
	assert.Equal(t, config.KindCodex, m.kind)
	assert.Empty(t, m.searchInput.Value())
	assert.Len(t, m.profiles, 1)
	assert.Equal(t, []int{0}, m.filtered)
	require.NotNil(t, cmd)

	// The returned command performs the fetch.
	msg := cmd()
	_, ok := msg.(healthMsg)
	assert.True(t, ok)
	assert.Equal(t, 1, fetcher.calls)
}

// settleStartupFetch delivers the result of the startup fetch so the guard
// releases before the test drives further refreshes.
func settleStartupFetch(m Model) Model {
	updated, _ := m.Update(healthMsg{kind: m.kind})
	return updated.(Model)
}

func TestStartupFetchIsGuarded(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	// The startup fetch is marked in flight before the first Update runs.
	assert.True(t, m.fetching)
	require.NotNil(t, m.Init())

	// Refreshing while it is outstanding launches nothing.
	_, cmd := m.HandleKeyMsg(key("r"))
	assert.Nil(t, cmd)

	// Once the result lands, refresh works again.
	m = settleStartupFetch(m)
	require.False(t, m.fetching)
	_, cmd = m.HandleKeyMsg(key("r"))
	assert.NotNil(t, cmd)
}

func TestFetchGuardDropsOverlappingRefresh(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	m = settleStartupFetch(m)

	first := m.fetchCmd()
	require.NotNil(t, first)
	assert.True(t, m.fetching)

	second := m.fetchCmd()
	assert.Nil(t, second)
}

func TestHealthMsgUpdatesSnapshotOnly(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	m.fetching = true
	m.selected = 2

	snap := health.Snapshot{"relay-a": {{Group: "relay-a", Name: "claude", Status: health.StatusOK}}}
	updated, _ := m.Update(healthMsg{kind: config.KindClaude, snapshot: snap})
	m = updated.(Model)

	assert.False(t, m.fetching)
	assert.Equal(t, snap, m.snapshot)
	// Selection state is untouched by the worker result.
	assert.Equal(t, 2, m.selected)
	assert.Contains(t, m.messages[len(m.messages)-1], "1 group")
}

func TestHealthMsgErrorIsSoft(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	m.fetching = true

	updated, _ := m.Update(healthMsg{kind: config.KindClaude, errMsg: "connection refused"})
	m = updated.(Model)

	assert.False(t, m.fetching)
	assert.True(t, m.snapshot.Empty())
	assert.Contains(t, m.messages[len(m.messages)-1], "connection refused")
}

func TestClearEnv(t *testing.T) {
	m, _, applier, _ := newTestModel(t)
	secretVar, endpointVar := config.KindClaude.EnvVars()
	t.Setenv(secretVar, "sk-live")
	t.Setenv(endpointVar, "https://live.example")

	m.HandleKeyMsg(key("x"))
	assert.Empty(t, os.Getenv(secretVar))
	assert.Empty(t, applier.removed)

	t.Setenv(secretVar, "sk-live")
	m.HandleKeyMsg(key("X"))
	require.Len(t, applier.removed, 1)
	assert.ElementsMatch(t, []string{secretVar, endpointVar}, applier.removed[0])
}

func TestMessageLogBounded(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	for i := 0; i < messageCap*2; i++ {
		m.pushMessage("msg")
	}
	assert.Len(t, m.messages, messageCap)
}

func TestActiveProfileStatus(t *testing.T) {
	profiles := claudeProfiles()
	secretVar, endpointVar := config.KindClaude.EnvVars()

	t.Setenv(secretVar, "")
	t.Setenv(endpointVar, "")
	os.Unsetenv(secretVar)
	os.Unsetenv(endpointVar)
	assert.Equal(t, "unconfigured", activeProfileStatus(config.KindClaude, profiles).Label)

	t.Setenv(secretVar, "sk-work")
	t.Setenv(endpointVar, "https://a.example")
	assert.Equal(t, "work", activeProfileStatus(config.KindClaude, profiles).Label)

	t.Setenv(secretVar, "sk-somethingelse")
	got := activeProfileStatus(config.KindClaude, profiles)
	assert.Equal(t, "custom", got.Label)
	assert.Equal(t, "sk-s…else", got.Fragment)
}

func TestScrollFollowsSelectionMinimally(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	m.profiles = make([]config.Profile, 8)
	for i := range m.profiles {
		m.profiles[i] = config.Profile{Name: "profile-" + strconv.Itoa(i), Kind: config.KindClaude}
	}
	m.applyFilter()
	m.height = 13 // three visible rows

	// Moving within the window leaves the scroll alone.
	m.moveSelection(1)
	m.moveSelection(1)
	assert.Equal(t, 2, m.selected)
	assert.Equal(t, 0, m.scroll)

	// One step past the bottom edge shifts the window by exactly one.
	m.moveSelection(1)
	assert.Equal(t, 3, m.selected)
	assert.Equal(t, 1, m.scroll)

	// A jump to the end scrolls just enough to show the cursor.
	m.moveSelection(100)
	assert.Equal(t, 7, m.selected)
	assert.Equal(t, 5, m.scroll)

	// Moving back up inside the window keeps the scroll in place.
	m.moveSelection(-1)
	m.moveSelection(-1)
	assert.Equal(t, 5, m.selected)
	assert.Equal(t, 5, m.scroll)

	// Above the top edge the window follows the cursor up.
	m.moveSelection(-1)
	assert.Equal(t, 4, m.selected)
	assert.Equal(t, 4, m.scroll)
}

func TestNewModelDefaultsLogger(t *testing.T) {
	store := &fakeStore{profiles: map[config.Kind][]config.Profile{}}
	m := NewModel(store, &fakeApplier{}, &fakeFetcher{}, nil)
	assert.NotNil(t, m.log)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "short", redact("short"))
	assert.Equal(t, "abcd…wxyz", redact("abcdefghijklmnopqrstuvwxyz"))

	// Multibyte secrets cut on rune boundaries, not bytes.
	assert.Equal(t, "密钥一二…七八九十", redact("密钥一二三四五六七八九十"))
}

func TestSettingsEditPersists(t *testing.T) {
	m, store, _, _ := newTestModel(t)

	m.HandleKeyMsg(key("s"))
	require.Equal(t, ModeSettings, m.mode)

	m.settingsInput.SetValue("https://other.example/status")
	m.HandleKeyMsg(key("enter"))
	assert.Equal(t, ModeSettings, m.mode)
	assert.Equal(t, "https://other.example/status", store.settings.HealthURL)

	m.HandleKeyMsg(key("esc"))
	assert.Equal(t, ModeList, m.mode)
}

func TestViewRendersWithoutPanic(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	m.width = 100
	m.height = 30
	m.snapshot = health.Snapshot{
		"relay-a": {{Group: "relay-a", Name: "claude", Status: health.StatusSlow,
			Timeline: []health.StatusCode{health.StatusOK, health.StatusSlow}}},
		health.NodeGroup: {{Group: health.NodeGroup, Name: "nodes", Nodes: []health.Node{
			{ID: 1, Name: "hk-1", Services: []health.ServiceSample{{Name: "claude", Availability: 0.99, RecentResults: []int{1, 1, 3}}}},
		}}},
	}

	assert.NotEmpty(t, m.View())

	m.nodeView = true
	assert.Contains(t, m.View(), "hk-1")

	for _, mode := range []Mode{ModeSettings, ModeAddCustomProfile, ModeCustomKeyInput} {
		m.mode = mode
		assert.NotEmpty(t, m.View())
	}

	p := claudeProfiles()[0]
	m.pendingConfirm = &p
	m.mode = ModeConfirmApply
	assert.Contains(t, m.View(), "work")
}

// Package console implements the interactive profile console: a Bubble Tea
// state machine over profile browsing, health display, and activation.
package console

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/LynnGuo666/ai-switch-cli/internal/config"
	"github.com/LynnGuo666/ai-switch-cli/internal/health"
	"github.com/LynnGuo666/ai-switch-cli/internal/logger"
)

// Mode is the console's current interaction state. List is both the initial
// mode and the one every other mode cancels back to.
type Mode int

const (
	ModeList Mode = iota
	ModeSettings
	ModeAddCustomProfile
	ModeCustomKeyInput
	ModeConfirmApply
	ModeConfirmApplyCustomKey
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeList:
		return "list"
	case ModeSettings:
		return "settings"
	case ModeAddCustomProfile:
		return "add"
	case ModeCustomKeyInput:
		return "custom-key"
	case ModeConfirmApply:
		return "confirm"
	case ModeConfirmApplyCustomKey:
		return "confirm-key"
	default:
		return "unknown"
	}
}

// ProfileStore loads profile lists and the settings document.
type ProfileStore interface {
	LoadProfiles(kind config.Kind) ([]config.Profile, error)
	LoadSettings() (*config.Settings, error)
	SaveSettings(settings *config.Settings) error
}

// EnvApplier persists environment variables to the shell startup file.
type EnvApplier interface {
	WriteEnv(vars map[string]string) (string, error)
	RemoveEnv(keys []string) (string, error)
}

// HealthFetcher retrieves a normalized health snapshot for a kind.
type HealthFetcher interface {
	Fetch(ctx context.Context, url string, kind config.Kind, timeout time.Duration) (health.Snapshot, string)
}

// messageCap bounds the status message log (oldest dropped first).
const messageCap = 50

// addSteps are the AddCustomProfile input steps in order.
const (
	addStepName = iota
	addStepSecret
	addStepEndpoint
	addStepCount
)

// healthMsg carries a completed fetch back into the event loop. The snapshot
// is immutable; the console swaps its reference and never mutates it.
type healthMsg struct {
	kind     config.Kind
	snapshot health.Snapshot
	errMsg   string
	took     time.Duration
}

// Model is the Bubble Tea model for the profile console.
type Model struct {
	store   ProfileStore
	applier EnvApplier
	fetcher HealthFetcher
	log     logger.Logger

	settings *config.Settings

	mode Mode
	kind config.Kind

	profiles []config.Profile
	filtered []int
	selected int
	scroll   int

	searching   bool
	searchInput textinput.Model

	snapshot health.Snapshot
	fetching bool
	nodeView bool

	messages []string

	pendingConfirm   *config.Profile
	pendingCustomKey string

	settingsInput  textinput.Model
	addInputs      [addStepCount]textinput.Model
	addStep        int
	customKeyInput textinput.Model

	spin     spinner.Model
	width    int
	height   int
	quitting bool
}

// NewModel builds the console model. The initial kind is claude; settings are
// loaded eagerly so the health URL and custom profiles are available before
// the first frame.
func NewModel(store ProfileStore, applier EnvApplier, fetcher HealthFetcher, log logger.Logger) Model {
	if log == nil {
		log = logger.Default()
	}

	search := textinput.New()
	search.Placeholder = "search name or group"
	search.Prompt = "/"
	search.CharLimit = 64

	settingsInput := textinput.New()
	settingsInput.Placeholder = config.DefaultHealthURL
	settingsInput.CharLimit = 256

	customKey := textinput.New()
	customKey.Placeholder = "paste key"
	customKey.EchoMode = textinput.EchoPassword
	customKey.CharLimit = 256

	var addInputs [addStepCount]textinput.Model
	for i := range addInputs {
		addInputs[i] = textinput.New()
		addInputs[i].CharLimit = 256
	}
	addInputs[addStepName].Placeholder = "profile name"
	addInputs[addStepSecret].Placeholder = "api key"
	addInputs[addStepSecret].EchoMode = textinput.EchoPassword
	addInputs[addStepEndpoint].Placeholder = "endpoint url (optional)"

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := Model{
		store:          store,
		applier:        applier,
		fetcher:        fetcher,
		log:            log,
		kind:           config.KindClaude,
		searchInput:    search,
		settingsInput:  settingsInput,
		customKeyInput: customKey,
		addInputs:      addInputs,
		spin:           sp,
	}

	settings, err := store.LoadSettings()
	if err != nil {
		m.settings = &config.Settings{HealthURL: config.DefaultHealthURL}
		m.pushMessage("settings: " + err.Error())
	} else {
		m.settings = settings
	}

	m.reloadProfiles()

	// Init always launches the first fetch; mark it in flight here so the
	// guard holds before the first Update. Init's value receiver would lose
	// the flag otherwise.
	m.fetching = true
	return m
}

// Init kicks off the spinner and the first health fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.startFetch())
}

// Update handles messages and advances the state machine.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampScroll()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case healthMsg:
		// A late result for a switched-away kind still lands: it only
		// touches the snapshot and the message log, never selection state.
		m.fetching = false
		m.snapshot = msg.snapshot
		if msg.errMsg != "" {
			m.pushMessage("health: " + msg.errMsg)
		} else {
			m.pushMessage("health: " + pluralGroups(msg.snapshot.GroupCount()) + " for " + string(msg.kind) +
				" in " + msg.took.Round(time.Millisecond).String())
		}
	}

	return m, nil
}

// View renders the current mode.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

// fetchCmd starts an asynchronous health fetch unless one is already in
// flight; overlapping refresh requests are dropped, not queued.
func (m *Model) fetchCmd() tea.Cmd {
	if m.fetching {
		return nil
	}
	m.fetching = true
	return m.startFetch()
}

// startFetch builds the fetch command. Callers are responsible for having
// marked the fetch in flight.
func (m *Model) startFetch() tea.Cmd {
	url := m.settings.HealthURL
	kind := m.kind
	fetcher := m.fetcher
	return func() tea.Msg {
		start := time.Now()
		snapshot, errMsg := fetcher.Fetch(context.Background(), url, kind, health.DefaultTimeout)
		return healthMsg{
			kind:     kind,
			snapshot: snapshot,
			errMsg:   errMsg,
			took:     time.Since(start),
		}
	}
}

// reloadProfiles loads the stored profiles for the active kind, merges the
// settings-held custom profiles, and resets the filter.
func (m *Model) reloadProfiles() {
	stored, err := m.store.LoadProfiles(m.kind)
	if err != nil {
		stored = nil
		m.pushMessage("profiles: " + err.Error())
	}
	m.profiles = config.MergeProfiles(m.kind, stored, m.settings)
	m.applyFilter()
}

// toggleKind switches the active kind. Only valid from List; clears search,
// reloads profiles, and triggers a fresh fetch.
func (m *Model) toggleKind() tea.Cmd {
	m.kind = m.kind.Toggle()
	m.searching = false
	m.searchInput.SetValue("")
	m.snapshot = nil
	m.reloadProfiles()
	return m.fetchCmd()
}

// pushMessage appends to the bounded status log.
func (m *Model) pushMessage(msg string) {
	m.messages = append(m.messages, msg)
	if len(m.messages) > messageCap {
		m.messages = m.messages[len(m.messages)-messageCap:]
	}
}

// selectedProfile returns the profile under the cursor, nil when the filter
// is empty.
func (m *Model) selectedProfile() *config.Profile {
	if len(m.filtered) == 0 || m.selected < 0 || m.selected >= len(m.filtered) {
		return nil
	}
	p := m.profiles[m.filtered[m.selected]]
	return &p
}

// applyProfile writes the profile's variables into the process environment
// and the shell startup file, then reports the persisted path.
func (m *Model) applyProfile(p config.Profile) {
	vars := p.EnvVars()
	for k, v := range vars {
		os.Setenv(k, v)
	}
	path, err := m.applier.WriteEnv(vars)
	if err != nil {
		m.pushMessage("apply: " + err.Error())
		return
	}
	m.log.Debug("applied %s to %s", p.Name, path)
	m.pushMessage("applied " + p.Name + " -> " + path)
}

// clearEnv removes the kind's variables from the process environment, and
// from the shell startup file too when persist is set.
func (m *Model) clearEnv(persist bool) {
	secret, endpoint := m.kind.EnvVars()
	os.Unsetenv(secret)
	os.Unsetenv(endpoint)
	if !persist {
		m.pushMessage("cleared " + string(m.kind) + " env (session only)")
		return
	}
	path, err := m.applier.RemoveEnv([]string{secret, endpoint})
	if err != nil {
		m.pushMessage("clear: " + err.Error())
		return
	}
	m.pushMessage("cleared " + string(m.kind) + " env -> " + path)
}

// submitAddProfile validates and persists the AddCustomProfile buffer.
// Name and key are required; an empty one keeps the mode in place.
func (m *Model) submitAddProfile() bool {
	name := trimmed(m.addInputs[addStepName].Value())
	secret := trimmed(m.addInputs[addStepSecret].Value())
	if name == "" || secret == "" {
		m.pushMessage("add: name and key are required")
		return false
	}

	m.settings.AddCustomProfile(config.Profile{
		Name:     name,
		Kind:     m.kind,
		Secret:   secret,
		Endpoint: trimmed(m.addInputs[addStepEndpoint].Value()),
	})
	if err := m.store.SaveSettings(m.settings); err != nil {
		m.pushMessage("add: " + err.Error())
		return false
	}
	m.pushMessage("added custom profile " + name)
	m.reloadProfiles()
	return true
}

// resetAddInputs clears the multi-step add buffer.
func (m *Model) resetAddInputs() {
	for i := range m.addInputs {
		m.addInputs[i].SetValue("")
		m.addInputs[i].Blur()
	}
	m.addStep = addStepName
	m.addInputs[addStepName].Focus()
}

func pluralGroups(n int) string {
	if n == 1 {
		return "1 group"
	}
	return strconv.Itoa(n) + " groups"
}

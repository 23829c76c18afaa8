package console

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/LynnGuo666/ai-switch-cli/internal/config"
)

// Key bindings as constants for consistency.
const (
	KeyQuit         = "q"
	KeyQuitAlt      = "ctrl+c"
	KeyRefresh      = "r"
	KeyToggleKind   = "t"
	KeySearch       = "/"
	KeyClearSearch  = "c"
	KeyAddProfile   = "a"
	KeyCustomKey    = "u"
	KeySettings     = "s"
	KeyNodeView     = "g"
	KeyClearEnv     = "x"
	KeyClearEnvPerm = "X"
	KeySelectPrev   = "up"
	KeySelectPrevK  = "k"
	KeySelectNext   = "down"
	KeySelectNextJ  = "j"
	KeyApply        = "enter"
	KeyConfirmYes   = "y"
	KeyConfirmNo    = "n"
	KeyCancel       = "esc"
)

// HandleKeyMsg processes keyboard input for the current mode.
// Returns true if the key was handled.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	// Ctrl+C quits from anywhere, including text-entry modes.
	if key == KeyQuitAlt {
		m.quitting = true
		return true, tea.Quit
	}

	switch m.mode {
	case ModeList:
		return m.handleListKey(msg)
	case ModeSettings:
		return m.handleSettingsKey(msg)
	case ModeAddCustomProfile:
		return m.handleAddKey(msg)
	case ModeCustomKeyInput:
		return m.handleCustomKeyInput(msg)
	case ModeConfirmApply, ModeConfirmApplyCustomKey:
		return m.handleConfirmKey(msg)
	}

	return false, nil
}

// handleListKey handles List mode, including the inline search field.
func (m *Model) handleListKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if m.searching {
		switch key {
		case KeyCancel:
			m.searching = false
			m.searchInput.SetValue("")
			m.searchInput.Blur()
			m.applyFilter()
			return true, nil
		case KeyApply:
			m.searching = false
			m.searchInput.Blur()
			return true, nil
		default:
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			m.applyFilter()
			return true, cmd
		}
	}

	switch key {
	case KeyQuit:
		m.quitting = true
		return true, tea.Quit

	case KeySelectPrev, KeySelectPrevK:
		m.moveSelection(-1)
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		m.moveSelection(1)
		return true, nil

	case KeyToggleKind:
		return true, m.toggleKind()

	case KeySearch:
		m.searching = true
		m.searchInput.Focus()
		return true, nil

	case KeyClearSearch:
		if m.searchInput.Value() != "" {
			m.searchInput.SetValue("")
			m.applyFilter()
		}
		return true, nil

	case KeyRefresh:
		return true, m.fetchCmd()

	case KeyNodeView:
		m.nodeView = !m.nodeView
		return true, nil

	case KeyClearEnv:
		m.clearEnv(false)
		return true, nil

	case KeyClearEnvPerm:
		m.clearEnv(true)
		return true, nil

	case KeySettings:
		m.settingsInput.SetValue(m.settings.HealthURL)
		m.settingsInput.Focus()
		m.mode = ModeSettings
		return true, nil

	case KeyAddProfile:
		m.resetAddInputs()
		m.mode = ModeAddCustomProfile
		return true, nil

	case KeyCustomKey:
		if m.selectedProfile() == nil {
			return true, nil
		}
		m.customKeyInput.SetValue("")
		m.customKeyInput.Focus()
		m.mode = ModeCustomKeyInput
		return true, nil

	case KeyApply:
		if p := m.selectedProfile(); p != nil {
			m.pendingConfirm = p
			m.mode = ModeConfirmApply
		}
		return true, nil
	}

	return false, nil
}

// handleSettingsKey edits and persists the health URL.
func (m *Model) handleSettingsKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case KeyCancel:
		m.settingsInput.Blur()
		m.mode = ModeList
		return true, nil

	case KeyApply:
		url := trimmed(m.settingsInput.Value())
		if url == "" {
			url = config.DefaultHealthURL
		}
		m.settings.HealthURL = url
		if err := m.store.SaveSettings(m.settings); err != nil {
			m.pushMessage("settings: " + err.Error())
		} else {
			m.pushMessage("settings saved")
		}
		return true, nil

	default:
		var cmd tea.Cmd
		m.settingsInput, cmd = m.settingsInput.Update(msg)
		return true, cmd
	}
}

// handleAddKey drives the multi-step AddCustomProfile flow.
func (m *Model) handleAddKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case KeyCancel:
		m.resetAddInputs()
		m.mode = ModeList
		return true, nil

	case KeyApply:
		if m.addStep < addStepEndpoint {
			m.addInputs[m.addStep].Blur()
			m.addStep++
			m.addInputs[m.addStep].Focus()
			return true, nil
		}
		if m.submitAddProfile() {
			m.resetAddInputs()
			m.mode = ModeList
		}
		return true, nil

	default:
		var cmd tea.Cmd
		m.addInputs[m.addStep], cmd = m.addInputs[m.addStep].Update(msg)
		return true, cmd
	}
}

// handleCustomKeyInput collects an ad-hoc key to apply with the selected
// profile's endpoint. An empty submit is ignored, not an error.
func (m *Model) handleCustomKeyInput(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case KeyCancel:
		m.customKeyInput.SetValue("")
		m.customKeyInput.Blur()
		m.mode = ModeList
		return true, nil

	case KeyApply:
		text := trimmed(m.customKeyInput.Value())
		if text == "" {
			return true, nil
		}
		m.pendingCustomKey = text
		m.pendingConfirm = m.selectedProfile()
		m.customKeyInput.Blur()
		m.mode = ModeConfirmApplyCustomKey
		return true, nil

	default:
		var cmd tea.Cmd
		m.customKeyInput, cmd = m.customKeyInput.Update(msg)
		return true, cmd
	}
}

// handleConfirmKey handles both confirmation modes: y/enter affirms, n/esc
// declines back to List.
func (m *Model) handleConfirmKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case KeyConfirmYes, KeyApply:
		if m.pendingConfirm != nil {
			p := *m.pendingConfirm
			if m.mode == ModeConfirmApplyCustomKey {
				p.Secret = m.pendingCustomKey
			}
			m.applyProfile(p)
		}
		m.pendingConfirm = nil
		m.pendingCustomKey = ""
		m.customKeyInput.SetValue("")
		m.mode = ModeList
		return true, nil

	case KeyConfirmNo, KeyCancel:
		m.pendingConfirm = nil
		m.pendingCustomKey = ""
		m.customKeyInput.SetValue("")
		m.pushMessage("cancelled")
		m.mode = ModeList
		return true, nil
	}

	return true, nil
}

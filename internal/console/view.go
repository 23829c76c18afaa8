package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/LynnGuo666/ai-switch-cli/internal/config"
	"github.com/LynnGuo666/ai-switch-cli/internal/health"
	"github.com/LynnGuo666/ai-switch-cli/internal/ui"
)

// timelineWidth caps the status glyph strip per row.
const timelineWidth = 20

// render paints the current mode's view.
func (m Model) render() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.mode {
	case ModeSettings:
		b.WriteString(m.renderSettings())
	case ModeAddCustomProfile:
		b.WriteString(m.renderAddProfile())
	case ModeCustomKeyInput:
		b.WriteString(m.renderCustomKeyInput())
	case ModeConfirmApply, ModeConfirmApplyCustomKey:
		b.WriteString(m.renderConfirm())
	default:
		if m.nodeView {
			b.WriteString(m.renderNodes())
		} else {
			b.WriteString(m.renderList())
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderMessages())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader shows the active kind, the live environment status, and the
// fetch spinner while a refresh is in flight.
func (m Model) renderHeader() string {
	title := headerStyle.Render("ai-switch [" + string(m.kind) + "]")

	active := activeProfileStatus(m.kind, m.profiles)
	status := "env: " + active.Label
	if active.Fragment != "" {
		status += " (" + active.Fragment + ")"
	}
	line := title + "  " + activeStyle.Render(status)

	if m.fetching {
		line += "  " + mutedStyle.Render(m.spin.View()+" fetching")
	}
	return line
}

// renderList paints the filtered profile rows with per-group health.
func (m Model) renderList() string {
	var b strings.Builder

	if m.searching || m.searchInput.Value() != "" {
		b.WriteString(m.searchInput.View())
		b.WriteString("\n\n")
	}

	if len(m.filtered) == 0 {
		if len(m.profiles) == 0 {
			b.WriteString(mutedStyle.Render("no profiles for " + string(m.kind)))
		} else {
			b.WriteString(mutedStyle.Render("no matches"))
		}
		return b.String()
	}

	rows := m.visibleRows()
	end := m.scroll + rows
	if end > len(m.filtered) {
		end = len(m.filtered)
	}

	for pos := m.scroll; pos < end; pos++ {
		p := m.profiles[m.filtered[pos]]

		cursor := "  "
		style := rowStyle
		if pos == m.selected {
			cursor = "> "
			style = rowSelectedStyle
		}

		entries := m.snapshot[p.Group]
		icon := health.GroupStatus(entries).Icon()
		iconStyled := lipgloss.NewStyle().
			Foreground(ui.StatusColor(health.GroupStatus(entries))).
			Render(icon)

		name := p.Name
		if p.IsCustom {
			name += " *"
		}
		line := cursor + iconStyled + " " + style.Render(name)
		if p.Group != "" {
			line += "  " + groupStyle.Render(p.Group)
		}
		if tl := groupTimeline(entries); len(tl) > 0 {
			line += "  " + ui.RenderTimeline(tl, timelineWidth)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if sel := m.selectedProfile(); sel != nil {
		if detail := m.renderDetail(*sel); detail != "" {
			b.WriteString("\n")
			b.WriteString(detail)
		}
	}
	return b.String()
}

// renderDetail shows the selected profile's per-entry health lines.
func (m Model) renderDetail(p config.Profile) string {
	entries := m.snapshot[p.Group]
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	now := time.Now()
	for _, e := range entries {
		for _, line := range health.DetailLines(e, now) {
			b.WriteString(mutedStyle.Render(line))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderNodes paints the node-grouped breakdown from the snapshot's
// pseudo-group.
func (m Model) renderNodes() string {
	entries := m.snapshot[health.NodeGroup]
	if len(entries) == 0 {
		return mutedStyle.Render("no node data")
	}

	var b strings.Builder
	for _, node := range entries[0].Nodes {
		tier := health.TierFor(node)
		avail := health.NodeAvailability(node) * 100
		b.WriteString(fmt.Sprintf("%s %s  %.1f%% %s\n",
			tierIcon(tier), node.Name, avail, mutedStyle.Render(tier.String())))
		for _, svc := range node.Services {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n",
				svc.Status.Icon(), svc.Name, ui.RenderResults(svc.RecentResults, timelineWidth)))
		}
	}
	return b.String()
}

func tierIcon(tier health.NodeTier) string {
	switch tier {
	case health.NodeHealthy:
		return lipgloss.NewStyle().Foreground(ui.ColorSuccess).Render("◉")
	case health.NodeDegraded:
		return lipgloss.NewStyle().Foreground(ui.ColorWarning).Render("◔")
	default:
		return lipgloss.NewStyle().Foreground(ui.ColorError).Render("✖")
	}
}

func (m Model) renderSettings() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render("health status url"))
	b.WriteString("\n")
	b.WriteString(m.settingsInput.View())
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("enter save · esc back"))
	return b.String()
}

func (m Model) renderAddProfile() string {
	labels := [addStepCount]string{"name", "api key", "endpoint"}

	var b strings.Builder
	b.WriteString(promptStyle.Render("add custom profile (" + string(m.kind) + ")"))
	b.WriteString("\n")
	for i := 0; i <= m.addStep; i++ {
		b.WriteString(mutedStyle.Render(labels[i] + ": "))
		b.WriteString(m.addInputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("enter next/save · esc cancel"))
	return b.String()
}

func (m Model) renderCustomKeyInput() string {
	var b strings.Builder
	target := ""
	if p := m.selectedProfile(); p != nil {
		target = p.Name
	}
	b.WriteString(promptStyle.Render("custom key for " + target))
	b.WriteString("\n")
	b.WriteString(m.customKeyInput.View())
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("enter continue · esc cancel"))
	return b.String()
}

func (m Model) renderConfirm() string {
	if m.pendingConfirm == nil {
		return ""
	}
	action := "apply profile " + m.pendingConfirm.Name
	if m.mode == ModeConfirmApplyCustomKey {
		action = "apply custom key via " + m.pendingConfirm.Name
	}
	secretVar, endpointVar := m.kind.EnvVars()

	var b strings.Builder
	b.WriteString(promptStyle.Render(action + "?"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("writes " + secretVar + " and " + endpointVar + " to the shell profile"))
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("y apply · n cancel"))
	return b.String()
}

// renderMessages shows the tail of the status log.
func (m Model) renderMessages() string {
	const tail = 3
	if len(m.messages) == 0 {
		return ""
	}
	start := len(m.messages) - tail
	if start < 0 {
		start = 0
	}
	var b strings.Builder
	for _, msg := range m.messages[start:] {
		b.WriteString(messageStyle.Render("· " + msg))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderFooter() string {
	hints := []string{
		"↑↓ select",
		"enter apply",
		"t " + string(m.kind.Toggle()),
		"/ search",
		"a add",
		"u key",
		"g nodes",
		"s settings",
		"r refresh",
		"x clear env",
		"q quit",
	}
	return footerStyle.Render(strings.Join(hints, " · "))
}

// groupTimeline returns the first entry's timeline for the row strip; the
// per-entry breakdown lives in the detail lines.
func groupTimeline(entries []health.Entry) []health.StatusCode {
	if len(entries) == 0 {
		return nil
	}
	return entries[0].Timeline
}

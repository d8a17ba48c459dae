package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"logview/internal/diag"
)

func (m *Model) View() string {
	v := m.renderStream()
	if m.modalActive {
		// Dim the background content while keeping it visible
		dimmed := lipgloss.NewStyle().Faint(true).Render(v)
		v = overlay(dimmed, m.renderModal())
	}
	return v
}

func (m *Model) renderStream() string {
	tv := m.tbl.View()
	return lipgloss.JoinVertical(lipgloss.Left, tv, m.renderBottom(), m.styles.Status.Render(m.renderStatus()))
}

func (m *Model) renderStatus() string {
	state := "Running"
	if m.paused {
		state = "Paused"
	}
	// 1-based cursor for display; 0 when the table is empty
	cur := 0
	rows := len(m.tbl.Rows())
	if rows > 0 {
		c := m.tbl.Cursor()
		if c < 0 {
			c = 0
		}
		if c >= rows {
			c = rows - 1
		}
		cur = c + 1
	}
	followPart := ""
	if m.source == "file" {
		followPart = fmt.Sprintf(" follow:%v", m.follow)
	}
	pendPart := ""
	if n := m.eng.PendingBatches(); n > 0 {
		pendPart = fmt.Sprintf(" pending:%d", n)
	}
	busy := ""
	if m.netBusy {
		busy = " " + m.spin.View()
	}
	return fmt.Sprintf("[%s] %s | line:%d/%d buf:%d/%d total:%d evicted:%d | %s%s%s%s | [?]=help | %s",
		state, m.source, cur, rows,
		m.eng.Len(), m.eng.Cap(), m.eng.Total(), m.eng.Evicted(),
		m.eng.Direction(), followPart, pendPart, busy, m.lastMsg)
}

// renderBottom paints the inline input line, or a summary of the active
// filters and search when no input is open. A spacer keeps the layout
// stable otherwise.
func (m *Model) renderBottom() string {
	switch m.inlineMode {
	case inlineSearch:
		return fmt.Sprintf("search: %s    [enter]=apply [esc]=clear", m.input.View())
	case inlineFilter:
		return fmt.Sprintf("filter: %s    [enter]=apply [esc]=cancel", m.input.View())
	case inlineKeyword:
		return fmt.Sprintf("keyword: %s    [enter]=apply [esc]=cancel", m.input.View())
	case inlineExpr:
		return fmt.Sprintf("expression: %s    [enter]=apply [esc]=cancel", m.input.View())
	case inlineBuffer:
		return fmt.Sprintf("buffer size: %s    [enter]=apply [esc]=cancel", m.input.View())
	case inlinePresetSave:
		return fmt.Sprintf("save preset: %s    [enter]=save [esc]=cancel", m.input.View())
	case inlinePresetLoad:
		return fmt.Sprintf("load preset: %s    [enter]=load [esc]=cancel", m.input.View())
	case inlineExport:
		return fmt.Sprintf("export to: %s    [enter]=export [esc]=cancel", m.input.View())
	}
	var parts []string
	if fs := m.eng.Filters().String(); fs != "none" {
		parts = append(parts, "filters: "+fs+"  [F]=clear")
	}
	if term := m.eng.SearchTerm(); term != "" {
		parts = append(parts, "search: "+term+"  [/]=edit")
	}
	if len(parts) > 0 {
		return strings.Join(parts, "    ")
	}
	if m.termWidth > 0 {
		return strings.Repeat(" ", m.termWidth)
	}
	return ""
}

func (m *Model) buildHelpItems() []helpItem {
	km := m.keymap
	return []helpItem{
		{group: "Navigation", text: "Previous row", key: tea.Key{Type: tea.KeyUp}},
		{group: "Navigation", text: "Next row", key: tea.Key{Type: tea.KeyDown}},
		{group: "Navigation", text: "Page up", key: tea.Key{Type: tea.KeyPgUp}},
		{group: "Navigation", text: "Page down", key: tea.Key{Type: tea.KeyPgDown}},
		{group: "Navigation", text: "Go to top", key: km.Top},
		{group: "Navigation", text: "Go to bottom", key: km.Bottom},
		{group: "Navigation", text: "Inspect entry", key: km.Inspector},

		{group: "Filter", text: "Set category filter", key: km.Filter},
		{group: "Filter", text: "Keyword filter", key: km.Keyword},
		{group: "Filter", text: "Expression filter", key: km.Expression},
		{group: "Filter", text: "Toggle level of selected", key: km.ToggleLevel},
		{group: "Filter", text: "Toggle source of selected", key: km.ToggleSource},
		{group: "Filter", text: "Toggle type of selected", key: km.ToggleType},
		{group: "Filter", text: "Toggle subtype of selected", key: km.ToggleSubtype},
		{group: "Filter", text: "Show all", key: km.ShowAll},
		{group: "Filter", text: "Hide all", key: km.HideAll},
		{group: "Filter", text: "Clear filters", key: km.ClearFilters},

		{group: "Search", text: "Search", key: km.Search},

		{group: "Control", text: "Pause/Resume", key: km.Pause},
		{group: "Control", text: "Toggle follow", key: km.Follow},
		{group: "Control", text: "Toggle sort direction", key: km.Direction},
		{group: "Control", text: "Change buffer size", key: km.Buffer},
		{group: "Control", text: "Clear entries", key: km.ClearEntries},
		{group: "Control", text: "Viewer logs", key: km.DiagLogs},
		{group: "Control", text: "Help", key: km.Help},
		{group: "Control", text: "Quit", key: km.Quit},

		{group: "Data", text: "Export visible entries", key: km.Export},
		{group: "Data", text: "Save filter preset", key: km.PresetSave},
		{group: "Data", text: "Load filter preset", key: km.PresetLoad},
		{group: "Data", text: "Copy current entry as JSON", key: km.CopyLine},

		{group: "AI", text: "Explain visible entries (OpenAI)", key: km.Explain},
	}
}

func (m *Model) renderHelp() string {
	if len(m.helpItems) == 0 {
		m.helpItems = m.buildHelpItems()
	}
	if m.helpSel < 0 {
		m.helpSel = 0
	}
	if m.helpSel >= len(m.helpItems) {
		m.helpSel = len(m.helpItems) - 1
	}
	lines := []string{"Shortcuts:"}
	currentGroup := ""
	lineIndexOfSel := 0
	for i, it := range m.helpItems {
		if it.group != currentGroup {
			currentGroup = it.group
			lines = append(lines, "")
			lines = append(lines, currentGroup+":")
		}
		prefix := "  "
		if i == m.helpSel {
			prefix = "> "
			lineIndexOfSel = len(lines)
		}
		lines = append(lines, fmt.Sprintf("%s[%s] %s", prefix, keyLabel(it.key), it.text))
	}
	// Keep the selection visible in the viewport
	if m.modalVP.Height > 0 {
		top := m.modalVP.YOffset
		bottom := top + m.modalVP.Height - 1
		if lineIndexOfSel <= top {
			if lineIndexOfSel-1 >= 0 {
				m.modalVP.YOffset = lineIndexOfSel - 1
			} else {
				m.modalVP.YOffset = 0
			}
		} else if lineIndexOfSel >= bottom {
			m.modalVP.YOffset = lineIndexOfSel - m.modalVP.Height + 2
			if m.modalVP.YOffset < 0 {
				m.modalVP.YOffset = 0
			}
		}
	}
	return m.styles.Help.Render(strings.Join(lines, "\n"))
}

func (m *Model) openHelpModal() {
	m.modalActive = true
	m.modalKind = modalHelp
	m.modalTitle = "Help"
	m.helpItems = m.buildHelpItems()
	m.helpSel = 0
	m.modalBody = m.renderHelp()
	m.resizeModal()
}

func (m *Model) openInspectorModal() {
	e, ok := m.selectedEntry()
	if !ok {
		return
	}
	m.modalActive = true
	m.modalKind = modalInspector
	m.modalTitle = fmt.Sprintf("Entry %d", e.Sequence)
	m.modalBody = colorizeJSONRoot(e.Fields(), m.styles)
	m.resizeModal()
}

func (m *Model) openDiagModal() {
	m.modalActive = true
	m.modalKind = modalDiag
	m.modalTitle = "Viewer Logs"
	m.modalBody = diag.Dump()
	m.resizeModal()
}

func (m *Model) openExplainModal(text string) {
	m.modalActive = true
	m.modalKind = modalExplain
	m.modalTitle = "Explain"
	m.modalBody = text
	m.resizeModal()
}

func (m *Model) closeModal() {
	m.modalActive = false
	m.modalKind = modalNone
	m.modalBody = ""
}

func (m *Model) resizeModal() {
	w := m.termWidth - 6
	h := m.termHeight - 6
	if w < 20 {
		w = 20
	}
	if h < 5 {
		h = 5
	}
	m.modalVP = viewport.New(w-4, h-4)
	if m.modalKind == modalHelp {
		m.modalVP.SetContent(m.renderHelp())
		return
	}
	m.modalVP.SetContent(m.modalBody)
}

func (m *Model) renderModal() string {
	var content string
	switch m.modalKind {
	case modalHelp:
		// Content tracks the selection, so re-render every frame
		m.modalVP.SetContent(m.renderHelp())
		content = m.modalVP.View() + "\n[esc]=close  [enter]=run  [up/down]=navigate"
	case modalDiag:
		header := []string{
			"Status:",
			fmt.Sprintf("format: %s", m.parserName()),
			fmt.Sprintf("rows: %d  buffered: %d/%d  total: %d  evicted: %d",
				len(m.tbl.Rows()), m.eng.Len(), m.eng.Cap(), m.eng.Total(), m.eng.Evicted()),
			fmt.Sprintf("source: %s  follow: %v  direction: %s", m.source, m.follow, m.eng.Direction()),
		}
		h := m.styles.Help.Render(strings.Join(header, "\n"))
		content = h + "\n" + m.modalVP.View() + "\n[esc/enter]=close  [c]=copy"
	case modalInspector, modalExplain:
		content = m.modalVP.View() + "\n[esc/enter]=close  [c]=copy"
	default:
		content = m.modalVP.View() + "\n[esc/enter]=close"
	}
	boxW := m.termWidth - 6
	if boxW < 20 {
		boxW = 20
	}
	title := m.styles.PopupTitle.Render(m.modalTitle)
	body := m.styles.PopupBox.Width(boxW).Render(title + "\n" + content)
	// Center the box; the rest of the screen stays dimmed, not covered
	return lipgloss.Place(m.termWidth, m.termHeight, lipgloss.Center, lipgloss.Center, body)
}

func (m *Model) parserName() string {
	if m.parser == nil {
		return "detecting"
	}
	return m.parser.Name()
}

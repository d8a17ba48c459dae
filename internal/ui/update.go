package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"logview/internal/diag"
	"logview/internal/engine"
	"logview/internal/export"
	"logview/internal/model"
	"logview/internal/render"
)

const (
	// caps per 200ms tick so a firehose cannot starve the event loop
	maxLinesPerTick = 500
	maxErrsPerTick  = 20
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		m.tbl.SetWidth(msg.Width)
		m.tbl.SetHeight(msg.Height - 3)
		m.applyColumns()
		if m.modalActive {
			m.resizeModal()
		}
		return m, nil

	case tea.KeyMsg:
		if m.modalActive {
			return m.handleModalKey(msg)
		}
		if m.inlineMode != inlineNone {
			return m.handleInlineKey(msg)
		}
		return m.handleKey(msg)

	case sniffedMsg:
		// A restart bumps pipeGen; results from the old pipeline are stale.
		if msg.gen != m.pipeGen || msg.parser == nil {
			return m, nil
		}
		m.parser = msg.parser
		for _, l := range msg.buffered {
			m.eng.Submit(m.parser.Parse(l.Text, l.Origin))
		}
		if msg.done {
			m.lines = nil
		}
		diag.Infof("parse: detected %s format from %d sampled lines", m.parser.Name(), len(msg.buffered))
		if m.paused {
			return m, nil
		}
		return m, m.syncCmd()

	case tickMsg:
		m.drainLines()
		m.drainErrs()
		m.pumpDiag()
		m.eng.Tick()
		if m.paused {
			return m, tickCmd()
		}
		return m, tea.Batch(m.syncCmd(), tickCmd())

	case batchMsg:
		if m.paused {
			m.pumping = false
			return m, nil
		}
		progressed := m.eng.RunNextBatch(m.surface)
		m.syncSurface()
		if progressed && m.eng.PendingBatches() > 0 {
			return m, batchCmd()
		}
		m.pumping = false
		return m, nil

	case toastMsg:
		m.lastMsg = msg.text
		return m, nil

	case explainDoneMsg:
		m.netBusy = false
		if msg.err != nil {
			m.lastMsg = "explain: " + msg.err.Error()
			diag.Warnf("assist: explain failed: %v", msg.err)
			return m, nil
		}
		m.openExplainModal(msg.text)
		return m, nil

	case spinner.TickMsg:
		if !m.netBusy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) drainLines() {
	// The sniff command owns the channel until a parser is chosen.
	if m.parser == nil || m.lines == nil {
		return
	}
	for i := 0; i < maxLinesPerTick; i++ {
		select {
		case l, ok := <-m.lines:
			if !ok {
				m.lines = nil
				return
			}
			m.eng.Submit(m.parser.Parse(l.Text, l.Origin))
		default:
			return
		}
	}
}

func (m *Model) drainErrs() {
	if m.errs == nil {
		return
	}
	for i := 0; i < maxErrsPerTick; i++ {
		select {
		case err, ok := <-m.errs:
			if !ok {
				m.errs = nil
				return
			}
			diag.Warnf("ingest: %v", err)
			m.lastMsg = err.Error()
		default:
			return
		}
	}
}

// pumpDiag mirrors viewer diagnostics into the stream as reserved-source
// entries, bypassing the rate limiter so none are dropped.
func (m *Model) pumpDiag() {
	recs, next := diag.Since(m.diagCur)
	m.diagCur = next
	for _, r := range recs {
		m.eng.Submit(engine.Input{
			Message: r.Text,
			Source:  model.ReservedSource,
			Level:   r.Tag,
			Type:    "DIAG",
			Force:   true,
		})
	}
}

// syncCmd asks the engine for a plan and kicks off the batch-drain chain.
// Only one chain runs at a time.
func (m *Model) syncCmd() tea.Cmd {
	plan := m.eng.Sync()
	if m.pumping {
		return nil
	}
	if plan == render.PlanNone && m.eng.PendingBatches() == 0 {
		return nil
	}
	m.pumping = true
	return batchCmd()
}

func batchCmd() tea.Cmd {
	return func() tea.Msg { return batchMsg{} }
}

// syncSurface copies surface rows into the table widget. If the cursor sat
// on the newest entry before the update it sticks there afterwards.
func (m *Model) syncSurface() {
	if !m.surface.dirty {
		return
	}
	atNewest := m.cursorAtNewest()
	rows := make([]table.Row, len(m.surface.rows))
	copy(rows, m.surface.rows)
	m.tbl.SetRows(rows)
	if atNewest {
		m.cursorToNewest()
	}
	m.surface.dirty = false
}

func (m *Model) cursorAtNewest() bool {
	n := len(m.tbl.Rows())
	if n == 0 {
		return true
	}
	if m.eng.Direction() == model.RecentFirst {
		return m.tbl.Cursor() == 0
	}
	return m.tbl.Cursor() == n-1
}

func (m *Model) cursorToNewest() {
	if m.eng.Direction() == model.RecentFirst {
		m.tbl.GotoTop()
	} else {
		m.tbl.GotoBottom()
	}
}

// selectedEntry resolves the table cursor against the current visible
// snapshot. Mid-drain the table can trail the snapshot by a batch, so the
// index is bounds-checked rather than trusted.
func (m *Model) selectedEntry() (model.LogEntry, bool) {
	entries := m.eng.VisibleEntries(m.eng.Direction())
	i := m.tbl.Cursor()
	if i < 0 || i >= len(entries) {
		return model.LogEntry{}, false
	}
	return entries[i], true
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC || keyMatches(msg, m.keymap.Quit):
		m.saveState()
		return m, tea.Quit

	case keyMatches(msg, m.keymap.Pause):
		m.paused = !m.paused
		if m.paused {
			m.lastMsg = "paused"
			return m, nil
		}
		m.lastMsg = ""
		return m, m.syncCmd()

	case keyMatches(msg, m.keymap.Follow):
		if m.source != "file" {
			m.lastMsg = "follow applies to file input"
			return m, nil
		}
		m.follow = !m.follow
		diag.Infof("ingest: follow=%v, restarting pipeline", m.follow)
		return m, setupPipeline(m)

	case keyMatches(msg, m.keymap.Direction):
		dir := model.RecentFirst
		if m.eng.Direction() == model.RecentFirst {
			dir = model.OldestFirst
		}
		m.eng.SetDirection(dir)
		m.lastMsg = "direction: " + string(dir)
		return m, m.syncCmd()

	case keyMatches(msg, m.keymap.Search):
		m.enterInline(inlineSearch)
		return m, nil

	case keyMatches(msg, m.keymap.Filter):
		m.enterInline(inlineFilter)
		return m, nil

	case keyMatches(msg, m.keymap.Keyword):
		m.enterInline(inlineKeyword)
		return m, nil

	case keyMatches(msg, m.keymap.Expression):
		m.enterInline(inlineExpr)
		return m, nil

	case keyMatches(msg, m.keymap.ShowAll):
		m.eng.ActivateShowAll()
		m.lastMsg = "show all"
		return m, m.syncCmd()

	case keyMatches(msg, m.keymap.HideAll):
		m.eng.ActivateHideAll()
		m.lastMsg = "hide all"
		return m, m.syncCmd()

	case keyMatches(msg, m.keymap.ClearFilters):
		m.eng.ClearAllFilters()
		m.lastMsg = "filters cleared"
		return m, m.syncCmd()

	case keyMatches(msg, m.keymap.ToggleLevel):
		return m.toggleSelected("level")

	case keyMatches(msg, m.keymap.ToggleSource):
		return m.toggleSelected("source")

	case keyMatches(msg, m.keymap.ToggleType):
		return m.toggleSelected("type")

	case keyMatches(msg, m.keymap.ToggleSubtype):
		return m.toggleSelected("subtype")

	case keyMatches(msg, m.keymap.Export):
		m.enterInline(inlineExport)
		return m, nil

	case keyMatches(msg, m.keymap.Explain):
		return m.startExplain()

	case keyMatches(msg, m.keymap.CopyLine):
		e, ok := m.selectedEntry()
		if !ok {
			return m, nil
		}
		copyToClipboard(e.PrettyJSON())
		m.lastMsg = "copied entry"
		return m, nil

	case keyMatches(msg, m.keymap.ClearEntries):
		m.eng.ClearEntries()
		diag.Infof("buffer: cleared")
		m.lastMsg = "entries cleared"
		return m, m.syncCmd()

	case keyMatches(msg, m.keymap.Buffer):
		m.enterInline(inlineBuffer)
		return m, nil

	case keyMatches(msg, m.keymap.PresetSave):
		m.enterInline(inlinePresetSave)
		return m, nil

	case keyMatches(msg, m.keymap.PresetLoad):
		m.enterInline(inlinePresetLoad)
		return m, nil

	case keyMatches(msg, m.keymap.DiagLogs):
		m.openDiagModal()
		return m, nil

	case keyMatches(msg, m.keymap.Inspector):
		m.openInspectorModal()
		return m, nil

	case keyMatches(msg, m.keymap.Top):
		m.tbl.GotoTop()
		return m, nil

	case keyMatches(msg, m.keymap.Bottom):
		m.tbl.GotoBottom()
		return m, nil

	case keyMatches(msg, m.keymap.Help):
		m.openHelpModal()
		return m, nil
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

func (m *Model) toggleSelected(axis string) (tea.Model, tea.Cmd) {
	e, ok := m.selectedEntry()
	if !ok {
		return m, nil
	}
	var val string
	switch axis {
	case "level":
		val = e.Level
	case "source":
		val = e.Source
	case "type":
		val = e.Type
	case "subtype":
		val = e.Subtype
	}
	if val == "" {
		m.lastMsg = "selected line has no " + axis
		return m, nil
	}
	if err := m.eng.ToggleCategoryValue(axis, val); err != nil {
		m.lastMsg = err.Error()
		return m, nil
	}
	m.lastMsg = fmt.Sprintf("toggled %s=%s", axis, val)
	return m, m.syncCmd()
}

func (m *Model) enterInline(mode inlineMode) {
	m.inlineMode = mode
	m.input.Reset()
	m.input.Placeholder = ""
	switch mode {
	case inlineSearch:
		m.input.SetValue(m.eng.SearchTerm())
	case inlineFilter:
		m.input.Placeholder = "axis=v1,v2 or axis!=v1,v2 (level, source, type, subtype)"
	case inlineKeyword:
		m.input.Placeholder = "phrase to require, !phrase to exclude"
	case inlineExpr:
		m.input.SetValue(m.eng.Filters().Expression())
	case inlineBuffer:
		m.input.SetValue(strconv.Itoa(m.eng.Cap()))
	case inlinePresetSave:
		m.input.Placeholder = "preset name"
	case inlinePresetLoad:
		names, err := m.eng.Presets(m.store)
		if err == nil && len(names) > 0 {
			m.input.Placeholder = strings.Join(names, ", ")
		} else {
			m.input.Placeholder = "no presets saved"
		}
	case inlineExport:
		m.input.SetValue(m.cfg.ExportPath)
		m.input.Placeholder = "path (.ndjson, .csv or .zst)"
	}
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) leaveInline() {
	m.inlineMode = inlineNone
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) handleInlineKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m.applyInline()
	case tea.KeyEsc:
		mode := m.inlineMode
		m.leaveInline()
		if mode == inlineSearch {
			m.eng.ClearSearch()
			return m, m.syncCmd()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.inlineMode == inlineSearch {
		// Live narrowing; the engine debounces before reindexing.
		m.eng.SetSearchTerm(m.input.Value())
	}
	return m, cmd
}

func (m *Model) applyInline() (tea.Model, tea.Cmd) {
	val := strings.TrimSpace(m.input.Value())
	mode := m.inlineMode
	m.leaveInline()

	switch mode {
	case inlineSearch:
		m.eng.SetSearchTerm(val)
		m.eng.CommitSearch()
		return m, m.syncCmd()

	case inlineFilter:
		if val == "" {
			return m, nil
		}
		axis, fmode, values, err := parseFilterInput(val)
		if err != nil {
			m.lastMsg = err.Error()
			return m, nil
		}
		if err := m.eng.SetCategoryFilter(axis, fmode, values); err != nil {
			m.lastMsg = err.Error()
			return m, nil
		}
		diag.Infof("filter: %s %s %s", axis, fmode, strings.Join(values, ","))
		return m, m.syncCmd()

	case inlineKeyword:
		if val == "" {
			return m, nil
		}
		kmode, phrase := parseKeywordInput(val)
		if err := m.eng.SetKeyword(kmode, phrase); err != nil {
			m.lastMsg = err.Error()
			return m, nil
		}
		return m, m.syncCmd()

	case inlineExpr:
		if err := m.eng.SetExpression(val); err != nil {
			m.lastMsg = "expression: " + err.Error()
			return m, nil
		}
		return m, m.syncCmd()

	case inlineBuffer:
		n, err := strconv.Atoi(val)
		if err != nil || n < 100 {
			m.lastMsg = "buffer size must be a number >= 100"
			return m, nil
		}
		m.eng.SetMaxEntries(n)
		m.cfg.MaxEntries = n
		diag.Infof("buffer: resized to %d entries", n)
		return m, m.syncCmd()

	case inlinePresetSave:
		if val == "" {
			return m, nil
		}
		if err := m.eng.SavePreset(m.store, val); err != nil {
			m.lastMsg = "preset save: " + err.Error()
			return m, nil
		}
		diag.Infof("presets: saved %q", val)
		m.lastMsg = "preset saved: " + val
		return m, nil

	case inlinePresetLoad:
		if val == "" {
			return m, nil
		}
		if err := m.eng.ApplyPreset(m.store, val); err != nil {
			m.lastMsg = "preset load: " + err.Error()
			return m, nil
		}
		diag.Infof("presets: applied %q", val)
		m.lastMsg = "preset applied: " + val
		return m, m.syncCmd()

	case inlineExport:
		if val == "" {
			return m, nil
		}
		entries := m.eng.VisibleEntries(m.eng.Direction())
		return m, exportCmd(val, entries)
	}
	return m, nil
}

// parseFilterInput splits "axis=v1,v2" (include) or "axis!=v1,v2" (exclude).
// An empty value list clears the axis.
func parseFilterInput(s string) (axis, mode string, values []string, err error) {
	mode = "include"
	var rest string
	if i := strings.Index(s, "!="); i >= 0 {
		mode = "exclude"
		axis, rest = s[:i], s[i+2:]
	} else if i := strings.Index(s, "="); i >= 0 {
		axis, rest = s[:i], s[i+1:]
	} else {
		return "", "", nil, fmt.Errorf("expected axis=v1,v2 or axis!=v1,v2")
	}
	axis = strings.TrimSpace(strings.ToLower(axis))
	for _, v := range strings.Split(rest, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return axis, mode, values, nil
}

// parseKeywordInput maps "!phrase" to an exclusion and anything else to a
// required phrase.
func parseKeywordInput(s string) (mode, phrase string) {
	if strings.HasPrefix(s, "!") {
		return "exclude", strings.TrimSpace(s[1:])
	}
	return "include", strings.TrimSpace(s)
}

func (m *Model) startExplain() (tea.Model, tea.Cmd) {
	if !m.assist.Enabled() {
		m.lastMsg = "assist disabled: set OPENAI_API_KEY or drop -offline"
		return m, nil
	}
	if m.netBusy {
		return m, nil
	}
	// The prompt is always chronological regardless of display direction.
	entries := m.eng.VisibleEntries(model.OldestFirst)
	if len(entries) == 0 {
		m.lastMsg = "nothing to explain"
		return m, nil
	}
	m.netBusy = true
	m.lastMsg = ""
	ctx := m.ctx
	assist := m.assist
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		text, err := assist.Explain(ctx, entries)
		return explainDoneMsg{text: text, err: err}
	})
}

func exportCmd(path string, entries []model.LogEntry) tea.Cmd {
	return func() tea.Msg {
		if err := export.Auto(path, entries); err != nil {
			return toastMsg{text: "export: " + err.Error()}
		}
		return toastMsg{text: fmt.Sprintf("exported %d entries to %s", len(entries), path)}
	}
}

func (m *Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modalKind == modalHelp {
		switch {
		case msg.Type == tea.KeyEsc || msg.String() == "q" || keyMatches(msg, m.keymap.Help):
			m.closeModal()
			return m, nil
		case msg.Type == tea.KeyUp || msg.String() == "k":
			if m.helpSel > 0 {
				m.helpSel--
				m.renderHelp()
			}
			return m, nil
		case msg.Type == tea.KeyDown || msg.String() == "j":
			if m.helpSel < len(m.helpItems)-1 {
				m.helpSel++
				m.renderHelp()
			}
			return m, nil
		case msg.Type == tea.KeyEnter:
			it := m.helpItems[m.helpSel]
			m.closeModal()
			return m, keyCmd(it.key)
		}
		var cmd tea.Cmd
		m.modalVP, cmd = m.modalVP.Update(msg)
		return m, cmd
	}

	switch {
	case msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter || msg.String() == "q":
		m.closeModal()
		return m, nil
	case msg.String() == "c" || msg.String() == "C":
		copyToClipboard(m.modalBody)
		m.lastMsg = "copied"
		m.closeModal()
		return m, nil
	}
	var cmd tea.Cmd
	m.modalVP, cmd = m.modalVP.Update(msg)
	return m, cmd
}

package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"logview/internal/ai"
	"logview/internal/config"
	"logview/internal/diag"
	"logview/internal/engine"
	"logview/internal/preset"
)

func initialModel(ctx context.Context, cfg *config.Config, store *preset.FileStore) *Model {
	m := &Model{
		ctx:   ctx,
		cfg:   cfg,
		store: store,
		eng: engine.New(engine.Options{
			MaxEntries:   cfg.MaxEntries,
			MaxPerSecond: cfg.MaxPerSecond,
			BatchSize:    cfg.BatchSize,
			Direction:    cfg.Direction,
		}),
		surface:     newTableSurface(),
		styles:      NewStyles(cfg.Theme == "dark"),
		keymap:      DefaultKeyMap(),
		input:       textinput.New(),
		spin:        spinner.New(),
		follow:      cfg.Follow,
		scanBufSize: 1024 * 1024,
	}
	m.spin.Spinner = spinner.Dot
	m.input.CharLimit = 256
	m.input.Prompt = ""
	if !cfg.Offline && cfg.OpenAIKey() != "" {
		m.assist = ai.NewClient(cfg.OpenAIKey(), cfg.OpenAIBase, cfg.OpenAIModel, time.Duration(cfg.OpenAITimeoutSec)*time.Second)
	}

	m.tbl = table.New(table.WithFocused(true), table.WithHeight(20))
	ts := table.DefaultStyles()
	ts.Header = m.styles.TableStyles.Header
	ts.Cell = m.styles.TableStyles.Cell
	ts.Selected = m.styles.TableStyles.Selected
	m.tbl.SetStyles(ts)
	m.applyColumns()

	if ok, err := m.eng.LoadFilterState(store); err != nil {
		diag.Warnf("presets: could not restore filter state: %v", err)
	} else if ok {
		diag.Infof("presets: restored filter state from %s", store.Path())
	}
	return m
}

func Run(ctx context.Context, cfg *config.Config, store *preset.FileStore) error {
	m := initialModel(ctx, cfg, store)
	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	m.saveState()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(setupPipeline(m), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) saveState() {
	if err := m.eng.SaveFilterState(m.store); err != nil {
		diag.Warnf("presets: could not save filter state: %v", err)
	}
}

// The stream table has five fixed columns; message flexes to fill the
// terminal.
func (m *Model) applyColumns() {
	w := m.termWidth
	if w <= 0 {
		w = 120
	}
	const tsW, lvlW, srcW, typW = 12, 5, 10, 14
	msg := w - tsW - lvlW - srcW - typW - 5
	if msg < 20 {
		msg = 20
	}
	m.tbl.SetColumns([]table.Column{
		{Title: "ts", Width: tsW},
		{Title: "level", Width: lvlW},
		{Title: "source", Width: srcW},
		{Title: "type", Width: typW},
		{Title: "message", Width: msg},
	})
}

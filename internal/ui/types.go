package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"logview/internal/ai"
	"logview/internal/config"
	"logview/internal/engine"
	"logview/internal/ingest"
	"logview/internal/parse"
	"logview/internal/preset"
)

type inlineMode int

const (
	inlineNone inlineMode = iota
	inlineSearch
	inlineFilter
	inlineKeyword
	inlineExpr
	inlineBuffer
	inlinePresetSave
	inlinePresetLoad
	inlineExport
)

type modalKind int

const (
	modalNone modalKind = iota
	modalHelp
	modalInspector
	modalDiag
	modalExplain
)

type Model struct {
	ctx context.Context
	cfg *config.Config
	// cancel function for the current ingest pipeline; allows restarting
	// (e.g. when toggling follow)
	ingestCancel context.CancelFunc
	// pipeGen guards against a stale sniff result landing after the
	// pipeline was restarted
	pipeGen int

	eng     *engine.Engine
	store   *preset.FileStore
	assist  *ai.Client
	parser  parse.Parser
	surface *tableSurface

	// Pipeline
	lines <-chan ingest.Line
	errs  <-chan error

	paused  bool
	follow  bool
	source  string
	diagCur int
	// pumping is true while a batch-drain message chain is in flight
	pumping bool

	// UI
	tbl    table.Model
	input  textinput.Model
	spin   spinner.Model
	styles Styles
	keymap KeyMap

	scanBufSize int

	termWidth  int
	termHeight int

	inlineMode inlineMode
	lastMsg    string
	netBusy    bool

	// Modal popup
	modalActive bool
	modalKind   modalKind
	modalVP     viewport.Model
	modalTitle  string
	modalBody   string

	// Help menu state
	helpItems []helpItem
	helpSel   int
}

type helpItem struct {
	group string
	text  string
	key   tea.Key
}

func keyCmd(k tea.Key) tea.Cmd {
	return func() tea.Msg {
		if k.Type == tea.KeyRunes {
			return tea.KeyMsg{Type: k.Type, Runes: k.Runes}
		}
		return tea.KeyMsg{Type: k.Type}
	}
}

func keyLabel(k tea.Key) string {
	switch k.Type {
	case tea.KeyRunes:
		if len(k.Runes) == 1 {
			r := k.Runes[0]
			if r == ' ' {
				return "space"
			}
			return string(r)
		}
		return strings.ToLower(string(k.Runes))
	case tea.KeyEnter:
		return "enter"
	case tea.KeyEsc:
		return "esc"
	case tea.KeyTab:
		return "tab"
	case tea.KeyShiftTab:
		return "shift-tab"
	case tea.KeyLeft:
		return "left"
	case tea.KeyRight:
		return "right"
	case tea.KeyUp:
		return "up"
	case tea.KeyDown:
		return "down"
	case tea.KeyPgUp:
		return "pgup"
	case tea.KeyPgDown:
		return "pgdown"
	default:
		return strings.ToLower(k.String())
	}
}

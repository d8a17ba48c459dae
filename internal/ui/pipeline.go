package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"logview/internal/diag"
	"logview/internal/ingest"
	"logview/internal/parse"
)

// IO and pipeline orchestration
func setupPipeline(m *Model) tea.Cmd {
	src := ingest.SourceDemo
	if m.cfg.UseStdin {
		src = ingest.SourceStdin
	}
	if !m.cfg.UseStdin && m.cfg.FilePath != "" {
		src = ingest.SourceFile
	}
	m.source = string(src)
	block := int64(0)
	// Use runtime follow state, not only initial config
	if !m.follow && m.cfg.TailMB > 0 {
		block = int64(m.cfg.TailMB) * 1024 * 1024
	}
	// If a previous ingest is running, cancel it before starting a new one
	if m.ingestCancel != nil {
		m.ingestCancel()
		m.ingestCancel = nil
	}
	// Child context so this ingest can be stopped later (e.g. toggling follow)
	ingestCtx, cancel := context.WithCancel(m.ctx)
	m.ingestCancel = cancel
	m.pipeGen++
	gen := m.pipeGen
	// The tick loop leaves the channels alone until the sniffed parser
	// lands, so the detection command below is the only reader meanwhile.
	m.parser = nil
	lines, errs := ingest.Read(ingestCtx, ingest.Options{Source: src, Path: m.cfg.FilePath, Follow: m.follow, ScanBufSize: m.scanBufSize, BlockSizeBytes: block})
	m.lines, m.errs = lines, errs
	diag.Infof("ingest: source=%s path=%s follow=%v blockBytes=%d", m.source, m.cfg.FilePath, m.follow, block)

	// Format detection: buffer lines until at least one second has passed
	// AND at least one line arrived, then sniff. Everything buffered is
	// replayed through the parser in Update so nothing is dropped.
	return func() tea.Msg {
		const maxSample = 200
		buffered := make([]ingest.Line, 0, 1024)
		timer := time.NewTimer(1 * time.Second)
		defer timer.Stop()
		haveLine := false
		minElapsed := false
		closed := false
		for !(haveLine && minElapsed) && !closed {
			select {
			case l, ok := <-lines:
				if !ok {
					closed = true
					break
				}
				buffered = append(buffered, l)
				haveLine = true
			case <-timer.C:
				minElapsed = true
			case <-ingestCtx.Done():
				return sniffedMsg{gen: gen}
			}
		}
		if !haveLine {
			// Input ended before producing anything.
			return tea.Quit()
		}
		sample := make([]string, 0, maxSample)
		for i := 0; i < len(buffered) && i < maxSample; i++ {
			sample = append(sample, buffered[i].Text)
		}
		return sniffedMsg{gen: gen, parser: parse.Sniff(sample), buffered: buffered, done: closed}
	}
}

type tickMsg struct{}
type batchMsg struct{}
type toastMsg struct{ text string }

// sniffedMsg carries the detected parser plus every line consumed during
// the detection window. done is set when the input already ended.
type sniffedMsg struct {
	gen      int
	parser   parse.Parser
	buffered []ingest.Line
	done     bool
}

type explainDoneMsg struct {
	text string
	err  error
}

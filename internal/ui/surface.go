package ui

import (
	"github.com/charmbracelet/bubbles/table"

	"logview/internal/model"
	"logview/internal/render"
)

// tableSurface adapts the bubbles table to the render surface contract. It
// owns the row slice; the model copies it into the table widget after each
// drained batch. Formatted rows are cached by content fingerprint so a
// rebuild of a mostly unchanged window reformats little.
type tableSurface struct {
	cache *render.FragmentCache
	rows  []table.Row
	dirty bool
}

func newTableSurface() *tableSurface {
	return &tableSurface{cache: render.NewFragmentCache(0)}
}

func (s *tableSurface) AppendAtEnd(entries []model.LogEntry, end render.End) {
	rows := s.materialize(entries)
	if end == render.EndFront {
		s.rows = append(rows, s.rows...)
	} else {
		s.rows = append(s.rows, rows...)
	}
	s.dirty = true
}

func (s *tableSurface) RebuildAll(entries []model.LogEntry, dir model.SortDirection) {
	s.rows = s.materialize(entries)
	s.dirty = true
}

func (s *tableSurface) EvictFromEnd(count int, end render.End) {
	if count <= 0 {
		return
	}
	if count > len(s.rows) {
		count = len(s.rows)
	}
	if end == render.EndFront {
		s.rows = append([]table.Row(nil), s.rows[count:]...)
	} else {
		s.rows = s.rows[:len(s.rows)-count]
	}
	s.dirty = true
}

func (s *tableSurface) Len() int { return len(s.rows) }

func (s *tableSurface) materialize(entries []model.LogEntry) []table.Row {
	out := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		key := render.Fingerprint(e)
		if h, ok := s.cache.Get(key); ok {
			if row, ok := h.(table.Row); ok {
				out = append(out, row)
				continue
			}
		}
		row := formatRow(e)
		s.cache.Put(key, row)
		out = append(out, row)
	}
	return out
}

package ui

import (
	"github.com/charmbracelet/bubbles/table"

	"logview/internal/model"
)

// The stream table has a fixed shape: timestamp, level, source, type and
// message. Structured details stay out of the grid and show up in the
// inspector instead.

func formatRow(e model.LogEntry) table.Row {
	return table.Row{
		e.Timestamp.Format("15:04:05.000"),
		e.Level,
		e.Source,
		typeCell(e),
		messageCell(e),
	}
}

// typeCell joins type and subtype as "HTTP/GET"; subtype alone never occurs.
func typeCell(e model.LogEntry) string {
	if e.Subtype == "" {
		return e.Type
	}
	return e.Type + "/" + e.Subtype
}

func messageCell(e model.LogEntry) string {
	if e.File == "" {
		return e.Message
	}
	return e.Message + "  (" + e.File + ")"
}

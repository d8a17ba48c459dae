package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Canonical levels after normalization.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Defaults applied to partially specified submissions.
const (
	DefaultSource = "DEFAULT"
	DefaultType   = "GENERAL"
)

// ReservedSource tags the viewer's own diagnostic chatter; hidden by
// default until the source axis receives an explicit selection.
const ReservedSource = "LOGVIEW"

type LogEntry struct {
	Sequence  uint64         `json:"seq"`
	Timestamp time.Time      `json:"ts"`
	Level     string         `json:"level"`
	Source    string         `json:"source"`
	Type      string         `json:"type"`
	Subtype   string         `json:"subtype,omitempty"`
	Message   string         `json:"message"`
	File      string         `json:"file,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// NormalizeLevel maps free-form level strings onto the canonical four.
// Unknown and empty values default to INFO.
func NormalizeLevel(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "TRACE":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR", "ERR", "FATAL", "CRITICAL":
		return LevelError
	default:
		return LevelInfo
	}
}

// NormalizeTag upper-cases a category tag (source, type, subtype).
func NormalizeTag(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Haystack returns the lower-cased searchable text of the entry. Both the
// keyword-include predicate and ad-hoc search match against it.
func (e LogEntry) Haystack() string {
	return strings.ToLower(e.Level + " " + e.Type + " " + e.Message + " " + e.File)
}

// Fields flattens the entry for inspection and expression evaluation.
// Core fields shadow identically named detail keys.
func (e LogEntry) Fields() map[string]any {
	out := make(map[string]any, len(e.Details)+8)
	for k, v := range e.Details {
		out[k] = v
	}
	out["seq"] = e.Sequence
	out["ts"] = e.Timestamp.Format(time.RFC3339Nano)
	out["level"] = e.Level
	out["source"] = e.Source
	out["type"] = e.Type
	if e.Subtype != "" {
		out["subtype"] = e.Subtype
	}
	out["message"] = e.Message
	if e.File != "" {
		out["file"] = e.File
	}
	return out
}

func (e LogEntry) PrettyJSON() string {
	b, _ := json.MarshalIndent(e.Fields(), "", "  ")
	return string(b)
}

// SortDirection is a per-consumer snapshot preference; storage order is
// always insertion order.
type SortDirection string

const (
	RecentFirst SortDirection = "recent-first"
	OldestFirst SortDirection = "oldest-first"
)

func ParseSortDirection(s string) (SortDirection, error) {
	switch SortDirection(strings.ToLower(strings.TrimSpace(s))) {
	case RecentFirst:
		return RecentFirst, nil
	case OldestFirst:
		return OldestFirst, nil
	}
	return "", &DirectionError{Value: s}
}

type DirectionError struct{ Value string }

func (e *DirectionError) Error() string {
	return "invalid sort direction " + strconv.Quote(e.Value) + ": want recent-first or oldest-first"
}

// Buffer is a bounded insertion-ordered ring of entries. Callers serialize
// access; mutation is single-threaded by construction.
type Buffer struct {
	buf     []LogEntry
	cap     int
	start   int
	size    int
	total   uint64
	evicted uint64
}

func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{cap: capacity, buf: make([]LogEntry, capacity)}
}

// Append adds at the newest end, evicting the oldest entry when full.
func (b *Buffer) Append(e LogEntry) {
	if b.size < b.cap {
		b.buf[(b.start+b.size)%b.cap] = e
		b.size++
	} else {
		b.buf[b.start] = e
		b.start = (b.start + 1) % b.cap
		b.evicted++
	}
	b.total++
}

// Snapshot copies the retained entries in the requested display order.
func (b *Buffer) Snapshot(dir SortDirection) []LogEntry {
	out := make([]LogEntry, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.buf[(b.start+i)%b.cap]
	}
	if dir == RecentFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func (b *Buffer) Len() int        { return b.size }
func (b *Buffer) Cap() int        { return b.cap }
func (b *Buffer) Total() uint64   { return b.total }
func (b *Buffer) Evicted() uint64 { return b.evicted }

// Resize changes capacity, keeping the newest entries when shrinking.
func (b *Buffer) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity == b.cap {
		return
	}
	keep := b.size
	drop := 0
	if keep > capacity {
		drop = keep - capacity
		keep = capacity
	}
	nb := make([]LogEntry, capacity)
	for i := 0; i < keep; i++ {
		nb[i] = b.buf[(b.start+drop+i)%b.cap]
	}
	b.evicted += uint64(drop)
	b.buf = nb
	b.cap = capacity
	b.start = 0
	b.size = keep
}

func (b *Buffer) Clear() { // does not reset counters
	b.size = 0
	b.start = 0
}

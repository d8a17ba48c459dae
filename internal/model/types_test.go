package model

import (
	"strings"
	"testing"
	"time"
)

func entry(seq uint64, msg string) LogEntry {
	return LogEntry{Sequence: seq, Timestamp: time.Unix(int64(seq), 0), Level: LevelInfo, Source: DefaultSource, Type: DefaultType, Message: msg}
}

func TestBufferEvictsOldest(t *testing.T) {
	b := NewBuffer(3)
	for i := 1; i <= 4; i++ {
		b.Append(entry(uint64(i), "m"))
	}
	got := b.Snapshot(OldestFirst)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []uint64{2, 3, 4} {
		if got[i].Sequence != want {
			t.Fatalf("snapshot[%d].Sequence = %d, want %d", i, got[i].Sequence, want)
		}
	}
	if b.Total() != 4 || b.Evicted() != 1 {
		t.Fatalf("total=%d evicted=%d, want 4 and 1", b.Total(), b.Evicted())
	}
}

func TestBufferRetainsNewest(t *testing.T) {
	const capacity = 5
	b := NewBuffer(capacity)
	for i := 1; i <= 37; i++ {
		b.Append(entry(uint64(i), "m"))
	}
	got := b.Snapshot(OldestFirst)
	if len(got) != capacity {
		t.Fatalf("len = %d, want %d", len(got), capacity)
	}
	for i := 0; i < capacity; i++ {
		want := uint64(37 - capacity + 1 + i)
		if got[i].Sequence != want {
			t.Fatalf("snapshot[%d].Sequence = %d, want %d", i, got[i].Sequence, want)
		}
	}
}

func TestBufferSnapshotDirection(t *testing.T) {
	b := NewBuffer(4)
	for i := 1; i <= 3; i++ {
		b.Append(entry(uint64(i), "m"))
	}
	asc := b.Snapshot(OldestFirst)
	desc := b.Snapshot(RecentFirst)
	if len(asc) != 3 || len(desc) != 3 {
		t.Fatalf("lens = %d,%d, want 3,3", len(asc), len(desc))
	}
	for i := 0; i < 3; i++ {
		if asc[i].Sequence != desc[2-i].Sequence {
			t.Fatalf("direction mismatch at %d: %d vs %d", i, asc[i].Sequence, desc[2-i].Sequence)
		}
	}
	// Snapshot must not alias internal storage.
	asc[0].Message = "mutated"
	if b.Snapshot(OldestFirst)[0].Message != "m" {
		t.Fatalf("snapshot aliases buffer storage")
	}
}

func TestBufferResize(t *testing.T) {
	b := NewBuffer(5)
	for i := 1; i <= 5; i++ {
		b.Append(entry(uint64(i), "m"))
	}
	b.Resize(2)
	got := b.Snapshot(OldestFirst)
	if len(got) != 2 || got[0].Sequence != 4 || got[1].Sequence != 5 {
		t.Fatalf("after shrink: %+v", got)
	}
	b.Resize(4)
	b.Append(entry(6, "m"))
	got = b.Snapshot(OldestFirst)
	if len(got) != 3 || got[2].Sequence != 6 {
		t.Fatalf("after grow: %+v", got)
	}
}

func TestNormalizeLevel(t *testing.T) {
	cases := map[string]string{
		"debug":    LevelDebug,
		"TRACE":    LevelDebug,
		"info":     LevelInfo,
		"Warn":     LevelWarn,
		"WARNING":  LevelWarn,
		"error":    LevelError,
		"err":      LevelError,
		"FATAL":    LevelError,
		"critical": LevelError,
		"":         LevelInfo,
		"verbose":  LevelInfo,
	}
	for in, want := range cases {
		if got := NormalizeLevel(in); got != want {
			t.Fatalf("NormalizeLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSortDirection(t *testing.T) {
	if d, err := ParseSortDirection(" Recent-First "); err != nil || d != RecentFirst {
		t.Fatalf("got %v, %v", d, err)
	}
	if _, err := ParseSortDirection("sideways"); err == nil {
		t.Fatalf("expected error for bad direction")
	}
}

func TestHaystackAndFields(t *testing.T) {
	e := LogEntry{Sequence: 7, Timestamp: time.Unix(0, 0).UTC(), Level: LevelWarn, Source: "NET", Type: "SOCKET", Message: "Connection Reset", File: "conn.go", Details: map[string]any{"port": 443, "level": "shadowed"}}
	h := e.Haystack()
	for _, want := range []string{"warn", "socket", "connection reset", "conn.go"} {
		if !strings.Contains(h, want) {
			t.Fatalf("haystack %q missing %q", h, want)
		}
	}
	f := e.Fields()
	if f["level"] != LevelWarn {
		t.Fatalf("core field did not shadow detail key: %v", f["level"])
	}
	if f["port"] != 443 {
		t.Fatalf("detail key lost: %v", f["port"])
	}
}

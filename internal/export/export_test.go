package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"logview/internal/model"
)

func sampleEntries() []model.LogEntry {
	ts := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return []model.LogEntry{
		{Sequence: 1, Timestamp: ts, Level: "INFO", Source: "API", Type: "HTTP", Message: "request served", Details: map[string]any{"latency_ms": 12.5}},
		{Sequence: 2, Timestamp: ts.Add(time.Second), Level: "ERROR", Source: "DB", Type: "QUERY", Subtype: "SELECT", Message: "slow statement", File: "db.log"},
	}
}

func TestCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := ToCSV(path, sampleEntries()); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: %d", len(rows))
	}
	if rows[0][0] != "seq" || rows[0][6] != "message" {
		t.Fatalf("header: %v", rows[0])
	}
	if rows[1][2] != "INFO" || rows[2][5] != "SELECT" {
		t.Fatalf("cells: %v %v", rows[1], rows[2])
	}
	if rows[1][8] == "" {
		t.Fatalf("details cell empty")
	}
}

func TestCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := ToCSV(path, nil); err == nil {
		t.Fatalf("expected error for empty export")
	}
}

func TestNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	if err := ToNDJSON(path, sampleEntries()); err != nil {
		t.Fatalf("ToNDJSON: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	n := 0
	for sc.Scan() {
		var e model.LogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line %d: %v", n, err)
		}
		n++
	}
	if n != 2 {
		t.Fatalf("lines: %d", n)
	}
}

func TestNDJSONZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson.zst")
	if err := ToNDJSONZstd(path, sampleEntries()); err != nil {
		t.Fatalf("ToNDJSONZstd: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	zr, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer zr.Close()
	sc := bufio.NewScanner(zr)
	var got []model.LogEntry
	for sc.Scan() {
		var e model.LogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("entries: %d", len(got))
	}
	if got[1].Message != "slow statement" {
		t.Fatalf("message: %q", got[1].Message)
	}
}

func TestAutoDispatch(t *testing.T) {
	dir := t.TempDir()
	entries := sampleEntries()
	csvPath := filepath.Join(dir, "a.csv")
	if err := Auto(csvPath, entries); err != nil {
		t.Fatalf("auto csv: %v", err)
	}
	b, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b[:3]) != "seq" {
		t.Fatalf("csv dispatch wrote: %q", b[:10])
	}
	if err := Auto(filepath.Join(dir, "a.zst"), entries); err != nil {
		t.Fatalf("auto zst: %v", err)
	}
	if err := Auto(filepath.Join(dir, "a.ndjson"), entries); err != nil {
		t.Fatalf("auto ndjson: %v", err)
	}
}

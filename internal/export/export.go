package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"logview/internal/model"
)

// Columns of the CSV form, in order. Details are flattened into one JSON
// cell so the column set stays stable across exports.
var csvHeader = []string{"seq", "ts", "level", "source", "type", "subtype", "message", "file", "details"}

// Auto picks the format from the path extension: .csv, .zst (compressed
// NDJSON), anything else NDJSON.
func Auto(path string, entries []model.LogEntry) error {
	switch {
	case strings.HasSuffix(path, ".csv"):
		return ToCSV(path, entries)
	case strings.HasSuffix(path, ".zst"):
		return ToNDJSONZstd(path, entries)
	default:
		return ToNDJSON(path, entries)
	}
}

func ToCSV(path string, entries []model.LogEntry) error {
	if len(entries) == 0 {
		return errors.New("no entries")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		details := ""
		if len(e.Details) > 0 {
			b, _ := json.Marshal(e.Details)
			details = string(b)
		}
		row := []string{
			strconv.FormatUint(e.Sequence, 10),
			e.Timestamp.Format(time.RFC3339),
			e.Level,
			e.Source,
			e.Type,
			e.Subtype,
			e.Message,
			e.File,
			details,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func ToNDJSON(path string, entries []model.LogEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	defer bw.Flush()
	return writeNDJSON(bw, entries)
}

// ToNDJSONZstd writes zstd-compressed NDJSON, for large captures.
func ToNDJSONZstd(path string, entries []model.LogEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	zw, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if err := writeNDJSON(zw, entries); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func writeNDJSON(w io.Writer, entries []model.LogEntry) error {
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return nil
}

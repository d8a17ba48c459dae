// Package diag is the application's own diagnostics: a bounded in-memory
// ring the TUI can dump, an optional zap file sink, and a cursor API the
// host uses to mirror fresh lines into the engine under the reserved
// source. Nothing writes to stderr by default; the TUI owns the terminal.
package diag

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

// Record is one diagnostic line. Tag is the level name (INFO, WARN, ...).
type Record struct {
	When time.Time
	Tag  string
	Text string
}

var (
	mu       sync.Mutex
	level    = Info
	buf      = make([]Record, 0, 500)
	maxLines = 500
	total    int
	toStderr bool
	sink     *zap.SugaredLogger
)

func SetLevel(l Level) { mu.Lock(); level = l; mu.Unlock() }

// Setup reads LOGVIEW_LOG_LEVEL, LOGVIEW_LOG_STDERR and LOGVIEW_DIAG_FILE.
// The diag file, when set, receives every line through a zap sink.
func Setup() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOGVIEW_LOG_LEVEL"))) {
	case "debug":
		SetLevel(Debug)
	case "info":
		SetLevel(Info)
	case "warn", "warning":
		SetLevel(Warn)
	case "error":
		SetLevel(Error)
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("LOGVIEW_LOG_STDERR"))); v != "" {
		mu.Lock()
		toStderr = v != "0" && v != "false" && v != "no"
		mu.Unlock()
	}
	if path := strings.TrimSpace(os.Getenv("LOGVIEW_DIAG_FILE")); path != "" {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
		if lg, err := cfg.Build(); err == nil {
			mu.Lock()
			sink = lg.Sugar()
			mu.Unlock()
		}
	}
}

// Close flushes the file sink, if any.
func Close() {
	mu.Lock()
	s := sink
	mu.Unlock()
	if s != nil {
		_ = s.Sync()
	}
}

func Debugf(format string, a ...any) { logf(Debug, "DEBUG", format, a...) }
func Infof(format string, a ...any)  { logf(Info, "INFO", format, a...) }
func Warnf(format string, a ...any)  { logf(Warn, "WARN", format, a...) }
func Errorf(format string, a ...any) { logf(Error, "ERROR", format, a...) }

func logf(l Level, tag, format string, a ...any) {
	mu.Lock()
	if l < level {
		mu.Unlock()
		return
	}
	rec := Record{When: time.Now(), Tag: tag, Text: fmt.Sprintf(format, a...)}
	if len(buf) >= maxLines {
		copy(buf[0:], buf[1:])
		buf = buf[:len(buf)-1]
	}
	buf = append(buf, rec)
	total++
	stderr := toStderr
	s := sink
	mu.Unlock()

	if stderr {
		fmt.Fprintln(os.Stderr, renderRecord(rec))
	}
	if s != nil {
		switch l {
		case Debug:
			s.Debugf("%s", rec.Text)
		case Warn:
			s.Warnf("%s", rec.Text)
		case Error:
			s.Errorf("%s", rec.Text)
		default:
			s.Infof("%s", rec.Text)
		}
	}
}

func renderRecord(r Record) string {
	return fmt.Sprintf("%s %-5s %s", r.When.Format("2006-01-02T15:04:05.000Z07:00"), r.Tag, r.Text)
}

// Dump returns the retained lines as one formatted block.
func Dump() string {
	mu.Lock()
	defer mu.Unlock()
	lines := make([]string, len(buf))
	for i, r := range buf {
		lines[i] = renderRecord(r)
	}
	return strings.Join(lines, "\n")
}

// Since returns the records logged after cursor n, as far back as the
// ring still retains them, plus the new cursor. A zero cursor yields
// everything retained.
func Since(n int) ([]Record, int) {
	mu.Lock()
	defer mu.Unlock()
	missed := total - len(buf)
	start := n - missed
	if start < 0 {
		start = 0
	}
	if start >= len(buf) {
		return nil, total
	}
	out := make([]Record, len(buf)-start)
	copy(out, buf[start:])
	return out, total
}

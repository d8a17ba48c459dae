package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// Test-stream generator for the viewer. Emits the three formats the
// sniffer detects: json, logfmt and plain.
const (
	formatJSON   = "json"
	formatLogfmt = "logfmt"
	formatPlain  = "plain"
)

func main() {
	var (
		format      string
		rate        float64
		count       int
		outPath     string
		durationStr string
	)
	flag.StringVar(&format, "format", formatJSON, "Output format: json, logfmt or plain")
	flag.Float64Var(&rate, "rate", 20.0, "Messages per second")
	flag.IntVar(&count, "count", 0, "Stop after this many lines; 0 runs until interrupted")
	flag.StringVar(&outPath, "out", "", "Output file path; empty writes to stdout")
	flag.StringVar(&durationStr, "duration", "", "Optional run duration (e.g. 30s, 2m); empty runs until interrupted")
	flag.Parse()

	format = normalizeFormat(format)
	if !isSupported(format) {
		fmt.Fprintf(os.Stderr, "unsupported format: %s\n", format)
		os.Exit(2)
	}

	abort := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		close(abort)
	}()

	var deadline time.Time
	if durationStr != "" {
		d, err := time.ParseDuration(durationStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid duration: %v\n", err)
			os.Exit(2)
		}
		deadline = time.Now().Add(d)
	}

	shouldStop := func() bool {
		select {
		case <-abort:
			return true
		default:
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return true
		}
		return false
	}

	if outPath == "" {
		w := bufio.NewWriter(os.Stdout)
		defer w.Flush()
		runStream(w, format, rate, count, shouldStop)
		return
	}

	var wg sync.WaitGroup
	if err := runStreamToFile(&wg, format, outPath, rate, count, shouldStop); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "generating %s logs -> %s at %.2f msg/s\n", format, outPath, rate)
	wg.Wait()
}

func normalizeFormat(f string) string {
	f = strings.ToLower(strings.TrimSpace(f))
	switch f {
	case "ndjson", "jsonl", "json_lines":
		return formatJSON
	case "kv":
		return formatLogfmt
	case "text", "txt":
		return formatPlain
	default:
		return f
	}
}

func isSupported(f string) bool {
	switch f {
	case formatJSON, formatLogfmt, formatPlain:
		return true
	default:
		return false
	}
}

func runStreamToFile(wg *sync.WaitGroup, format, path string, rate float64, count int, shouldStop func() bool) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer w.Flush()
		defer f.Close()
		runStream(w, format, rate, count, shouldStop)
	}()
	return nil
}

func runStream(w *bufio.Writer, format string, rate float64, count int, shouldStop func() bool) {
	if rate <= 0 {
		rate = 1
	}
	interval := time.Duration(float64(time.Second) / rate)
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	render := renderer(format)
	sent := 0
	for {
		if shouldStop() {
			return
		}
		if count > 0 && sent >= count {
			return
		}
		<-ticker.C
		w.WriteString(render(nextEvent()))
		w.WriteByte('\n')
		_ = w.Flush()
		sent++
	}
}

type event struct {
	ts      time.Time
	level   string
	service string
	typ     string
	subtype string
	msg     string
	reqID   string
	latency float64
	code    int
}

func nextEvent() event {
	level := randomLevel()
	typ, sub, msg := randomActivity()
	if level == "error" {
		msg = randomError()
	}
	return event{
		ts:      time.Now().UTC(),
		level:   level,
		service: randomService(),
		typ:     typ,
		subtype: sub,
		msg:     msg,
		reqID:   uuid.NewString(),
		latency: randFloat(0.3, 900),
		code:    randomStatus(),
	}
}

func renderer(format string) func(event) string {
	switch format {
	case formatJSON:
		return renderJSONLine
	case formatLogfmt:
		return renderLogfmtLine
	default:
		return renderPlainLine
	}
}

func renderJSONLine(e event) string {
	m := map[string]any{
		"ts":         e.ts.Format(time.RFC3339Nano),
		"level":      e.level,
		"service":    e.service,
		"type":       e.typ,
		"subtype":    e.subtype,
		"msg":        e.msg,
		"request_id": e.reqID,
		"latency_ms": float64(int(e.latency*100)) / 100,
		"code":       e.code,
	}
	b, _ := json.Marshal(m)
	return string(b)
}

// action instead of subtype here, so the alias path gets exercised too
func renderLogfmtLine(e event) string {
	return fmt.Sprintf("ts=%s level=%s service=%s type=%s action=%s msg=%q request_id=%s latency_ms=%.2f code=%d",
		e.ts.Format(time.RFC3339), e.level, e.service, e.typ, e.subtype, e.msg, e.reqID, e.latency, e.code)
}

func renderPlainLine(e event) string {
	return fmt.Sprintf("[%s] %s %s: %s (%s)", e.ts.Format(time.RFC3339), strings.ToUpper(e.level), e.service, e.msg, e.reqID)
}

func randomLevel() string {
	// Weight towards info
	r := rand.Float64()
	switch {
	case r < 0.55:
		return "info"
	case r < 0.8:
		return "debug"
	case r < 0.95:
		return "warn"
	default:
		return "error"
	}
}

func randomActivity() (typ, subtype, msg string) {
	switch rand.Intn(4) {
	case 0:
		methods := []string{"GET", "POST", "PUT", "DELETE"}
		return "HTTP", methods[rand.Intn(len(methods))], "request completed"
	case 1:
		ops := []string{"SELECT", "INSERT", "UPDATE"}
		return "DB", ops[rand.Intn(len(ops))], "query executed"
	case 2:
		states := []string{"started", "finished", "retried"}
		s := states[rand.Intn(len(states))]
		return "JOB", s, "background job " + s
	default:
		acts := []string{"login", "logout", "refresh"}
		a := acts[rand.Intn(len(acts))]
		return "AUTH", a, "user " + a
	}
}

func randomError() string {
	msgs := []string{
		"connection reset by peer",
		"upstream timeout",
		"invalid credentials",
		"disk quota exceeded",
		"rate limit exceeded",
	}
	return msgs[rand.Intn(len(msgs))]
}

func randomService() string {
	svcs := []string{"api", "worker", "auth", "gateway", "billing"}
	return svcs[rand.Intn(len(svcs))]
}

func randomStatus() int {
	// Weighted statuses
	r := rand.Float64()
	switch {
	case r < 0.75:
		return 200
	case r < 0.85:
		return 201
	case r < 0.93:
		return 404
	case r < 0.98:
		return 500
	default:
		return 302
	}
}

func randFloat(min, max float64) float64 { return min + rand.Float64()*(max-min) }

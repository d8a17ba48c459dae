package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"logview/internal/config"
	"logview/internal/diag"
	"logview/internal/engine"
	"logview/internal/export"
	"logview/internal/ingest"
	"logview/internal/parse"
	"logview/internal/preset"
	"logview/internal/ui"
	"logview/internal/version"
)

func main() {
	diag.Setup()
	defer diag.Close()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	if cfg.ShowVersion {
		fmt.Println(version.String())
		return
	}

	// Cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.ExportPath != "" {
		if err := runExport(ctx, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "export error:", err)
			os.Exit(1)
		}
		return
	}

	path := cfg.PresetPath
	if path == "" {
		path = preset.DefaultPath()
	}
	store, err := preset.NewFileStore(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "presets error:", err)
		os.Exit(1)
	}

	diag.Infof("starting %s: %s", version.String(), cfg.String())
	if err := ui.Run(ctx, cfg, store); err != nil {
		diag.Errorf("exited with error: %v", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// runExport drains the input to EOF and writes the buffered entries out,
// no TUI involved. The rate limiter is bypassed; retention still caps how
// much survives, so -buffer controls the export window.
func runExport(ctx context.Context, cfg *config.Config) error {
	src := ingest.SourceFile
	if cfg.UseStdin {
		src = ingest.SourceStdin
	}
	block := int64(0)
	if cfg.TailMB > 0 {
		block = int64(cfg.TailMB) * 1024 * 1024
	}
	lines, errs := ingest.Read(ctx, ingest.Options{
		Source:         src,
		Path:           cfg.FilePath,
		BlockSizeBytes: block,
	})

	eng := engine.New(engine.Options{
		MaxEntries:   cfg.MaxEntries,
		MaxPerSecond: cfg.MaxPerSecond,
		BatchSize:    cfg.BatchSize,
		Direction:    cfg.Direction,
	})

	const sniffSample = 200
	var pending []ingest.Line
	var parser parse.Parser
	submit := func(l ingest.Line) {
		in := parser.Parse(l.Text, l.Origin)
		in.Force = true
		eng.Submit(in)
	}
	flush := func() {
		sample := make([]string, 0, len(pending))
		for _, l := range pending {
			sample = append(sample, l.Text)
		}
		parser = parse.Sniff(sample)
		for _, l := range pending {
			submit(l)
		}
		pending = nil
	}

	for lines != nil || errs != nil {
		select {
		case l, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if parser == nil {
				pending = append(pending, l)
				if len(pending) >= sniffSample {
					flush()
				}
				continue
			}
			submit(l)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			diag.Warnf("ingest: %v", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if parser == nil {
		if len(pending) == 0 {
			return fmt.Errorf("no input lines")
		}
		flush()
	}

	entries := eng.VisibleEntries(cfg.Direction)
	if err := export.Auto(cfg.ExportPath, entries); err != nil {
		return err
	}
	fmt.Printf("exported %d entries to %s (read %d, evicted %d)\n",
		len(entries), cfg.ExportPath, eng.Total(), eng.Evicted())
	return nil
}

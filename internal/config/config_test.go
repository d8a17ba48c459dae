package config

import (
	"os"
	"path/filepath"
	"testing"

	"logview/internal/model"
)

func TestDefaults(t *testing.T) {
	cfg, err := load(nil, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Demo {
		t.Fatalf("expected demo fallback with no input")
	}
	if cfg.MaxEntries != 2000 || cfg.MaxPerSecond != 50 || cfg.BatchSize != 50 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Direction != model.RecentFirst {
		t.Fatalf("direction = %s", cfg.Direction)
	}
	if cfg.OpenAIModel != "gpt-5-mini" || cfg.OpenAITimeoutSec != 120 {
		t.Fatalf("openai defaults: %s %d", cfg.OpenAIModel, cfg.OpenAITimeoutSec)
	}
}

func TestFlagsOverride(t *testing.T) {
	cfg, err := load([]string{"-f", "/tmp/app.log", "-follow", "-buffer", "5000", "-rate", "10", "-batch", "25", "-direction", "oldest-first"}, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FilePath != "/tmp/app.log" || !cfg.Follow {
		t.Fatalf("file flags not applied: %+v", cfg)
	}
	if cfg.MaxEntries != 5000 || cfg.MaxPerSecond != 10 || cfg.BatchSize != 25 {
		t.Fatalf("numeric flags not applied: %+v", cfg)
	}
	if cfg.Direction != model.OldestFirst {
		t.Fatalf("direction = %s", cfg.Direction)
	}
	if cfg.Demo || cfg.UseStdin {
		t.Fatalf("file input should not fall back: %+v", cfg)
	}
}

func TestStdinAutoDetect(t *testing.T) {
	cfg, err := load(nil, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.UseStdin || cfg.Demo {
		t.Fatalf("piped stdin should select stdin input: %+v", cfg)
	}
}

func TestExplicitStdin(t *testing.T) {
	cfg, err := load([]string{"-stdin"}, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.UseStdin {
		t.Fatalf("explicit -stdin ignored")
	}
}

func TestDemoWinsOverPipe(t *testing.T) {
	cfg, err := load([]string{"-demo"}, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Demo || cfg.UseStdin {
		t.Fatalf("explicit -demo should suppress stdin auto-detect: %+v", cfg)
	}
}

func TestDemoConflicts(t *testing.T) {
	if _, err := load([]string{"-demo", "-f", "x.log"}, false); err == nil {
		t.Fatalf("expected error for -demo with -f")
	}
	if _, err := load([]string{"-demo", "-stdin"}, false); err == nil {
		t.Fatalf("expected error for -demo with -stdin")
	}
}

func TestBadDirection(t *testing.T) {
	if _, err := load([]string{"-direction", "sideways"}, false); err == nil {
		t.Fatalf("expected error for bad direction")
	}
}

func TestBadTheme(t *testing.T) {
	if _, err := load([]string{"-theme", "solarized"}, false); err == nil {
		t.Fatalf("expected error for bad theme")
	}
}

func TestExportNeedsFiniteInput(t *testing.T) {
	if _, err := load([]string{"-export", "out.csv"}, false); err == nil {
		t.Fatalf("expected error for export with demo fallback")
	}
	if _, err := load([]string{"-export", "out.csv", "-f", "x.log", "-follow"}, false); err == nil {
		t.Fatalf("expected error for export with -follow")
	}
	cfg, err := load([]string{"-export", "out.csv", "-f", "x.log"}, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ExportPath != "out.csv" {
		t.Fatalf("export path not applied: %q", cfg.ExportPath)
	}
}

func TestBufferFloor(t *testing.T) {
	cfg, err := load([]string{"-buffer", "10"}, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxEntries != 100 {
		t.Fatalf("buffer floor not applied: %d", cfg.MaxEntries)
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "buffer: 4000\ndirection: oldest-first\nopenai:\n  model: local\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := load([]string{"-config", path}, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxEntries != 4000 {
		t.Fatalf("file buffer not applied: %d", cfg.MaxEntries)
	}
	if cfg.Direction != model.OldestFirst {
		t.Fatalf("file direction not applied: %s", cfg.Direction)
	}
	if cfg.OpenAIModel != "local" {
		t.Fatalf("file openai model not applied: %s", cfg.OpenAIModel)
	}

	// Flags still beat the file.
	cfg, err = load([]string{"-config", path, "-buffer", "9000"}, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxEntries != 9000 {
		t.Fatalf("flag should override file: %d", cfg.MaxEntries)
	}
}

func TestConfigFileMissing(t *testing.T) {
	if _, err := load([]string{"-config", filepath.Join(t.TempDir(), "nope.yaml")}, false); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("LOGVIEW_RATE", "7")
	t.Setenv("LOGVIEW_OPENAI_MODEL", "envmodel")

	cfg, err := load(nil, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxPerSecond != 7 {
		t.Fatalf("env rate not applied: %d", cfg.MaxPerSecond)
	}
	if cfg.OpenAIModel != "envmodel" {
		t.Fatalf("env openai model not applied: %s", cfg.OpenAIModel)
	}
}

func TestConfigPathFromArgs(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"-config", "a.yaml"}, "a.yaml"},
		{[]string{"--config", "b.yaml"}, "b.yaml"},
		{[]string{"-config=c.yaml"}, "c.yaml"},
		{[]string{"-f", "x.log"}, ""},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := configPathFromArgs(tc.args); got != tc.want {
			t.Fatalf("configPathFromArgs(%v) = %q, want %q", tc.args, got, tc.want)
		}
	}
}

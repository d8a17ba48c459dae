// Package config resolves flags, environment variables, and an optional
// config file into a single Config. Precedence is flags over environment
// over file over built-in defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"logview/internal/model"
)

type Config struct {
	FilePath string
	UseStdin bool
	Follow   bool
	Demo     bool
	TailMB   int

	MaxEntries   int
	MaxPerSecond int
	BatchSize    int
	Direction    model.SortDirection

	PresetPath string
	ConfigPath string
	ExportPath string
	Theme      string

	Offline          bool
	OpenAIModel      string
	OpenAIBase       string
	OpenAITimeoutSec int

	ShowVersion bool

	// Internal
	IsPipedStdin bool
}

func Load() (*Config, error) {
	fi, _ := os.Stdin.Stat()
	piped := (fi.Mode() & os.ModeCharDevice) == 0
	return load(os.Args[1:], piped)
}

func load(args []string, piped bool) (*Config, error) {
	v := viper.New()
	v.SetDefault("file", "")
	v.SetDefault("follow", false)
	v.SetDefault("stdin", false)
	v.SetDefault("demo", false)
	v.SetDefault("tail_mb", 0)
	v.SetDefault("buffer", 2000)
	v.SetDefault("rate", 50)
	v.SetDefault("batch", 50)
	v.SetDefault("direction", string(model.RecentFirst))
	v.SetDefault("presets", "")
	v.SetDefault("export", "")
	v.SetDefault("offline", false)
	v.SetDefault("theme", "dark")
	v.SetDefault("openai.model", "gpt-5-mini")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.timeout_sec", 120)

	v.SetEnvPrefix("LOGVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The -config value has to be known before flag parsing so the file
	// can seed the flag defaults.
	if path := configPathFromArgs(args); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{IsPipedStdin: piped}

	fs := flag.NewFlagSet("logview", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.FilePath, "f", v.GetString("file"), "path to log file")
	fs.BoolVar(&cfg.Follow, "follow", v.GetBool("follow"), "follow the file for new lines (tail -f)")
	fs.BoolVar(&cfg.UseStdin, "stdin", v.GetBool("stdin"), "read from stdin (default: auto if piped)")
	fs.BoolVar(&cfg.Demo, "demo", v.GetBool("demo"), "generate demo traffic instead of reading input")
	fs.IntVar(&cfg.TailMB, "tail-mb", v.GetInt("tail_mb"), "when reading a file without -follow, read only the last N MB (0=all)")
	fs.IntVar(&cfg.MaxEntries, "buffer", v.GetInt("buffer"), "entry buffer capacity (min 100)")
	fs.IntVar(&cfg.MaxPerSecond, "rate", v.GetInt("rate"), "per-key admission ceiling in lines per second")
	fs.IntVar(&cfg.BatchSize, "batch", v.GetInt("batch"), "render batch size per cycle")
	direction := v.GetString("direction")
	fs.StringVar(&direction, "direction", direction, "sort direction: recent-first|oldest-first")
	fs.StringVar(&cfg.PresetPath, "presets", v.GetString("presets"), "path to the preset store (default: user config dir)")
	fs.StringVar(&cfg.ConfigPath, "config", "", "path to a config file (yaml/json/toml)")
	fs.StringVar(&cfg.ExportPath, "export", v.GetString("export"), "export visible entries to path (.csv, .ndjson, .ndjson.zst) and exit")
	fs.StringVar(&cfg.Theme, "theme", v.GetString("theme"), "theme: dark|light")
	fs.BoolVar(&cfg.Offline, "offline", v.GetBool("offline"), "disable OpenAI and work offline only")
	fs.StringVar(&cfg.OpenAIModel, "openai-model", v.GetString("openai.model"), "OpenAI model override")
	fs.StringVar(&cfg.OpenAIBase, "openai-base-url", v.GetString("openai.base_url"), "OpenAI base URL override")
	fs.IntVar(&cfg.OpenAITimeoutSec, "openai-timeout-sec", v.GetInt("openai.timeout_sec"), "OpenAI request timeout in seconds")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	dir, err := model.ParseSortDirection(direction)
	if err != nil {
		return nil, err
	}
	cfg.Direction = dir

	if cfg.Theme != "dark" && cfg.Theme != "light" {
		return nil, fmt.Errorf("invalid theme %q: want dark or light", cfg.Theme)
	}

	if cfg.Demo && (cfg.FilePath != "" || cfg.UseStdin) {
		return nil, errors.New("-demo cannot be combined with -f or -stdin")
	}

	// Determine input source defaults
	if cfg.UseStdin || (piped && cfg.FilePath == "" && !cfg.Demo) {
		cfg.UseStdin = true
	}
	if !cfg.UseStdin && cfg.FilePath == "" {
		cfg.Demo = true
	}

	// Headless export drains the input to the end; endless sources cannot.
	if cfg.ExportPath != "" && (cfg.Follow || cfg.Demo) {
		return nil, errors.New("-export needs a finite input: a file without -follow, or piped stdin")
	}

	if cfg.MaxEntries < 100 {
		cfg.MaxEntries = 100
	}

	return cfg, nil
}

// configPathFromArgs scans the raw arguments for -config ahead of the
// real parse. Handles -config x, -config=x, and the double-dash forms.
func configPathFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		a := strings.TrimPrefix(strings.TrimPrefix(args[i], "-"), "-")
		if a == "config" {
			if i+1 < len(args) {
				return args[i+1]
			}
			return ""
		}
		if strings.HasPrefix(a, "config=") {
			return strings.TrimPrefix(a, "config=")
		}
	}
	return ""
}

func (c *Config) OpenAIKey() string { return os.Getenv("OPENAI_API_KEY") }

func (c *Config) String() string {
	return fmt.Sprintf("file=%s stdin=%v follow=%v demo=%v direction=%s offline=%v",
		c.FilePath, c.UseStdin, c.Follow, c.Demo, c.Direction, c.Offline)
}

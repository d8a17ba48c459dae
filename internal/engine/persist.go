package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"logview/internal/filter"
)

// KV is the injected persistence surface for the filter state snapshot and
// named presets. Implementations are pure I/O; the engine decides what the
// bytes mean.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Keys(prefix string) ([]string, error)
}

const (
	filterStateKey = "filter.state"
	presetPrefix   = "preset."
)

// SaveFilterState snapshots the current filter state.
func (e *Engine) SaveFilterState(kv KV) error {
	blob, err := json.Marshal(e.filters)
	if err != nil {
		return fmt.Errorf("encode filter state: %w", err)
	}
	if err := kv.Set(filterStateKey, blob); err != nil {
		return fmt.Errorf("store filter state: %w", err)
	}
	return nil
}

// LoadFilterState restores a previously saved snapshot; ok is false when
// none was stored.
func (e *Engine) LoadFilterState(kv KV) (bool, error) {
	blob, ok, err := kv.Get(filterStateKey)
	if err != nil {
		return false, fmt.Errorf("read filter state: %w", err)
	}
	if !ok {
		return false, nil
	}
	ns := filter.NewState()
	if err := json.Unmarshal(blob, ns); err != nil {
		return false, fmt.Errorf("decode filter state: %w", err)
	}
	e.filters = ns
	e.dirty = true
	return true, nil
}

// SavePreset stores the current filter state under a name.
func (e *Engine) SavePreset(kv KV, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("preset name must not be empty")
	}
	blob, err := json.Marshal(e.filters)
	if err != nil {
		return fmt.Errorf("encode preset %q: %w", name, err)
	}
	if err := kv.Set(presetPrefix+name, blob); err != nil {
		return fmt.Errorf("store preset %q: %w", name, err)
	}
	return nil
}

// ApplyPreset replaces the filter state with a stored preset.
func (e *Engine) ApplyPreset(kv KV, name string) error {
	name = strings.TrimSpace(name)
	blob, ok, err := kv.Get(presetPrefix + name)
	if err != nil {
		return fmt.Errorf("read preset %q: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("preset %q not found", name)
	}
	ns := filter.NewState()
	if err := json.Unmarshal(blob, ns); err != nil {
		return fmt.Errorf("decode preset %q: %w", name, err)
	}
	e.filters = ns
	e.dirty = true
	return nil
}

// Presets lists stored preset names, sorted.
func (e *Engine) Presets(kv KV) ([]string, error) {
	keys, err := kv.Keys(presetPrefix)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, presetPrefix))
	}
	sort.Strings(names)
	return names, nil
}

package engine

import (
	"strings"
	"testing"

	"logview/internal/model"
)

type memKV struct {
	m map[string][]byte
}

func newMemKV() *memKV { return &memKV{m: map[string][]byte{}} }

func (k *memKV) Get(key string) ([]byte, bool, error) {
	v, ok := k.m[key]
	return v, ok, nil
}

func (k *memKV) Set(key string, value []byte) error {
	k.m[key] = append([]byte(nil), value...)
	return nil
}

func (k *memKV) Keys(prefix string) ([]string, error) {
	out := []string{}
	for key := range k.m {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	return out, nil
}

func TestFilterStateRoundTrip(t *testing.T) {
	kv := newMemKV()
	e, _ := newTestEngine(Options{})
	if err := e.SetCategoryFilter("level", "exclude", []string{"DEBUG"}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	if err := e.SetKeyword("include", "timeout"); err != nil {
		t.Fatalf("keyword: %v", err)
	}
	if err := e.SaveFilterState(kv); err != nil {
		t.Fatalf("save: %v", err)
	}

	fresh, _ := newTestEngine(Options{})
	ok, err := fresh.LoadFilterState(kv)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	fresh.Submit(Input{Message: "noise", Level: "debug"})
	fresh.Submit(Input{Message: "timeout boom", Level: "info"})
	fresh.Submit(Input{Message: "plain", Level: "info"})
	got := fresh.VisibleEntries(model.OldestFirst)
	if len(got) != 1 || got[0].Message != "timeout boom" {
		t.Fatalf("restored state misbehaves: %+v", got)
	}
}

func TestLoadFilterStateMissing(t *testing.T) {
	e, _ := newTestEngine(Options{})
	ok, err := e.LoadFilterState(newMemKV())
	if err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
}

func TestPresets(t *testing.T) {
	kv := newMemKV()
	e, _ := newTestEngine(Options{})
	if err := e.SetCategoryFilter("level", "include", []string{"ERROR"}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	if err := e.SavePreset(kv, "errors-only"); err != nil {
		t.Fatalf("save preset: %v", err)
	}
	e.ClearAllFilters()
	if err := e.SavePreset(kv, "everything"); err != nil {
		t.Fatalf("save preset: %v", err)
	}

	names, err := e.Presets(kv)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "errors-only" || names[1] != "everything" {
		t.Fatalf("names = %v", names)
	}

	e.Submit(Input{Message: "boom", Level: "error"})
	e.Submit(Input{Message: "fine", Level: "info"})
	if err := e.ApplyPreset(kv, "errors-only"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got := e.VisibleEntries(model.OldestFirst)
	if len(got) != 1 || got[0].Level != model.LevelError {
		t.Fatalf("preset not applied: %+v", got)
	}

	if err := e.ApplyPreset(kv, "nope"); err == nil {
		t.Fatalf("missing preset should error")
	}
	if err := e.SavePreset(kv, "  "); err == nil {
		t.Fatalf("blank preset name should error")
	}
}

package engine

import (
	"strings"
	"testing"
	"time"

	"logview/internal/model"
	"logview/internal/render"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(opts Options) (*Engine, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	opts.Clock = clk.Now
	return New(opts), clk
}

type countSurface struct {
	appends  int
	rebuilds int
	evicts   int
	rows     int
}

func (s *countSurface) AppendAtEnd(entries []model.LogEntry, end render.End) {
	s.appends++
	s.rows += len(entries)
}

func (s *countSurface) RebuildAll(entries []model.LogEntry, dir model.SortDirection) {
	s.rebuilds++
	s.rows = len(entries)
}

func (s *countSurface) EvictFromEnd(count int, end render.End) {
	s.evicts++
	s.rows -= count
}

func drainBatches(e *Engine, sf render.Surface) {
	for e.RunNextBatch(sf) {
	}
}

func TestSubmitDefaults(t *testing.T) {
	e, _ := newTestEngine(Options{})
	e.Submit(Input{Message: "bare"})
	got := e.VisibleEntries(model.OldestFirst)
	if len(got) != 1 {
		t.Fatalf("visible = %d, want 1", len(got))
	}
	en := got[0]
	if en.Source != model.DefaultSource || en.Level != model.LevelInfo || en.Type != model.DefaultType {
		t.Fatalf("defaults not applied: %+v", en)
	}
	if en.Sequence != 1 {
		t.Fatalf("sequence = %d, want 1", en.Sequence)
	}
}

func TestSubmitNormalizes(t *testing.T) {
	e, _ := newTestEngine(Options{})
	e.Submit(Input{Message: "m", Level: "warning", Source: "net", Type: "socket", Subtype: "open"})
	en := e.VisibleEntries(model.OldestFirst)[0]
	if en.Level != model.LevelWarn {
		t.Fatalf("level = %q, want WARN", en.Level)
	}
	if en.Source != "NET" || en.Type != "SOCKET" || en.Subtype != "OPEN" {
		t.Fatalf("tags not upper-cased: %+v", en)
	}
}

func TestRateLimitSheddingIsSilent(t *testing.T) {
	e, _ := newTestEngine(Options{MaxPerSecond: 50})
	for i := 0; i < 60; i++ {
		e.Submit(Input{Message: "spam", Source: "X", Type: "Y"})
	}
	if got := len(e.VisibleEntries(model.OldestFirst)); got != 50 {
		t.Fatalf("visible = %d, want 50 admitted", got)
	}
	if e.Total() != 50 {
		t.Fatalf("total = %d, want 50; rejected entries must not be stored", e.Total())
	}
}

func TestForceBypassesRateLimit(t *testing.T) {
	e, _ := newTestEngine(Options{MaxPerSecond: 5})
	for i := 0; i < 20; i++ {
		e.Submit(Input{Message: "diag", Source: "X", Type: "Y", Force: true})
	}
	if got := len(e.VisibleEntries(model.OldestFirst)); got != 20 {
		t.Fatalf("visible = %d, want all 20 forced entries", got)
	}
}

func TestRateLimitWindowAdvances(t *testing.T) {
	e, clk := newTestEngine(Options{MaxPerSecond: 2})
	for i := 0; i < 5; i++ {
		e.Submit(Input{Message: "m", Source: "X", Type: "Y"})
	}
	clk.Advance(time.Second)
	for i := 0; i < 5; i++ {
		e.Submit(Input{Message: "m", Source: "X", Type: "Y"})
	}
	if got := len(e.VisibleEntries(model.OldestFirst)); got != 4 {
		t.Fatalf("visible = %d, want 2 per one-second window", got)
	}
}

func TestVisibleDirections(t *testing.T) {
	e, _ := newTestEngine(Options{})
	for _, msg := range []string{"first", "second", "third"} {
		e.Submit(Input{Message: msg})
	}
	asc := e.VisibleEntries(model.OldestFirst)
	desc := e.VisibleEntries(model.RecentFirst)
	if asc[0].Message != "first" || desc[0].Message != "third" {
		t.Fatalf("ordering wrong: asc[0]=%q desc[0]=%q", asc[0].Message, desc[0].Message)
	}
}

func TestFilterControlErrors(t *testing.T) {
	e, _ := newTestEngine(Options{})
	err := e.SetCategoryFilter("severity", "include", []string{"ERROR"})
	if err == nil || !strings.Contains(err.Error(), "severity") {
		t.Fatalf("want descriptive axis error, got %v", err)
	}
	if err := e.SetCategoryFilter("level", "drop", nil); err == nil {
		t.Fatalf("bad mode accepted")
	}
	if err := e.ToggleCategoryValue("direction", "X"); err == nil {
		t.Fatalf("bad toggle axis accepted")
	}
	if err := e.SetKeyword("maybe", "x"); err == nil {
		t.Fatalf("bad keyword mode accepted")
	}
}

func TestLevelExcludeEndToEnd(t *testing.T) {
	e, _ := newTestEngine(Options{})
	if err := e.SetCategoryFilter("level", "exclude", []string{"DEBUG"}); err != nil {
		t.Fatalf("set filter: %v", err)
	}
	e.Submit(Input{Message: "noise", Level: "debug"})
	e.Submit(Input{Message: "signal", Level: "info"})
	got := e.VisibleEntries(model.OldestFirst)
	if len(got) != 1 || got[0].Message != "signal" {
		t.Fatalf("visible = %+v, want only the INFO entry", got)
	}
}

func TestHideAllThenToggle(t *testing.T) {
	e, _ := newTestEngine(Options{})
	e.Submit(Input{Message: "a", Level: "error"})
	e.Submit(Input{Message: "b", Level: "info"})
	e.ActivateHideAll()
	if got := e.VisibleEntries(model.OldestFirst); len(got) != 0 {
		t.Fatalf("hide-all left %d visible", len(got))
	}
	if err := e.ToggleCategoryValue("level", "ERROR"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	got := e.VisibleEntries(model.OldestFirst)
	if len(got) != 1 || got[0].Level != model.LevelError {
		t.Fatalf("after toggle: %+v, want sole ERROR entry", got)
	}
}

func TestReservedSourceHiddenUntilSelected(t *testing.T) {
	e, _ := newTestEngine(Options{})
	e.Submit(Input{Message: "viewer ready", Source: model.ReservedSource, Force: true})
	e.Submit(Input{Message: "app event"})
	if got := e.VisibleEntries(model.OldestFirst); len(got) != 1 || got[0].Message != "app event" {
		t.Fatalf("reserved source should start hidden: %+v", got)
	}
	if err := e.ToggleCategoryValue("source", model.ReservedSource); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got := e.VisibleEntries(model.OldestFirst); len(got) != 1 || got[0].Source != model.ReservedSource {
		t.Fatalf("explicit selection should show only the reserved source: %+v", got)
	}
}

func TestSearchDebounce(t *testing.T) {
	e, clk := newTestEngine(Options{SearchQuiet: 300 * time.Millisecond})
	e.Submit(Input{Message: "alpha one"})
	e.Submit(Input{Message: "beta two"})
	e.SetSearchTerm("alpha")
	e.Tick()
	if got := len(e.VisibleEntries(model.OldestFirst)); got != 2 {
		t.Fatalf("search applied before quiet period: %d visible", got)
	}
	clk.Advance(300 * time.Millisecond)
	e.Tick()
	got := e.VisibleEntries(model.OldestFirst)
	if len(got) != 1 || got[0].Message != "alpha one" {
		t.Fatalf("debounced search not applied: %+v", got)
	}
}

func TestSearchCommitImmediate(t *testing.T) {
	e, _ := newTestEngine(Options{})
	e.Submit(Input{Message: "alpha"})
	e.Submit(Input{Message: "beta"})
	e.SetSearchTerm("beta")
	e.CommitSearch()
	got := e.VisibleEntries(model.OldestFirst)
	if len(got) != 1 || got[0].Message != "beta" {
		t.Fatalf("commit should apply immediately: %+v", got)
	}
	e.ClearSearch()
	if got := len(e.VisibleEntries(model.OldestFirst)); got != 2 {
		t.Fatalf("cleared search should show all: %d", got)
	}
}

func TestSearchAndFilterAreAnded(t *testing.T) {
	e, _ := newTestEngine(Options{})
	e.Submit(Input{Message: "timeout", Level: "error"})
	e.Submit(Input{Message: "timeout", Level: "info"})
	e.Submit(Input{Message: "refused", Level: "error"})
	if err := e.SetCategoryFilter("level", "include", []string{"ERROR"}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	e.SetSearchTerm("timeout")
	e.CommitSearch()
	got := e.VisibleEntries(model.OldestFirst)
	if len(got) != 1 || got[0].Message != "timeout" || got[0].Level != model.LevelError {
		t.Fatalf("AND of filter and search broken: %+v", got)
	}
}

func TestSyncPlansAndDrains(t *testing.T) {
	e, _ := newTestEngine(Options{BatchSize: 10})
	sf := &countSurface{}
	for i := 0; i < 25; i++ {
		e.Submit(Input{Message: "m", Force: true})
	}
	if k := e.Sync(); k != render.PlanAppend {
		t.Fatalf("first sync = %v, want append", k)
	}
	if e.PendingBatches() != 3 {
		t.Fatalf("pending = %d, want 3", e.PendingBatches())
	}
	drainBatches(e, sf)
	if sf.rows != 25 || sf.appends != 3 {
		t.Fatalf("surface rows=%d appends=%d", sf.rows, sf.appends)
	}
	if k := e.Sync(); k != render.PlanNone {
		t.Fatalf("steady sync = %v, want none", k)
	}
	if err := e.SetCategoryFilter("level", "include", []string{"ERROR"}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	if k := e.Sync(); k != render.PlanRebuild {
		t.Fatalf("after filter = %v, want rebuild", k)
	}
	drainBatches(e, sf)
	if sf.rows != 0 {
		t.Fatalf("rows = %d after filtering everything out", sf.rows)
	}
}

func TestDirectionChangeRebuilds(t *testing.T) {
	e, _ := newTestEngine(Options{})
	sf := &countSurface{}
	e.Submit(Input{Message: "m"})
	e.Sync()
	drainBatches(e, sf)
	e.SetDirection(model.RecentFirst)
	if k := e.Sync(); k != render.PlanRebuild {
		t.Fatalf("direction change sync = %v, want rebuild", k)
	}
}

func TestClearEntries(t *testing.T) {
	e, _ := newTestEngine(Options{})
	sf := &countSurface{}
	for i := 0; i < 5; i++ {
		e.Submit(Input{Message: "m"})
	}
	e.Sync()
	drainBatches(e, sf)
	e.ClearEntries()
	if k := e.Sync(); k == render.PlanNone {
		t.Fatalf("clear should schedule surface work")
	}
	drainBatches(e, sf)
	if sf.rows != 0 {
		t.Fatalf("rows = %d after clear", sf.rows)
	}
}

func TestSetMaxEntriesShrinks(t *testing.T) {
	e, _ := newTestEngine(Options{})
	for i := 0; i < 10; i++ {
		e.Submit(Input{Message: "m", Force: true})
	}
	e.SetMaxEntries(4)
	got := e.VisibleEntries(model.OldestFirst)
	if len(got) != 4 || got[0].Sequence != 7 {
		t.Fatalf("after shrink: %+v", got)
	}
}

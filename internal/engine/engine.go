// Package engine wires the stream components into a single object owning
// all mutable state: admission control at ingestion, the bounded entry
// buffer, filter and search visibility, and the render scheduler. There are
// no package-level globals; construct one Engine and hand it around.
//
// The engine is single-threaded cooperative. Nothing here locks; hosts with
// concurrent producers must serialize calls externally, e.g. by draining
// producer channels from one loop.
package engine

import (
	"strings"
	"time"

	"logview/internal/filter"
	"logview/internal/model"
	"logview/internal/ratelimit"
	"logview/internal/render"
	"logview/internal/search"
)

const DefaultMaxEntries = 2000

// Options configure a new engine; zero values pick the defaults.
type Options struct {
	MaxEntries   int // buffer capacity
	MaxPerSecond int // admission ceiling per source:type:level key
	BatchSize    int // scheduler batch size
	SearchQuiet  time.Duration
	Direction    model.SortDirection
	Clock        func() time.Time
}

type Engine struct {
	now     func() time.Time
	limiter *ratelimit.Limiter
	buf     *model.Buffer
	filters *filter.State
	matcher search.Matcher
	deb     *search.Debouncer
	sched   *render.Scheduler
	dir     model.SortDirection

	seq     uint64
	visible []model.LogEntry // oldest-first, filtered and searched
	dirty   bool
}

func New(opts Options) *Engine {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Direction == "" {
		opts.Direction = model.OldestFirst
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Engine{
		now:     now,
		limiter: ratelimit.NewWithClock(opts.MaxPerSecond, now),
		buf:     model.NewBuffer(opts.MaxEntries),
		filters: filter.NewState(),
		deb:     search.NewDebouncer(opts.SearchQuiet),
		sched:   render.NewScheduler(opts.BatchSize, opts.Direction),
		dir:     opts.Direction,
		dirty:   true,
	}
}

// Input is one submission. Missing fields are repaired by defaulting, so
// submission never fails.
type Input struct {
	Message string
	Source  string
	Level   string
	Type    string
	Subtype string
	File    string
	Details map[string]any
	Force   bool // bypass admission control (operator-triggered entries)
}

// Submit normalizes, rate-limits, and stores one entry. Rate-limited
// submissions are dropped silently; shedding load must not generate more
// traffic about the shedding.
func (e *Engine) Submit(in Input) {
	src := model.NormalizeTag(in.Source)
	if src == "" {
		src = model.DefaultSource
	}
	typ := model.NormalizeTag(in.Type)
	if typ == "" {
		typ = model.DefaultType
	}
	lvl := model.NormalizeLevel(in.Level)
	if !in.Force && !e.limiter.Admit(src, typ, lvl) {
		return
	}
	e.seq++
	e.buf.Append(model.LogEntry{
		Sequence:  e.seq,
		Timestamp: e.now(),
		Level:     lvl,
		Source:    src,
		Type:      typ,
		Subtype:   model.NormalizeTag(in.Subtype),
		Message:   in.Message,
		File:      in.File,
		Details:   in.Details,
	})
	e.dirty = true
}

// SetCategoryFilter replaces one include or exclude set. Unknown axis or
// mode names are an integration bug and fail fast.
func (e *Engine) SetCategoryFilter(axis, mode string, values []string) error {
	ax, err := filter.ParseAxis(axis)
	if err != nil {
		return err
	}
	md, err := filter.ParseMode(mode)
	if err != nil {
		return err
	}
	e.filters.SetCategory(ax, md, values)
	e.dirty = true
	return nil
}

// ToggleCategoryValue flips one value on an axis, clearing an active
// HIDE_ALL sentinel first.
func (e *Engine) ToggleCategoryValue(axis, value string) error {
	ax, err := filter.ParseAxis(axis)
	if err != nil {
		return err
	}
	e.filters.Toggle(ax, value)
	e.dirty = true
	return nil
}

func (e *Engine) SetKeyword(mode, phrase string) error {
	md, err := filter.ParseMode(mode)
	if err != nil {
		return err
	}
	e.filters.SetKeyword(md, phrase)
	e.dirty = true
	return nil
}

func (e *Engine) ActivateShowAll() {
	e.filters.ShowAll()
	e.dirty = true
}

func (e *Engine) ActivateHideAll() {
	e.filters.HideAll()
	e.dirty = true
}

func (e *Engine) ClearAllFilters() {
	e.filters.Clear()
	e.dirty = true
}

func (e *Engine) SetExpression(expr string) error {
	if err := e.filters.SetExpression(expr); err != nil {
		return err
	}
	e.dirty = true
	return nil
}

// Filters exposes the current state for display; mutate only through the
// engine so visibility is recomputed.
func (e *Engine) Filters() *filter.State { return e.filters }

// SetSearchTerm records a term; evaluation is debounced until the quiet
// period elapses or CommitSearch is called.
func (e *Engine) SetSearchTerm(term string) {
	e.deb.Set(term, e.now())
}

// CommitSearch applies a pending term immediately.
func (e *Engine) CommitSearch() {
	if term, ok := e.deb.Commit(); ok {
		e.applySearch(term)
	}
}

func (e *Engine) ClearSearch() {
	e.deb.Set("", e.now())
	e.CommitSearch()
}

func (e *Engine) SearchTerm() string { return e.matcher.Term() }

// Tick advances the debounce clock; hosts call it from their pump.
func (e *Engine) Tick() {
	if term, ok := e.deb.Poll(e.now()); ok {
		e.applySearch(term)
	}
}

func (e *Engine) applySearch(term string) {
	e.matcher = search.Compile(strings.TrimSpace(term))
	e.dirty = true
}

func (e *Engine) refreshVisible() {
	if !e.dirty {
		return
	}
	snap := e.buf.Snapshot(model.OldestFirst)
	vis := make([]model.LogEntry, 0, len(snap))
	for _, en := range snap {
		if e.filters.Matches(en) && e.matcher.Match(en) {
			vis = append(vis, en)
		}
	}
	e.visible = vis
	e.dirty = false
}

// VisibleEntries returns the filtered and searched sequence in the
// requested order. The copy is the caller's to keep.
func (e *Engine) VisibleEntries(dir model.SortDirection) []model.LogEntry {
	e.refreshVisible()
	out := make([]model.LogEntry, len(e.visible))
	copy(out, e.visible)
	if dir == model.RecentFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func (e *Engine) Direction() model.SortDirection { return e.dir }

// SetDirection changes the display order; the next Sync plans a rebuild.
func (e *Engine) SetDirection(dir model.SortDirection) { e.dir = dir }

// Sync recomputes visibility and queues surface work for the delta.
func (e *Engine) Sync() render.PlanKind {
	e.refreshVisible()
	return e.sched.Plan(e.visible, e.dir)
}

// RunNextBatch executes one queued batch against the surface and reports
// whether more work is pending.
func (e *Engine) RunNextBatch(sf render.Surface) bool { return e.sched.RunNext(sf) }

func (e *Engine) PendingBatches() int { return e.sched.Pending() }

// ClearEntries empties the buffer; the next Sync plans a rebuild that
// clears the surface.
func (e *Engine) ClearEntries() {
	e.buf.Clear()
	e.dirty = true
}

// SetMaxEntries resizes the buffer, keeping the newest entries.
func (e *Engine) SetMaxEntries(n int) {
	e.buf.Resize(n)
	e.dirty = true
}

func (e *Engine) Len() int        { return e.buf.Len() }
func (e *Engine) Cap() int        { return e.buf.Cap() }
func (e *Engine) Total() uint64   { return e.buf.Total() }
func (e *Engine) Evicted() uint64 { return e.buf.Evicted() }

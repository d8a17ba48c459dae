package render

import "logview/internal/model"

const DefaultBatchSize = 50

// Cursor tracks what a consumer last rendered. The scheduler updates it at
// plan time, so it reflects the state the surface reaches once the queued
// batches drain.
type Cursor struct {
	LastRenderedCount int
	LastSortDirection model.SortDirection
}

// PlanKind classifies the mutation plan chosen for one sync.
type PlanKind int

const (
	PlanNone PlanKind = iota
	PlanAppend
	PlanRebuild
)

func (k PlanKind) String() string {
	switch k {
	case PlanAppend:
		return "append"
	case PlanRebuild:
		return "rebuild"
	}
	return "none"
}

type stepKind int

const (
	stepAppend stepKind = iota
	stepRebuild
	stepEvict
)

// step is one queued unit of surface work; append and rebuild steps carry
// at most batchSize entries.
type step struct {
	kind    stepKind
	entries []model.LogEntry
	dir     model.SortDirection
	end     End
	count   int
}

// Scheduler diffs each visible sequence against the rendered window and
// queues bounded mutation steps. RunNext executes one step and returns;
// the host drains the queue cooperatively.
type Scheduler struct {
	batch    int
	cursor   Cursor
	rendered []uint64 // sequences handed to the surface, oldest first
	queue    []step
}

func NewScheduler(batchSize int, dir model.SortDirection) *Scheduler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Scheduler{batch: batchSize, cursor: Cursor{LastSortDirection: dir}}
}

func (s *Scheduler) Cursor() Cursor { return s.cursor }
func (s *Scheduler) Pending() int   { return len(s.queue) }

// Plan decides between append-only, full rebuild, and no-op for the new
// visible sequence (canonical oldest-first order) and queues the work.
// Direction change or a shrunken count forces a rebuild; a rendered window
// that survives as a prefix of the new sequence appends only the suffix,
// first evicting entries the buffer dropped; identical windows are no-ops.
func (s *Scheduler) Plan(visible []model.LogEntry, dir model.SortDirection) PlanKind {
	n := len(visible)
	if dir != s.cursor.LastSortDirection || n < s.cursor.LastRenderedCount {
		return s.planRebuild(visible, dir)
	}
	evict := 0
	if n > 0 {
		for evict < len(s.rendered) && s.rendered[evict] < visible[0].Sequence {
			evict++
		}
	}
	rest := s.rendered[evict:]
	for i, seq := range rest {
		if visible[i].Sequence != seq {
			return s.planRebuild(visible, dir)
		}
	}
	suffix := visible[len(rest):]
	if evict == 0 && len(suffix) == 0 {
		return PlanNone
	}
	if evict > 0 {
		s.queue = append(s.queue, step{kind: stepEvict, count: evict, end: oldestEnd(dir)})
	}
	for off := 0; off < len(suffix); off += s.batch {
		hi := off + s.batch
		if hi > len(suffix) {
			hi = len(suffix)
		}
		s.queue = append(s.queue, step{kind: stepAppend, entries: displayOrder(suffix[off:hi], dir), end: newestEnd(dir)})
	}
	s.remember(visible, dir)
	return PlanAppend
}

func (s *Scheduler) planRebuild(visible []model.LogEntry, dir model.SortDirection) PlanKind {
	s.queue = nil // obsolete increments; the rebuild repaints everything
	display := displayOrder(visible, dir)
	first := len(display)
	if first > s.batch {
		first = s.batch
	}
	s.queue = append(s.queue, step{kind: stepRebuild, entries: display[:first], dir: dir})
	for off := first; off < len(display); off += s.batch {
		hi := off + s.batch
		if hi > len(display) {
			hi = len(display)
		}
		s.queue = append(s.queue, step{kind: stepAppend, entries: display[off:hi], end: EndBack})
	}
	s.remember(visible, dir)
	return PlanRebuild
}

// RunNext executes one queued step against the surface and reports whether
// more work is pending. Calling with an empty queue is a no-op.
func (s *Scheduler) RunNext(sf Surface) bool {
	if len(s.queue) == 0 {
		return false
	}
	st := s.queue[0]
	s.queue = s.queue[1:]
	switch st.kind {
	case stepEvict:
		sf.EvictFromEnd(st.count, st.end)
	case stepRebuild:
		sf.RebuildAll(st.entries, st.dir)
	case stepAppend:
		sf.AppendAtEnd(st.entries, st.end)
	}
	return len(s.queue) > 0
}

func (s *Scheduler) remember(visible []model.LogEntry, dir model.SortDirection) {
	seqs := make([]uint64, len(visible))
	for i, e := range visible {
		seqs[i] = e.Sequence
	}
	s.rendered = seqs
	s.cursor.LastRenderedCount = len(visible)
	s.cursor.LastSortDirection = dir
}

// newestEnd is where fresh entries are inserted for the direction; the
// oldest end is the opposite one, where evictions leave.
func newestEnd(dir model.SortDirection) End {
	if dir == model.RecentFirst {
		return EndFront
	}
	return EndBack
}

func oldestEnd(dir model.SortDirection) End {
	if dir == model.RecentFirst {
		return EndBack
	}
	return EndFront
}

// displayOrder materializes a chunk for its direction; recent-first
// consumers see newest entries first.
func displayOrder(chunk []model.LogEntry, dir model.SortDirection) []model.LogEntry {
	out := make([]model.LogEntry, len(chunk))
	if dir == model.RecentFirst {
		for i, e := range chunk {
			out[len(chunk)-1-i] = e
		}
		return out
	}
	copy(out, chunk)
	return out
}

// Package render keeps an external render surface synchronized with the
// visible entry sequence. A scheduler diffs each new sequence against what
// the surface already shows and emits a minimal series of mutations in
// bounded batches, yielding between batches so a large backlog never blocks
// the host for an unbounded stretch.
package render

import "logview/internal/model"

// End names one end of the surface's rendered sequence.
type End int

const (
	EndFront End = iota
	EndBack
)

func (e End) String() string {
	if e == EndFront {
		return "front"
	}
	return "back"
}

// Surface is the collaborator mutations are pushed to. Entries arrive
// already in display order for the named end; the scheduler never touches
// presentation beyond these three operations.
type Surface interface {
	AppendAtEnd(entries []model.LogEntry, end End)
	RebuildAll(entries []model.LogEntry, dir model.SortDirection)
	EvictFromEnd(count int, end End)
}

// Package peek implements component E of spec.md, the pending-peek set and
// engine: holding peek requests until a trace's upper frontier passes the
// requested timestamp, then evaluating filter/order/limit over a cursor
// walk. spec.md calls this "the hardest subsystem" and budgets it the
// largest share of the worker core.
package peek

import (
	"sort"

	"github.com/coatyio/ivm-dataflow/worker/dataflowtypes"
	"github.com/coatyio/ivm-dataflow/worker/frontier"
	"github.com/coatyio/ivm-dataflow/worker/logging"
	"github.com/coatyio/ivm-dataflow/worker/trace"
)

// Pending is one enqueued peek: the trace arrangement it reads, the
// timestamp it snapshots at, the finishing instructions to apply, and the
// reply channel it owes exactly one PeekResponse.
type Pending struct {
	Name      string
	ConnID    int
	Trace     trace.Trace
	Timestamp dataflowtypes.Timestamp
	Finishing dataflowtypes.RowSetFinishing
	Tx        chan<- dataflowtypes.PeekResponse
}

// Set is the ordered queue of pending peeks described by spec.md's
// pending_peeks field. It retains insertion order; readiness is
// re-evaluated every call to Process, not per-event.
type Set struct {
	pending []*Pending
}

// NewSet returns an empty pending-peek queue.
func NewSet() *Set {
	return &Set{}
}

// Enqueue records a new pending peek. The caller is responsible for having
// already called AdvanceBy(timestamp) and DistinguishSince(empty) on the
// arrangement (spec.md §4.E "Enqueue") before constructing Pending; Enqueue
// itself only appends to the queue.
func (s *Set) Enqueue(p *Pending) {
	s.pending = append(s.pending, p)
}

// Cancel removes and acknowledges (with Canceled) every pending peek whose
// ConnID matches connID, returning the canceled entries themselves so the
// caller can self-log one Peek(..., completed=true) event per cancellation
// carrying that peek's own name, timestamp, and connection id.
func (s *Set) Cancel(connID int) []*Pending {
	// Open question (spec.md Design Notes) resolved as splice-unchanged-
	// then-append: entries that don't match are copied forward in place,
	// preserving their relative order, and the slice is truncated to the
	// new length. This avoids allocating a second slice for the common
	// case where nothing matches, and needs no defensive re-entrancy
	// handling since nothing here can push back into s.pending mid-loop.
	var canceled []*Pending
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.ConnID == connID {
			p.Tx <- dataflowtypes.PeekResponse{Canceled: true}
			canceled = append(canceled, p)
			continue
		}
		kept = append(kept, p)
	}
	s.pending = kept
	return canceled
}

// DropAll drops every pending peek without sending a reply, for use on
// worker shutdown: spec.md §8 scenario S6 permits peek replies to be
// dropped silently when the worker is torn down.
func (s *Set) DropAll() {
	s.pending = nil
}

// Len reports how many peeks are currently pending.
func (s *Set) Len() int {
	return len(s.pending)
}

// Process walks the pending queue once, retiring every peek whose trace
// upper has passed its timestamp (spec.md §4.E "Readiness") and sending its
// response. log receives one PeekEvent per retired peek
// (Peek(..., completed=true)); log may be nil to disable self-logging for
// this call, matching spec.md §7 ("self-log events are best-effort").
func (s *Set) Process(log func(logging.Event)) {
	if len(s.pending) == 0 {
		return
	}

	var upper frontier.Frontier
	kept := s.pending[:0]
	for _, p := range s.pending {
		p.Trace.ReadUpper(&upper)
		if !upper.Retired(p.Timestamp) {
			kept = append(kept, p)
			continue
		}

		rows := snapshot(p.Trace, p.Timestamp, p.Finishing)
		p.Tx <- dataflowtypes.PeekResponse{Rows: rows}
		if log != nil {
			log(logging.PeekEvent(p.Name, p.Timestamp, uint32(p.ConnID), false))
		}
	}
	s.pending = kept
}

// snapshot walks the trace's cursor, applying the filter and accumulating
// diffs at-or-before timestamp, then applies the finishing clause. It is
// the literal algorithm of spec.md §4.E "Snapshot evaluation" and
// "Finishing".
func snapshot(t trace.Trace, timestamp dataflowtypes.Timestamp, finishing dataflowtypes.RowSetFinishing) []dataflowtypes.Row {
	cursor, storage := t.Cursor()

	var results []dataflowtypes.Row
	var keyBuf, valBuf dataflowtypes.DatumBuffer

	for cursor.KeyValid(storage) {
		_ = keyBuf.Datums(cursor.Key(storage))
		for cursor.ValValid(storage) {
			row := cursor.Value(storage)
			datums := valBuf.Datums(row)

			pass := true
			for _, pred := range finishing.Filter {
				if !pred(datums) {
					pass = false
					break
				}
			}
			if pass {
				var copies dataflowtypes.Diff
				cursor.MapTimes(storage, func(t dataflowtypes.Timestamp, d dataflowtypes.Diff) {
					if t <= timestamp {
						copies += d
					}
				})
				if copies < 0 {
					panic("peek: negative finalized multiplicity for row")
				}
				for i := dataflowtypes.Diff(0); i < copies; i++ {
					results = append(results, row)
				}
			}

			cursor.StepVal(storage)
		}
		cursor.StepKey(storage)
	}

	return finish(results, finishing)
}

// finish applies a peek's limit/order-by clause. When a limit is present it
// partial-sorts via quickselect so the offset+limit smallest rows occupy
// the front of the slice, then truncates to length m = offset+limit —
// full stop. Applying offset itself is left to the coordinator, which
// merges every worker's top-m candidates before re-windowing globally
// (spec.md §4.E "Finishing" and "Ordering & determinism"); a worker only
// holds part of the overall rows, so slicing off its own first offset
// candidates here could silently drop rows the coordinator still needs.
// finish performs no ordering, and no truncation, if no limit was
// requested.
func finish(results []dataflowtypes.Row, finishing dataflowtypes.RowSetFinishing) []dataflowtypes.Row {
	if finishing.Limit == nil {
		return results
	}

	m := finishing.Offset + *finishing.Limit
	if m > len(results) {
		m = len(results)
	}
	if m <= 0 {
		return nil
	}

	partialSort(results, finishing.OrderBy, m)
	return results[:m]
}

// partialSort rearranges results so that the m smallest rows under order
// occupy positions 0..m, truncating nothing itself (the caller truncates).
// A quickselect moves the m smallest rows to the front, and those m rows
// are then sorted among themselves; rows past position m are left in no
// particular order, and no stability is required, matching spec.md's
// stated algorithm (an introspective quickselect). A bounded
// DatumBuffer pair backs every comparison so the comparator never
// allocates per call.
func partialSort(results []dataflowtypes.Row, order []dataflowtypes.ColumnOrder, m int) {
	if m >= len(results) {
		sortFull(results, order)
		return
	}

	var bufA, bufB dataflowtypes.DatumBuffer
	quickselect(results, order, 0, len(results)-1, m, &bufA, &bufB)
	sortFull(results[:m], order)
}

func sortFull(results []dataflowtypes.Row, order []dataflowtypes.ColumnOrder) {
	var bufA, bufB dataflowtypes.DatumBuffer
	sort.Slice(results, func(i, j int) bool {
		return dataflowtypes.CompareColumns(order, bufA.Datums(results[i]), bufB.Datums(results[j])) < 0
	})
}

// quickselect partitions results[lo:hi+1] in place (Hoare/Lomuto-style)
// until the element at index k is the one that would occupy that position
// in a full sort, with everything before it no greater and everything
// after it no smaller. It is not stable.
func quickselect(results []dataflowtypes.Row, order []dataflowtypes.ColumnOrder, lo, hi, k int, bufA, bufB *dataflowtypes.DatumBuffer) {
	for lo < hi {
		p := partition(results, order, lo, hi, bufA, bufB)
		switch {
		case p == k:
			return
		case k < p:
			hi = p - 1
		default:
			lo = p + 1
		}
	}
}

func partition(results []dataflowtypes.Row, order []dataflowtypes.ColumnOrder, lo, hi int, bufA, bufB *dataflowtypes.DatumBuffer) int {
	pivotIdx := lo + (hi-lo)/2
	pivot := bufA.Datums(results[pivotIdx])
	pivotCopy := append([]dataflowtypes.Datum(nil), pivot...)
	results[pivotIdx], results[hi] = results[hi], results[pivotIdx]

	store := lo
	for i := lo; i < hi; i++ {
		if dataflowtypes.CompareColumns(order, bufB.Datums(results[i]), pivotCopy) < 0 {
			results[i], results[store] = results[store], results[i]
			store++
		}
	}
	results[store], results[hi] = results[hi], results[store]
	return store
}

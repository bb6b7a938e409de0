// Package trace pins the contract of an arranged trace: an append-only,
// compactable, multi-reader index of (key, value, time, diff) as supplied
// by the underlying differential-dataflow engine. The engine's own
// implementation is an external collaborator (see spec.md §1); this
// package defines only the interface the worker depends on, plus a
// self-contained in-memory implementation used by tests and by the
// reference Renderer in package render, which stands in for the real
// engine-backed arrangement when no true engine is wired.
package trace

import (
	"github.com/coatyio/ivm-dataflow/worker/dataflowtypes"
	"github.com/coatyio/ivm-dataflow/worker/frontier"
)

// Storage is an opaque handle a Cursor needs to resolve keys and values. It
// exists only so Cursor methods can take it as an explicit parameter,
// mirroring the engine's own Cursor/Storage split, where a cursor is cheap
// to clone but storage access requires the shared backing arrangement.
type Storage interface{}

// Cursor is a stateful reader over one arrangement, enumerating keys,
// values within a key, and the (time, diff) pairs recorded for each
// (key, value) pair. Keys are visited in an arrangement-defined order;
// within a key, values are visited in an arrangement-defined order. Both
// orders are stable for the lifetime of one cursor.
type Cursor interface {
	// KeyValid reports whether the cursor is positioned at a valid key.
	KeyValid(s Storage) bool
	// Key returns the row the cursor is currently keyed by. Only valid
	// when KeyValid is true.
	Key(s Storage) dataflowtypes.Row
	// ValValid reports whether the cursor is positioned at a valid value
	// within the current key.
	ValValid(s Storage) bool
	// Value returns the row the cursor is currently positioned at within
	// the current key. Only valid when ValValid is true.
	Value(s Storage) dataflowtypes.Row
	// MapTimes invokes f once per (time, diff) pair recorded for the
	// current (key, value) pair.
	MapTimes(s Storage, f func(t dataflowtypes.Timestamp, d dataflowtypes.Diff))
	// StepVal advances to the next value within the current key.
	StepVal(s Storage)
	// StepKey advances to the next key, resetting value iteration.
	StepKey(s Storage)
}

// Trace is the read-side contract a peek or the feedback loop depends on.
// It is deliberately narrow: a worker never writes to a trace directly
// (writes flow through the engine via a local input's capability, or
// through whatever external source feeds a non-local input).
type Trace interface {
	// Cursor returns a fresh cursor over the current contents, positioned
	// at the first key and its first value (if any), plus the storage
	// handle it must be passed.
	Cursor() (Cursor, Storage)
	// ReadUpper writes the trace's current upper frontier into out: the
	// smallest times at which further changes may still appear. Callers
	// pass a frontier to be overwritten so repeated calls (once per loop
	// iteration, for every pending peek) don't allocate.
	ReadUpper(out *frontier.Frontier)
	// AdvanceBy declares that the reader will not distinguish times below
	// f, unlocking compaction up to the meet of all readers' declarations.
	AdvanceBy(f frontier.Frontier)
	// DistinguishSince declares that the reader still needs diffs exactly
	// as accumulated since f (an empty frontier means "since the
	// beginning": never collapse distinct times together).
	DistinguishSince(f frontier.Frontier)
}

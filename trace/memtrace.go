package trace

import (
	"sort"
	"sync"

	"github.com/coatyio/ivm-dataflow/worker/dataflowtypes"
	"github.com/coatyio/ivm-dataflow/worker/frontier"
)

// timeDiff is one (time, diff) pair recorded for a (key, value) pair.
type timeDiff struct {
	t dataflowtypes.Timestamp
	d dataflowtypes.Diff
}

// valEntry is one value recorded under a key, with its full diff history.
type valEntry struct {
	val   dataflowtypes.Row
	times []timeDiff
}

// MemTrace is a self-contained, in-memory stand-in for an engine-backed
// arrangement. It implements the full Trace contract (including
// compaction bookkeeping) so that the worker's command loop and peek
// engine can be exercised end to end without a real differential-dataflow
// engine, which spec.md §1 treats as an external collaborator.
//
// MemTrace is safe for concurrent use: writes (via Write/AdvanceUpper) come
// from whatever feeds the trace (a local input or a test harness), while
// reads (via the Trace interface) come from the worker's loop.
type MemTrace struct {
	mu               sync.Mutex
	keyed            bool // true if rows are indexed under themselves as key (identity view)
	byKey            map[dataflowtypes.Row][]*valEntry
	upper            frontier.Frontier
	advanceBy        frontier.Frontier
	distinguishSince frontier.Frontier
}

// NewMemTrace returns an empty trace whose upper starts at the given
// timestamp (the times at which the first updates may appear).
func NewMemTrace(initialUpper dataflowtypes.Timestamp) *MemTrace {
	return &MemTrace{
		byKey:            make(map[dataflowtypes.Row][]*valEntry),
		upper:            frontier.New(initialUpper),
		distinguishSince: frontier.Empty(),
	}
}

// Write records that row gains diff copies at time t. It keys every row
// under itself, modeling an "identity" arrangement: the simplest
// arrangement a view can have when its definition is exactly its source
// (the case exercised by the end-to-end scenarios in spec.md §8).
func (m *MemTrace) Write(row dataflowtypes.Row, t dataflowtypes.Timestamp, d dataflowtypes.Diff) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.byKey[row]
	for _, e := range entries {
		if e.val == row {
			e.times = append(e.times, timeDiff{t, d})
			return
		}
	}
	m.byKey[row] = append(entries, &valEntry{val: row, times: []timeDiff{{t, d}}})
}

// AdvanceUpper moves the trace's upper frontier forward. It is the
// in-memory substitute for the engine's own frontier tracking, driven by
// whatever advances a local input's capability (see package localinput).
func (m *MemTrace) AdvanceUpper(f frontier.Frontier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upper = f.Clone()
}

func (m *MemTrace) ReadUpper(out *frontier.Frontier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*out = m.upper.Clone()
}

func (m *MemTrace) AdvanceBy(f frontier.Frontier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advanceBy = frontier.Meet(m.advanceBy, f)
}

func (m *MemTrace) DistinguishSince(f frontier.Frontier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.distinguishSince = f.Clone()
}

// Compact drops (time, diff) history below the meet of every declared
// advance_by frontier, the in-memory analogue of the engine's compaction
// that package trace's Manager.Maintenance triggers once per loop
// iteration.
func (m *MemTrace) Compact() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.advanceBy) == 0 {
		return
	}
	for _, entries := range m.byKey {
		for _, e := range entries {
			var acc dataflowtypes.Diff
			var kept []timeDiff
			for _, td := range e.times {
				if m.advanceBy.LessEqual(td.t) {
					kept = append(kept, td)
				} else {
					acc += td.d
				}
			}
			if acc != 0 {
				kept = append([]timeDiff{{t: lowestElement(m.advanceBy), d: acc}}, kept...)
			}
			e.times = kept
		}
	}
}

func lowestElement(f frontier.Frontier) dataflowtypes.Timestamp {
	if len(f) == 0 {
		return 0
	}
	lowest := f[0]
	for _, e := range f[1:] {
		if e < lowest {
			lowest = e
		}
	}
	return lowest
}

func (m *MemTrace) Cursor() (Cursor, Storage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]dataflowtypes.Row, 0, len(m.byKey))
	entries := make(map[dataflowtypes.Row][]*valEntry, len(m.byKey))
	for k, v := range m.byKey {
		keys = append(keys, k)
		// Snapshot each value's time history so concurrent writes during
		// an in-flight cursor walk never change what the walk observes.
		copied := make([]*valEntry, len(v))
		for i, e := range v {
			timesCopy := make([]timeDiff, len(e.times))
			copy(timesCopy, e.times)
			copied[i] = &valEntry{val: e.val, times: timesCopy}
		}
		entries[k] = copied
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return &memCursor{keys: keys}, &memStorage{entries: entries}
}

type memStorage struct {
	entries map[dataflowtypes.Row][]*valEntry
}

type memCursor struct {
	keys   []dataflowtypes.Row
	keyPos int
	valPos int
}

func (c *memCursor) KeyValid(Storage) bool { return c.keyPos < len(c.keys) }

func (c *memCursor) Key(Storage) dataflowtypes.Row { return c.keys[c.keyPos] }

func (c *memCursor) ValValid(s Storage) bool {
	st := s.(*memStorage)
	if !c.KeyValid(s) {
		return false
	}
	return c.valPos < len(st.entries[c.keys[c.keyPos]])
}

func (c *memCursor) Value(s Storage) dataflowtypes.Row {
	st := s.(*memStorage)
	return st.entries[c.keys[c.keyPos]][c.valPos].val
}

func (c *memCursor) MapTimes(s Storage, f func(t dataflowtypes.Timestamp, d dataflowtypes.Diff)) {
	st := s.(*memStorage)
	entry := st.entries[c.keys[c.keyPos]][c.valPos]
	for _, td := range entry.times {
		f(td.t, td.d)
	}
}

func (c *memCursor) StepVal(Storage) { c.valPos++ }

func (c *memCursor) StepKey(Storage) {
	c.keyPos++
	c.valPos = 0
}

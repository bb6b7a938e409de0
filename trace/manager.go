package trace

import (
	"sync"

	"github.com/coatyio/ivm-dataflow/worker/frontier"
)

// Manager is the name -> arrangement(s) registry described in spec.md
// component B. It is modeled, like the teacher's registry.Registry and
// components.Tracker, as a mutex-protected map keyed by name; unlike the
// teacher's registry (which is populated once at construction with
// predefined computations), entries here come and go as CreateDataflows
// and DropViews commands are processed.
//
// A view can be arranged more than once, under different key prefixes
// (differential dataflow permits this so different operators can each
// index by the column they join on). Manager keeps every arrangement for
// a name but treats the first one as representative for both peek enqueue
// and feedback gathering, per spec.md Invariant 2 ("any arrangement
// suffices") and the original's get_all_keyed(...).next().unwrap()
// pattern.
type Manager struct {
	mu     sync.RWMutex
	traces map[string][]Trace
}

// NewManager returns an empty trace manager.
func NewManager() *Manager {
	return &Manager{traces: make(map[string][]Trace)}
}

// Install registers one arrangement under name. CreateDataflows may call
// this more than once per name if a view is arranged under multiple key
// prefixes.
func (m *Manager) Install(name string, t Trace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traces[name] = append(m.traces[name], t)
}

// Has reports whether any arrangement is registered under name. Used by
// CreateDataflows to fail fast on a duplicate view name (spec.md §4.A).
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.traces[name]
	return ok
}

// Representative returns the first arrangement registered under name, and
// whether one exists. This is the "any arrangement suffices" arrangement
// used to seed a pending peek and to report feedback.
func (m *Manager) Representative(name string) (Trace, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ts, ok := m.traces[name]
	if !ok || len(ts) == 0 {
		return nil, false
	}
	return ts[0], true
}

// Names returns every currently registered view name, in no particular
// order; callers that need determinism (feedback gathering) sort the
// result themselves.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.traces))
	for n := range m.traces {
		names = append(names, n)
	}
	return names
}

// Delete removes every arrangement registered under name and reports
// whether anything was actually removed (so callers can decide whether to
// self-log a Dataflow(..., created=false) event — a DropViews for an
// unknown name is a tolerated no-op per spec.md §7).
func (m *Manager) Delete(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.traces[name]; !ok {
		return false
	}
	delete(m.traces, name)
	return true
}

// DeleteAll removes every registered arrangement. Called once, on
// Shutdown.
func (m *Manager) DeleteAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traces = make(map[string][]Trace)
}

// AllowCompaction declares the given frontier as the compaction bound for
// every arrangement registered under name. Unknown names are tolerated
// no-ops, matching AllowCompaction's treatment of Drop* commands.
func (m *Manager) AllowCompaction(name string, f frontier.Frontier) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.traces[name] {
		t.AdvanceBy(f)
	}
}

// Maintenance lets every registered arrangement advance compaction. Called
// once per worker loop iteration, before the engine step.
func (m *Manager) Maintenance() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ts := range m.traces {
		for _, t := range ts {
			if c, ok := t.(interface{ Compact() }); ok {
				c.Compact()
			}
		}
	}
}

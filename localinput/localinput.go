// Package localinput implements the worker's registry of locally-fed
// sources: name -> (unordered input handle, current capability). It is
// component C of spec.md and follows the same mutex-protected
// map-by-name shape as the teacher's components.Tracker, with the
// capability itself modeled as a move-only handle per the Design Notes
// ("Capability objects ... Treat it as a move-only handle").
package localinput

import (
	"fmt"
	"sync"

	"github.com/coatyio/ivm-dataflow/worker/dataflowtypes"
)

// Handle accepts updates for a locally-fed source. In a real engine this
// is a timely UnorderedHandle; the worker depends only on Send.
type Handle interface {
	Send(row dataflowtypes.Row, t dataflowtypes.Timestamp, diff dataflowtypes.Diff)
}

// Capability is the write-authority token for one local input's logical
// time: holding it authorizes writes at times >= its current time, and
// downgrading it is the only mutator. It is a move-only handle in spirit —
// nothing in this package hands out a copy that could be downgraded
// independently of the one stored in the registry.
type Capability struct {
	mu   sync.Mutex
	time dataflowtypes.Timestamp

	// OnAdvance, if set, is invoked with the new time after every
	// successful Downgrade. It lets whatever arrangement backs this
	// input's downstream view learn that its upper frontier may advance,
	// without the capability needing to know anything about traces.
	OnAdvance func(to dataflowtypes.Timestamp)
}

// NewCapability returns a capability initially authorizing writes at t.
func NewCapability(t dataflowtypes.Timestamp) *Capability {
	return &Capability{time: t}
}

// Time returns the capability's current time.
func (c *Capability) Time() dataflowtypes.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time
}

// Downgrade moves the capability's time forward to `to`. Monotonicity is
// the caller's responsibility per spec.md §4.A, and this method enforces
// it: downgrading backward is a contract violation and panics, the same
// treatment spec.md §7 gives every other contract violation (duplicate
// view name, negative finalized multiplicity, insert below capability).
func (c *Capability) Downgrade(to dataflowtypes.Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if to < c.time {
		panic(fmt.Sprintf("capability downgrade is not monotonic: %d -> %d", c.time, to))
	}
	c.time = to
	if c.OnAdvance != nil {
		c.OnAdvance(to)
	}
}

// Input is one entry in the registry: a handle to push updates through,
// paired with the capability authorizing the times those updates may use.
type Input struct {
	Handle     Handle
	Capability *Capability
}

// Registry is the name -> Input map described by spec.md's local_inputs
// field.
type Registry struct {
	mu     sync.RWMutex
	inputs map[string]*Input
}

// NewRegistry returns an empty local-input registry.
func NewRegistry() *Registry {
	return &Registry{inputs: make(map[string]*Input)}
}

// Install registers a new local input under name. Called by dataflow
// construction (the Renderer) for every source of kind Local.
func (r *Registry) Install(name string, in *Input) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs[name] = in
}

// Delete removes the named local input, if any. A missing name is
// tolerated as a no-op per spec.md §7 ("race with DropSources is legal").
func (r *Registry) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inputs, name)
}

// Insert pushes every update through the named input's handle using its
// current capability, asserting that each update's time is >= the
// capability's current time (a contract violation otherwise, matching the
// original's `assert!(update.timestamp >= *input.capability.time())`). A
// missing name is tolerated as a no-op.
func (r *Registry) Insert(name string, updates []dataflowtypes.Update) {
	r.mu.RLock()
	in, ok := r.inputs[name]
	r.mu.RUnlock()
	if !ok {
		return
	}
	capTime := in.Capability.Time()
	for _, u := range updates {
		if u.At < capTime {
			panic(fmt.Sprintf("insert below capability for input %q: update at %d, capability at %d", name, u.At, capTime))
		}
		in.Handle.Send(u.Row, u.At, u.Diff)
	}
}

// AdvanceTime downgrades the named input's capability to `to`. A missing
// name is tolerated as a no-op.
func (r *Registry) AdvanceTime(name string, to dataflowtypes.Timestamp) {
	r.mu.RLock()
	in, ok := r.inputs[name]
	r.mu.RUnlock()
	if !ok {
		return
	}
	in.Capability.Downgrade(to)
}

// Get returns the named input, if any, for callers (tests, a Renderer)
// that need direct access.
func (r *Registry) Get(name string) (*Input, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.inputs[name]
	return in, ok
}

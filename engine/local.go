package engine

import (
	"sync"
	"time"
)

// localRegistry is a minimal, mutex-protected implementation of
// LogRegistry: a name -> LogHandler map with no dispatch logic of its own,
// since nothing in this reference engine ever emits engine/differential
// events (a real engine's scheduler and arrangement layer would call
// Dispatch as it runs). It exists so package logging's Install has a real
// LogRegistry to register against outside of tests that supply a fake.
type localRegistry struct {
	mu       sync.Mutex
	handlers map[string]LogHandler
}

func newLocalRegistry() *localRegistry {
	return &localRegistry{handlers: make(map[string]LogHandler)}
}

func (r *localRegistry) Insert(name string, handler LogHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

func (r *localRegistry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, name)
}

// Dispatch delivers batch to the named stream's handler, if still
// registered. A reference engine would call this from within its own
// scheduling loop; LocalEngine never does, since it has no scheduling of
// its own to report on.
func (r *localRegistry) Dispatch(name string, batch []any) {
	r.mu.Lock()
	h, ok := r.handlers[name]
	r.mu.Unlock()
	if ok {
		h(batch)
	}
}

// LocalEngine is a minimal, single-process stand-in for the real
// timely/differential-dataflow engine that spec.md §1 treats as an
// external collaborator. It has no operators and no scheduling of its own
// to perform: StepOrPark simply parks for up to timeout (or briefly, if
// timeout is zero) so a worker's run-loop can make progress driven
// entirely by command processing and local-input writes, which is
// sufficient to exercise every end-to-end scenario in spec.md §8. It is
// the cmd/worker analogue of package render's IdentityRenderer and package
// trace's MemTrace: a reference implementation for local smoke-testing,
// not a production scheduler.
type LocalEngine struct {
	index    int
	registry *localRegistry
}

// NewLocalEngine returns a LocalEngine reporting the given fleet index.
func NewLocalEngine(index int) *LocalEngine {
	return &LocalEngine{index: index, registry: newLocalRegistry()}
}

// StepOrPark parks for timeout, or briefly (10ms) if timeout is zero. A
// real engine parks indefinitely on zero, relying on the transport or
// local-input signalling to unpark it; this stand-in has no such external
// wake source, so it polls instead — acceptable because nothing here does
// real dataflow work that an indefinite park would otherwise avoid wasting
// CPU on.
func (e *LocalEngine) StepOrPark(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 10 * time.Millisecond
	}
	time.Sleep(timeout)
}

func (e *LocalEngine) Index() int { return e.index }

func (e *LocalEngine) LogRegister() LogRegistry { return e.registry }

// Package command defines the broadcast-replicated instruction set every
// worker observes in the same order: component A of spec.md. It is a
// closed sum type modeled, like the teacher repo's DDA API payloads, as one
// struct per variant implementing a shared marker interface, switched on by
// a type switch rather than by a discriminant field.
package command

import (
	"github.com/coatyio/ivm-dataflow/worker/dataflowtypes"
	"github.com/coatyio/ivm-dataflow/worker/feedback"
	"github.com/coatyio/ivm-dataflow/worker/frontier"
	"github.com/coatyio/ivm-dataflow/worker/logging"
)

// Command is the marker every variant implements. It carries no methods:
// the worker dispatches on concrete type via a type switch, matching the
// original's match over a Rust enum more closely than a tagged Go struct
// would.
type Command interface {
	isCommand()
}

// CreateDataflows instantiates each description. CreateDataflows fails fast
// (panics; see spec.md §7) if any declared view name is already present —
// the coordinator guaranteeing globally unique names is a contract this
// worker enforces rather than silently tolerates.
type CreateDataflows struct {
	Dataflows []dataflowtypes.DataflowDesc
}

// DropSources removes the named entries from local_inputs. Unknown names
// are tolerated no-ops.
type DropSources struct {
	Names []string
}

// DropViews removes the named entries from traces, emitting
// Dataflow(name, created=false) for each one actually removed. Unknown
// names are tolerated no-ops.
type DropViews struct {
	Names []string
}

// DropSinks removes the named entries from sink_tokens, relying on each
// token's Close to terminate the underlying sink. Unknown names are
// tolerated no-ops.
type DropSinks struct {
	Names []string
}

// Peek enqueues a pending peek request against the named trace. Tx is the
// one-shot reply channel: exactly one PeekResponse is ever sent on it.
// ConnID identifies the originating session so a later CancelPeek can
// target it.
type Peek struct {
	Name      string
	ConnID    int
	Tx        chan<- dataflowtypes.PeekResponse
	Timestamp dataflowtypes.Timestamp
	Finishing dataflowtypes.RowSetFinishing
}

// CancelPeek removes every pending peek whose ConnID matches, acknowledging
// each with Canceled.
type CancelPeek struct {
	ConnID int
}

// Insert pushes every update through the named local input using its
// current capability. Every update's At must be >= the capability's
// current time (asserted by localinput.Registry.Insert); a missing name is
// tolerated as a no-op.
type Insert struct {
	Name    string
	Updates []dataflowtypes.Update
}

// AdvanceTime downgrades the named local input's capability to To.
// Monotonicity is the caller's responsibility; a regression panics deep in
// localinput.Capability.Downgrade. A missing name is tolerated as a no-op.
type AdvanceTime struct {
	Name string
	To   dataflowtypes.Timestamp
}

// CompactionEntry is one (name, frontier) pair within an AllowCompaction
// command.
type CompactionEntry struct {
	Name     string
	Frontier frontier.Frontier
}

// AllowCompaction declares, for each entry, that every trace arrangement
// registered under that name may compact up through its frontier.
type AllowCompaction struct {
	Entries []CompactionEntry
}

// AppendLog is honored only by the worker whose engine index is 0; every
// other worker ignores it. This ensures each logical self-log event is
// produced exactly once across the fleet even though the command is
// broadcast to every worker.
type AppendLog struct {
	Event logging.Event
}

// EnableFeedback installs the feedback sink a worker reports frontier
// progress through. Only the first installation across a worker's lifetime
// is meaningful; later ones are rejected (first-installation-wins, see
// SPEC_FULL.md's resolution of the corresponding Open Question).
type EnableFeedback struct {
	Sink     feedback.Sink
	WorkerID int
}

// Shutdown deletes all traces, tears down logging, and causes the worker's
// run-loop to exit after this iteration's pending peeks (if any) have had
// a chance to be dropped.
type Shutdown struct{}

func (CreateDataflows) isCommand()  {}
func (DropSources) isCommand()      {}
func (DropViews) isCommand()        {}
func (DropSinks) isCommand()        {}
func (Peek) isCommand()             {}
func (CancelPeek) isCommand()       {}
func (Insert) isCommand()           {}
func (AdvanceTime) isCommand()      {}
func (AllowCompaction) isCommand()  {}
func (AppendLog) isCommand()        {}
func (EnableFeedback) isCommand()   {}
func (Shutdown) isCommand()         {}

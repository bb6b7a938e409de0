// Package logging implements the worker's self-logging bootstrap (spec.md
// component D): three event streams (engine, differential-arrangement,
// and the worker's own self events) are wired into small consumer
// dataflows that produce arranged traces, which are then published under
// their log names exactly like any other view.
package logging

import (
	"time"

	"github.com/coatyio/ivm-dataflow/worker/dataflowtypes"
)

// EngineEvent is a minimal stand-in for the underlying engine's own
// scheduling telemetry (operator activations, message counts). The real
// engine defines its own event shape; the worker only needs to be able to
// carry *some* such event through a link into a trace.
type EngineEvent struct {
	Operator string
	Elapsed  time.Duration
}

// DifferentialEvent is a minimal stand-in for the engine's
// arrangement-level telemetry (merge/compaction activity).
type DifferentialEvent struct {
	Trace   string
	Elapsed time.Duration
}

// EventKind tags the worker's own self-log events.
type EventKind int

const (
	EventDataflow EventKind = iota
	EventPeek
)

// Event is the worker's self-log sum type, the Go analogue of the
// original's MaterializedEvent enum. Constructed with DataflowEvent or
// PeekEvent rather than a struct literal, so the Kind tag and payload
// fields can never disagree.
type Event struct {
	Kind EventKind

	// Valid when Kind == EventDataflow.
	DataflowName    string
	DataflowCreated bool

	// Valid when Kind == EventPeek.
	PeekName      string
	PeekTimestamp dataflowtypes.Timestamp
	PeekConnID    uint32
	PeekStarted   bool
}

// DataflowEvent reports a view's creation (created=true) or removal
// (created=false).
func DataflowEvent(name string, created bool) Event {
	return Event{Kind: EventDataflow, DataflowName: name, DataflowCreated: created}
}

// PeekEvent reports a peek's enqueue (started=true) or retirement/
// cancellation (started=false).
func PeekEvent(name string, ts dataflowtypes.Timestamp, connID uint32, started bool) Event {
	return Event{
		Kind:          EventPeek,
		PeekName:      name,
		PeekTimestamp: ts,
		PeekConnID:    connID,
		PeekStarted:   started,
	}
}

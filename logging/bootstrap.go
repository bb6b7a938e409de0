package logging

import (
	"github.com/coatyio/ivm-dataflow/worker/dataflowtypes"
	"github.com/coatyio/ivm-dataflow/worker/engine"
	"github.com/coatyio/ivm-dataflow/worker/frontier"
	"github.com/coatyio/ivm-dataflow/worker/trace"
)

// Config captures whether self-logging is enabled. A nil *Config disables
// self-logging entirely, matching spec.md's logging_config field ("None
// disables self-logging").
type Config struct {
	// Names the three log streams are published under in the trace
	// manager, e.g. "logs.engine", "logs.differential", "logs.self".
	EngineLogName       string
	DifferentialLogName string
	SelfLogName         string
}

const (
	defaultEngineLogName       = "logs.engine"
	defaultDifferentialLogName = "logs.differential"
	defaultSelfLogName         = "logs.self"
)

// Logger is the handle a worker holds after Install succeeds: it lets the
// worker emit self-log events (the materialized_logger field of spec.md)
// and, on Shutdown, unregister all three loggers from the engine.
type Logger struct {
	self      *BatchLogger[Event]
	selfLink  *EventLink[Event]
	selfTrace *trace.MemTrace
	tick      dataflowtypes.Timestamp

	registry  engine.LogRegistry
	logNames  [3]string
	installed bool
}

// Log buffers one self-log event and immediately flushes and drains it
// into the self log stream's trace. A real engine's own logging hook would
// buffer across many calls before an engine-driven tick flushes them; this
// worker flushes on every call since self-log events originate from its
// own command handling, not from engine scheduling, and immediate
// visibility keeps peeks against the self log stream deterministic in
// tests. Self-log events are best-effort per spec.md §7: on a nil
// *Logger (logging disabled), Log is a silent no-op.
func (l *Logger) Log(event Event) {
	if l == nil {
		return
	}
	l.self.Log(event)
	l.self.Flush()
	for _, batch := range l.selfLink.Drain() {
		for _, e := range batch {
			l.selfTrace.Write(eventRow(e), l.tick, 1)
		}
	}
	l.tick++
	l.selfTrace.AdvanceUpper(frontier.New(l.tick))
}

// Shutdown unregisters all three loggers from the engine before the
// caller deletes their traces — spec.md §4.D requires this ordering so no
// post-shutdown event is emitted into a trace that's mid-teardown.
func (l *Logger) Shutdown() {
	if l == nil || !l.installed {
		return
	}
	for _, name := range l.logNames {
		l.registry.Remove(name)
	}
	l.installed = false
}

// Install wires up self-logging per spec.md component D and its Design
// Notes on initialization order. If cfg is nil, logging is disabled and
// Install returns a nil *Logger, which every method above treats as a
// no-op receiver.
//
// The three phases, in order, mirror the Design Notes exactly:
//  1. construct the three event links and batch loggers (one per
//     stream: engine, differential-arrangement, self);
//  2. build the consumer "dataflows" (here: translate each link's
//     batches into rows and publish a trace under the configured log
//     name) so something exists to receive events before any can be
//     emitted;
//  3. only then register the engine- and differential-driven drain
//     handlers on the engine's log registry, so the engine's own
//     emissions start flowing into those links.
// Reversing steps 2 and 3 would let the engine emit events with nothing
// yet consuming them, losing them (or, if the engine synchronously
// invoked a handler that reached back into still-being-built dataflow
// state, deadlock).
func Install(cfg *Config, reg engine.LogRegistry, traces *trace.Manager) *Logger {
	if cfg == nil {
		return nil
	}

	engineName := firstNonEmpty(cfg.EngineLogName, defaultEngineLogName)
	diffName := firstNonEmpty(cfg.DifferentialLogName, defaultDifferentialLogName)
	selfName := firstNonEmpty(cfg.SelfLogName, defaultSelfLogName)

	// Phase 1: construct links and batch loggers.
	engineLink := NewEventLink[EngineEvent]()
	diffLink := NewEventLink[DifferentialEvent]()
	selfLink := NewEventLink[Event]()
	engineLogger := NewBatchLogger(engineLink)
	diffLogger := NewBatchLogger(diffLink)
	selfLogger := NewBatchLogger(selfLink)

	// Phase 2: build consumer dataflows and publish their traces.
	engineTrace := trace.NewMemTrace(0)
	diffTrace := trace.NewMemTrace(0)
	selfTrace := trace.NewMemTrace(0)
	traces.Install(engineName, engineTrace)
	traces.Install(diffName, diffTrace)
	traces.Install(selfName, selfTrace)

	var engineTick, diffTick dataflowtypes.Timestamp

	// Phase 3: register handlers on the engine so its emissions start
	// flowing into the links just constructed.
	reg.Insert(engineName, func(batch []any) {
		for _, e := range batch {
			engineLogger.Log(e.(EngineEvent))
		}
		engineLogger.Flush()
		for _, b := range engineLink.Drain() {
			for _, e := range b {
				row := dataflowtypes.NewRow(dataflowtypes.String(e.Operator), dataflowtypes.Int64(int64(e.Elapsed)))
				engineTrace.Write(row, engineTick, 1)
			}
			engineTick++
			engineTrace.AdvanceUpper(frontier.New(engineTick))
		}
	})
	reg.Insert(diffName, func(batch []any) {
		for _, e := range batch {
			diffLogger.Log(e.(DifferentialEvent))
		}
		diffLogger.Flush()
		for _, b := range diffLink.Drain() {
			for _, e := range b {
				row := dataflowtypes.NewRow(dataflowtypes.String(e.Trace), dataflowtypes.Int64(int64(e.Elapsed)))
				diffTrace.Write(row, diffTick, 1)
			}
			diffTick++
			diffTrace.AdvanceUpper(frontier.New(diffTick))
		}
	})
	// The self stream has no engine-driven handler: Logger.Log drives its
	// link and trace directly, since self-log events originate from this
	// worker's own command handling rather than from engine scheduling.
	// It is still registered so Shutdown has a name to unregister, mirroring
	// the original registering "materialized" on the same generic registry
	// used by the engine- and differential-driven streams.
	reg.Insert(selfName, func([]any) {})

	return &Logger{
		self:      selfLogger,
		selfLink:  selfLink,
		selfTrace: selfTrace,
		registry:  reg,
		logNames:  [3]string{engineName, diffName, selfName},
		installed: true,
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func eventRow(e Event) dataflowtypes.Row {
	switch e.Kind {
	case EventDataflow:
		return dataflowtypes.NewRow(
			dataflowtypes.String("dataflow"),
			dataflowtypes.String(e.DataflowName),
			dataflowtypes.Bool(e.DataflowCreated),
		)
	case EventPeek:
		return dataflowtypes.NewRow(
			dataflowtypes.String("peek"),
			dataflowtypes.String(e.PeekName),
			dataflowtypes.Int64(int64(e.PeekTimestamp)),
			dataflowtypes.Int64(int64(e.PeekConnID)),
			dataflowtypes.Bool(e.PeekStarted),
		)
	default:
		return dataflowtypes.NewRow(dataflowtypes.String("unknown"))
	}
}

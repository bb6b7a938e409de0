package render

import (
	"fmt"

	"github.com/coatyio/ivm-dataflow/worker/dataflowtypes"
	"github.com/coatyio/ivm-dataflow/worker/frontier"
	"github.com/coatyio/ivm-dataflow/worker/localinput"
	"github.com/coatyio/ivm-dataflow/worker/sinktoken"
	"github.com/coatyio/ivm-dataflow/worker/trace"
)

// IdentityRenderer is a minimal, self-contained Renderer used by tests and
// by cmd/worker when no real engine is wired. It only understands the
// narrow dataflow shape spec.md's end-to-end scenarios exercise: a view
// whose Definition is the string name of a Local source, meaning "this
// view's arrangement is exactly that source's contents". Source rendering
// of any richer SQL plan is out of scope (see package render's doc
// comment) and belongs to a production Renderer, not this reference one.
type IdentityRenderer struct {
	// InitialUpper is the upper frontier every newly created local
	// source's backing trace starts at.
	InitialUpper dataflowtypes.Timestamp
}

// noopToken is the sink drop-guard used for every sink this renderer
// builds: sinks aren't exercised by the identity scenarios, so closing one
// is a no-op rather than nothing, so that SinkTokens.Delete still has a
// token to call Close on.
type noopToken struct{}

func (noopToken) Close() {}

func (r IdentityRenderer) BuildDataflow(
	desc dataflowtypes.DataflowDesc,
	traces *trace.Manager,
	localInputs *localinput.Registry,
	sinkTokens *sinktoken.Registry,
) error {
	sourceTraces := make(map[string]*trace.MemTrace, len(desc.Sources))

	for _, src := range desc.Sources {
		if src.Kind != dataflowtypes.SourceLocal {
			continue
		}
		t := trace.NewMemTrace(r.InitialUpper)
		sourceTraces[src.Name] = t
		cap := localinput.NewCapability(r.InitialUpper)
		cap.OnAdvance = func(to dataflowtypes.Timestamp) {
			t.AdvanceUpper(frontier.New(to))
		}
		localInputs.Install(src.Name, &localinput.Input{
			Handle:     &memTraceHandle{trace: t},
			Capability: cap,
		})
	}

	for _, view := range desc.Views {
		sourceName, ok := view.Definition.(string)
		if !ok {
			return fmt.Errorf("render: view %q: IdentityRenderer only supports a source-name definition, got %T", view.Name, view.Definition)
		}
		t, ok := sourceTraces[sourceName]
		if !ok {
			return fmt.Errorf("render: view %q: no local source named %q", view.Name, sourceName)
		}
		traces.Install(view.Name, t)
	}

	for _, sink := range desc.Sinks {
		sinkTokens.Install(sink.Name, noopToken{})
	}

	return nil
}

// memTraceHandle adapts a *trace.MemTrace to localinput.Handle: sending an
// update writes it into the trace, modeling what the real engine's
// arrangement operator does as it ingests from an unordered input. Send
// does not move the trace's upper; that happens only when the source's
// capability is downgraded (see the OnAdvance hook in BuildDataflow).
type memTraceHandle struct {
	trace *trace.MemTrace
}

func (h *memTraceHandle) Send(row dataflowtypes.Row, t dataflowtypes.Timestamp, diff dataflowtypes.Diff) {
	h.trace.Write(row, t, diff)
}

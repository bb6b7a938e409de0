// Package render pins the contract of dataflow construction: turning a
// DataflowDesc into running operators that populate a worker's traces,
// local inputs, and sink tokens. spec.md §1 lists "dataflow construction
// from a DataflowDesc (source/view/sink rendering)" as an external
// collaborator whose contract is pinned but whose implementation belongs
// to the SQL planner / operator-rendering layer, not to this worker core.
package render

import (
	"github.com/coatyio/ivm-dataflow/worker/dataflowtypes"
	"github.com/coatyio/ivm-dataflow/worker/localinput"
	"github.com/coatyio/ivm-dataflow/worker/sinktoken"
	"github.com/coatyio/ivm-dataflow/worker/trace"
)

// Renderer builds the operators for one DataflowDesc, installing every
// resulting arrangement into traces, every local source into localInputs,
// and every sink's drop-guard into sinkTokens. Implementations own
// whatever connection to the real engine is needed to actually build
// operators; the worker only ever calls this method.
type Renderer interface {
	BuildDataflow(
		desc dataflowtypes.DataflowDesc,
		traces *trace.Manager,
		localInputs *localinput.Registry,
		sinkTokens *sinktoken.Registry,
	) error
}

package dataflowtypes

// Timestamp is the engine-supplied logical time. It is totally ordered in
// this implementation (the original allows a partial order; a worker never
// relies on totality beyond comparing two timestamps with <=, so a partial
// order type could be substituted without touching worker/peek/trace code).
type Timestamp uint64

// Diff is the signed multiplicity of a row at a time. Negative values are
// legal as an intermediate state; only a *finalized* accumulation (the sum
// over all times <= some peek timestamp) must be non-negative.
type Diff int64

// Update is a single change fed into a local input: a row gaining or losing
// `Diff` copies as of time `At`.
type Update struct {
	Row  Row
	At   Timestamp
	Diff Diff
}

// SourceKind distinguishes how a source is fed. Only Local sources populate
// the worker's local-input registry; any other kind is rendered and fed by
// the (out-of-scope) dataflow construction layer from some external feed.
type SourceKind int

const (
	SourceLocal SourceKind = iota
	SourceExternal
)

// Source describes one input to a dataflow.
type Source struct {
	Name string
	Kind SourceKind
}

// View describes one materialized, named collection a dataflow maintains.
// Definition is opaque to the worker: it is interpreted only by the
// Renderer that builds the dataflow, never by command/peek/worker code.
type View struct {
	Name       string
	Definition any
}

// Sink describes one output a dataflow writes to. Definition is opaque to
// the worker for the same reason as View.Definition.
type Sink struct {
	Name       string
	Definition any
}

// DataflowDesc is the declarative description broadcast by the coordinator
// for CreateDataflows. Names are unique within the engine across all
// concurrently running dataflows.
type DataflowDesc struct {
	Sources []Source
	Views   []View
	Sinks   []Sink
}

// Predicate is a single filter condition evaluated against a decoded row.
// It is a function rather than an expression tree because the worker never
// inspects a predicate's structure, only its result, matching the "opaque
// expression, pinned contract" treatment of dataflow construction: the SQL
// planner compiles predicates into these closures before ever handing a
// DataflowDesc (and, transitively, a peek Finishing) to a worker.
type Predicate func(datums []Datum) bool

// ColumnOrder specifies one column to sort by and its direction, as used by
// a peek's finishing clause.
type ColumnOrder struct {
	Column int
	Desc   bool
}

// RowSetFinishing bundles the post-processing the coordinator asked a peek
// to apply before replying: an optional filter, an ordering key used only
// when Limit is set, and an optional limit/offset pair.
type RowSetFinishing struct {
	Filter  []Predicate
	OrderBy []ColumnOrder
	Limit   *int
	Offset  int
}

// CompareColumns orders two decoded rows by the given column order list,
// returning -1, 0, or 1. It is used as the less-than oracle by the partial
// sort in package peek and mirrors the original's compare_columns helper in
// dataflow_types.
func CompareColumns(order []ColumnOrder, left, right []Datum) int {
	for _, col := range order {
		c := left[col.Column].Compare(right[col.Column])
		if col.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// PeekResponse is the single reply delivered on a peek's reply channel.
// Exactly one of these is sent per peek, per spec Invariant 5: Rows on
// normal completion, Canceled on CancelPeek, or Error for a reserved
// failure path an implementation may choose to use instead of treating a
// send failure as fatal.
type PeekResponse struct {
	Rows     []Row
	Canceled bool
	Err      error
}

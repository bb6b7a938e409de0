// Package frontier implements antichains of timestamps: the progress
// oracle that tells a peek whether its snapshot timestamp has finalized.
package frontier

import "github.com/coatyio/ivm-dataflow/worker/dataflowtypes"

// Frontier is an antichain of timestamps: a minimal set such that a time t
// is "still possible" iff some element of the frontier is <= t. In this
// implementation Timestamp is totally ordered, so a minimal antichain never
// has more than one element, but the type keeps the slice shape the
// broadcast wire format (and the original's Vec<Timestamp>) uses.
type Frontier []dataflowtypes.Timestamp

// New returns the frontier consisting of exactly the given timestamp. It is
// the frontier a fresh local input capability or a single-timestamp peek
// enqueue uses.
func New(t dataflowtypes.Timestamp) Frontier {
	return Frontier{t}
}

// Empty is the frontier with no elements: the antichain that dominates
// every timestamp, used by distinguish_since(&[]) to mean "never compact
// away distinctions".
func Empty() Frontier {
	return Frontier{}
}

// LessEqual reports whether some element of f is <= t, i.e. whether t is
// still a possible future time according to this frontier.
func (f Frontier) LessEqual(t dataflowtypes.Timestamp) bool {
	for _, e := range f {
		if e <= t {
			return true
		}
	}
	return false
}

// Retired reports whether this frontier (read as a trace's upper) has
// passed t: no element of f is <= t, so no further update at or before t
// can occur and a peek at t is safe to retire. This is the direct
// complement of LessEqual and is spelled out separately because it is the
// literal readiness predicate from spec.md §4.E.
func (f Frontier) Retired(t dataflowtypes.Timestamp) bool {
	return !f.LessEqual(t)
}

// Clone returns an independent copy, since Frontier is a slice and callers
// (notably Trace.ReadUpper implementations) write into a caller-supplied
// frontier to avoid allocating afresh on every call.
func (f Frontier) Clone() Frontier {
	out := make(Frontier, len(f))
	copy(out, f)
	return out
}

// Meet computes the elementwise-min antichain of f and other: the frontier
// below both, used by coordinators (and by tests asserting Invariant 5) to
// combine per-worker feedback into a single fleet-wide progress frontier.
// Since Timestamp is totally ordered here, this reduces to the minimum of
// the two single elements, but is written generically over antichains of
// any size so it keeps working if Timestamp grows a true partial order.
func Meet(f, other Frontier) Frontier {
	if len(f) == 0 {
		return other.Clone()
	}
	if len(other) == 0 {
		return f.Clone()
	}
	candidates := make(Frontier, 0, len(f)+len(other))
	candidates = append(candidates, f...)
	candidates = append(candidates, other...)
	return minimalAntichain(candidates)
}

// minimalAntichain removes every element dominated by another (keeps only
// elements with no other element strictly less than or equal to them,
// excluding themselves), producing the minimal antichain describing the
// same "still possible" set as the input.
func minimalAntichain(elems Frontier) Frontier {
	out := make(Frontier, 0, len(elems))
	for i, e := range elems {
		dominated := false
		for j, o := range elems {
			if i == j {
				continue
			}
			if o < e || (o == e && j < i) {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, e)
		}
	}
	return dedupe(out)
}

func dedupe(f Frontier) Frontier {
	seen := make(map[dataflowtypes.Timestamp]struct{}, len(f))
	out := make(Frontier, 0, len(f))
	for _, e := range f {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// NonRetreating reports whether next is monotonically non-retreating with
// respect to prev: every element of prev is dominated by (<=) some element
// of next. Feedback reports and trace uppers must only ever advance.
func NonRetreating(prev, next Frontier) bool {
	for _, p := range prev {
		advanced := false
		for _, n := range next {
			if p <= n {
				advanced = true
				break
			}
		}
		if !advanced {
			return false
		}
	}
	return true
}

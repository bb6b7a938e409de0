// Package feedback implements the worker-to-coordinator reporting surface:
// component G of spec.md. A worker's run-loop gathers per-view upper
// frontiers once per iteration and sends them, tagged with its own worker
// index, to whatever sink EnableFeedback installed.
package feedback

import (
	"sync"

	"github.com/coatyio/ivm-dataflow/worker/frontier"
)

// NameFrontier pairs a trace name with its current upper frontier, the
// element type of a FrontierUppers message.
type NameFrontier struct {
	Name     string
	Frontier frontier.Frontier
}

// Message is the one kind of payload a worker ever sends: the upper
// frontier of every registered trace name, gathered within a single loop
// iteration per spec.md Invariant 4.
type Message struct {
	Uppers []NameFrontier
}

// WithMeta wraps a Message with the sending worker's index, matching the
// wire shape spec.md §6 names WorkerFeedbackWithMeta.
type WithMeta struct {
	WorkerID int
	Message  Message
}

// Sink is the coordinator-facing surface EnableFeedback installs. Send
// delivers one WithMeta and blocks (cooperatively) until accepted; a send
// error is a fatal transport failure per spec.md §7 (the coordinator is
// presumed gone).
type Sink interface {
	Send(msg WithMeta) error
}

// Tx is the installable feedback sink a worker holds after EnableFeedback:
// it remembers the worker's own index and the last frontier it reported
// per trace name, so it can assert non-retreat (spec.md Invariant 4,
// Testable Property 5) before every send.
type Tx struct {
	mu       sync.Mutex
	sink     Sink
	workerID int
	last     map[string]frontier.Frontier
}

// NewTx wraps sink as the feedback channel for the given worker index.
func NewTx(sink Sink, workerID int) *Tx {
	return &Tx{
		sink:     sink,
		workerID: workerID,
		last:     make(map[string]frontier.Frontier),
	}
}

// Send reports the given per-name uppers, asserting that every frontier is
// non-retreating relative to what this Tx last reported for that name. A
// retreating frontier is a contract violation: the engine itself guarantees
// trace uppers only advance, so observing one retreat indicates a bug in
// the caller supplying uppers, not a legitimate race.
func (tx *Tx) Send(uppers []NameFrontier) error {
	tx.mu.Lock()
	for _, u := range uppers {
		if prev, ok := tx.last[u.Name]; ok {
			if !frontier.NonRetreating(prev, u.Frontier) {
				tx.mu.Unlock()
				panic("feedback: frontier retreated for trace " + u.Name)
			}
		}
		tx.last[u.Name] = u.Frontier.Clone()
	}
	tx.mu.Unlock()

	return tx.sink.Send(WithMeta{
		WorkerID: tx.workerID,
		Message:  Message{Uppers: uppers},
	})
}

// Gather reads the representative upper frontier for every name known to
// the supplied lookup and returns it as the Uppers slice for a Send call.
// names is expected to already be in a deterministic order (callers sort
// trace.Manager.Names() themselves) so repeated feedback messages are easy
// to compare in tests.
func Gather(names []string, readUpper func(name string) (frontier.Frontier, bool)) []NameFrontier {
	out := make([]NameFrontier, 0, len(names))
	for _, name := range names {
		f, ok := readUpper(name)
		if !ok {
			continue
		}
		out = append(out, NameFrontier{Name: name, Frontier: f})
	}
	return out
}

// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package worker implements the single-threaded cooperative run-loop of
// spec.md component F, wired to every other worker-core component: the
// command stream (package command), the pending-peek engine (package
// peek), the trace manager (package trace), the local-input registry
// (package localinput), sink tokens (package sinktoken), feedback
// (package feedback), and the self-logging bootstrap (package logging).
package worker

import (
	"fmt"
	"sort"

	"github.com/coatyio/ivm-dataflow/worker/clog"
	"github.com/coatyio/ivm-dataflow/worker/command"
	"github.com/coatyio/ivm-dataflow/worker/dataflowtypes"
	"github.com/coatyio/ivm-dataflow/worker/engine"
	"github.com/coatyio/ivm-dataflow/worker/feedback"
	"github.com/coatyio/ivm-dataflow/worker/frontier"
	"github.com/coatyio/ivm-dataflow/worker/localinput"
	"github.com/coatyio/ivm-dataflow/worker/logging"
	"github.com/coatyio/ivm-dataflow/worker/peek"
	"github.com/coatyio/ivm-dataflow/worker/render"
	"github.com/coatyio/ivm-dataflow/worker/sinktoken"
	"github.com/coatyio/ivm-dataflow/worker/trace"
)

// Worker holds one worker's complete state, matching spec.md's per-worker
// state table field for field.
type Worker struct {
	*clog.CLogger

	engine   engine.Engine
	renderer render.Renderer

	traces      *trace.Manager
	localInputs *localinput.Registry
	sinkTokens  *sinktoken.Registry
	pending     *peek.Set

	feedback *feedback.Tx // installed by EnableFeedback; never replaced

	logger     *logging.Logger // installed by the self-logging bootstrap; nil if logging_config was nil
	loggingCfg *logging.Config

	commandRx <-chan command.Command

	shutdown bool
}

// New constructs a worker bound to eng and renderer, with self-logging
// installed per cfg (nil disables it), draining commands from rx. Callers
// (package bootstrap) are responsible for handing each worker its own
// fanned-out receiver.
func New(eng engine.Engine, renderer render.Renderer, cfg *logging.Config, rx <-chan command.Command) *Worker {
	traces := trace.NewManager()
	w := &Worker{
		CLogger:     clog.New("worker[%d] ", eng.Index()),
		engine:      eng,
		renderer:    renderer,
		traces:      traces,
		localInputs: localinput.NewRegistry(),
		sinkTokens:  sinktoken.NewRegistry(),
		pending:     peek.NewSet(),
		loggingCfg:  cfg,
		commandRx:   rx,
	}
	w.logger = logging.Install(cfg, eng.LogRegister(), traces)
	return w
}

// Run executes the worker's loop until a Shutdown command is processed.
// Each iteration performs, in order: trace maintenance, one engine step (or
// an indefinite park), a feedback report, a non-blocking command drain, and
// — unless shutting down — one pass over the pending-peek queue. This is
// the literal sequence of spec.md §4.F.
func (w *Worker) Run() {
	for !w.shutdown {
		w.traces.Maintenance()

		w.engine.StepOrPark(0)

		w.sendFeedback()

		w.drainCommands()

		if !w.shutdown {
			w.pending.Process(w.log)
		}
	}
}

// log is the worker's self-log entry point, handed to the peek engine and
// used directly by handleCommand. It is a thin wrapper so callers never
// need to check w.logger for nil themselves — (*logging.Logger)(nil).Log is
// a no-op, matching spec.md §7's "self-log events are best-effort".
func (w *Worker) log(event logging.Event) {
	w.logger.Log(event)
}

// sendFeedback gathers every trace name's representative upper frontier
// and reports it in a single message, per spec.md Invariant 4: all
// frontiers in one feedback message are read within the same loop
// iteration.
func (w *Worker) sendFeedback() {
	if w.feedback == nil {
		return
	}

	names := w.traces.Names()
	sort.Strings(names)

	uppers := feedback.Gather(names, func(name string) (frontier.Frontier, bool) {
		t, ok := w.traces.Representative(name)
		if !ok {
			return nil, false
		}
		var f frontier.Frontier
		t.ReadUpper(&f)
		return f, true
	})

	if err := w.feedback.Send(uppers); err != nil {
		panic(fmt.Sprintf("worker: feedback send failed: %v", err))
	}
}

// drainCommands pulls every currently available command off commandRx
// without blocking, per spec.md §4.F step 4. If Shutdown is among them it
// is still processed (so traces and loggers are torn down) before the loop
// exits.
func (w *Worker) drainCommands() {
	for {
		select {
		case cmd, ok := <-w.commandRx:
			if !ok {
				w.shutdown = true
				return
			}
			w.handleCommand(cmd)
		default:
			return
		}
	}
}

func (w *Worker) handleCommand(cmd command.Command) {
	switch c := cmd.(type) {
	case command.CreateDataflows:
		w.handleCreateDataflows(c)
	case command.DropSources:
		for _, name := range c.Names {
			w.localInputs.Delete(name)
		}
	case command.DropViews:
		for _, name := range c.Names {
			if w.traces.Delete(name) {
				w.log(logging.DataflowEvent(name, false))
			}
		}
	case command.DropSinks:
		for _, name := range c.Names {
			w.sinkTokens.Delete(name)
		}
	case command.Peek:
		w.handlePeek(c)
	case command.CancelPeek:
		for _, p := range w.pending.Cancel(c.ConnID) {
			w.log(logging.PeekEvent(p.Name, p.Timestamp, uint32(p.ConnID), false))
		}
	case command.Insert:
		w.localInputs.Insert(c.Name, c.Updates)
	case command.AdvanceTime:
		w.localInputs.AdvanceTime(c.Name, c.To)
	case command.AllowCompaction:
		for _, e := range c.Entries {
			w.traces.AllowCompaction(e.Name, e.Frontier)
		}
	case command.AppendLog:
		if w.engine.Index() == 0 {
			w.log(c.Event)
		}
	case command.EnableFeedback:
		w.handleEnableFeedback(c)
	case command.Shutdown:
		w.handleShutdown()
	default:
		panic(fmt.Sprintf("worker: unknown command type %T", cmd))
	}
}

// handleCreateDataflows instantiates each description via the Renderer,
// failing fast (contract violation) on a duplicate view name per spec.md
// §4.A and §7.
func (w *Worker) handleCreateDataflows(c command.CreateDataflows) {
	for _, desc := range c.Dataflows {
		for _, v := range desc.Views {
			if w.traces.Has(v.Name) {
				panic(fmt.Sprintf("worker: duplicate view name %q in CreateDataflows", v.Name))
			}
		}
		if err := w.renderer.BuildDataflow(desc, w.traces, w.localInputs, w.sinkTokens); err != nil {
			panic(fmt.Sprintf("worker: building dataflow failed: %v", err))
		}
		for _, v := range desc.Views {
			w.log(logging.DataflowEvent(v.Name, true))
		}
	}
}

// handlePeek acquires the representative arrangement for the requested
// name (panicking on an unknown name, the documented contract violation of
// spec.md §8 scenario S4), declares the reader's compaction/distinguish
// intent, enqueues the pending peek, and self-logs its start.
func (w *Worker) handlePeek(c command.Peek) {
	t, ok := w.traces.Representative(c.Name)
	if !ok {
		panic(fmt.Sprintf("worker: peek requested for unknown trace %q", c.Name))
	}

	t.AdvanceBy(frontier.New(c.Timestamp))
	t.DistinguishSince(frontier.Empty())

	w.pending.Enqueue(&peek.Pending{
		Name:      c.Name,
		ConnID:    c.ConnID,
		Trace:     t,
		Timestamp: c.Timestamp,
		Finishing: c.Finishing,
		Tx:        c.Tx,
	})

	w.log(logging.PeekEvent(c.Name, c.Timestamp, uint32(c.ConnID), true))
}

// handleEnableFeedback installs the feedback sink, first-installation-wins
// (see SPEC_FULL.md's resolution of the corresponding Open Question): a
// later EnableFeedback for an already-installed worker is silently
// rejected rather than replacing the sink.
func (w *Worker) handleEnableFeedback(c command.EnableFeedback) {
	if w.feedback != nil {
		return
	}
	w.feedback = feedback.NewTx(c.Sink, c.WorkerID)
}

// handleShutdown tears down logging, then deletes all traces — in that
// order, per spec.md §4.D: Shutdown must unregister loggers *before*
// deleting their traces so no post-shutdown event lands in a trace
// mid-teardown. A trace containing a log stream is still just a trace and
// is deleted with the rest once nothing can write to it anymore. Any
// peeks still pending are dropped silently per spec.md §8 scenario S6.
func (w *Worker) handleShutdown() {
	w.logger.Shutdown()
	w.traces.DeleteAll()
	w.pending.DropAll()
	w.shutdown = true
}

// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package bootstrap implements component H of spec.md: fanning one
// broadcast command stream out into N per-worker receivers, then launching
// N workers concurrently. Per the Design Notes, "hand out N owned items to
// N threads launched later" is modeled as consume-once channels — here, N
// independent unbuffered channels, one per worker index, all fed by a single
// goroutine copying off the single broadcast source.
package bootstrap

import (
	"context"

	"github.com/coatyio/ivm-dataflow/worker/command"
	"golang.org/x/sync/errgroup"
)

// FanOut starts one goroutine that forwards every command read from
// broadcast into each of n unbuffered per-worker channels, in worker-index
// order, and returns the n receivers in worker-index order. Every worker
// observes the same commands in the same order (spec.md §4.A's
// broadcast-replication contract) because the fan-out goroutine hands each
// command to every worker before reading the next one.
//
// Each returned channel is closed once broadcast itself closes, letting a
// worker's drainCommands loop treat receive-with-ok-false as an implicit
// Shutdown signal even if the broadcast source never sends an explicit one.
func FanOut(ctx context.Context, broadcast <-chan command.Command, n int) []<-chan command.Command {
	outs := make([]chan command.Command, n)
	recv := make([]<-chan command.Command, n)
	for i := range outs {
		outs[i] = make(chan command.Command)
		recv[i] = outs[i]
	}

	go func() {
		defer func() {
			for _, out := range outs {
				close(out)
			}
		}()
		for {
			select {
			case cmd, ok := <-broadcast:
				if !ok {
					return
				}
				for _, out := range outs {
					select {
					case out <- cmd:
					case <-ctx.Done():
						return
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return recv
}

// Launch runs every supplied worker-run function concurrently via
// errgroup.Group and blocks until all have returned (or one panics, which
// errgroup does not recover: a panicking worker is the fatal contract
// violation spec.md §7 prescribes, and is allowed to crash the whole
// fleet rather than be swallowed). This models the original's
// execute_from facility launching N worker threads over pre-established
// transport, minus the transport itself (out of scope per spec.md §1).
func Launch(runs []func() error) error {
	var g errgroup.Group
	for _, run := range runs {
		run := run
		g.Go(run)
	}
	return g.Wait()
}

// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

/*
Starts a fleet of dataflow worker components that cooperatively execute a
distributed incremental dataflow graph: draining a broadcast command
stream, maintaining arranged traces, and serving peeks.

This binary wires the worker core to the in-memory reference engine and
renderer (package engine's LocalEngine, package render's IdentityRenderer)
rather than a real timely/differential-dataflow engine and SQL-plan
renderer, both of which are external collaborators out of this module's
scope. It is suitable for local smoke-testing the command loop and peek
engine, not for production use.

For usage details, run worker with the command line flag -h or --help.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/coatyio/ivm-dataflow/worker/bootstrap"
	"github.com/coatyio/ivm-dataflow/worker/clog"
	"github.com/coatyio/ivm-dataflow/worker/command"
	"github.com/coatyio/ivm-dataflow/worker/dataflowtypes"
	"github.com/coatyio/ivm-dataflow/worker/engine"
	"github.com/coatyio/ivm-dataflow/worker/logging"
	"github.com/coatyio/ivm-dataflow/worker/render"
	workerpkg "github.com/coatyio/ivm-dataflow/worker/worker"
	"gopkg.in/yaml.v3"
)

const (
	defaultWorkers = 4   // default number of workers
	maxWorkers     = 100 // maximum number of workers
)

// topology is the optional static fleet configuration loaded from a YAML
// file, matching the teacher's pattern of flags for transient options and
// a config file for anything that doesn't belong on a command line (peer
// addresses, log stream names).
type topology struct {
	Peers   []string `yaml:"peers"`
	Logging *struct {
		EngineLog       string `yaml:"engineLog"`
		DifferentialLog string `yaml:"differentialLog"`
		SelfLog         string `yaml:"selfLog"`
	} `yaml:"logging"`
}

func main() {
	var topoPath string
	var help bool
	var verbose bool

	flag.Usage = usage
	flag.StringVar(&topoPath, "t", "", "Path to a YAML fleet topology file (optional)")
	flag.BoolVar(&help, "h", false, "Show usage information")
	flag.BoolVar(&verbose, "l", false, "Show logging output (for debugging)")
	flag.Parse()

	if flag.Arg(1) != "" || help {
		usage()
		os.Exit(0)
	}

	if verbose {
		clog.Enable()
	}

	// Accept any number of workers between 1 and maxWorkers.
	count, err := strconv.Atoi(flag.Arg(0))
	if err != nil && flag.Arg(0) == "" {
		count = defaultWorkers
	} else if err != nil || count < 1 || count > maxWorkers {
		fmt.Printf("Number of workers must be between 1 and %d\n", maxWorkers)
		return
	}

	topo, err := loadTopology(topoPath)
	if err != nil {
		fmt.Printf("Failed loading topology file %s: %v\n", topoPath, err)
		os.Exit(1)
	}

	logCfg := &logging.Config{}
	if topo.Logging != nil {
		logCfg.EngineLogName = topo.Logging.EngineLog
		logCfg.DifferentialLogName = topo.Logging.DifferentialLog
		logCfg.SelfLogName = topo.Logging.SelfLog
	}

	// Handle SIGTERM.
	signaled := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer close(signaled)
		fmt.Printf("Terminating workers on signal %v...\n", <-sigCh)
	}()

	fmt.Printf("Starting %d worker(s) (peers: %v)...\n", count, topo.Peers)

	ctx, cancel := context.WithCancel(context.Background()) // triggers fan-out teardown
	defer cancel()

	broadcast := make(chan command.Command)
	rxs := bootstrap.FanOut(ctx, broadcast, count)

	runs := make([]func() error, count)
	for i := 0; i < count; i++ {
		eng := engine.NewLocalEngine(i)
		renderer := render.IdentityRenderer{InitialUpper: dataflowtypes.Timestamp(0)}
		w := workerpkg.New(eng, renderer, logCfg, rxs[i])
		runs[i] = func() error {
			w.Run()
			return nil
		}
	}

	done := make(chan error, 1)
	go func() { done <- bootstrap.Launch(runs) }()

	// Wait for the fleet to shut down gracefully, triggered either on its
	// own or after first termination signal is received.
	select {
	case <-signaled:
		broadcast <- command.Shutdown{}
		close(broadcast)
	case err := <-done:
		if err != nil {
			fmt.Printf("Worker fleet exited with error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	<-done
}

func loadTopology(path string) (topology, error) {
	var t topology
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, err
	}
	return t, nil
}

func usage() {
	fmt.Printf(`usage: worker [-h|--help] [-l] [-t topologyFile] [count]

Starts the given number of dataflow worker components (default %d, maximum %d),
draining a shared broadcast command stream fanned out from one in-process
source.

Flags:
`, defaultWorkers, maxWorkers)
	flag.PrintDefaults()
}

package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coatyio/ivm-dataflow/worker/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanOutDeliversEveryCommandToEveryWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broadcast := make(chan command.Command)
	recvs := FanOut(ctx, broadcast, 3)
	require.Len(t, recvs, 3)

	broadcast <- command.Shutdown{}

	for i, rx := range recvs {
		select {
		case cmd := <-rx:
			_, ok := cmd.(command.Shutdown)
			assert.True(t, ok, "worker %d did not receive the broadcast command", i)
		case <-time.After(time.Second):
			t.Fatalf("worker %d never received the broadcast command", i)
		}
	}
}

func TestFanOutClosesReceiversWhenBroadcastCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broadcast := make(chan command.Command)
	recvs := FanOut(ctx, broadcast, 2)
	close(broadcast)

	for i, rx := range recvs {
		select {
		case _, ok := <-rx:
			assert.False(t, ok, "worker %d receiver should be closed", i)
		case <-time.After(time.Second):
			t.Fatalf("worker %d receiver was never closed", i)
		}
	}
}

func TestLaunchPropagatesFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := Launch([]func() error{
		func() error { return nil },
		func() error { return boom },
	})
	assert.ErrorIs(t, err, boom)
}

func TestLaunchWaitsForAllRuns(t *testing.T) {
	done := make([]bool, 3)
	runs := make([]func() error, 3)
	for i := range runs {
		i := i
		runs[i] = func() error {
			done[i] = true
			return nil
		}
	}

	require.NoError(t, Launch(runs))
	for i, d := range done {
		assert.True(t, d, "run %d did not execute", i)
	}
}

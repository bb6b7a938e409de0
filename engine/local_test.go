package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalEngineReportsIndex(t *testing.T) {
	e := NewLocalEngine(2)
	assert.Equal(t, 2, e.Index())
}

func TestLocalEngineStepOrParkReturns(t *testing.T) {
	e := NewLocalEngine(0)
	start := time.Now()
	e.StepOrPark(5 * time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestLocalEngineLogRegisterDispatchesToRegisteredHandler(t *testing.T) {
	e := NewLocalEngine(0)
	reg := e.LogRegister()

	var got []any
	reg.Insert("stream", func(batch []any) { got = batch })

	reg.(*localRegistry).Dispatch("stream", []any{1, 2, 3})
	assert.Equal(t, []any{1, 2, 3}, got)

	reg.Remove("stream")
	reg.(*localRegistry).Dispatch("stream", []any{4})
	assert.Equal(t, []any{1, 2, 3}, got, "handler must not fire after Remove")
}

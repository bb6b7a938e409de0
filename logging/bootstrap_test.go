package logging

import (
	"testing"

	"github.com/coatyio/ivm-dataflow/worker/dataflowtypes"
	"github.com/coatyio/ivm-dataflow/worker/engine"
	"github.com/coatyio/ivm-dataflow/worker/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistry lets a test observe registration order and drive handlers
// directly, standing in for engine.LogRegistry without a real engine.
type fakeRegistry struct {
	insertOrder []string
	handlers    map[string]engine.LogHandler
	onInsert    func(name string)
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{handlers: make(map[string]engine.LogHandler)}
}

func (r *fakeRegistry) Insert(name string, h engine.LogHandler) {
	if r.onInsert != nil {
		r.onInsert(name)
	}
	r.insertOrder = append(r.insertOrder, name)
	r.handlers[name] = h
}

func (r *fakeRegistry) Remove(name string) {
	delete(r.handlers, name)
}

func TestInstallReturnsNilWhenConfigIsNil(t *testing.T) {
	l := Install(nil, newFakeRegistry(), trace.NewManager())
	assert.Nil(t, l)
	assert.NotPanics(t, func() { l.Log(DataflowEvent("v", true)) })
	assert.NotPanics(t, l.Shutdown)
}

func TestInstallPublishesTracesBeforeRegisteringHandlers(t *testing.T) {
	reg := newFakeRegistry()
	traces := trace.NewManager()
	reg.onInsert = func(name string) {
		assert.True(t, traces.Has(name), "trace %q must be published before its handler is registered", name)
	}

	l := Install(&Config{}, reg, traces)
	require.NotNil(t, l)

	// By the time Install returns, every log name must already be
	// registered both as a trace and as a handler, in the documented
	// three-phase order (links, then traces, then handlers).
	assert.True(t, traces.Has(defaultEngineLogName))
	assert.True(t, traces.Has(defaultDifferentialLogName))
	assert.True(t, traces.Has(defaultSelfLogName))
	assert.ElementsMatch(t, []string{defaultEngineLogName, defaultDifferentialLogName, defaultSelfLogName}, reg.insertOrder)
}

func TestInstallHonorsCustomNames(t *testing.T) {
	reg := newFakeRegistry()
	traces := trace.NewManager()
	cfg := &Config{EngineLogName: "e", DifferentialLogName: "d", SelfLogName: "s"}

	l := Install(cfg, reg, traces)
	require.NotNil(t, l)

	assert.True(t, traces.Has("e"))
	assert.True(t, traces.Has("d"))
	assert.True(t, traces.Has("s"))
}

func TestLogWritesIntoSelfTraceAndAdvancesUpper(t *testing.T) {
	reg := newFakeRegistry()
	traces := trace.NewManager()
	l := Install(&Config{}, reg, traces)
	require.NotNil(t, l)

	l.Log(DataflowEvent("v1", true))
	l.Log(PeekEvent("v1", dataflowtypes.Timestamp(0), 1, true))

	selfTrace, ok := traces.Representative(defaultSelfLogName)
	require.True(t, ok)

	count := 0
	cursor, storage := selfTrace.Cursor()
	for cursor.KeyValid(storage) {
		for cursor.ValValid(storage) {
			count++
			cursor.StepVal(storage)
		}
		cursor.StepKey(storage)
	}
	assert.Equal(t, 2, count)
}

func TestShutdownUnregistersAllThreeLoggers(t *testing.T) {
	reg := newFakeRegistry()
	traces := trace.NewManager()
	l := Install(&Config{}, reg, traces)
	require.NotNil(t, l)

	l.Shutdown()

	assert.Empty(t, reg.handlers)
}

func TestEngineHandlerDecodesBatchesIntoEngineTrace(t *testing.T) {
	reg := newFakeRegistry()
	traces := trace.NewManager()
	l := Install(&Config{}, reg, traces)
	require.NotNil(t, l)

	handler := reg.handlers[defaultEngineLogName]
	require.NotNil(t, handler)
	handler([]any{EngineEvent{Operator: "join", Elapsed: 0}})

	engineTrace, ok := traces.Representative(defaultEngineLogName)
	require.True(t, ok)

	found := false
	cursor, storage := engineTrace.Cursor()
	for cursor.KeyValid(storage) {
		found = true
		cursor.StepKey(storage)
	}
	assert.True(t, found)
}

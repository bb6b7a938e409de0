package localinput

import (
	"testing"

	"github.com/coatyio/ivm-dataflow/worker/dataflowtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandle struct {
	sent []dataflowtypes.Update
}

func (h *recordingHandle) Send(row dataflowtypes.Row, t dataflowtypes.Timestamp, diff dataflowtypes.Diff) {
	h.sent = append(h.sent, dataflowtypes.Update{Row: row, At: t, Diff: diff})
}

func TestCapabilityDowngradeIsMonotonic(t *testing.T) {
	cap := NewCapability(0)
	cap.Downgrade(3)
	assert.Equal(t, dataflowtypes.Timestamp(3), cap.Time())

	assert.Panics(t, func() { cap.Downgrade(2) })
}

func TestCapabilityDowngradeInvokesOnAdvance(t *testing.T) {
	cap := NewCapability(0)
	var got dataflowtypes.Timestamp
	cap.OnAdvance = func(to dataflowtypes.Timestamp) { got = to }

	cap.Downgrade(7)
	assert.Equal(t, dataflowtypes.Timestamp(7), got)
}

func TestRegistryInsertPushesThroughHandle(t *testing.T) {
	r := NewRegistry()
	h := &recordingHandle{}
	cap := NewCapability(0)
	r.Install("src", &Input{Handle: h, Capability: cap})

	row := dataflowtypes.NewRow(dataflowtypes.String("x"))
	r.Insert("src", []dataflowtypes.Update{{Row: row, At: 0, Diff: 1}})

	require.Len(t, h.sent, 1)
	assert.Equal(t, row, h.sent[0].Row)
}

func TestRegistryInsertBelowCapabilityPanics(t *testing.T) {
	r := NewRegistry()
	h := &recordingHandle{}
	cap := NewCapability(5)
	r.Install("src", &Input{Handle: h, Capability: cap})

	row := dataflowtypes.NewRow(dataflowtypes.String("x"))
	assert.Panics(t, func() {
		r.Insert("src", []dataflowtypes.Update{{Row: row, At: 4, Diff: 1}})
	})
}

func TestRegistryInsertOnMissingNameIsNoOp(t *testing.T) {
	r := NewRegistry()
	assert.NotPanics(t, func() {
		r.Insert("missing", []dataflowtypes.Update{{At: 0, Diff: 1}})
	})
}

func TestRegistryAdvanceTimeOnMissingNameIsNoOp(t *testing.T) {
	r := NewRegistry()
	assert.NotPanics(t, func() {
		r.AdvanceTime("missing", 5)
	})
}

func TestRegistryDeleteRemovesInput(t *testing.T) {
	r := NewRegistry()
	r.Install("src", &Input{Handle: &recordingHandle{}, Capability: NewCapability(0)})
	r.Delete("src")

	_, ok := r.Get("src")
	assert.False(t, ok)
}

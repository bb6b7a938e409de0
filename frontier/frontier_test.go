package frontier

import (
	"testing"

	"github.com/coatyio/ivm-dataflow/worker/dataflowtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessEqualAndRetired(t *testing.T) {
	f := New(dataflowtypes.Timestamp(5))

	assert.True(t, f.LessEqual(5))
	assert.True(t, f.LessEqual(10))
	assert.False(t, f.LessEqual(4))

	assert.False(t, f.Retired(5))
	assert.False(t, f.Retired(10))
	assert.True(t, f.Retired(4))
}

func TestEmptyFrontierDominatesNothing(t *testing.T) {
	f := Empty()
	assert.False(t, f.LessEqual(0))
	assert.True(t, f.Retired(0))
}

func TestMeetTakesElementwiseMin(t *testing.T) {
	a := New(dataflowtypes.Timestamp(3))
	b := New(dataflowtypes.Timestamp(7))

	m := Meet(a, b)
	require.Len(t, m, 1)
	assert.Equal(t, dataflowtypes.Timestamp(3), m[0])
}

func TestMeetWithEmpty(t *testing.T) {
	a := New(dataflowtypes.Timestamp(3))
	assert.Equal(t, a, Meet(a, Empty()))
	assert.Equal(t, a, Meet(Empty(), a))
}

func TestNonRetreating(t *testing.T) {
	prev := New(dataflowtypes.Timestamp(3))
	assert.True(t, NonRetreating(prev, New(dataflowtypes.Timestamp(3))))
	assert.True(t, NonRetreating(prev, New(dataflowtypes.Timestamp(5))))
	assert.False(t, NonRetreating(prev, New(dataflowtypes.Timestamp(2))))
}

func TestCloneIsIndependent(t *testing.T) {
	f := New(dataflowtypes.Timestamp(1))
	c := f.Clone()
	c[0] = 99
	assert.Equal(t, dataflowtypes.Timestamp(1), f[0])
}

package dataflowtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowRoundTripsThroughDatumBuffer(t *testing.T) {
	row := NewRow(Int64(42), String("hello"), Bool(true), Float64(3.5), Null())

	var buf DatumBuffer
	datums := buf.Datums(row)

	require.Len(t, datums, 5)
	assert.Equal(t, int64(42), datums[0].I)
	assert.Equal(t, "hello", datums[1].S)
	assert.True(t, datums[2].B)
	assert.Equal(t, 3.5, datums[3].F)
	assert.Equal(t, DatumNull, datums[4].Kind)
}

func TestRowIsUsableAsMapKey(t *testing.T) {
	a := NewRow(String("a"))
	b := NewRow(String("a"))
	c := NewRow(String("b"))

	m := map[Row]int{a: 1}
	assert.Equal(t, 1, m[b], "equal datum sequences must encode identically")
	assert.Equal(t, 0, m[c])
}

func TestDatumBufferIsReusedAcrossCalls(t *testing.T) {
	var buf DatumBuffer
	first := buf.Datums(NewRow(Int64(1), Int64(2)))
	require.Len(t, first, 2)

	second := buf.Datums(NewRow(Int64(3)))
	require.Len(t, second, 1)
	assert.Equal(t, int64(3), second[0].I)
}

func TestCompareColumns(t *testing.T) {
	order := []ColumnOrder{{Column: 0}}
	left := []Datum{Int64(1)}
	right := []Datum{Int64(2)}

	assert.Negative(t, CompareColumns(order, left, right))
	assert.Positive(t, CompareColumns(order, right, left))
	assert.Zero(t, CompareColumns(order, left, left))
}

func TestCompareColumnsDescending(t *testing.T) {
	order := []ColumnOrder{{Column: 0, Desc: true}}
	left := []Datum{Int64(1)}
	right := []Datum{Int64(2)}

	assert.Positive(t, CompareColumns(order, left, right))
}

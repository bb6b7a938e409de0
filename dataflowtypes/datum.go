// Package dataflowtypes defines the wire-level data model shared by every
// worker component: rows, diffs, timestamps, updates, dataflow
// descriptions, and the finishing instructions attached to a peek. It plays
// the role of the original implementation's dataflow_types crate.
package dataflowtypes

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// DatumKind tags the dynamic type carried by a Datum.
type DatumKind byte

const (
	DatumNull DatumKind = iota
	DatumBool
	DatumInt64
	DatumFloat64
	DatumString
)

// Datum is a single typed scalar value. Datums are produced by decoding a
// Row into a reusable DatumBuffer; they are never constructed directly by
// worker logic other than in tests and Renderer implementations.
type Datum struct {
	Kind DatumKind
	I    int64
	F    float64
	S    string
	B    bool
}

func Null() Datum              { return Datum{Kind: DatumNull} }
func Bool(b bool) Datum        { return Datum{Kind: DatumBool, B: b} }
func Int64(i int64) Datum      { return Datum{Kind: DatumInt64, I: i} }
func Float64(f float64) Datum  { return Datum{Kind: DatumFloat64, F: f} }
func String(s string) Datum    { return Datum{Kind: DatumString, S: s} }

// True/False are the distinguished results of a filter predicate.
var (
	True  = Bool(true)
	False = Bool(false)
)

func (d Datum) String() string {
	switch d.Kind {
	case DatumNull:
		return "NULL"
	case DatumBool:
		return fmt.Sprintf("%v", d.B)
	case DatumInt64:
		return fmt.Sprintf("%d", d.I)
	case DatumFloat64:
		return fmt.Sprintf("%g", d.F)
	case DatumString:
		return d.S
	default:
		return "?"
	}
}

// Compare orders two datums of the same kind. Mixed-kind datums compare by
// kind first; this only matters for NULL handling, which always sorts
// first, matching the common SQL convention.
func (d Datum) Compare(other Datum) int {
	if d.Kind != other.Kind {
		if d.Kind < other.Kind {
			return -1
		}
		return 1
	}
	switch d.Kind {
	case DatumNull:
		return 0
	case DatumBool:
		if d.B == other.B {
			return 0
		}
		if !d.B {
			return -1
		}
		return 1
	case DatumInt64:
		switch {
		case d.I < other.I:
			return -1
		case d.I > other.I:
			return 1
		default:
			return 0
		}
	case DatumFloat64:
		switch {
		case d.F < other.F:
			return -1
		case d.F > other.F:
			return 1
		default:
			return 0
		}
	case DatumString:
		return bytesCompareString(d.S, other.S)
	default:
		return 0
	}
}

func bytesCompareString(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Row is an opaque, hashable, comparable sequence of datums. It is encoded
// eagerly on construction so that it can be used directly as a Go map key
// by trace implementations (slices of Datum cannot be); this mirrors the
// original implementation's packed byte-encoded Row type, which is decoded
// on demand into a DatumsBuffer rather than kept as a live slice of values.
type Row string

// NewRow encodes a sequence of datums into a Row.
func NewRow(datums ...Datum) Row {
	var buf bytes.Buffer
	for _, d := range datums {
		encodeDatum(&buf, d)
	}
	return Row(buf.String())
}

func encodeDatum(buf *bytes.Buffer, d Datum) {
	buf.WriteByte(byte(d.Kind))
	switch d.Kind {
	case DatumNull:
	case DatumBool:
		if d.B {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case DatumInt64:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(d.I))
		buf.Write(tmp[:])
	case DatumFloat64:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], math.Float64bits(d.F))
		buf.Write(tmp[:])
	case DatumString:
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], uint32(len(d.S)))
		buf.Write(tmp[:])
		buf.WriteString(d.S)
	}
}

// DatumBuffer is the reusable scratch buffer a Row decodes into. Callers
// that repeatedly decode rows (the peek snapshot walk, the partial-sort
// comparator) should keep one DatumBuffer per call site and pass a pointer
// so the backing array is reused across calls instead of being
// reallocated per row.
type DatumBuffer struct {
	datums []Datum
}

// Datums decodes r into the buffer's backing slice and returns the decoded
// view. The returned slice is only valid until the next call to Datums on
// the same buffer.
func (b *DatumBuffer) Datums(r Row) []Datum {
	b.datums = b.datums[:0]
	data := []byte(r)
	for len(data) > 0 {
		kind := DatumKind(data[0])
		data = data[1:]
		switch kind {
		case DatumNull:
			b.datums = append(b.datums, Null())
		case DatumBool:
			b.datums = append(b.datums, Bool(data[0] == 1))
			data = data[1:]
		case DatumInt64:
			v := int64(binary.BigEndian.Uint64(data[:8]))
			b.datums = append(b.datums, Int64(v))
			data = data[8:]
		case DatumFloat64:
			v := math.Float64frombits(binary.BigEndian.Uint64(data[:8]))
			b.datums = append(b.datums, Float64(v))
			data = data[8:]
		case DatumString:
			n := binary.BigEndian.Uint32(data[:4])
			data = data[4:]
			b.datums = append(b.datums, String(string(data[:n])))
			data = data[n:]
		}
	}
	return b.datums
}

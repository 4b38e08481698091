package features

import (
	"github.com/oralsmart/riskctl/pkg/assessment"
)

// Vector is one encoded assessment in schema column order.
type Vector [Width]float64

// Encode maps a possibly incomplete assessment onto the fixed schema.
// A missing record leaves all of its columns at 0; the presence flags tell
// an absent record apart from one answered "no" throughout.
func Encode(d *assessment.DentalRecord, diet *assessment.DietaryRecord) Vector {
	var v Vector
	off := 0
	if d != nil {
		for i, c := range dentalColumns {
			v[off+i] = c.value(d)
		}
		v[Width-2] = 1
	}
	off += len(dentalColumns)
	if diet != nil {
		for i, c := range dietaryColumns {
			v[off+i] = c.value(diet)
		}
		v[Width-1] = 1
	}
	return v
}

// EncodePair is Encode for a Pair.
func EncodePair(p assessment.Pair) Vector {
	return Encode(p.Dental, p.Dietary)
}

// Slice returns the vector as a new slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Width)
	copy(out, v[:])
	return out
}

// Map returns the vector keyed by column name.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, Width)
	for i, n := range names {
		m[n] = v[i]
	}
	return m
}

// FromSlice builds a Vector from a row, reporting false when the row is not
// exactly Width long.
func FromSlice(row []float64) (Vector, bool) {
	var v Vector
	if len(row) != Width {
		return v, false
	}
	copy(v[:], row)
	return v, true
}

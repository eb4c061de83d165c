package graph

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Within returns the points whose index lies in [from, to).
func (s *Series) Within(from, to float64) []Point {
	lo := sort.Search(len(s.Points), func(i int) bool { return s.Points[i].Index >= from })
	hi := sort.Search(len(s.Points), func(i int) bool { return s.Points[i].Index >= to })
	return s.Points[lo:hi]
}

// Resample buckets the points in [from, to) into columns equal-width
// buckets. Each bucket holds the last value that fell into it, or NaN
// when it is empty.
func (s *Series) Resample(from, to float64, columns int) []float64 {
	if columns <= 0 {
		return nil
	}
	out := make([]float64, columns)
	for i := range out {
		out[i] = math.NaN()
	}
	span := to - from
	if span <= 0 {
		return out
	}
	for _, p := range s.Within(from, to) {
		col := int((p.Index - from) / span * float64(columns))
		if col >= columns {
			col = columns - 1
		}
		out[col] = p.Value
	}
	return out
}

// Range returns the smallest and largest value of all series in
// [from, to). ok is false when no point falls in the window.
func Range(series []*Series, from, to float64) (lo, hi float64, ok bool) {
	var vals []float64
	for _, s := range series {
		for _, p := range s.Within(from, to) {
			vals = append(vals, p.Value)
		}
	}
	if len(vals) == 0 {
		return 0, 0, false
	}
	return floats.Min(vals), floats.Max(vals), true
}

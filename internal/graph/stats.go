package graph

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the values of a series.
type Stats struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	Last  float64
}

// Values returns the point values, optionally only the last n (n <= 0
// means all).
func (s *Series) Values(n int) []float64 {
	pts := s.Points
	if n > 0 && len(pts) > n {
		pts = pts[len(pts)-n:]
	}
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Value
	}
	return out
}

// Stats computes summary statistics over all points.
func (s *Series) Stats() Stats {
	vals := s.Values(0)
	if len(vals) == 0 {
		return Stats{}
	}
	return Stats{
		Count: len(vals),
		Min:   floats.Min(vals),
		Max:   floats.Max(vals),
		Mean:  stat.Mean(vals, nil),
		Last:  vals[len(vals)-1],
	}
}

// Package graph accumulates parsed samples into named point series.
package graph

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/buckleypaul/serialplot/internal/protocol"
)

// Point is one value at a tick.
type Point struct {
	Index float64
	Value float64
}

// Series is a named, append-only point sequence with a fixed color.
type Series struct {
	Name   string
	Color  colorful.Color
	Points []Point
}

// Last returns the most recent point.
func (s *Series) Last() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Palette returns the color for the n-th series (0-based).
type Palette func(n int) colorful.Color

// goldenAngle spaces consecutive hues as far apart as possible.
const goldenAngle = 137.50776405003785

// DefaultPalette walks the hue circle by the golden angle so any two
// series get clearly different hues.
func DefaultPalette(n int) colorful.Color {
	h := math.Mod(float64(n)*goldenAngle, 360)
	return colorful.Hsv(h, 0.65, 0.95)
}

// Aggregator maps series names to series in first-seen order. It is owned
// by a single goroutine and does no locking.
type Aggregator struct {
	palette Palette
	order   []*Series
	byName  map[string]*Series
	tick    float64
}

func NewAggregator() *Aggregator {
	return NewAggregatorWithPalette(DefaultPalette)
}

func NewAggregatorWithPalette(p Palette) *Aggregator {
	if p == nil {
		p = DefaultPalette
	}
	return &Aggregator{
		palette: p,
		byName:  make(map[string]*Series),
	}
}

// Ingest appends each sample at the current tick, creating series on first
// sight, then advances the tick by one. An empty batch still advances it.
func (a *Aggregator) Ingest(batch []protocol.Sample) {
	for _, s := range batch {
		series, ok := a.byName[s.Name]
		if !ok {
			series = &Series{Name: s.Name, Color: a.palette(len(a.order))}
			a.byName[s.Name] = series
			a.order = append(a.order, series)
		}
		series.Points = append(series.Points, Point{Index: a.tick, Value: s.Value})
	}
	a.tick++
}

// Clear drops every series and resets the tick to zero.
func (a *Aggregator) Clear() {
	a.order = nil
	a.byName = make(map[string]*Series)
	a.tick = 0
}

// Tick is the index the next batch will be written at.
func (a *Aggregator) Tick() float64 { return a.tick }

// Len returns the number of series.
func (a *Aggregator) Len() int { return len(a.order) }

// Series returns the series in first-seen order. The slice and series are
// shared with the aggregator and must not be modified.
func (a *Aggregator) Series() []*Series { return a.order }

// Lookup returns the named series.
func (a *Aggregator) Lookup(name string) (*Series, bool) {
	s, ok := a.byName[name]
	return s, ok
}

// Snapshot returns a deep copy safe to hand to another goroutine.
func (a *Aggregator) Snapshot() Snapshot {
	snap := Snapshot{Tick: a.tick, Series: make([]Series, len(a.order))}
	for i, s := range a.order {
		snap.Series[i] = Series{
			Name:   s.Name,
			Color:  s.Color,
			Points: append([]Point(nil), s.Points...),
		}
	}
	return snap
}

// Snapshot is a copy of the aggregator state.
type Snapshot struct {
	Tick   float64
	Series []Series
}

package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/buckleypaul/serialplot/internal/graph"
)

const (
	defaultMaxPoints = 5000
	maxMaxPoints     = 50000
)

type seriesJSON struct {
	Name   string       `json:"name"`
	Color  string       `json:"color"`
	Points [][2]float64 `json:"points"`
}

type snapshotJSON struct {
	Tick    float64      `json:"tick"`
	Version uint64       `json:"version"`
	Series  []seriesJSON `json:"series"`
}

// view reads the window and max_points query parameters and returns the
// visible slice of each series.
type view struct {
	from, to  float64
	maxPoints int
}

func parseView(r *http.Request, snap graph.Snapshot) view {
	v := view{from: math.Inf(-1), to: math.Inf(1), maxPoints: defaultMaxPoints}
	if ws := r.URL.Query().Get("window"); ws != "" {
		if n, err := strconv.Atoi(ws); err == nil && n > 0 {
			v.from = snap.Tick - float64(n)
		}
	}
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if n, err := strconv.Atoi(mp); err == nil && n > 0 && n <= maxMaxPoints {
			v.maxPoints = n
		}
	}
	return v
}

// points returns the finite series points in the view, downsampled by
// stride. NaN and Inf cannot be encoded as JSON and are left out.
func (v view) points(s *graph.Series) []graph.Point {
	pts := finite(s.Within(v.from, v.to))
	if len(pts) <= v.maxPoints {
		return pts
	}
	stride := int(math.Ceil(float64(len(pts)) / float64(v.maxPoints)))
	out := make([]graph.Point, 0, len(pts)/stride+1)
	for i := 0; i < len(pts); i += stride {
		out = append(out, pts[i])
	}
	return out
}

func finite(pts []graph.Point) []graph.Point {
	for i, p := range pts {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			out := append(make([]graph.Point, 0, len(pts)-1), pts[:i]...)
			for _, q := range pts[i+1:] {
				if !math.IsNaN(q.Value) && !math.IsInf(q.Value, 0) {
					out = append(out, q)
				}
			}
			return out
		}
	}
	return pts
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	snap, version := s.mirror.Latest()
	v := parseView(r, snap)

	out := snapshotJSON{Tick: snap.Tick, Version: version, Series: make([]seriesJSON, 0, len(snap.Series))}
	for i := range snap.Series {
		series := &snap.Series[i]
		sj := seriesJSON{Name: series.Name, Color: series.Color.Hex()}
		for _, p := range v.points(series) {
			sj.Points = append(sj.Points, [2]float64{p.Index, p.Value})
		}
		out.Series = append(out.Series, sj)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.log.WithError(err).Warn("failed to write series")
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	snap, _ := s.mirror.Latest()
	v := parseView(r, snap)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "serialplot", Theme: "dark", Width: "1200px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Live series", Subtitle: fmt.Sprintf("series=%d tick=%g", len(snap.Series), snap.Tick)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "tick", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "value", NameLocation: "middle", NameGap: 40}),
	)

	for i := range snap.Series {
		series := &snap.Series[i]
		pts := v.points(series)
		data := make([]opts.ScatterData, 0, len(pts))
		for _, p := range pts {
			data = append(data, opts.ScatterData{Value: []interface{}{p.Index, p.Value}})
		}
		scatter.AddSeries(series.Name, data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: series.Color.Hex()}),
		)
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buckleypaul/serialplot/internal/graph"
	"github.com/buckleypaul/serialplot/internal/metrics"
	"github.com/buckleypaul/serialplot/internal/protocol"
)

func newTestServer(t *testing.T) (*Server, *graph.Mirror, *metrics.Metrics) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mirror := &graph.Mirror{}
	m := metrics.New()
	s := NewServer(Config{
		Address:  "127.0.0.1:0",
		Mirror:   mirror,
		Registry: m.Registry,
		Logger:   logrus.NewEntry(logger),
	})
	return s, mirror, m
}

func publish(mirror *graph.Mirror, batches ...[]protocol.Sample) {
	agg := graph.NewAggregator()
	for _, b := range batches {
		agg.Ingest(b)
	}
	mirror.Publish(agg.Snapshot())
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSeriesJSON(t *testing.T) {
	s, mirror, _ := newTestServer(t)
	publish(mirror,
		[]protocol.Sample{{Name: "temp", Value: 20}, {Name: "hum", Value: 40}},
		[]protocol.Sample{{Name: "temp", Value: 21}},
	)

	rec := get(t, s.Handler(), "/series.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var out snapshotJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 2.0, out.Tick)
	assert.Equal(t, uint64(1), out.Version)
	require.Len(t, out.Series, 2)
	assert.Equal(t, "temp", out.Series[0].Name)
	assert.Equal(t, [][2]float64{{0, 20}, {1, 21}}, out.Series[0].Points)
	assert.True(t, strings.HasPrefix(out.Series[0].Color, "#"))
}

func TestSeriesJSONWindowAndDownsample(t *testing.T) {
	s, mirror, _ := newTestServer(t)
	var batches [][]protocol.Sample
	for i := 0; i < 100; i++ {
		batches = append(batches, []protocol.Sample{{Name: "x", Value: float64(i)}})
	}
	publish(mirror, batches...)

	var out snapshotJSON
	rec := get(t, s.Handler(), "/series.json?window=10")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Series[0].Points, 10)
	assert.Equal(t, 90.0, out.Series[0].Points[0][0])

	rec = get(t, s.Handler(), "/series.json?max_points=25")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Series[0].Points, 25)
}

func TestChartRendersSeries(t *testing.T) {
	s, mirror, _ := newTestServer(t)
	publish(mirror, []protocol.Sample{{Name: "voltage", Value: 3.3}})

	rec := get(t, s.Handler(), "/chart")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "voltage")
	assert.Contains(t, body, "serialplot")
}

func TestNonFiniteValuesAreSkipped(t *testing.T) {
	s, mirror, _ := newTestServer(t)
	publish(mirror,
		protocol.Parse("#t=nan h=40").Samples,
		protocol.Parse("#t=inf h=41").Samples,
		protocol.Parse("#t=-inf h=42").Samples,
		protocol.Parse("#t=1 h=43").Samples,
	)

	rec := get(t, s.Handler(), "/series.json")
	require.Equal(t, http.StatusOK, rec.Code)
	var out snapshotJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Series, 2)
	assert.Equal(t, "t", out.Series[0].Name)
	assert.Equal(t, [][2]float64{{3, 1}}, out.Series[0].Points)
	assert.Equal(t, "h", out.Series[1].Name)
	assert.Len(t, out.Series[1].Points, 4)

	rec = get(t, s.Handler(), "/chart")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"name":"t"`)
	assert.Contains(t, body, `"name":"h"`)
}

func TestChartRendersWithoutData(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/chart")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIndexRedirectsToChart(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := get(t, s.Handler(), "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/chart", rec.Header().Get("Location"))

	rec = get(t, s.Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _, m := newTestServer(t)
	m.Samples.Add(3)

	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "serialplot_samples_total 3")
}

func TestNoMetricsWithoutRegistry(t *testing.T) {
	s := NewServer(Config{Address: "127.0.0.1:0"})
	rec := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartStopsOnCancel(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestStartReportsListenError(t *testing.T) {
	s := NewServer(Config{Address: "256.0.0.1:bad"})
	err := s.Start(context.Background())
	assert.Error(t, err)
}

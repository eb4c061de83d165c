// Package metrics exposes worker counters on a private Prometheus registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors updated by the serial worker.
type Metrics struct {
	Registry *prometheus.Registry

	Lines        *prometheus.CounterVec
	Samples      prometheus.Counter
	ParseErrors  prometheus.Counter
	ReadErrors   prometheus.Counter
	OpenFailures prometheus.Counter
	BytesRead    prometheus.Counter
	BytesWritten prometheus.Counter
	Notices      prometheus.Counter
	State        prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "serialplot_lines_total",
			Help: "Non-empty lines read from the serial port, by kind.",
		}, []string{"kind"}),
		Samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "serialplot_samples_total",
			Help: "Samples parsed from data lines.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "serialplot_parse_errors_total",
			Help: "Keyed tokens dropped because the value was not a number.",
		}),
		ReadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "serialplot_read_errors_total",
			Help: "Failed reads from the open port.",
		}),
		OpenFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "serialplot_open_failures_total",
			Help: "Failed attempts to open the configured port.",
		}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "serialplot_bytes_read_total",
			Help: "Bytes read from the serial port.",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "serialplot_bytes_written_total",
			Help: "Bytes written to the serial port by the send path.",
		}),
		Notices: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "serialplot_notices_total",
			Help: "Operator notices emitted by the worker.",
		}),
		State: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "serialplot_link_state",
			Help: "Link state seen by the worker (0 stopped, 1 sleeping, 2 active, 3 connecting).",
		}),
	}

	m.Registry.MustRegister(
		m.Lines, m.Samples, m.ParseErrors, m.ReadErrors, m.OpenFailures,
		m.BytesRead, m.BytesWritten, m.Notices, m.State,
	)
	return m
}

// Package telemetry holds the Prometheus collectors for connections and
// discovery. Collectors live on a private registry so embedding nsqs never
// touches the default registry.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nsqs"

// Metrics groups the collectors exercised by pkg/conn and pkg/discovery.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	DialsTotal     *prometheus.CounterVec
	DialDuration   prometheus.Histogram
	FramesRead     prometheus.Counter
	FrameBytesRead prometheus.Counter
	BytesSent      prometheus.Counter
	LookupQueries  *prometheus.CounterVec
}

// New creates a Metrics instance registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		DialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dials_total",
				Help:      "Connection attempts by result.",
			},
			[]string{"result"},
		),
		DialDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dial_duration_seconds",
				Help:      "Time to dial and send the protocol preamble.",
				// 1ms .. ~4s
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 13),
			},
		),
		FramesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_read_total",
			Help:      "Frames read from servers.",
		}),
		FrameBytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_bytes_read_total",
			Help:      "Payload bytes read from servers, excluding length prefixes.",
		}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Bytes written to servers, including the preamble.",
		}),
		LookupQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookup_queries_total",
				Help:      "Lookup host queries by result.",
			},
			[]string{"result"},
		),
	}
	m.Registry.MustRegister(m.DialsTotal, m.DialDuration, m.FramesRead, m.FrameBytesRead, m.BytesSent, m.LookupQueries)
	return m
}

// Handler exposes the registry. Mount it with mux.Handle("/metrics", m.Handler()).
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveDial records one dial attempt.
func (m *Metrics) ObserveDial(start time.Time, err error) {
	if m == nil {
		return
	}
	m.DialsTotal.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.DialDuration.Observe(time.Since(start).Seconds())
	}
}

// ObserveFrame records one frame of n payload bytes.
func (m *Metrics) ObserveFrame(n int) {
	if m == nil {
		return
	}
	m.FramesRead.Inc()
	m.FrameBytesRead.Add(float64(n))
}

// ObserveSend records n bytes written.
func (m *Metrics) ObserveSend(n int) {
	if m == nil {
		return
	}
	m.BytesSent.Add(float64(n))
}

// ObserveLookup records one lookup host query.
func (m *Metrics) ObserveLookup(err error) {
	if m == nil {
		return
	}
	m.LookupQueries.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

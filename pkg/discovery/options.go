package discovery

import (
	"time"

	"github.com/bft-labs/nsqs/internal/telemetry"
	"github.com/bft-labs/nsqs/pkg/log"
)

// DefaultDebounce is how long File waits after a change event before
// reloading, so that editors writing in several steps trigger one reload.
const DefaultDebounce = 100 * time.Millisecond

// Option configures Lookup and File.
type Option func(*settings)

type settings struct {
	logger   log.Logger
	metrics  *telemetry.Metrics
	debounce time.Duration
}

func newSettings(opts []Option) settings {
	st := settings{
		logger:   log.NewNoopLogger(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(&st)
	}
	return st
}

// WithLogger sets the logger for failed lookup hosts and file reloads.
func WithLogger(l log.Logger) Option {
	return func(st *settings) {
		if l != nil {
			st.logger = l
		}
	}
}

// WithMetrics records one lookup_queries_total sample per host query.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(st *settings) {
		st.metrics = m
	}
}

// WithDebounce sets the reload delay used by File.Watch.
func WithDebounce(d time.Duration) Option {
	return func(st *settings) {
		if d > 0 {
			st.debounce = d
		}
	}
}

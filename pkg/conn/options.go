package conn

import (
	"net"
	"time"

	"github.com/bft-labs/nsqs/internal/ports"
	"github.com/bft-labs/nsqs/internal/telemetry"
	"github.com/bft-labs/nsqs/pkg/log"
	"github.com/bft-labs/nsqs/pkg/protocol"
)

// DefaultTimeout bounds dial and every subsequent blocking call.
const DefaultTimeout = 5 * time.Second

// Option configures a connection at Dial time.
type Option func(*options)

type options struct {
	dialer       ports.Dialer
	timeout      time.Duration
	magic        []byte
	maxFrameSize int
	logger       log.Logger
	metrics      *telemetry.Metrics
}

func defaultOptions() options {
	return options{
		dialer:  &net.Dialer{},
		timeout: DefaultTimeout,
		magic:   protocol.MagicV2[:],
		logger:  log.NewNoopLogger(),
	}
}

// WithDialer replaces the default *net.Dialer, e.g. with a test double.
func WithDialer(d ports.Dialer) Option {
	return func(o *options) {
		if d != nil {
			o.dialer = d
		}
	}
}

// WithTimeout sets the timeout applied to dial and to each Send and
// ReadFrame. Zero disables deadlines.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.timeout = d
		}
	}
}

// WithMagic overrides the preamble written after connecting.
// An empty preamble skips the handshake write.
func WithMagic(magic []byte) Option {
	return func(o *options) {
		o.magic = append([]byte(nil), magic...)
	}
}

// WithMaxFrameSize rejects frames whose length prefix exceeds n bytes with a
// ProtocolError. Zero (the default) trusts the length prefix.
func WithMaxFrameSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxFrameSize = n
		}
	}
}

// WithLogger sets a logger for dial and close events.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records dial, read and write counters.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

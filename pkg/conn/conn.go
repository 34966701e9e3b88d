// Package conn provides a blocking, framed connection to a single nsqd.
//
// A Conn writes the protocol preamble on Dial and then exposes raw Send and
// framed ReadFrame primitives. It performs no retries and implements no
// command semantics. A Conn is owned by one caller and is not safe for
// concurrent use.
package conn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/bft-labs/nsqs/internal/domain"
	"github.com/bft-labs/nsqs/internal/telemetry"
	"github.com/bft-labs/nsqs/pkg/log"
	"github.com/bft-labs/nsqs/pkg/protocol"
)

// Conn is a single TCP connection to a daemon.
type Conn struct {
	addr    domain.ServerAddress
	conn    net.Conn
	r       *bufio.Reader
	timeout time.Duration
	maxSize int
	logger  log.Logger
	metrics *telemetry.Metrics
	closed  bool
}

// Dial connects to addr and writes the preamble. Failures are returned as
// *domain.ConnectionError.
func Dial(ctx context.Context, addr domain.ServerAddress, opts ...Option) (*Conn, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	c, err := dial(ctx, addr, o)
	o.metrics.ObserveDial(start, err)
	if err != nil {
		o.logger.Warn("dial failed", log.Stringer("addr", addr), log.Err(err))
		return nil, err
	}
	o.logger.Debug("connected",
		log.Stringer("addr", addr),
		log.Duration("took", time.Since(start)))
	return c, nil
}

func dial(ctx context.Context, addr domain.ServerAddress, o options) (*Conn, error) {
	dialCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	nc, err := o.dialer.DialContext(dialCtx, "tcp", addr.String())
	if err != nil {
		return nil, &domain.ConnectionError{Op: "dial", Addr: addr.String(), Err: err}
	}

	c := &Conn{
		addr:    addr,
		conn:    nc,
		r:       bufio.NewReader(nc),
		timeout: o.timeout,
		maxSize: o.maxFrameSize,
		logger:  o.logger,
		metrics: o.metrics,
	}

	if len(o.magic) > 0 {
		if err := c.write("handshake", o.magic); err != nil {
			_ = nc.Close()
			return nil, err
		}
	}
	return c, nil
}

// Addr returns the address the connection was dialed to.
func (c *Conn) Addr() domain.ServerAddress { return c.addr }

// Send writes payload verbatim. Framing of outgoing commands is the caller's
// responsibility; see SendFrame.
func (c *Conn) Send(payload []byte) error {
	if c.closed {
		return c.errClosed("write")
	}
	return c.write("write", payload)
}

// SendFrame writes payload with a 4-byte big-endian length prefix.
func (c *Conn) SendFrame(payload []byte) error {
	return c.Send(protocol.EncodeFrame(payload))
}

// ReadFrame blocks until one complete frame has arrived and returns its
// payload. A peer that closes before the frame is complete yields a
// ConnectionError, never a short payload. When a maximum frame size is
// configured an oversize prefix yields a ProtocolError; the stream is then
// out of sync and the connection should be closed.
func (c *Conn) ReadFrame() ([]byte, error) {
	if c.closed {
		return nil, c.errClosed("read")
	}
	if err := c.setDeadline(); err != nil {
		return nil, &domain.ConnectionError{Op: "read", Addr: c.addr.String(), Err: err}
	}

	n, err := protocol.ReadHeader(c.r)
	if err != nil {
		return nil, c.readErr(err)
	}
	if c.maxSize > 0 && uint64(n) > uint64(c.maxSize) {
		return nil, &domain.ProtocolError{Reason: "frame too large", Size: n, Max: c.maxSize}
	}
	payload, err := protocol.ReadPayload(c.r, n)
	if err != nil {
		return nil, c.readErr(err)
	}

	c.metrics.ObserveFrame(len(payload))
	return payload, nil
}

// Close closes the socket and releases the read buffer. It is safe to call
// more than once.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.r = nil
	err := c.conn.Close()
	c.logger.Debug("closed", log.Stringer("addr", c.addr))
	return err
}

func (c *Conn) write(op string, b []byte) error {
	if err := c.setDeadline(); err != nil {
		return &domain.ConnectionError{Op: op, Addr: c.addr.String(), Err: err}
	}
	n, err := c.conn.Write(b)
	c.metrics.ObserveSend(n)
	if err != nil {
		return &domain.ConnectionError{Op: op, Addr: c.addr.String(), Err: err}
	}
	return nil
}

func (c *Conn) setDeadline() error {
	if c.timeout <= 0 {
		return nil
	}
	return c.conn.SetDeadline(time.Now().Add(c.timeout))
}

func (c *Conn) readErr(err error) error {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		err = fmt.Errorf("peer closed connection: %w", err)
	case errors.Is(err, os.ErrDeadlineExceeded):
		err = fmt.Errorf("read timed out after %s: %w", c.timeout, err)
	}
	return &domain.ConnectionError{Op: "read", Addr: c.addr.String(), Err: err}
}

func (c *Conn) errClosed(op string) error {
	return &domain.ConnectionError{Op: op, Addr: c.addr.String(), Err: domain.ErrClosed}
}

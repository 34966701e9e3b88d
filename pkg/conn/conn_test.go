package conn

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/nsqs/internal/domain"
	"github.com/bft-labs/nsqs/internal/telemetry"
	"github.com/bft-labs/nsqs/pkg/protocol"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// testServer accepts a single connection, checks the preamble and hands the
// connection to handle.
func testServer(t *testing.T, handle func(net.Conn)) domain.ServerAddress {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	var wg sync.WaitGroup
	wg.Add(1)
	t.Cleanup(wg.Wait)

	go func() {
		defer wg.Done()
		c, err := l.Accept()
		if err != nil {
			return
		}
		defer c.Close()

		var magic [4]byte
		if _, err := io.ReadFull(c, magic[:]); err != nil {
			t.Errorf("read preamble: %v", err)
			return
		}
		if magic != protocol.MagicV2 {
			t.Errorf("preamble = %q, want %q", magic[:], protocol.MagicV2[:])
			return
		}
		handle(c)
	}()

	return listenerAddr(t, l)
}

func listenerAddr(t *testing.T, l net.Listener) domain.ServerAddress {
	t.Helper()
	host, portStr, err := net.SplitHostPort(l.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return domain.ServerAddress{Host: host, Port: port}
}

// echo returns every frame it receives.
func echo(c net.Conn) {
	for {
		payload, err := protocol.ReadFrame(c, 0)
		if err != nil {
			return
		}
		if _, err := c.Write(protocol.EncodeFrame(payload)); err != nil {
			return
		}
	}
}

func TestConn_EchoHello(t *testing.T) {
	addr := testServer(t, echo)

	c, err := Dial(context.Background(), addr, WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if err := c.SendFrame([]byte("hello")); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	out, err := c.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("got %q, want %q", out, "hello")
	}
}

func TestConn_RoundTripOverLoopback(t *testing.T) {
	addr := testServer(t, echo)

	c, err := Dial(context.Background(), addr, WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	payloads := [][]byte{
		{},
		[]byte("x"),
		bytes.Repeat([]byte("nsq"), 100000),
	}
	for _, p := range payloads {
		// Send writes verbatim, so frame the payload ourselves.
		if err := c.Send(protocol.EncodeFrame(p)); err != nil {
			t.Fatalf("Send(len=%d): %v", len(p), err)
		}
		out, err := c.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame(len=%d): %v", len(p), err)
		}
		if !bytes.Equal(out, p) {
			t.Errorf("round trip mismatch for len=%d", len(p))
		}
	}
}

func TestConn_PeerClosesAfterHeader(t *testing.T) {
	addr := testServer(t, func(c net.Conn) {
		c.Write([]byte{0, 0, 0, 8})
	})

	c, err := Dial(context.Background(), addr, WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	out, err := c.ReadFrame()
	if err == nil {
		t.Fatalf("expected error, got payload %q", out)
	}
	if !errors.Is(err, domain.ErrConnection) {
		t.Errorf("expected ErrConnection, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF cause, got %v", err)
	}
	if out != nil {
		t.Errorf("expected nil payload, got %q", out)
	}
}

func TestConn_PeerClosesBeforeFrame(t *testing.T) {
	addr := testServer(t, func(c net.Conn) {})

	c, err := Dial(context.Background(), addr, WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if _, err := c.ReadFrame(); !errors.Is(err, domain.ErrConnection) {
		t.Errorf("expected ErrConnection, got %v", err)
	}
}

func TestConn_ReadTimeout(t *testing.T) {
	release := make(chan struct{})
	addr := testServer(t, func(c net.Conn) { <-release })
	defer close(release)

	c, err := Dial(context.Background(), addr, WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	_, err = c.ReadFrame()
	if !errors.Is(err, domain.ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Errorf("expected deadline cause, got %v", err)
	}
}

func TestConn_DialRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listenerAddr(t, l)
	l.Close()

	_, err = Dial(context.Background(), addr, WithTimeout(time.Second))
	if !errors.Is(err, domain.ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
	var connErr *domain.ConnectionError
	if !errors.As(err, &connErr) || connErr.Op != "dial" {
		t.Errorf("expected dial ConnectionError, got %#v", err)
	}
}

func TestConn_MaxFrameSize(t *testing.T) {
	addr := testServer(t, func(c net.Conn) {
		c.Write(protocol.EncodeFrame(make([]byte, 64)))
	})

	c, err := Dial(context.Background(), addr, WithTimeout(time.Second), WithMaxFrameSize(16))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	_, err = c.ReadFrame()
	if !errors.Is(err, domain.ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
	var protoErr *domain.ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Size != 64 || protoErr.Max != 16 {
		t.Errorf("unexpected ProtocolError %#v", err)
	}
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	addr := testServer(t, func(c net.Conn) {})

	c, err := Dial(context.Background(), addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if err := c.Send([]byte("x")); !errors.Is(err, domain.ErrClosed) {
		t.Errorf("Send after Close: expected ErrClosed, got %v", err)
	}
	if _, err := c.ReadFrame(); !errors.Is(err, domain.ErrClosed) {
		t.Errorf("ReadFrame after Close: expected ErrClosed, got %v", err)
	}
}

// pipeDialer hands out one end of a net.Pipe.
type pipeDialer struct {
	client  net.Conn
	network string
	address string
}

func (d *pipeDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.network, d.address = network, address
	return d.client, nil
}

func TestConn_InjectedDialerAndMagic(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 3)
		io.ReadFull(server, buf)
		got <- buf
	}()

	d := &pipeDialer{client: client}
	addr := domain.ServerAddress{Host: "nsqd.test", Port: 4150}
	c, err := Dial(context.Background(), addr, WithDialer(d), WithMagic([]byte("V9!")))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if d.network != "tcp" || d.address != "nsqd.test:4150" {
		t.Errorf("dialed %s %s", d.network, d.address)
	}
	if b := <-got; string(b) != "V9!" {
		t.Errorf("preamble = %q, want V9!", b)
	}
	if c.Addr() != addr {
		t.Errorf("Addr() = %v, want %v", c.Addr(), addr)
	}
}

func TestConn_Metrics(t *testing.T) {
	addr := testServer(t, echo)
	m := telemetry.New()

	c, err := Dial(context.Background(), addr, WithTimeout(time.Second), WithMetrics(m))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if err := c.SendFrame([]byte("abc")); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	if _, err := c.ReadFrame(); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}

	if got := testutil.ToFloat64(m.DialsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("dials ok = %v, want 1", got)
	}
	// 4 preamble bytes + 4 header + 3 payload
	if got := testutil.ToFloat64(m.BytesSent); got != 11 {
		t.Errorf("bytes sent = %v, want 11", got)
	}
	if got := testutil.ToFloat64(m.FrameBytesRead); got != 3 {
		t.Errorf("frame bytes = %v, want 3", got)
	}
}

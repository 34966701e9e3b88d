package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Typed errors below match these with errors.Is.
var (
	// ErrConnection reports a transport failure: refused or timed out dial,
	// peer closed mid-frame, or a failed write.
	ErrConnection = errors.New("nsqs: connection error")

	// ErrProtocol reports a frame that violates a configured protocol limit.
	ErrProtocol = errors.New("nsqs: protocol error")

	// ErrDiscovery reports that no lookup host could resolve a topic.
	ErrDiscovery = errors.New("nsqs: discovery error")

	// ErrClosed is wrapped by ConnectionError when a closed connection is used.
	ErrClosed = errors.New("nsqs: connection closed")
)

// ConnectionError describes a failed operation on a single server connection.
type ConnectionError struct {
	// Op is the failed operation: "dial", "handshake", "read" or "write".
	Op string

	// Addr is the remote address in host:port form.
	Addr string

	// Err is the underlying cause.
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("nsqs: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is reports ErrConnection as a match so callers need not use errors.As.
func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// ProtocolError describes a frame rejected by the connection.
type ProtocolError struct {
	Reason string
	Size   uint32
	Max    int
}

func (e *ProtocolError) Error() string {
	if e.Max > 0 {
		return fmt.Sprintf("nsqs: %s (size %d, max %d)", e.Reason, e.Size, e.Max)
	}
	return "nsqs: " + e.Reason
}

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// DiscoveryError is returned when every lookup host failed for a topic.
type DiscoveryError struct {
	Topic string

	// Causes holds one error per failed lookup host, in query order.
	Causes []error
}

func (e *DiscoveryError) Error() string {
	if len(e.Causes) == 0 {
		return fmt.Sprintf("nsqs: no lookup hosts configured for topic %q", e.Topic)
	}
	msgs := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		msgs[i] = c.Error()
	}
	return fmt.Sprintf("nsqs: all %d lookup hosts failed for topic %q: %s",
		len(e.Causes), e.Topic, strings.Join(msgs, "; "))
}

// Unwrap exposes the per-host causes to errors.Is and errors.As.
func (e *DiscoveryError) Unwrap() []error { return e.Causes }

func (e *DiscoveryError) Is(target error) bool { return target == ErrDiscovery }

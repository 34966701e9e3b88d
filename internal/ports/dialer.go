package ports

import (
	"context"
	"net"
)

// Dialer opens network connections. *net.Dialer satisfies this interface.
type Dialer interface {
	// DialContext connects to the address on the named network.
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Package nsqs is a small client for NSQ-style servers: discover the nodes
// carrying a topic, connect with the "  V2" preamble, and exchange
// length-prefixed frames.
//
// Example usage:
//
//	d := nsqs.NewHTTPLookup([]string{"http://127.0.0.1:4161"}, nil)
//	addrs, err := d.GetServers(ctx, "orders")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, err := nsqs.Dial(ctx, addrs[0])
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//	if err := c.SendFrame([]byte("PING")); err != nil {
//	    log.Fatal(err)
//	}
//	resp, err := c.ReadFrame()
package nsqs

import (
	"context"
	"net/http"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/bft-labs/nsqs/internal/adapters/etcd"
	lookuphttp "github.com/bft-labs/nsqs/internal/adapters/http"
	"github.com/bft-labs/nsqs/internal/domain"
	"github.com/bft-labs/nsqs/internal/ports"
	"github.com/bft-labs/nsqs/internal/telemetry"
	"github.com/bft-labs/nsqs/pkg/conn"
	"github.com/bft-labs/nsqs/pkg/discovery"
)

// ServerAddress identifies one server by host and TCP port.
type ServerAddress = domain.ServerAddress

// Conn is a synchronous connection to one server.
type Conn = conn.Conn

// Discovery resolves a topic to the servers carrying it.
type Discovery = discovery.Discovery

// Querier asks one lookup host for the servers of a topic.
type Querier = ports.Querier

// HTTPClient is the subset of *http.Client used by the nsqlookupd querier.
type HTTPClient = ports.HTTPClient

// Metrics collects connection and discovery counters on a private registry.
type Metrics = telemetry.Metrics

// Error types. Each matches its sentinel with errors.Is.
type (
	ConnectionError = domain.ConnectionError
	ProtocolError   = domain.ProtocolError
	DiscoveryError  = domain.DiscoveryError
)

// Sentinel errors.
var (
	ErrConnection = domain.ErrConnection
	ErrProtocol   = domain.ErrProtocol
	ErrDiscovery  = domain.ErrDiscovery
	ErrClosed     = domain.ErrClosed
)

// Dial connects to addr and writes the protocol preamble.
func Dial(ctx context.Context, addr ServerAddress, opts ...conn.Option) (*Conn, error) {
	return conn.Dial(ctx, addr, opts...)
}

// ParseServerAddress parses "host:port".
func ParseServerAddress(s string) (ServerAddress, error) {
	return domain.ParseServerAddress(s)
}

// NewStatic returns a Discovery that answers every topic with addrs.
func NewStatic(addrs []ServerAddress) *discovery.Static {
	return discovery.NewStatic(addrs)
}

// NewLookup returns a Discovery that asks each host through querier.
func NewLookup(hosts []string, querier Querier, opts ...discovery.Option) *discovery.Lookup {
	return discovery.NewLookup(hosts, querier, opts...)
}

// NewHTTPLookup returns a Discovery over nsqlookupd HTTP endpoints. A nil
// client uses an *http.Client bounded by conn.DefaultTimeout.
func NewHTTPLookup(hosts []string, client HTTPClient, opts ...discovery.Option) *discovery.Lookup {
	if client == nil {
		client = &http.Client{Timeout: conn.DefaultTimeout}
	}
	return discovery.NewLookup(hosts, lookuphttp.NewLookupQuerier(client), opts...)
}

// NewEtcdLookup returns a Discovery over registrations stored in etcd under
// prefix. An empty prefix uses the default.
func NewEtcdLookup(kv clientv3.KV, prefix string, opts ...discovery.Option) *discovery.Lookup {
	if prefix == "" {
		prefix = etcd.DefaultPrefix
	}
	return discovery.NewLookup([]string{prefix}, etcd.NewLookupQuerier(kv), opts...)
}

// NewMetrics creates a metrics set on its own registry.
func NewMetrics() *Metrics {
	return telemetry.New()
}

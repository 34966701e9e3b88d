package ports

import (
	"context"

	"github.com/bft-labs/nsqs/internal/domain"
)

// Querier asks a single lookup host which servers carry a topic.
// The lookup host string is interpreted by the implementation: an HTTP base
// URL for nsqlookupd, a key prefix for etcd.
type Querier interface {
	// Query returns the addresses reported by lookupHost for topic.
	// An empty result with nil error means the host answered but knows no
	// producers for the topic.
	Query(ctx context.Context, lookupHost, topic string) ([]domain.ServerAddress, error)
}

// QuerierFunc adapts an ordinary function to the Querier interface.
type QuerierFunc func(ctx context.Context, lookupHost, topic string) ([]domain.ServerAddress, error)

// Query calls f(ctx, lookupHost, topic).
func (f QuerierFunc) Query(ctx context.Context, lookupHost, topic string) ([]domain.ServerAddress, error) {
	return f(ctx, lookupHost, topic)
}

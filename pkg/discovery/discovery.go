// Package discovery resolves a topic to the servers that may carry it.
//
// Three strategies implement [Discovery]:
//
//   - [Static]: a fixed, caller-supplied list returned for every topic
//   - [Lookup]: queries one or more lookup hosts through a ports.Querier
//   - [File]: a TOML servers file, optionally reloaded on change
package discovery

import (
	"context"

	"github.com/bft-labs/nsqs/internal/domain"
)

// Discovery resolves a topic to candidate server addresses.
type Discovery interface {
	// GetServers returns the candidate servers for topic.
	GetServers(ctx context.Context, topic string) ([]domain.ServerAddress, error)
}

// Static returns the same list of servers for every topic. It cannot verify
// that the servers actually carry the requested topic.
type Static struct {
	servers []domain.ServerAddress
}

// NewStatic creates a Static discovery over a copy of servers.
func NewStatic(servers []domain.ServerAddress) *Static {
	return &Static{servers: append([]domain.ServerAddress(nil), servers...)}
}

// GetServers ignores topic and returns the configured list in order.
func (s *Static) GetServers(_ context.Context, _ string) ([]domain.ServerAddress, error) {
	return append([]domain.ServerAddress(nil), s.servers...), nil
}

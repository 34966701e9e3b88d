package discovery

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/bft-labs/nsqs/internal/domain"
	"github.com/bft-labs/nsqs/internal/ports"
	"github.com/bft-labs/nsqs/internal/telemetry"
	"github.com/bft-labs/nsqs/pkg/log"
)

// Lookup resolves topics by querying lookup hosts one after another.
// Results are best effort: hosts that fail are skipped as long as at least
// one host answers.
type Lookup struct {
	hosts   []string
	querier ports.Querier
	logger  log.Logger
	metrics *telemetry.Metrics
}

// ErrNoQuerier is reported for every host of a Lookup built without a querier.
var ErrNoQuerier = errors.New("discovery: no querier configured")

// NewLookup creates a Lookup over hosts, queried in the given order. A nil
// querier makes every host fail with ErrNoQuerier.
func NewLookup(hosts []string, querier ports.Querier, opts ...Option) *Lookup {
	st := newSettings(opts)
	if querier == nil {
		querier = ports.QuerierFunc(func(context.Context, string, string) ([]domain.ServerAddress, error) {
			return nil, ErrNoQuerier
		})
	}
	return &Lookup{
		hosts:   append([]string(nil), hosts...),
		querier: querier,
		logger:  st.logger,
		metrics: st.metrics,
	}
}

// Hosts returns the configured lookup hosts.
func (lk *Lookup) Hosts() []string {
	return append([]string(nil), lk.hosts...)
}

// Servers returns a lazy sequence of the addresses reported for topic.
//
// Hosts are queried only as the caller iterates; stopping early leaves the
// remaining hosts unqueried. Ranging again re-runs the queries. Each address
// is yielded once even if several hosts report it. If every host fails, the
// sequence ends with a single *domain.DiscoveryError.
func (lk *Lookup) Servers(ctx context.Context, topic string) iter.Seq2[domain.ServerAddress, error] {
	return func(yield func(domain.ServerAddress, error) bool) {
		seen := make(map[domain.ServerAddress]struct{})
		var causes []error
		answered := false

		for _, host := range lk.hosts {
			if err := ctx.Err(); err != nil {
				causes = append(causes, fmt.Errorf("lookup %s: %w", host, err))
				continue
			}

			addrs, err := lk.querier.Query(ctx, host, topic)
			lk.metrics.ObserveLookup(err)
			if err != nil {
				lk.logger.Warn("lookup host failed",
					log.String("lookup_host", host),
					log.String("topic", topic),
					log.Err(err))
				causes = append(causes, fmt.Errorf("lookup %s: %w", host, err))
				continue
			}
			answered = true

			for _, a := range addrs {
				if _, dup := seen[a]; dup {
					continue
				}
				seen[a] = struct{}{}
				if !yield(a, nil) {
					return
				}
			}
		}

		if !answered {
			lk.logger.Warn("no lookup host answered",
				log.String("topic", topic),
				log.Strings("lookup_hosts", lk.hosts))
			yield(domain.ServerAddress{}, &domain.DiscoveryError{Topic: topic, Causes: causes})
		}
	}
}

// GetServers drains Servers into a slice.
func (lk *Lookup) GetServers(ctx context.Context, topic string) ([]domain.ServerAddress, error) {
	var out []domain.ServerAddress
	for addr, err := range lk.Servers(ctx, topic) {
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// Package etcd resolves topics from server registrations kept in etcd.
//
// Registrations live under <prefix>/<topic>/<host:port> with the address as
// the value, so a topic lookup is a single prefix range read.
package etcd

import (
	"context"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/bft-labs/nsqs/internal/domain"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "/nsqs/topics"

// NewClient creates an etcd client for endpoints.
func NewClient(endpoints []string, dialTimeout time.Duration) (*clientv3.Client, error) {
	return clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
}

// LookupQuerier implements ports.Querier over an etcd key space. The lookup
// host passed to Query is the key prefix.
type LookupQuerier struct {
	kv clientv3.KV
}

// NewLookupQuerier creates a querier reading through kv. *clientv3.Client
// satisfies clientv3.KV.
func NewLookupQuerier(kv clientv3.KV) *LookupQuerier {
	return &LookupQuerier{kv: kv}
}

// Query lists the servers registered for topic under prefix.
func (q *LookupQuerier) Query(ctx context.Context, prefix, topic string) ([]domain.ServerAddress, error) {
	resp, err := q.kv.Get(ctx, topicKey(prefix, topic), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("etcd get: %w", err)
	}

	addrs := make([]domain.ServerAddress, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		addr, err := domain.ParseServerAddress(string(kv.Value))
		if err != nil {
			return nil, fmt.Errorf("etcd key %s: %w", kv.Key, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// Register announces addr as carrying topic, bound to a lease of ttl seconds.
// The lease is kept alive until ctx is canceled; the returned function
// revokes it immediately.
func Register(ctx context.Context, cli *clientv3.Client, prefix, topic string, addr domain.ServerAddress, ttl int64) (func(), error) {
	leaseID, err := put(ctx, cli, cli, prefix, topic, addr, ttl)
	if err != nil {
		return nil, err
	}

	keepCtx, cancel := context.WithCancel(ctx)
	ch, err := cli.KeepAlive(keepCtx, leaseID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("etcd keepalive: %w", err)
	}
	go func() {
		for range ch {
		}
	}()

	return func() {
		cancel()
		revokeCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_, _ = cli.Revoke(revokeCtx, leaseID)
	}, nil
}

func put(ctx context.Context, kv clientv3.KV, lease clientv3.Lease, prefix, topic string, addr domain.ServerAddress, ttl int64) (clientv3.LeaseID, error) {
	grant, err := lease.Grant(ctx, ttl)
	if err != nil {
		return 0, fmt.Errorf("etcd grant: %w", err)
	}
	key := topicKey(prefix, topic) + addr.String()
	if _, err := kv.Put(ctx, key, addr.String(), clientv3.WithLease(grant.ID)); err != nil {
		return 0, fmt.Errorf("etcd put: %w", err)
	}
	return grant.ID, nil
}

// topicKey returns "<prefix>/<topic>/". The trailing slash keeps topic
// "a" from matching registrations of topic "ab".
func topicKey(prefix, topic string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return strings.TrimRight(prefix, "/") + "/" + topic + "/"
}

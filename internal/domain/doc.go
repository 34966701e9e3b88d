// Package domain contains the core value types and error taxonomy for nsqs.
//
// This package has no dependencies on infrastructure concerns (sockets, HTTP,
// etcd, logging) and contains only the shared vocabulary used by the
// connection and discovery layers.
//
// # Entities
//
//   - [ServerAddress]: an immutable host/port pair identifying a daemon
//   - [ConnectionError]: transport-level failure on dial, read or write
//   - [ProtocolError]: a frame that violates configured protocol limits
//   - [DiscoveryError]: every configured lookup host failed for a topic
package domain

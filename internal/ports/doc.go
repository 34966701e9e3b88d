// Package ports defines the interfaces (ports) that connect the connection and
// discovery layers to infrastructure adapters.
//
// Ports are the boundaries between nsqs and the outside world. They define
// what the library needs from external systems without specifying how those
// needs are fulfilled.
//
// # Port Interfaces
//
//   - [Dialer]: Opens the TCP connection to a daemon
//   - [HTTPClient]: HTTP request abstraction for lookup queries
//   - [Querier]: Resolves a topic against one lookup host
//
// # Usage
//
// pkg/conn and pkg/discovery depend only on these interfaces. Adapters in
// internal/adapters implement them with concrete transports (HTTP, etcd).
// Tests substitute hand-written fakes.
package ports

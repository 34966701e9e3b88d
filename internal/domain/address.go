package domain

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ServerAddress identifies a reachable daemon. It is a value type and is
// never mutated after construction.
type ServerAddress struct {
	Host string
	Port int
}

// NewServerAddress validates and returns an address.
func NewServerAddress(host string, port int) (ServerAddress, error) {
	if host == "" {
		return ServerAddress{}, fmt.Errorf("empty host")
	}
	if port <= 0 || port > 65535 {
		return ServerAddress{}, fmt.Errorf("port %d out of range", port)
	}
	return ServerAddress{Host: host, Port: port}, nil
}

// ParseServerAddress parses "host:port". IPv6 hosts must be bracketed.
func ParseServerAddress(s string) (ServerAddress, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(s))
	if err != nil {
		return ServerAddress{}, fmt.Errorf("parse server address %q: %w", s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return ServerAddress{}, fmt.Errorf("parse server address %q: invalid port", s)
	}
	addr, err := NewServerAddress(host, port)
	if err != nil {
		return ServerAddress{}, fmt.Errorf("parse server address %q: %w", s, err)
	}
	return addr, nil
}

// ParseServerAddresses parses each entry with ParseServerAddress, skipping
// blank entries.
func ParseServerAddresses(list []string) ([]ServerAddress, error) {
	out := make([]ServerAddress, 0, len(list))
	for _, s := range list {
		if strings.TrimSpace(s) == "" {
			continue
		}
		addr, err := ParseServerAddress(s)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// String returns the address in host:port form.
func (a ServerAddress) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

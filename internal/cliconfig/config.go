package cliconfig

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/nsqs/internal/adapters/etcd"
	"github.com/bft-labs/nsqs/internal/domain"
	"github.com/bft-labs/nsqs/pkg/protocol"
)

// DefaultTimeout applies to connect and to every blocking call on a connection.
const DefaultTimeout = 5 * time.Second

// Discovery modes, in the order Config.DiscoveryMode prefers them.
const (
	ModeEtcd   = "etcd"
	ModeLookup = "lookup"
	ModeFile   = "file"
	ModeStatic = "static"
)

// Config holds CLI configuration for nsqs.
type Config struct {
	Servers     []string
	ServersFile string

	LookupHosts []string

	EtcdEndpoints []string
	EtcdPrefix    string

	Timeout      time.Duration
	MaxFrameSize int
	Magic        string

	LogLevel    string
	MetricsAddr string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		EtcdPrefix: etcd.DefaultPrefix,
		Timeout:    DefaultTimeout,
		Magic:      string(protocol.MagicV2[:]),
		LogLevel:   "info",
	}
}

// Validate checks the configuration for errors and normalizes list values.
func (c *Config) Validate() error {
	c.Servers = cleanList(c.Servers)
	c.LookupHosts = cleanList(c.LookupHosts)
	c.EtcdEndpoints = cleanList(c.EtcdEndpoints)

	if _, err := domain.ParseServerAddresses(c.Servers); err != nil {
		return fmt.Errorf("servers: %w", err)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.MaxFrameSize < 0 {
		return fmt.Errorf("max-frame-size must not be negative")
	}
	if len(c.Magic) != len(protocol.MagicV2) {
		return fmt.Errorf("magic must be exactly %d bytes, got %d", len(protocol.MagicV2), len(c.Magic))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	if c.EtcdPrefix == "" {
		c.EtcdPrefix = etcd.DefaultPrefix
	}
	return nil
}

// DiscoveryMode reports which discovery strategy the configuration selects.
func (c *Config) DiscoveryMode() (string, error) {
	switch {
	case len(c.EtcdEndpoints) > 0:
		return ModeEtcd, nil
	case len(c.LookupHosts) > 0:
		return ModeLookup, nil
	case c.ServersFile != "":
		return ModeFile, nil
	case len(c.Servers) > 0:
		return ModeStatic, nil
	default:
		return "", fmt.Errorf("no discovery source configured (set --servers, --servers-file, --lookup or --etcd)")
	}
}

// Level returns the parsed log level. Call after Validate.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseTimeout accepts a Go duration ("1.5s") or a bare number of seconds.
func parseTimeout(value string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return time.ParseDuration(value)
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) || math.Abs(secs) > maxTimeoutSeconds {
		return 0, fmt.Errorf("timeout %q out of range", value)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// maxTimeoutSeconds is the largest number of seconds a time.Duration holds.
const maxTimeoutSeconds = float64(math.MaxInt64 / int64(time.Second))

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setStringsFromCSV splits a comma-separated value into a list.
// Used for environment variables that come as strings.
func (s *configSetter) setStringsFromCSV(flag, value string, dst *[]string) {
	s.setStrings(flag, cleanList(strings.Split(value, ",")), dst)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setTimeout parses and sets a timeout from string if valid and flag not changed.
func (s *configSetter) setTimeout(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := parseTimeout(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

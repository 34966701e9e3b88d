package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
//
//	servers      = ["10.0.0.1:4150"]
//	lookup_hosts = ["http://lookupd:4161"]
//	timeout      = "2s"
type FileConfig struct {
	Servers       []string `toml:"servers"`
	ServersFile   string   `toml:"servers_file"`
	LookupHosts   []string `toml:"lookup_hosts"`
	EtcdEndpoints []string `toml:"etcd_endpoints"`
	EtcdPrefix    string   `toml:"etcd_prefix"`
	Timeout       string   `toml:"timeout"`
	MaxFrameSize  int      `toml:"max_frame_size"`
	Magic         string   `toml:"magic"`
	LogLevel      string   `toml:"log_level"`
	MetricsAddr   string   `toml:"metrics_addr"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.nsqs/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".nsqs", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
// A relative servers_file is resolved against the config file's directory.
func ApplyFileConfig(cfg *Config, fc FileConfig, path string, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if fc.ServersFile != "" && !filepath.IsAbs(fc.ServersFile) && path != "" {
		fc.ServersFile = filepath.Join(filepath.Dir(path), fc.ServersFile)
	}

	s.setStrings("servers", fc.Servers, &cfg.Servers)
	s.setString("servers-file", fc.ServersFile, &cfg.ServersFile)
	s.setStrings("lookup", fc.LookupHosts, &cfg.LookupHosts)
	s.setStrings("etcd", fc.EtcdEndpoints, &cfg.EtcdEndpoints)
	s.setString("etcd-prefix", fc.EtcdPrefix, &cfg.EtcdPrefix)
	s.setString("magic", fc.Magic, &cfg.Magic)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)

	if err := s.setTimeout("timeout", fc.Timeout, &cfg.Timeout); err != nil {
		return err
	}
	s.setInt("max-frame-size", fc.MaxFrameSize, &cfg.MaxFrameSize)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

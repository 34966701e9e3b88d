package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (NSQS_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setStringsFromCSV("servers", os.Getenv("NSQS_SERVERS"), &cfg.Servers)
	s.setString("servers-file", os.Getenv("NSQS_SERVERS_FILE"), &cfg.ServersFile)
	s.setStringsFromCSV("lookup", os.Getenv("NSQS_LOOKUP"), &cfg.LookupHosts)
	s.setStringsFromCSV("etcd", os.Getenv("NSQS_ETCD"), &cfg.EtcdEndpoints)
	s.setString("etcd-prefix", os.Getenv("NSQS_ETCD_PREFIX"), &cfg.EtcdPrefix)
	s.setString("magic", os.Getenv("NSQS_MAGIC"), &cfg.Magic)
	s.setString("log-level", os.Getenv("NSQS_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("metrics-addr", os.Getenv("NSQS_METRICS_ADDR"), &cfg.MetricsAddr)

	if err := s.setTimeout("timeout", os.Getenv("NSQS_TIMEOUT"), &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setIntFromString("max-frame-size", os.Getenv("NSQS_MAX_FRAME_SIZE"), &cfg.MaxFrameSize); err != nil {
		return err
	}

	return nil
}

package fs

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/nsqs/internal/domain"
)

// ServersFile is the on-disk format of a static servers list:
//
//	servers = ["10.0.0.1:4150", "10.0.0.2:4150"]
type ServersFile struct {
	Servers []string `toml:"servers"`
}

// LoadServers reads and parses a servers file.
func LoadServers(path string) ([]domain.ServerAddress, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf ServersFile
	if err := toml.Unmarshal(b, &sf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	addrs, err := domain.ParseServerAddresses(sf.Servers)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return addrs, nil
}

// SaveServers writes a servers file atomically (temp file, then rename).
func SaveServers(path string, addrs []domain.ServerAddress) error {
	sf := ServersFile{Servers: make([]string, len(addrs))}
	for i, a := range addrs {
		sf.Servers[i] = a.String()
	}
	data, err := toml.Marshal(sf)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

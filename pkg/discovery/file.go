package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/nsqs/internal/adapters/fs"
	"github.com/bft-labs/nsqs/internal/domain"
	"github.com/bft-labs/nsqs/pkg/log"
)

// File serves a static server list read from a TOML file. Like Static it
// ignores the topic. Watch keeps the list in sync with the file.
type File struct {
	path     string
	logger   log.Logger
	debounce time.Duration

	mu      sync.RWMutex
	servers []domain.ServerAddress
}

// NewFile loads path and returns a File discovery over its contents.
func NewFile(path string, opts ...Option) (*File, error) {
	st := newSettings(opts)
	f := &File{
		path:     path,
		logger:   st.logger,
		debounce: st.debounce,
	}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// GetServers returns the most recently loaded list.
func (f *File) GetServers(_ context.Context, _ string) ([]domain.ServerAddress, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]domain.ServerAddress(nil), f.servers...), nil
}

// Reload re-reads the file. On error the previous list is kept.
func (f *File) Reload() error {
	servers, err := fs.LoadServers(f.path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.servers = servers
	f.mu.Unlock()
	return nil
}

// Watch reloads the list whenever the file changes, until ctx is done.
func (f *File) Watch(ctx context.Context) error {
	return fs.WatchFile(ctx, f.path, f.debounce, func() {
		if err := f.Reload(); err != nil {
			f.logger.Error("servers file reload failed, keeping previous list",
				log.String("path", f.path), log.Err(err))
			return
		}
		f.mu.RLock()
		n := len(f.servers)
		f.mu.RUnlock()
		f.logger.Info("servers file reloaded", log.String("path", f.path), log.Int("servers", n))
	})
}

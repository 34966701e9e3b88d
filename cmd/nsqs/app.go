package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/bft-labs/nsqs/internal/adapters/etcd"
	lookuphttp "github.com/bft-labs/nsqs/internal/adapters/http"
	"github.com/bft-labs/nsqs/internal/cliconfig"
	"github.com/bft-labs/nsqs/internal/domain"
	"github.com/bft-labs/nsqs/internal/telemetry"
	"github.com/bft-labs/nsqs/pkg/conn"
	"github.com/bft-labs/nsqs/pkg/discovery"
	"github.com/bft-labs/nsqs/pkg/log"
)

// app carries the resolved configuration and shared dependencies of one
// command invocation.
type app struct {
	cfg     cliconfig.Config
	cfgPath string

	out    io.Writer
	errOut io.Writer

	log     zerolog.Logger
	logger  log.Logger
	metrics *telemetry.Metrics

	etcd    *clientv3.Client
	closers []func()
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		cfg:    cliconfig.DefaultConfig(),
		out:    out,
		errOut: errOut,
		log:    zerolog.Nop(),
		logger: log.NewNoopLogger(),
	}
}

// setup resolves configuration (flags > env > file) and builds the logger,
// metrics and optional metrics endpoint.
func (a *app) setup(cmd *cobra.Command) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	switch {
	case cfgFile != "" && cliconfig.FileExists(cfgFile):
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, cfgFile, changed); err != nil {
			return err
		}
	case a.cfgPath != "":
		return fmt.Errorf("config file %s not found", a.cfgPath)
	}

	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.log = cliconfig.Logger(a.errOut, a.cfg.Level())
	a.logger = log.NewZerologAdapterWithLogger(a.log)
	a.metrics = telemetry.New()
	a.log.Debug().Interface("config", a.cfg).Msg("configuration")

	if a.cfg.MetricsAddr != "" {
		return a.serveMetrics()
	}
	return nil
}

func (a *app) serveMetrics() error {
	ln, err := net.Listen("tcp", a.cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("metrics listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn().Err(err).Msg("metrics server stopped")
		}
	}()
	a.log.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")

	a.onClose(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return nil
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// close runs the registered cleanups in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) etcdClient() (*clientv3.Client, error) {
	if a.etcd != nil {
		return a.etcd, nil
	}
	cli, err := etcd.NewClient(a.cfg.EtcdEndpoints, a.cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("etcd client: %w", err)
	}
	a.etcd = cli
	a.onClose(func() { _ = cli.Close() })
	return cli, nil
}

// discovery builds the discovery strategy selected by the configuration.
func (a *app) discovery() (discovery.Discovery, error) {
	mode, err := a.cfg.DiscoveryMode()
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("mode", mode).Msg("discovery")

	opts := []discovery.Option{
		discovery.WithLogger(a.logger),
		discovery.WithMetrics(a.metrics),
	}

	switch mode {
	case cliconfig.ModeEtcd:
		cli, err := a.etcdClient()
		if err != nil {
			return nil, err
		}
		return discovery.NewLookup([]string{a.cfg.EtcdPrefix}, etcd.NewLookupQuerier(cli), opts...), nil
	case cliconfig.ModeLookup:
		q := lookuphttp.NewLookupQuerier(&http.Client{Timeout: a.cfg.Timeout})
		return discovery.NewLookup(a.cfg.LookupHosts, q, opts...), nil
	case cliconfig.ModeFile:
		f, err := discovery.NewFile(a.cfg.ServersFile, opts...)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		addrs, err := domain.ParseServerAddresses(a.cfg.Servers)
		if err != nil {
			return nil, err
		}
		return discovery.NewStatic(addrs), nil
	}
}

func (a *app) dialOptions() []conn.Option {
	return []conn.Option{
		conn.WithTimeout(a.cfg.Timeout),
		conn.WithMagic([]byte(a.cfg.Magic)),
		conn.WithMaxFrameSize(a.cfg.MaxFrameSize),
		conn.WithLogger(a.logger),
		conn.WithMetrics(a.metrics),
	}
}

// connect dials override when set, otherwise the servers discovered for
// topic in order, returning the first connection that succeeds.
func (a *app) connect(ctx context.Context, topic, override string) (*conn.Conn, error) {
	var candidates []domain.ServerAddress
	if override != "" {
		addr, err := domain.ParseServerAddress(override)
		if err != nil {
			return nil, err
		}
		candidates = []domain.ServerAddress{addr}
	} else {
		d, err := a.discovery()
		if err != nil {
			return nil, err
		}
		candidates, err = d.GetServers(ctx, topic)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("no servers for topic %q", topic)
		}
	}

	var errs []error
	for _, addr := range candidates {
		c, err := conn.Dial(ctx, addr, a.dialOptions()...)
		if err == nil {
			return c, nil
		}
		a.log.Warn().Err(err).Stringer("addr", addr).Msg("dial failed")
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

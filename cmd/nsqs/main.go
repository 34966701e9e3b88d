package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bft-labs/nsqs/internal/cliconfig"
)

const helpDescription = `
Talk to NSQ-style servers: discover the nodes carrying a topic, open a
connection with the "  V2" preamble, and exchange length-prefixed frames.

Discovery sources, first configured wins:
  --etcd          registrations kept in etcd under <etcd-prefix>/<topic>/
  --lookup        nsqlookupd HTTP endpoints (GET /lookup?topic=...)
  --servers-file  TOML file with servers = ["host:port", ...]
  --servers       a fixed list

Configuration is read from $HOME/.nsqs/config.toml, then NSQS_* environment
variables, then flags.
`

var exampleUsage = strings.TrimSpace(`
  nsqs --lookup http://127.0.0.1:4161 servers orders
  nsqs --servers 127.0.0.1:4150 send orders 'PING' --read 1
  nsqs --servers-file servers.toml probe orders --interval 5s
  nsqs --etcd 127.0.0.1:2379 announce orders 10.0.0.7:4150
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	root, cleanup := newRootCmd(os.Stdout, os.Stderr)
	err := root.ExecuteContext(ctx)
	cleanup()
	stop()

	if err != nil {
		log := cliconfig.Logger(os.Stderr, zerolog.InfoLevel)
		log.Error().Err(err).Msg("nsqs")
		os.Exit(1)
	}
}

// newRootCmd builds the command tree writing results to out and logs to
// errOut. The returned function releases what the commands opened.
func newRootCmd(out, errOut io.Writer) (*cobra.Command, func()) {
	a := newApp(out, errOut)

	root := &cobra.Command{
		Use:           "nsqs",
		Short:         "Discover NSQ-style servers and exchange length-prefixed frames",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	cfg := &a.cfg
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.nsqs/config.toml)")
	pf.StringSliceVar(&cfg.Servers, "servers", nil, "static server list (host:port, comma separated)")
	pf.StringVar(&cfg.ServersFile, "servers-file", "", "TOML file listing servers; watched by probe --interval")
	pf.StringSliceVar(&cfg.LookupHosts, "lookup", nil, "nsqlookupd HTTP addresses")
	pf.StringSliceVar(&cfg.EtcdEndpoints, "etcd", nil, "etcd endpoints holding topic registrations")
	pf.StringVar(&cfg.EtcdPrefix, "etcd-prefix", cfg.EtcdPrefix, "etcd key prefix for topic registrations")
	pf.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "connect and per-operation timeout (0 disables)")
	pf.IntVar(&cfg.MaxFrameSize, "max-frame-size", 0, "reject frames larger than this many bytes (0 = unlimited)")
	pf.StringVar(&cfg.Magic, "magic", cfg.Magic, "4-byte protocol preamble")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	if err := pf.MarkHidden("magic"); err != nil {
		fmt.Fprintf(errOut, "failed to hide magic flag: %v\n", err)
	}

	root.AddCommand(
		newServersCmd(a),
		newSendCmd(a),
		newProbeCmd(a),
		newAnnounceCmd(a),
	)
	return root, a.close
}

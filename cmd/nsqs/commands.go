package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/nsqs/internal/adapters/etcd"
	"github.com/bft-labs/nsqs/internal/adapters/fs"
	"github.com/bft-labs/nsqs/internal/domain"
	"github.com/bft-labs/nsqs/internal/retry"
	"github.com/bft-labs/nsqs/pkg/conn"
	"github.com/bft-labs/nsqs/pkg/discovery"
)

func newServersCmd(a *app) *cobra.Command {
	var save string
	cmd := &cobra.Command{
		Use:   "servers <topic>",
		Short: "Print the servers discovered for a topic, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.discovery()
			if err != nil {
				return err
			}
			addrs, err := d.GetServers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, addr := range addrs {
				fmt.Fprintln(a.out, addr)
			}

			if save != "" {
				if err := fs.SaveServers(save, addrs); err != nil {
					return fmt.Errorf("save servers: %w", err)
				}
				a.log.Info().Str("path", save).Int("servers", len(addrs)).Msg("servers file written")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&save, "save", "", "also write the result as a servers file usable with --servers-file")
	return cmd
}

func newSendCmd(a *app) *cobra.Command {
	var (
		addr  string
		raw   bool
		reads int
	)
	cmd := &cobra.Command{
		Use:   "send <topic> <payload>",
		Short: "Send one frame to the first reachable server and print the response frames",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(cmd.Context(), args[0], addr)
			if err != nil {
				return err
			}
			defer c.Close()

			payload := []byte(args[1])
			if raw {
				err = c.Send(payload)
			} else {
				err = c.SendFrame(payload)
			}
			if err != nil {
				return err
			}
			a.log.Debug().Stringer("addr", c.Addr()).Int("bytes", len(payload)).Msg("sent")

			for i := 0; i < reads; i++ {
				frame, err := c.ReadFrame()
				if err != nil {
					return fmt.Errorf("read frame %d: %w", i+1, err)
				}
				fmt.Fprintf(a.out, "%s\n", frame)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "send to this host:port instead of discovering")
	cmd.Flags().BoolVar(&raw, "raw", false, "write the payload as is, without a length prefix")
	cmd.Flags().IntVar(&reads, "read", 1, "number of response frames to read")
	return cmd
}

func newProbeCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		count    int
	)
	cmd := &cobra.Command{
		Use:   "probe <topic>",
		Short: "Dial every discovered server and report which accept the handshake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			topic := args[0]

			d, err := a.discovery()
			if err != nil {
				return err
			}

			if interval <= 0 {
				ok, err := a.probeRound(ctx, d, topic)
				if err != nil {
					return err
				}
				if ok == 0 {
					return fmt.Errorf("no reachable servers for topic %q", topic)
				}
				return nil
			}

			if f, isFile := d.(*discovery.File); isFile {
				go func() {
					if err := f.Watch(ctx); err != nil && ctx.Err() == nil {
						a.log.Warn().Err(err).Msg("servers file watch stopped")
					}
				}()
			}

			b := retry.NewBackoff(retry.DefaultInitial, interval)
			for round := 1; count <= 0 || round <= count; round++ {
				ok, err := a.probeRound(ctx, d, topic)
				if round == count {
					break
				}

				if err != nil || ok == 0 {
					err = b.Wait(ctx)
				} else {
					b.Reset()
					err = retry.Sleep(ctx, interval)
				}
				if err != nil {
					// interrupted
					return nil
				}
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "repeat the probe at this interval until interrupted")
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many rounds (with --interval)")
	return cmd
}

// probeRound dials each server discovered for topic once and returns how
// many accepted the connection.
func (a *app) probeRound(ctx context.Context, d discovery.Discovery, topic string) (int, error) {
	addrs, err := d.GetServers(ctx, topic)
	if err != nil {
		a.log.Warn().Err(err).Str("topic", topic).Msg("discovery failed")
		return 0, err
	}

	ok := 0
	for _, addr := range addrs {
		start := time.Now()
		c, err := conn.Dial(ctx, addr, a.dialOptions()...)
		if err != nil {
			fmt.Fprintf(a.out, "%s\tfail\t%v\n", addr, err)
			continue
		}
		_ = c.Close()
		ok++
		fmt.Fprintf(a.out, "%s\tok\t%s\n", addr, time.Since(start).Round(time.Millisecond))
	}
	return ok, nil
}

func newAnnounceCmd(a *app) *cobra.Command {
	var ttl int64
	cmd := &cobra.Command{
		Use:   "announce <topic> <host:port>",
		Short: "Register a server for a topic in etcd until interrupted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(a.cfg.EtcdEndpoints) == 0 {
				return fmt.Errorf("announce requires --etcd")
			}
			addr, err := domain.ParseServerAddress(args[1])
			if err != nil {
				return err
			}
			cli, err := a.etcdClient()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			revoke, err := etcd.Register(ctx, cli, a.cfg.EtcdPrefix, args[0], addr, ttl)
			if err != nil {
				return err
			}
			defer revoke()

			a.log.Info().
				Str("topic", args[0]).
				Stringer("addr", addr).
				Int64("ttl", ttl).
				Msg("registered")
			<-ctx.Done()
			a.log.Info().Msg("received signal, revoking registration")
			return nil
		},
	}
	cmd.Flags().Int64Var(&ttl, "ttl", 10, "lease TTL in seconds")
	return cmd
}

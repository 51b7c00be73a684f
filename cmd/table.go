package main

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/luca-patrignani/zk-holdem/application"
	"github.com/luca-patrignani/zk-holdem/application/table"
	"github.com/luca-patrignani/zk-holdem/discovery"
	"github.com/luca-patrignani/zk-holdem/ledger"
	"github.com/luca-patrignani/zk-holdem/network"
)

func newTableCmd(opts *rootOptions) *cobra.Command {
	var (
		seed     string
		listen   string
		announce bool
	)
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Run the dealer node of a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				opts.cfg.Node.Listen = listen
			}
			return runTable(cmd.Context(), opts, seed, announce)
		},
	}
	cmd.Flags().StringVar(&seed, "key", "", "Key seed of the table identity (random when empty)")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (overrides node.listen)")
	cmd.Flags().BoolVar(&announce, "announce", true, "Answer discovery requests from players on this host")
	return cmd
}

func runTable(ctx context.Context, opts *rootOptions, seed string, announce bool) error {
	cfg, logger := opts.cfg, opts.logger
	banner(opts)
	kp := keyPair(seed)

	prover, verifier, err := loadProofs(cfg)
	if err != nil {
		return err
	}

	var store ledger.Store = ledger.NewMemoryStore()
	if cfg.Node.Database != "" {
		if store, err = ledger.NewSQLiteStore(cfg.Node.Database); err != nil {
			return err
		}
	}
	defer store.Close()
	chain, err := ledger.Open(ctx, store)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}

	l, err := net.Listen("tcp", cfg.Node.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Node.Listen, err)
	}
	peerOpts, err := peerTLS(cfg.TLS)
	if err != nil {
		l.Close()
		return err
	}
	peerOpts = append(peerOpts, network.WithLogger(logger), network.WithAddressLearning())
	peer := network.NewPeer(kp.Identity(), cfg.Addresses(), l, peerOpts...)
	defer peer.Close()

	node, err := application.NewGameOrchestrator(ctx, kp, table.NewMachine(prover, verifier), cfg.Table, peer,
		application.WithLogger(logger),
		application.WithBlockInterval(cfg.Node.BlockInterval),
		application.WithLedger(chain),
		application.WithSnapshots(store),
		application.WithAutoRestart(),
	)
	if err != nil {
		return err
	}

	rows := [][2]string{
		{"listening", l.Addr().String()},
		{"proofs", string(cfg.Proofs.Mode) + " / " + string(cfg.Table.RevealMode)},
		{"blinds", fmt.Sprintf("%d / %d", cfg.Table.SmallBlind, cfg.Table.BigBlind)},
		{"stakes", fmt.Sprintf("%d to %d", cfg.Table.MinStake, cfg.Table.MaxStake)},
		{"ledger", fmt.Sprintf("%d blocks", chain.Len())},
	}
	if subnet, err := subnetOfListener(l); err == nil {
		rows = append(rows, [2]string{"subnet", subnet.String()})
	}
	if announce {
		a, err := discovery.Announce(discovery.Announcement{
			Identity:   kp.Identity(),
			Address:    l.Addr().String(),
			SmallBlind: cfg.Table.SmallBlind,
			BigBlind:   cfg.Table.BigBlind,
			MinStake:   cfg.Table.MinStake,
			MaxStake:   cfg.Table.MaxStake,
			RevealMode: string(cfg.Table.RevealMode),
		}, discovery.WithLogger(logger))
		if err != nil {
			logger.Warn("not announcing", "err", err)
		} else {
			defer a.Close()
			rows = append(rows, [2]string{"discovery port", fmt.Sprint(a.Port())})
		}
	}
	tableInfo("Table", kp.Identity(), rows...)

	if err := node.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("table stopped", "blocks", chain.Len())
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/coder/quartz"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luca-patrignani/zk-holdem/application"
	"github.com/luca-patrignani/zk-holdem/application/hand"
	"github.com/luca-patrignani/zk-holdem/config"
	"github.com/luca-patrignani/zk-holdem/discovery"
	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/escrow"
	"github.com/luca-patrignani/zk-holdem/network"
	"github.com/luca-patrignani/zk-holdem/protocol"
)

const refresh = 200 * time.Millisecond

type playerOptions struct {
	seed      string
	name      string
	tableName string
	tableID   string
	tableAddr string
	listen    string
	stake     uint64
	balance   uint64
	auto      bool
	discover  bool
}

func newPlayerCmd(opts *rootOptions) *cobra.Command {
	po := playerOptions{}
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Sit at a table and play heads-up hands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayer(cmd.Context(), opts, po)
		},
	}
	f := cmd.Flags()
	f.StringVar(&po.seed, "key", "", "Key seed of the player identity (random when empty)")
	f.StringVarP(&po.name, "name", "n", "", "Player name; a peer block with this name gives the listen address")
	f.StringVar(&po.tableName, "table", "table", "Name of the table's peer block")
	f.StringVar(&po.tableID, "table-id", "", "Table identity, instead of a peer block")
	f.StringVar(&po.tableAddr, "table-addr", "", "Table address; partial addresses are completed from the local one")
	f.StringVarP(&po.listen, "listen", "l", "", "Address to listen on")
	f.Uint64Var(&po.stake, "stake", 100, "Stake locked for every hand")
	f.Uint64Var(&po.balance, "balance", 1000, "Chips deposited in escrow at start")
	f.BoolVar(&po.auto, "auto", false, "Check or call automatically instead of prompting")
	f.BoolVar(&po.discover, "discover", false, "Look for tables announced on this host")
	return cmd
}

func runPlayer(ctx context.Context, opts *rootOptions, po playerOptions) error {
	cfg, logger := opts.cfg, opts.logger
	banner(opts)
	if po.name == "" {
		name, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Enter your username").Show()
		pterm.Println()
		po.name = name
	}
	kp := keyPair(po.seed)

	listen := po.listen
	if self, ok := cfg.PeerByName(po.name); ok && listen == "" {
		listen = self.Address
	}
	if listen == "" {
		listen = "127.0.0.1:0"
	}
	l, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", listen, err)
	}

	if po.discover {
		a, err := discoverTable(ctx, logger)
		if err != nil {
			l.Close()
			return err
		}
		po.tableID, po.tableAddr = string(a.Identity), a.Address
	}
	tableID, tableAddr, err := resolveTable(cfg.PeerByName, po, l)
	if err != nil {
		l.Close()
		return err
	}
	peerOpts, err := peerTLS(cfg.TLS)
	if err != nil {
		l.Close()
		return err
	}
	peerOpts = append(peerOpts, network.WithLogger(logger), network.WithAdvertisedAddress(l.Addr().String()))
	peer := network.NewPeer(kp.Identity(), map[protocol.Identity]string{tableID: tableAddr}, l, peerOpts...)
	defer peer.Close()

	prover, verifier, err := loadProofs(cfg)
	if err != nil {
		return err
	}
	actor := hand.NewActor(tableID, escrow.Account{Balance: po.balance}, prover, verifier,
		hand.WithAutoReveal(),
		hand.WithRevealMode(cfg.Table.RevealMode),
		hand.WithHandApp(po.name),
	)
	nodeOpts := []application.PlayerOption{
		application.WithPlayerLogger(logger),
		application.WithTimeoutPolling(quartz.NewReal(), cfg.Node.BlockInterval),
	}
	if po.auto {
		nodeOpts = append(nodeOpts, application.WithStrategy(application.CheckOrCall))
	}
	node := application.NewPlayerNode(kp, actor, peer, nodeOpts...)

	tableInfo("Player "+po.name, kp.Identity(),
		[2]string{"listening", l.Addr().String()},
		[2]string{"table", tableID.Short() + " at " + tableAddr},
		[2]string{"balance", strconv.FormatUint(po.balance, 10)},
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return node.Run(ctx) })
	g.Go(func() error {
		defer cancel()
		return play(ctx, node, po)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// resolveTable finds the table from the flags, falling back to its peer block.
func resolveTable(lookup func(string) (config.Peer, bool), po playerOptions, l net.Listener) (protocol.Identity, string, error) {
	id, addr := protocol.Identity(po.tableID), po.tableAddr
	if p, ok := lookup(po.tableName); ok {
		if id == "" {
			id = p.Identity
		}
		if addr == "" {
			addr = p.Address
		}
	}
	if id == "" || addr == "" {
		return "", "", fmt.Errorf("table %q: identity and address are needed, from a peer block or flags", po.tableName)
	}
	if _, err := id.PublicKey(); err != nil {
		return "", "", err
	}
	full, err := resolveAddress(localIP(l), addr, 7070)
	if err != nil {
		return "", "", err
	}
	return id, full, nil
}

// discoverTable searches this host for tables and lets the user pick one.
func discoverTable(ctx context.Context, logger *slog.Logger) (discovery.Announcement, error) {
	spinner, _ := pterm.DefaultSpinner.Start("Looking for tables ...")
	found, err := discovery.Search(ctx, discovery.WithLogger(logger))
	if err != nil {
		spinner.Fail(err.Error())
		return discovery.Announcement{}, err
	}
	if len(found) == 0 {
		spinner.Fail("No table found")
		return discovery.Announcement{}, fmt.Errorf("no table announced on ports %d to %d", discovery.DefaultStartPort, discovery.DefaultEndPort)
	}
	spinner.Success(fmt.Sprintf("Found %d tables", len(found)))
	if len(found) == 1 {
		return found[0], nil
	}
	options := make([]string, len(found))
	for i, a := range found {
		options[i] = fmt.Sprintf("%d. %s at %s, blinds %d/%d, stakes %d-%d", i+1, a.Identity.Short(), a.Address, a.SmallBlind, a.BigBlind, a.MinStake, a.MaxStake)
	}
	selected, _ := pterm.DefaultInteractiveSelect.WithDefaultText("Select a table").WithOptions(options).Show()
	for i, o := range options {
		if o == selected {
			return found[i], nil
		}
	}
	return found[0], nil
}

func play(ctx context.Context, node *application.PlayerNode, po playerOptions) error {
	for {
		if err := node.Join(ctx, po.stake); err != nil {
			if errors.Is(err, escrow.ErrInsufficientBalance) {
				pterm.Warning.Printfln("Not enough chips left for a stake of %d", po.stake)
				return nil
			}
			return err
		}
		h, err := playHand(ctx, node, po)
		if err != nil {
			return err
		}
		_, balance, err := node.Hand(ctx)
		if err != nil {
			return err
		}
		printState(po.name, h, 0, balance, resultPanel(h))
		if po.auto {
			continue
		}
		again, _ := pterm.DefaultInteractiveConfirm.WithDefaultText("Play another hand?").WithDefaultValue(true).Show()
		if !again {
			return nil
		}
	}
}

// playHand follows one hand until the table sends its result.
func playHand(ctx context.Context, node *application.PlayerNode, po playerOptions) (hand.Hand, error) {
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()
	spinner, _ := pterm.DefaultSpinner.Start("Waiting for an opponent and the deal ...")
	var (
		shown int
		dealt bool
		left  bool
	)
	for {
		select {
		case <-ctx.Done():
			spinner.Stop()
			return hand.Hand{}, ctx.Err()
		case <-ticker.C:
		}
		h, balance, err := node.Hand(ctx)
		if err != nil {
			return hand.Hand{}, err
		}
		switch {
		case h.Result != nil:
			spinner.Stop()
			return h, nil
		case h.Disputed && !left:
			spinner.Fail("The deal did not verify, leaving the table")
			left = true
			if err := node.Leave(ctx); err != nil {
				return h, err
			}
			continue
		case h.Dealt && !dealt:
			dealt = true
			spinner.Success("Cards dealt and verified")
			printState(po.name, h, po.stake, balance)
		case len(h.Community) != shown:
			shown = len(h.Community)
			printState(po.name, h, po.stake, balance)
		}
		if h.MyTurn() && !po.auto {
			action := promptAction(h.Turn)
			if err := node.Bet(ctx, action); err != nil {
				pterm.Error.Printfln("Could not bet: %s", err.Error())
			}
		}
	}
}

func promptAction(t *protocol.YourTurn) poker.BetAction {
	options := []string{"Check", "Raise", "AllIn", "Fold"}
	if t.ToCall > 0 {
		options[0] = "Call"
	}
	for {
		selected, _ := pterm.DefaultInteractiveSelect.WithDefaultText("Select your next action").WithOptions(options).Show()
		var action poker.BetAction
		switch selected {
		case "Check":
			action = poker.Check()
		case "Call":
			action = poker.Call()
		case "AllIn":
			action = poker.AllIn()
		case "Fold":
			action = poker.Fold()
		case "Raise":
			input, _ := pterm.DefaultInteractiveTextInput.WithDefaultText(fmt.Sprintf("Raise by (at least %d)", t.MinRaise)).Show()
			amount, err := strconv.ParseUint(input, 10, 64)
			if err != nil || amount < t.MinRaise {
				pterm.Error.Printfln("Invalid raise %q", input)
				continue
			}
			action = poker.Raise(amount)
		}
		if confirm, _ := pterm.DefaultInteractiveConfirm.WithDefaultText(fmt.Sprintf("Confirm to %s?", action)).WithDefaultValue(true).Show(); confirm {
			return action
		}
		pterm.Info.Println("Action cancelled.")
	}
}

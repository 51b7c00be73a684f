package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luca-patrignani/zk-holdem/application"
	"github.com/luca-patrignani/zk-holdem/application/hand"
	"github.com/luca-patrignani/zk-holdem/application/table"
	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/escrow"
	"github.com/luca-patrignani/zk-holdem/network"
	"github.com/luca-patrignani/zk-holdem/protocol"
	"github.com/luca-patrignani/zk-holdem/zk/proof"
)

type simulateOptions struct {
	hands    int
	stake    uint64
	balance  uint64
	interval time.Duration
	strategy string
	seed     uint64
	mock     bool
}

type simulationResult struct {
	Hands    int
	Wins     map[string]int
	Splits   int
	Forfeits int
	Balances map[string]uint64
}

var botNames = []string{"alice", "bob"}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	so := simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play hands between two bots in process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			banner(opts)
			prover, verifier := proof.Prover(proof.MockProver{}), proof.Verifier(proof.StructuralVerifier{Params: proof.MockParams()})
			if !so.mock {
				var err error
				if prover, verifier, err = loadProofs(opts.cfg); err != nil {
					return err
				}
			}
			spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Playing %d hands ...", so.hands))
			res, err := simulate(cmd.Context(), opts.logger, opts.cfg.Table, prover, verifier, so)
			if err != nil {
				spinner.Fail(err.Error())
				return err
			}
			spinner.Success(fmt.Sprintf("Played %d hands", res.Hands))
			printSimulation(res)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&so.hands, "hands", 10, "Number of hands to play")
	f.Uint64Var(&so.stake, "stake", 100, "Stake of each bot per hand")
	f.Uint64Var(&so.balance, "balance", 1000, "Starting escrow balance of each bot")
	f.DurationVar(&so.interval, "block-interval", 20*time.Millisecond, "Block interval of the simulated table")
	f.StringVar(&so.strategy, "strategy", "call", "Bot strategy: call or random")
	f.Uint64Var(&so.seed, "seed", 1, "Seed of the random strategy")
	f.BoolVar(&so.mock, "mock", true, "Use structural proofs instead of the configured mode")
	return cmd
}

func strategyFor(name string, r *rand.Rand) (application.Strategy, error) {
	switch name {
	case "call":
		return application.CheckOrCall, nil
	case "random":
		return func(h hand.Hand) poker.BetAction {
			switch n := r.IntN(10); {
			case n == 0 && h.Turn.ToCall > 0:
				return poker.Fold()
			case n < 3:
				return poker.Raise(h.Turn.MinRaise)
			}
			return application.CheckOrCall(h)
		}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q", name)
}

// simulate runs a table and two bot players on an in-process bus until the
// hands are played or a bot cannot cover its stake.
func simulate(ctx context.Context, logger *slog.Logger, cfg table.Config, prover proof.Prover, verifier proof.Verifier, so simulateOptions) (simulationResult, error) {
	res := simulationResult{Wins: map[string]int{}, Balances: map[string]uint64{}}
	bus := network.NewBus()
	tableKP := protocol.KeyPairFromSeed([]byte("table"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	dealer, err := application.NewGameOrchestrator(ctx, tableKP, table.NewMachine(prover, verifier), cfg, bus.Connect(tableKP.Identity()),
		application.WithLogger(logger.With("node", "table")),
		application.WithBlockInterval(so.interval),
		application.WithAutoRestart(),
	)
	if err != nil {
		return res, err
	}
	g.Go(func() error { return dealer.Run(ctx) })

	players := make([]*application.PlayerNode, len(botNames))
	for i, name := range botNames {
		strategy, err := strategyFor(so.strategy, rand.New(rand.NewPCG(so.seed, uint64(i))))
		if err != nil {
			return res, err
		}
		kp := protocol.KeyPairFromSeed([]byte(name))
		actor := hand.NewActor(tableKP.Identity(), escrow.Account{Balance: so.balance}, prover, verifier,
			hand.WithAutoReveal(),
			hand.WithRevealMode(cfg.RevealMode),
			hand.WithHandApp(name),
		)
		p := application.NewPlayerNode(kp, actor, bus.Connect(kp.Identity()),
			application.WithPlayerLogger(logger.With("node", name)),
			application.WithStrategy(strategy),
		)
		players[i] = p
		res.Balances[name] = so.balance
		g.Go(func() error { return p.Run(ctx) })
	}

	g.Go(func() error {
		defer cancel()
		for res.Hands < so.hands {
			for _, p := range players {
				if err := p.Join(ctx, so.stake); err != nil {
					if errors.Is(err, escrow.ErrInsufficientBalance) {
						return nil
					}
					return err
				}
			}
			if err := waitResults(ctx, players, so.interval, &res); err != nil {
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return res, err
	}
	return res, nil
}

// waitResults polls the bots until both hold the result of the hand, then tallies it.
func waitResults(ctx context.Context, players []*application.PlayerNode, every time.Duration, res *simulationResult) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		hands := make([]hand.Hand, len(players))
		balances := make([]uint64, len(players))
		done := true
		for i, p := range players {
			h, balance, err := p.Hand(ctx)
			if err != nil {
				return err
			}
			hands[i], balances[i] = h, balance
			done = done && h.Result != nil
		}
		if !done {
			continue
		}
		res.Hands++
		split := true
		for i, h := range hands {
			name := botNames[i]
			res.Balances[name] = balances[i]
			if h.Result.Won {
				res.Wins[name]++
				split = false
				if h.Result.Forfeited {
					res.Forfeits++
				}
			}
		}
		if split {
			res.Splits++
		}
		return nil
	}
}

func printSimulation(res simulationResult) {
	data := pterm.TableData{{"bot", "wins", "balance"}}
	for _, name := range botNames {
		data = append(data, []string{name, strconv.Itoa(res.Wins[name]), strconv.FormatUint(res.Balances[name], 10)})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	pterm.Info.Printfln("%d hands, %d split, %d won by forfeit", res.Hands, res.Splits, res.Forfeits)
}

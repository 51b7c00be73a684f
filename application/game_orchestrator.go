package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/quartz"

	"github.com/luca-patrignani/zk-holdem/application/table"
	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/ledger"
	"github.com/luca-patrignani/zk-holdem/network"
	"github.com/luca-patrignani/zk-holdem/protocol"
)

const DefaultBlockInterval = 6 * time.Second

// GameOrchestrator is the table node. Envelopes from players, operator
// commands and block ticks are serialized through one loop; every accepted
// transition is appended to the ledger and snapshotted before its messages are sent.
type GameOrchestrator struct {
	kp        protocol.KeyPair
	sealer    *protocol.Sealer
	seen      *protocol.ReplayGuard
	machine   StateMachine
	chain     Ledger
	snapshots SnapshotStore
	transport network.Transport

	game   table.Game
	height uint64

	clock        quartz.Clock
	interval     time.Duration
	ticker       *quartz.Ticker
	sweep        bool
	autoRestart  bool
	logger       *slog.Logger
	onTransition func(table.Game, uint64)

	ops chan func()
}

type OrchestratorOption func(*GameOrchestrator)

func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *GameOrchestrator) { o.logger = l }
}

// WithClock sets the clock driving block height. Defaults to the real clock.
func WithClock(c quartz.Clock) OrchestratorOption {
	return func(o *GameOrchestrator) { o.clock = c }
}

func WithBlockInterval(d time.Duration) OrchestratorOption {
	return func(o *GameOrchestrator) { o.interval = d }
}

// WithLedger replaces the in-memory chain.
func WithLedger(l Ledger) OrchestratorOption {
	return func(o *GameOrchestrator) { o.chain = l }
}

func WithSnapshots(s SnapshotStore) OrchestratorOption {
	return func(o *GameOrchestrator) { o.snapshots = s }
}

// WithTimeoutSweep makes the table run a TimeoutCheck for the current game on
// every block. It is on by default; players can always trigger it themselves.
func WithTimeoutSweep(on bool) OrchestratorOption {
	return func(o *GameOrchestrator) { o.sweep = on }
}

// WithAutoRestart starts a new game whenever one finishes.
func WithAutoRestart() OrchestratorOption {
	return func(o *GameOrchestrator) { o.autoRestart = true }
}

// WithTransitionHook is called from the node loop after every committed transition.
func WithTransitionHook(fn func(g table.Game, height uint64)) OrchestratorOption {
	return func(o *GameOrchestrator) { o.onTransition = fn }
}

// NewGameOrchestrator creates the table node. When a snapshot store holds a
// previous state the node resumes from it; otherwise it starts game 1 with cfg.
// The block ticker starts immediately.
func NewGameOrchestrator(ctx context.Context, kp protocol.KeyPair, machine StateMachine, cfg table.Config, transport network.Transport, opts ...OrchestratorOption) (*GameOrchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("table config: %w", err)
	}
	o := &GameOrchestrator{
		kp:        kp,
		seen:      protocol.NewReplayGuard(),
		machine:   machine,
		transport: transport,
		game:      table.NewGame(cfg),
		clock:     quartz.NewReal(),
		interval:  DefaultBlockInterval,
		sweep:     true,
		logger:    slog.Default(),
		ops:       make(chan func()),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.chain == nil {
		o.chain = ledger.NewBlockchain(ledger.WithClock(o.clock))
	}
	if err := o.chain.Verify(); err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	for _, b := range o.chain.Blocks() {
		if b.Entry.From != "" {
			o.seen.Observe(protocol.Identity(b.Entry.From), b.Entry.Seq)
		}
	}
	o.sealer = protocol.NewSealer(kp, uint64(o.clock.Now().UnixNano()))
	if o.snapshots != nil {
		if err := o.restore(ctx); err != nil {
			return nil, err
		}
	}
	o.ticker = o.clock.NewTicker(o.interval, "orchestrator", "block")
	return o, nil
}

func (o *GameOrchestrator) restore(ctx context.Context) error {
	snap, err := o.snapshots.LatestSnapshot(ctx)
	if errors.Is(err, ledger.ErrNoSnapshot) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	var g table.Game
	if err := json.Unmarshal(snap.State, &g); err != nil {
		return fmt.Errorf("decoding snapshot of block %d: %w", snap.BlockIndex, err)
	}
	o.game = g
	o.height = snap.Height
	o.logger.Info("resumed table", "game", g.ID, "phase", g.Phase, "height", snap.Height)
	return nil
}

func (o *GameOrchestrator) Identity() protocol.Identity { return o.kp.Identity() }

// Run processes envelopes, operations and block ticks until ctx is done.
func (o *GameOrchestrator) Run(ctx context.Context) error {
	defer o.ticker.Stop()
	o.logger.Info("table running", "identity", o.Identity().Short(), "block_interval", o.interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-o.transport.Inbox():
			if !ok {
				return network.ErrClosed
			}
			o.handleEnvelope(ctx, e)
		case op := <-o.ops:
			op()
		case <-o.ticker.C:
			o.tick(ctx)
		}
	}
}

// do runs fn on the node loop.
func (o *GameOrchestrator) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case o.ops <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit applies an operator input such as StartNewGame or ForceAdvance and
// returns the table's rejection, if any.
func (o *GameOrchestrator) Submit(ctx context.Context, in table.Input) error {
	var err error
	if derr := o.do(ctx, func() { err = o.applyOperator(ctx, in) }); derr != nil {
		return derr
	}
	return err
}

// Game returns the current table state and block height.
func (o *GameOrchestrator) Game(ctx context.Context) (table.Game, uint64, error) {
	var (
		g table.Game
		h uint64
	)
	err := o.do(ctx, func() { g, h = o.game.Clone(), o.height })
	return g, h, err
}

func (o *GameOrchestrator) tick(ctx context.Context) {
	o.height++
	if !o.sweep {
		return
	}
	if err := o.applyOperator(ctx, table.TimeoutCheck{GameID: o.game.ID}); err != nil {
		o.logger.Debug("timeout sweep failed", "height", o.height, "err", err)
	}
}

// handleEnvelope applies a player's message. Rejections and repeated envelopes
// are logged and dropped. A rejected envelope still uses up its sequence number.
func (o *GameOrchestrator) handleEnvelope(ctx context.Context, e protocol.Envelope) {
	log := o.logger.With("from", e.From.Short(), "kind", e.Kind)
	if e.To != o.Identity() {
		log.Debug("dropping envelope for another identity")
		return
	}
	msg, err := protocol.Open(e)
	if err != nil {
		log.Debug("dropping envelope", "err", err)
		return
	}
	if !o.seen.Accept(e) {
		log.Debug("dropping repeated envelope", "seq", e.Seq, "last", o.seen.Last(e.From))
		return
	}
	in, ok := table.FromMessage(e.From, msg)
	if !ok {
		log.Debug("dropping message the table does not accept")
		return
	}
	entry := ledger.Entry{Kind: string(e.Kind), From: string(e.From), Seq: e.Seq, Payload: e.Payload, Signature: e.Signature}
	if err := o.apply(ctx, in, entry); err != nil {
		log.Debug("rejected", "err", err)
	}
}

// apply commits one transition: state machine, ledger, snapshot, then outbox.
func (o *GameOrchestrator) apply(ctx context.Context, in table.Input, entry ledger.Entry) error {
	next, out, err := o.machine.Apply(o.game, o.height, in)
	if err != nil {
		return err
	}
	if _, isCheck := in.(table.TimeoutCheck); isCheck && len(out) == 0 {
		return nil
	}

	md := ledger.Metadata{Pot: next.Pot, Outbound: len(out)}
	if next.Outcome != table.OutcomeNone {
		md.Extra = map[string]string{"outcome": string(next.Outcome)}
	}
	block, err := o.chain.Append(ctx, o.height, next.ID, string(next.Phase), entry, md)
	if err != nil {
		o.logger.Error("ledger append failed", "err", err)
		return err
	}
	if o.snapshots != nil {
		state, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		snap := ledger.Snapshot{BlockIndex: block.Index, GameID: next.ID, Height: o.height, Phase: string(next.Phase), State: state}
		if err := o.snapshots.SaveSnapshot(ctx, snap); err != nil {
			o.logger.Error("snapshot failed", "block", block.Index, "err", err)
		}
	}
	prev := o.game.Phase
	o.game = next
	if prev != next.Phase {
		o.logger.Info("phase", "game", next.ID, "from", prev, "to", next.Phase, "pot", next.Pot, "height", o.height)
	}
	o.dispatch(ctx, out)
	if o.onTransition != nil {
		o.onTransition(next.Clone(), o.height)
	}

	if o.autoRestart && next.Phase == poker.Finished {
		return o.applyOperator(ctx, table.StartNewGame{})
	}
	return nil
}

func (o *GameOrchestrator) dispatch(ctx context.Context, out []table.Outbound) {
	for _, ob := range out {
		e, err := o.sealer.Seal(ob.To, ob.Msg)
		if err != nil {
			o.logger.Error("sealing message", "kind", ob.Msg.Kind(), "err", err)
			continue
		}
		if err := o.transport.Send(ctx, e); err != nil {
			o.logger.Warn("delivery failed", "to", ob.To.Short(), "kind", ob.Msg.Kind(), "err", err)
		}
	}
}

// applyOperator applies an input the table generates itself.
func (o *GameOrchestrator) applyOperator(ctx context.Context, in table.Input) error {
	entry, err := operatorEntry(in)
	if err != nil {
		return err
	}
	return o.apply(ctx, in, entry)
}

func operatorEntry(in table.Input) (ledger.Entry, error) {
	var kind string
	switch in.(type) {
	case table.StartNewGame:
		kind = "start_new_game"
	case table.ForceAdvance:
		kind = "force_advance"
	case table.TimeoutCheck:
		kind = string(protocol.KindTriggerTimeoutCheck)
	default:
		kind = fmt.Sprintf("%T", in)
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return ledger.Entry{}, fmt.Errorf("encoding %s entry: %w", kind, err)
	}
	return ledger.Entry{Kind: kind, Payload: payload}, nil
}

package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/coder/quartz"

	"github.com/luca-patrignani/zk-holdem/application/hand"
	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/network"
	"github.com/luca-patrignani/zk-holdem/protocol"
)

// Strategy picks a bet when the table asks for one.
type Strategy func(h hand.Hand) poker.BetAction

// PlayerNode runs a hand.Actor against a table over a transport.
type PlayerNode struct {
	kp        protocol.KeyPair
	sealer    *protocol.Sealer
	seen      *protocol.ReplayGuard
	actor     *hand.Actor
	transport network.Transport

	strategy Strategy
	clock    quartz.Clock
	poll     time.Duration
	ticker   *quartz.Ticker
	logger   *slog.Logger
	onUpdate func(hand.Hand)

	ops chan func()
}

type PlayerOption func(*PlayerNode)

func WithPlayerLogger(l *slog.Logger) PlayerOption {
	return func(p *PlayerNode) { p.logger = l }
}

// WithStrategy answers every YourTurn automatically.
func WithStrategy(s Strategy) PlayerOption {
	return func(p *PlayerNode) { p.strategy = s }
}

// WithTimeoutPolling sends a TriggerTimeoutCheck every interval of c while a game
// is running. c also replaces the real clock that seeds envelope numbering.
func WithTimeoutPolling(c quartz.Clock, interval time.Duration) PlayerOption {
	return func(p *PlayerNode) { p.clock, p.poll = c, interval }
}

// WithUpdateHook is called from the node loop whenever the hand changes.
func WithUpdateHook(fn func(hand.Hand)) PlayerOption {
	return func(p *PlayerNode) { p.onUpdate = fn }
}

func NewPlayerNode(kp protocol.KeyPair, actor *hand.Actor, transport network.Transport, opts ...PlayerOption) *PlayerNode {
	p := &PlayerNode{
		kp:        kp,
		seen:      protocol.NewReplayGuard(),
		actor:     actor,
		transport: transport,
		clock:     quartz.NewReal(),
		logger:    slog.Default(),
		ops:       make(chan func()),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.sealer = protocol.NewSealer(kp, uint64(p.clock.Now().UnixNano()))
	if p.poll > 0 {
		p.ticker = p.clock.NewTicker(p.poll, "player", "poll")
	}
	return p
}

func (p *PlayerNode) Identity() protocol.Identity { return p.kp.Identity() }

func (p *PlayerNode) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if p.ticker != nil {
		defer p.ticker.Stop()
		tick = p.ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-p.transport.Inbox():
			if !ok {
				return network.ErrClosed
			}
			p.handleEnvelope(ctx, e)
		case op := <-p.ops:
			op()
		case <-tick:
			if h := p.actor.Hand(); h.Dealt && h.Result == nil {
				p.send(ctx, p.actor.TriggerTimeoutCheck())
			}
		}
	}
}

func (p *PlayerNode) do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case p.ops <- func() { errc <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join locks stake in escrow and asks the table for a seat.
func (p *PlayerNode) Join(ctx context.Context, stake uint64) error {
	return p.do(ctx, func() error {
		msg, err := p.actor.JoinTable(stake)
		if err != nil {
			return err
		}
		return p.send(ctx, msg)
	})
}

func (p *PlayerNode) Bet(ctx context.Context, action poker.BetAction) error {
	return p.do(ctx, func() error {
		msg, err := p.actor.Bet(action)
		if err != nil {
			return err
		}
		return p.send(ctx, msg)
	})
}

func (p *PlayerNode) Reveal(ctx context.Context) error {
	return p.do(ctx, func() error {
		msg, err := p.actor.Reveal()
		if err != nil {
			return err
		}
		return p.send(ctx, msg)
	})
}

func (p *PlayerNode) Leave(ctx context.Context) error {
	return p.do(ctx, func() error { return p.send(ctx, p.actor.LeaveTable()) })
}

func (p *PlayerNode) TriggerTimeoutCheck(ctx context.Context) error {
	return p.do(ctx, func() error { return p.send(ctx, p.actor.TriggerTimeoutCheck()) })
}

// Hand returns the actor's current hand and escrow balance.
func (p *PlayerNode) Hand(ctx context.Context) (hand.Hand, uint64, error) {
	var (
		h       hand.Hand
		balance uint64
	)
	err := p.do(ctx, func() error {
		h, balance = p.actor.Hand(), p.actor.Account.Balance
		return nil
	})
	return h, balance, err
}

func (p *PlayerNode) handleEnvelope(ctx context.Context, e protocol.Envelope) {
	log := p.logger.With("from", e.From.Short(), "kind", e.Kind)
	msg, err := protocol.Open(e)
	if err != nil {
		log.Debug("dropping envelope", "err", err)
		return
	}
	if !p.seen.Accept(e) {
		log.Debug("dropping repeated envelope", "seq", e.Seq)
		return
	}
	replies, err := p.actor.Handle(e.From, msg)
	if err != nil {
		log.Debug("ignored", "err", err)
		return
	}
	for _, r := range replies {
		p.send(ctx, r)
	}
	h := p.actor.Hand()
	if h.Disputed {
		log.Warn("deal failed verification, hand disputed", "game", h.GameID)
	}
	if p.strategy != nil && h.MyTurn() {
		action := p.strategy(h)
		if bet, err := p.actor.Bet(action); err == nil {
			p.send(ctx, bet)
		}
	}
	if p.onUpdate != nil {
		p.onUpdate(p.actor.Hand())
	}
}

func (p *PlayerNode) send(ctx context.Context, m protocol.Message) error {
	e, err := p.sealer.Seal(p.actor.Table(), m)
	if err != nil {
		return err
	}
	if err := p.transport.Send(ctx, e); err != nil {
		p.logger.Warn("send failed", "kind", m.Kind(), "err", err)
		return err
	}
	return nil
}

// CheckOrCall is a passive strategy: check when possible, otherwise call.
func CheckOrCall(h hand.Hand) poker.BetAction {
	if h.Turn != nil && h.Turn.ToCall > 0 {
		return poker.Call()
	}
	return poker.Check()
}

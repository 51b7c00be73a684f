package network

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/luca-patrignani/zk-holdem/protocol"
)

var ErrClosed = errors.New("transport closed")

// Bus connects transports living in the same process.
type Bus struct {
	mu        sync.RWMutex
	endpoints map[protocol.Identity]*Endpoint
}

func NewBus() *Bus {
	return &Bus{endpoints: map[protocol.Identity]*Endpoint{}}
}

// Endpoint is one identity's Transport on a Bus.
type Endpoint struct {
	bus      *Bus
	identity protocol.Identity
	inbox    chan protocol.Envelope
	done     chan struct{}
	once     sync.Once
}

// Connect registers id on the bus, replacing any endpoint it had.
func (b *Bus) Connect(id protocol.Identity) *Endpoint {
	e := &Endpoint{bus: b, identity: id, inbox: make(chan protocol.Envelope, defaultInboxSize), done: make(chan struct{})}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endpoints[id] = e
	return e
}

func (e *Endpoint) Identity() protocol.Identity { return e.identity }

// Send blocks while the recipient's inbox is full.
func (e *Endpoint) Send(ctx context.Context, env protocol.Envelope) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	e.bus.mu.RLock()
	to, ok := e.bus.endpoints[env.To]
	e.bus.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRecipient, env.To.Short())
	}
	select {
	case to.inbox <- env:
		return nil
	case <-to.done:
		return fmt.Errorf("%w: %s", ErrClosed, env.To.Short())
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Endpoint) Inbox() <-chan protocol.Envelope { return e.inbox }

func (e *Endpoint) Close() error {
	e.once.Do(func() {
		close(e.done)
		e.bus.mu.Lock()
		defer e.bus.mu.Unlock()
		if e.bus.endpoints[e.identity] == e {
			delete(e.bus.endpoints, e.identity)
		}
	})
	return nil
}

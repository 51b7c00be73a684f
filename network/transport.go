package network

import (
	"context"

	"github.com/luca-patrignani/zk-holdem/protocol"
)

// Transport moves signed envelopes between identities. Delivery is at most
// once per Send; receivers verify signatures themselves.
type Transport interface {
	Send(ctx context.Context, e protocol.Envelope) error
	Inbox() <-chan protocol.Envelope
	Close() error
}

// Package application runs the actors of a table as long lived nodes: each node
// owns its state in a single goroutine and talks to the others only through
// signed envelopes on a network.Transport.
package application

import (
	"context"

	"github.com/luca-patrignani/zk-holdem/application/table"
	"github.com/luca-patrignani/zk-holdem/ledger"
)

// StateMachine defines the dealer logic the table node drives.
type StateMachine interface {
	// Apply runs one input at the given block height. It returns the next game
	// and the messages to deliver once the transition is recorded, or a typed
	// rejection and the unchanged game.
	Apply(g table.Game, height uint64, in table.Input) (table.Game, []table.Outbound, error)
}

// Ledger defines the append-only record of accepted transitions.
type Ledger interface {
	// Append records a transition. A failed append means the transition is dropped.
	Append(ctx context.Context, height, gameID uint64, phase string, entry ledger.Entry, md ledger.Metadata) (ledger.Block, error)

	// Blocks returns the recorded blocks, genesis first.
	Blocks() []ledger.Block

	// Verify checks the integrity of the entire ledger.
	// Returns an error if any tampering or inconsistency is detected.
	Verify() error
}

// SnapshotStore keeps the table state after each block so a restarted node
// resumes where it stopped.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s ledger.Snapshot) error
	LatestSnapshot(ctx context.Context) (ledger.Snapshot, error)
}

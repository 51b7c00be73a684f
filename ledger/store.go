package ledger

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSnapshot is returned by LatestSnapshot before any snapshot was saved.
var ErrNoSnapshot = errors.New("no snapshot")

// Store persists blocks and snapshots. Blocks are append-only and returned in index order.
type Store interface {
	AppendBlock(ctx context.Context, b Block) error
	Blocks(ctx context.Context) ([]Block, error)
	SaveSnapshot(ctx context.Context, s Snapshot) error
	LatestSnapshot(ctx context.Context) (Snapshot, error)
	Close() error
}

// MemoryStore is a Store that forgets everything when the process exits.
type MemoryStore struct {
	mu        sync.Mutex
	blocks    []Block
	snapshots []Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AppendBlock(_ context.Context, b Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.blocks); b.Index != n {
		return errors.New("block index does not follow the stored chain")
	}
	s.blocks = append(s.blocks, b)
	return nil
}

func (s *MemoryStore) Blocks(context.Context) ([]Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Block(nil), s.blocks...), nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.State = append([]byte(nil), snap.State...)
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *MemoryStore) LatestSnapshot(context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snapshots) == 0 {
		return Snapshot{}, ErrNoSnapshot
	}
	return s.snapshots[len(s.snapshots)-1], nil
}

func (s *MemoryStore) Close() error { return nil }

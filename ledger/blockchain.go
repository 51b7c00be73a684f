package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/coder/quartz"
)

const genesisPrevHash = "0"

type Blockchain struct {
	mu     sync.RWMutex
	blocks []Block
	clock  quartz.Clock
	store  Store
}

type Option func(*Blockchain)

// WithClock sets the clock blocks are timestamped with.
func WithClock(c quartz.Clock) Option {
	return func(bc *Blockchain) { bc.clock = c }
}

// WithStore writes every appended block through to s.
func WithStore(s Store) Option {
	return func(bc *Blockchain) { bc.store = s }
}

// NewBlockchain creates a chain holding only the genesis block, which has
// index 0 and previous hash "0".
func NewBlockchain(opts ...Option) *Blockchain {
	bc := &Blockchain{clock: quartz.NewReal()}
	for _, opt := range opts {
		opt(bc)
	}
	genesis := Block{
		Index:     0,
		Timestamp: bc.clock.Now().Unix(),
		PrevHash:  genesisPrevHash,
		Entry:     Entry{Kind: "genesis"},
	}
	genesis.Hash = calculateHash(genesis)
	bc.blocks = []Block{genesis}
	return bc
}

// Open loads the chain kept in store, creating and persisting the genesis block
// when the store is empty. The loaded chain is verified before it is returned.
func Open(ctx context.Context, store Store, opts ...Option) (*Blockchain, error) {
	blocks, err := store.Blocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading blocks: %w", err)
	}
	bc := NewBlockchain(append(opts, WithStore(store))...)
	if len(blocks) == 0 {
		if err := store.AppendBlock(ctx, bc.blocks[0]); err != nil {
			return nil, fmt.Errorf("saving genesis: %w", err)
		}
		return bc, nil
	}
	bc.blocks = blocks
	if err := bc.Verify(); err != nil {
		return nil, fmt.Errorf("stored chain: %w", err)
	}
	return bc, nil
}

// Append links a new block after the latest one and writes it to the store, if
// any. Nothing is appended when the store write fails.
func (bc *Blockchain) Append(ctx context.Context, height, gameID uint64, phase string, entry Entry, md Metadata) (Block, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	latest := bc.blocks[len(bc.blocks)-1]
	b := Block{
		Index:     latest.Index + 1,
		Height:    height,
		Timestamp: bc.clock.Now().Unix(),
		PrevHash:  latest.Hash,
		GameID:    gameID,
		Phase:     phase,
		Entry:     entry,
		Metadata:  md,
	}
	b.Hash = calculateHash(b)
	if err := validateBlock(b, latest); err != nil {
		return Block{}, fmt.Errorf("invalid block: %w", err)
	}
	if bc.store != nil {
		if err := bc.store.AppendBlock(ctx, b); err != nil {
			return Block{}, fmt.Errorf("storing block %d: %w", b.Index, err)
		}
	}
	bc.blocks = append(bc.blocks, b)
	return b, nil
}

// Latest returns the most recently added block.
func (bc *Blockchain) Latest() Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.blocks[len(bc.blocks)-1]
}

// ByIndex retrieves a block by its index in the chain.
func (bc *Blockchain) ByIndex(index int) (Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if index < 0 || index >= len(bc.blocks) {
		return Block{}, fmt.Errorf("index %d out of range", index)
	}
	return bc.blocks[index], nil
}

func (bc *Blockchain) Len() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return len(bc.blocks)
}

// Blocks returns a copy of the chain.
func (bc *Blockchain) Blocks() []Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return append([]Block(nil), bc.blocks...)
}

// Verify checks the genesis block and then the hash, index continuity and
// previous hash linkage of every following block.
func (bc *Blockchain) Verify() error {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return verifyBlocks(bc.blocks)
}

func verifyBlocks(blocks []Block) error {
	if len(blocks) == 0 {
		return fmt.Errorf("empty blockchain")
	}
	if blocks[0].Index != 0 || blocks[0].PrevHash != genesisPrevHash || blocks[0].Hash != calculateHash(blocks[0]) {
		return fmt.Errorf("invalid genesis block")
	}
	for i := 1; i < len(blocks); i++ {
		if err := validateBlock(blocks[i], blocks[i-1]); err != nil {
			return fmt.Errorf("block %d invalid: %w", i, err)
		}
	}
	return nil
}

func validateBlock(current, previous Block) error {
	if current.Index != previous.Index+1 {
		return fmt.Errorf("invalid index: expected %d, got %d", previous.Index+1, current.Index)
	}
	if current.PrevHash != previous.Hash {
		return fmt.Errorf("invalid prev hash: expected %s, got %s", previous.Hash, current.PrevHash)
	}
	if current.Height < previous.Height {
		return fmt.Errorf("height went back from %d to %d", previous.Height, current.Height)
	}
	if expected := calculateHash(current); current.Hash != expected {
		return fmt.Errorf("invalid hash: expected %s, got %s", expected, current.Hash)
	}
	return nil
}

// calculateHash is the SHA-256 of the block with its own hash cleared.
func calculateHash(b Block) string {
	b.Hash = ""
	data, _ := json.Marshal(b)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

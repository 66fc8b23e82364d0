// Package chain implements the in-memory, append-only block list: a
// mined genesis, index/prev-hash/proof-of-work validated appends, and
// the longest-valid-chain fork-choice rule.
package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/klingnet-tech/kchain/pkg/block"
	"github.com/klingnet-tech/kchain/pkg/tx"
)

// Sentinel errors describing why a candidate block or chain was rejected.
var (
	ErrEmptyChain       = errors.New("chain: chain has no blocks")
	ErrBadGenesis       = errors.New("chain: genesis block must have index 0 and prev_hash \"0\"")
	ErrBadPoW           = errors.New("chain: block fails proof-of-work validation")
	ErrBadLinkage       = errors.New("chain: block index/prev_hash does not extend the chain")
	ErrNotLongerOrValid = errors.New("chain: candidate chain is not both strictly longer and valid")
)

// Chain is an ordered, append-only list of blocks sharing a fixed
// difficulty parameter. All mutation goes through a single write lock;
// readers take a read lock for a snapshot view. Lock order relative to
// other node-owned resources is always Chain before Mempool before
// Peers, and a chain lock is never held across a suspension point.
type Chain struct {
	mu         sync.RWMutex
	difficulty int
	blocks     []*block.Block
}

// New builds a chain containing a freshly mined genesis block.
func New(difficulty int) *Chain {
	return &Chain{
		difficulty: difficulty,
		blocks:     []*block.Block{block.Genesis(difficulty)},
	}
}

// Empty builds a chain with no blocks, for a node that intends to sync
// its history from peers before mining or validating anything locally.
func Empty(difficulty int) *Chain {
	return &Chain{difficulty: difficulty}
}

// Difficulty returns the chain's fixed difficulty parameter.
func (c *Chain) Difficulty() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.difficulty
}

// Len returns the number of blocks in the chain.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// IsEmpty reports whether the chain holds no blocks.
func (c *Chain) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks) == 0
}

// LastBlock returns the tail block, or nil if the chain is empty.
func (c *Chain) LastBlock() *block.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.blocks) == 0 {
		return nil
	}
	return c.blocks[len(c.blocks)-1]
}

// Snapshot returns a shallow copy of the current block list, safe for
// a caller to range over or serialize without holding the chain lock.
func (c *Chain) Snapshot() []*block.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*block.Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// AddBlock mines a new block containing txs atop the current tail and
// appends it. Returns the new block. Mining happens outside any lock;
// only the final append is synchronized.
func (c *Chain) AddBlock(txs []*tx.Transaction) *block.Block {
	return c.AddBlockContext(context.Background(), txs)
}

// AddBlockContext is AddBlock with mining cancellation support.
func (c *Chain) AddBlockContext(ctx context.Context, txs []*tx.Transaction) *block.Block {
	c.mu.RLock()
	difficulty := c.difficulty
	var index uint64
	prevHash := block.GenesisPrevHash
	if n := len(c.blocks); n > 0 {
		tail := c.blocks[n-1]
		index = tail.Index + 1
		prevHash = tail.Hash
	}
	c.mu.RUnlock()

	b := block.New(index, prevHash, txs, difficulty)
	if err := b.MineContext(ctx); err != nil {
		return nil
	}

	c.mu.Lock()
	c.blocks = append(c.blocks, b)
	c.mu.Unlock()

	return b
}

// IsValidNewBlock reports whether candidate legally extends the
// current tail: index continuity, prev-hash match, and valid PoW.
func (c *Chain) IsValidNewBlock(candidate *block.Block) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isValidNewBlockLocked(candidate)
}

func (c *Chain) isValidNewBlockLocked(candidate *block.Block) bool {
	if !candidate.IsValidPoW() {
		return false
	}
	if len(c.blocks) == 0 {
		return candidate.Index == 0 && candidate.PrevHash == block.GenesisPrevHash
	}
	tail := c.blocks[len(c.blocks)-1]
	return candidate.Index == tail.Index+1 && candidate.PrevHash == tail.Hash
}

// AddMinedBlock validates candidate against the current tail and
// appends it on success. Returns true if appended.
func (c *Chain) AddMinedBlock(candidate *block.Block) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isValidNewBlockLocked(candidate) {
		return false
	}
	c.blocks = append(c.blocks, candidate)
	return true
}

// IsValid runs full-chain validation: non-empty, genesis shape, each
// block's hash/PoW integrity, and index/prev-hash linkage throughout.
func (c *Chain) IsValid() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return isValid(c.blocks)
}

func isValid(blocks []*block.Block) error {
	if len(blocks) == 0 {
		return ErrEmptyChain
	}
	genesis := blocks[0]
	if genesis.Index != 0 || genesis.PrevHash != block.GenesisPrevHash {
		return ErrBadGenesis
	}
	for i, b := range blocks {
		if !b.IsValidPoW() {
			return fmt.Errorf("%w: block %d", ErrBadPoW, b.Index)
		}
		if i == 0 {
			continue
		}
		prev := blocks[i-1]
		if b.PrevHash != prev.Hash || b.Index != prev.Index+1 {
			return fmt.Errorf("%w: block %d", ErrBadLinkage, b.Index)
		}
	}
	return nil
}

// ReplaceWith implements the fork-choice rule: candidate replaces the
// local chain only if it is both strictly longer and fully valid.
// Returns true if the replacement happened.
func (c *Chain) ReplaceWith(candidate []*block.Block) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(candidate) <= len(c.blocks) {
		return false
	}
	if err := isValid(candidate); err != nil {
		return false
	}

	replacement := make([]*block.Block, len(candidate))
	copy(replacement, candidate)
	c.blocks = replacement
	return true
}

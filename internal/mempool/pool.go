// Package mempool holds pending, not-yet-mined transactions,
// deduplicated by content hash.
package mempool

import (
	"errors"
	"sync"

	"github.com/klingnet-tech/kchain/pkg/tx"
)

// ErrAlreadyExists is returned by Add when a transaction with the same
// content hash is already pending.
var ErrAlreadyExists = errors.New("mempool: transaction already pending")

// Pool is an unordered set of pending transactions, deduplicated by
// ContentHash. Shares the chain's single-writer / many-readers
// discipline; a Pool lock is always acquired after the owning Chain's
// lock and never held across a suspension point.
type Pool struct {
	mu  sync.RWMutex
	txs map[string]*tx.Transaction
}

// New creates an empty mempool.
func New() *Pool {
	return &Pool{txs: make(map[string]*tx.Transaction)}
}

// Add inserts transaction, deduplicated by ContentHash. Returns
// ErrAlreadyExists if an identical transaction is already pending.
func (p *Pool) Add(transaction *tx.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	hash := transaction.ContentHash()
	if _, exists := p.txs[hash]; exists {
		return ErrAlreadyExists
	}
	p.txs[hash] = transaction
	return nil
}

// Remove deletes the transaction with the given content hash, if present.
func (p *Pool) Remove(contentHash string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.txs, contentHash)
}

// RemoveConfirmed removes every transaction in txs from the pool,
// matched by ContentHash. Used after a block is accepted to purge
// entries it already carries.
func (p *Pool) RemoveConfirmed(txs []*tx.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range txs {
		delete(p.txs, t.ContentHash())
	}
}

// Has reports whether a transaction with the given content hash is pending.
func (p *Pool) Has(contentHash string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, exists := p.txs[contentHash]
	return exists
}

// Len returns the number of pending transactions.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txs)
}

// Snapshot returns every pending transaction without draining the pool.
func (p *Pool) Snapshot() []*tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*tx.Transaction, 0, len(p.txs))
	for _, t := range p.txs {
		out = append(out, t)
	}
	return out
}

// Drain atomically empties the pool and returns everything it held.
// Used by the miner to take a candidate transaction set for a new
// block under a single write-critical-section.
func (p *Pool) Drain() []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*tx.Transaction, 0, len(p.txs))
	for _, t := range p.txs {
		out = append(out, t)
	}
	p.txs = make(map[string]*tx.Transaction)
	return out
}

// Restore re-adds txs to the pool, skipping any whose content hash is
// already pending again (re-inserted while drained). Transactions that
// were confirmed in a block in the meantime are re-added all the same.
// Used to undo a Drain when a mining round aborts.
func (p *Pool) Restore(txs []*tx.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range txs {
		hash := t.ContentHash()
		if _, exists := p.txs[hash]; !exists {
			p.txs[hash] = t
		}
	}
}

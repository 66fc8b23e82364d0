// Package block defines the Block type: an index-linked, proof-of-work
// sealed container of transactions.
package block

import (
	"time"

	"github.com/klingnet-tech/kchain/pkg/tx"
)

// GenesisPrevHash is the prev_hash literal used by the block at index 0.
const GenesisPrevHash = "0"

// Block is one link in the chain.
type Block struct {
	Index        uint64           `json:"index"`
	Timestamp    int64            `json:"timestamp"`
	PrevHash     string           `json:"prev_hash"`
	Nonce        uint64           `json:"nonce"`
	Difficulty   int              `json:"difficulty"`
	Transactions []*tx.Transaction `json:"transactions"`
	Hash         string           `json:"hash"`
}

// New builds a block at index with the given predecessor hash,
// transactions, and required difficulty. Nonce starts at 0, timestamp
// is the current time, and Hash is computed immediately (callers mine
// separately via Mine).
func New(index uint64, prevHash string, txs []*tx.Transaction, difficulty int) *Block {
	b := &Block{
		Index:        index,
		Timestamp:    time.Now().Unix(),
		PrevHash:     prevHash,
		Nonce:        0,
		Difficulty:   difficulty,
		Transactions: txs,
	}
	b.Hash = b.CalculateHash()
	return b
}

// Genesis builds the mined block at index 0.
func Genesis(difficulty int) *Block {
	b := New(0, GenesisPrevHash, nil, difficulty)
	b.Mine()
	return b
}

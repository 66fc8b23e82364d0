package block

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/klingnet-tech/kchain/pkg/crypto"
)

// ErrNonceSpaceExhausted is returned in the astronomically unlikely
// case that no nonce in [0, 2^64) satisfies the difficulty target.
var ErrNonceSpaceExhausted = errors.New("block: nonce space exhausted")

// CalculateHash returns the hex SHA-256 of the block's serialization:
// index || timestamp || prev_hash || nonce || concat(tx content hashes).
// Difficulty does not participate in the preimage.
func (b *Block) CalculateHash() string {
	buf := make([]byte, 0, 64+len(b.PrevHash)+32*len(b.Transactions))
	buf = strconv.AppendUint(buf, b.Index, 10)
	buf = strconv.AppendInt(buf, b.Timestamp, 10)
	buf = append(buf, b.PrevHash...)
	buf = strconv.AppendUint(buf, b.Nonce, 10)
	for _, t := range b.Transactions {
		buf = append(buf, t.ContentHash()...)
	}
	return crypto.HashHex(buf)
}

// signingPrefix returns the bytes of the serialization up to but not
// including the nonce, so Mine only has to re-append the decimal nonce
// and the precomputed transaction hashes and re-hash on each iteration
// instead of re-serializing the whole block.
func signingPrefix(b *Block) []byte {
	buf := make([]byte, 0, 32+len(b.PrevHash)+32*len(b.Transactions))
	buf = strconv.AppendUint(buf, b.Index, 10)
	buf = strconv.AppendInt(buf, b.Timestamp, 10)
	buf = append(buf, b.PrevHash...)
	return buf
}

// Mine increments Nonce from 0 until Hash begins with Difficulty
// leading hex zeros, recomputing Hash on every iteration. Deterministic:
// identical content and starting nonce always produce the same result.
// Difficulty 0 is legal and terminates immediately.
func (b *Block) Mine() {
	_ = b.MineContext(context.Background())
}

// MineContext is Mine with cooperative cancellation: the context is
// checked every 65536 iterations so a long-running search can be
// aborted between checks without per-iteration overhead. Returns
// ctx.Err() if cancelled before a valid nonce is found.
func (b *Block) MineContext(ctx context.Context) error {
	prefix := signingPrefix(b)
	target := strings.Repeat("0", b.Difficulty)

	txHashes := make([]byte, 0, 32*len(b.Transactions))
	for _, t := range b.Transactions {
		txHashes = append(txHashes, t.ContentHash()...)
	}

	nonceBuf := make([]byte, 0, len(prefix)+20+len(txHashes))
	for nonce := uint64(0); ; nonce++ {
		if nonce&0xFFFF == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		nonceBuf = nonceBuf[:0]
		nonceBuf = append(nonceBuf, prefix...)
		nonceBuf = strconv.AppendUint(nonceBuf, nonce, 10)
		nonceBuf = append(nonceBuf, txHashes...)

		hash := crypto.HashHex(nonceBuf)
		if strings.HasPrefix(hash, target) {
			b.Nonce = nonce
			b.Hash = hash
			return nil
		}

		if nonce == ^uint64(0) {
			return ErrNonceSpaceExhausted
		}
	}
}

// IsValidPoW reports whether Hash is both the correct recomputation of
// the block's content and meets the difficulty target.
func (b *Block) IsValidPoW() bool {
	return b.Hash == b.CalculateHash() && strings.HasPrefix(b.Hash, strings.Repeat("0", b.Difficulty))
}

// Package tx defines the transaction type: a value transfer between
// two addresses, optionally signed with a secp256k1 key.
package tx

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/klingnet-tech/kchain/pkg/crypto"
)

// CoinbaseFrom is the sender address used on miner-reward transactions.
const CoinbaseFrom = "coinbase"

// Sentinel errors describing why sign/verify cannot proceed.
var (
	// ErrInvalidKey is returned by Sign when the hex-decoded secret key
	// is not a valid 32-byte secp256k1 scalar.
	ErrInvalidKey = crypto.ErrInvalidKey
	// ErrInvalidHex is returned when a hex field fails to decode.
	ErrInvalidHex = errors.New("tx: invalid hex encoding")
)

// Transaction is a value transfer from one address to another.
//
// PublicKey and Signature are hex-encoded and omitted (empty) on an
// unsigned or coinbase transaction.
type Transaction struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    uint64 `json:"amount"`
	PublicKey string `json:"public_key,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// New builds an unsigned transaction.
func New(from, to string, amount uint64) *Transaction {
	return &Transaction{From: from, To: to, Amount: amount}
}

// Coinbase builds a miner-reward transaction. It carries no signature
// and verifies unconditionally.
func Coinbase(to string, amount uint64) *Transaction {
	return &Transaction{From: CoinbaseFrom, To: to, Amount: amount}
}

// IsCoinbase reports whether tx is a coinbase transaction.
func (t *Transaction) IsCoinbase() bool {
	return t.From == CoinbaseFrom
}

// ContentHash returns the hex SHA-256 of from || to || decimal(amount).
// Signature and public key never participate: this is the stable
// preimage that gets signed and that identifies the transaction for
// mempool deduplication.
func (t *Transaction) ContentHash() string {
	buf := make([]byte, 0, len(t.From)+len(t.To)+20)
	buf = append(buf, t.From...)
	buf = append(buf, t.To...)
	buf = append(buf, strconv.FormatUint(t.Amount, 10)...)
	return crypto.HashHex(buf)
}

// Sign signs the transaction's content hash with secretKeyHex (a
// hex-encoded 32-byte secp256k1 scalar), populating PublicKey and
// Signature. Returns ErrInvalidKey if the key is malformed.
func (t *Transaction) Sign(secretKeyHex string) error {
	secret, err := hex.DecodeString(secretKeyHex)
	if err != nil {
		return fmt.Errorf("%w: %w: %v", ErrInvalidKey, ErrInvalidHex, err)
	}
	key, err := crypto.PrivateKeyFromBytes(secret)
	if err != nil {
		return err
	}

	hash, err := hex.DecodeString(t.ContentHash())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	sig, err := key.Sign(hash)
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}

	t.PublicKey = hex.EncodeToString(key.PublicKey())
	t.Signature = hex.EncodeToString(sig)
	return nil
}

// Verify reports whether the transaction is valid: true unconditionally
// for coinbase transactions, otherwise true only if both PublicKey and
// Signature are present, well-formed hex, and the ECDSA signature over
// ContentHash verifies under PublicKey.
func (t *Transaction) Verify() bool {
	if t.IsCoinbase() {
		return true
	}
	if t.PublicKey == "" || t.Signature == "" {
		return false
	}

	pub, err := hex.DecodeString(t.PublicKey)
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(t.Signature)
	if err != nil {
		return false
	}
	hash, err := hex.DecodeString(t.ContentHash())
	if err != nil {
		return false
	}

	return crypto.VerifySignature(hash, sig, pub)
}

// Package crypto provides the hashing and signature primitives used
// throughout the chain: SHA-256 content hashing and secp256k1 ECDSA
// signing/verification.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashHex returns the lowercase hex-encoded SHA-256 digest of data.
func HashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Hash returns the raw 32-byte SHA-256 digest of data.
func Hash(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// AddressFromPubKey derives an address string from an uncompressed
// public key: a fixed prefix byte followed by the first 20 bytes of
// SHA256(pubkey), hex-encoded.
const addressPrefix = byte(0x4b) // 'K'

func AddressFromPubKey(pubKey []byte) string {
	sum := sha256.Sum256(pubKey)
	addr := make([]byte, 0, 21)
	addr = append(addr, addressPrefix)
	addr = append(addr, sum[:20]...)
	return hex.EncodeToString(addr)
}

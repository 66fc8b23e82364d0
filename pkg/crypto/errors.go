package crypto

import "errors"

// ErrInvalidKey is returned when a hex-decoded secret key is not a
// valid 32-byte secp256k1 scalar.
var ErrInvalidKey = errors.New("crypto: invalid private key")

package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

const (
	// AlphanumericAlphabet is used for generated secrets and handles.
	AlphanumericAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RandomString returns a cryptographically secure random string of length n
// drawn from the given alphabet. Panics if the random source fails, since no
// caller can meaningfully continue without entropy.
func RandomString(n int, alphabet string) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto: random source unavailable: " + err.Error())
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b)
}

// RandomHex returns 2*n hex characters of secure randomness. Used for
// verification nonces, where a fixed-width opaque value is wanted.
func RandomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto: random source unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// MinKeyLength is the minimum required length for HMAC-SHA256 signing keys.
// 32 bytes (256 bits) is the minimum recommended length to provide
// sufficient security against brute force attacks.
const MinKeyLength = 32

var (
	// ErrTokenExpired is returned when the signature is valid but the token
	// age exceeds the caller-supplied max age.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for malformed tokens and digest mismatches.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrInvalidSecretLength is returned for signing keys below MinKeyLength.
	ErrInvalidSecretLength = errors.New("invalid secret length")
)

// Signer produces and verifies time-bound signed payloads. The token embeds
// the payload and its creation timestamp; verification recomputes a keyed
// digest and rejects tokens older than a caller-supplied max age.
//
// Deterministic given the same key and timestamp, no external I/O. Callers
// must branch on ErrTokenExpired vs ErrTokenInvalid only for logging: both
// map to the same generic client-facing error.
type Signer struct {
	key []byte
}

// NewSigner creates a Signer with the given secret key.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) < MinKeyLength {
		return nil, ErrInvalidSecretLength
	}
	return &Signer{key: secret}, nil
}

// NewSignerWithCredentials creates a Signer whose key is derived from a
// server secret and user credentials. Tokens signed with it stop verifying
// when the user's email or password hash changes, which makes a password
// reset token single-use in effect: consuming it rewrites the hash.
//
// A null byte separates the inputs to prevent collisions between email and
// hash. HMAC is used instead of plain hash concatenation to avoid
// length-extension attacks.
func NewSignerWithCredentials(secret []byte, email, passwordHash string) (*Signer, error) {
	if len(secret) < MinKeyLength {
		return nil, ErrInvalidSecretLength
	}
	if email == "" || passwordHash == "" {
		return nil, ErrTokenInvalid
	}
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(email))
	h.Write([]byte{0})
	h.Write([]byte(passwordHash))
	return &Signer{key: h.Sum(nil)}, nil
}

var b64 = base64.RawURLEncoding

// Sign returns payload.timestamp.signature with each part base64url encoded.
func (s *Signer) Sign(payload string) string {
	return s.signAt(payload, time.Now())
}

// signAt is split out so tests can produce tokens with a chosen timestamp.
func (s *Signer) signAt(payload string, t time.Time) string {
	ts := strconv.FormatInt(t.Unix(), 10)
	sig := s.digest(payload, ts)
	return b64.EncodeToString([]byte(payload)) + "." + b64.EncodeToString([]byte(ts)) + "." + b64.EncodeToString(sig)
}

// Unsign verifies the token signature and age and returns the payload.
// Returns ErrTokenExpired when the signature is valid but the embedded
// timestamp is older than maxAge, ErrTokenInvalid otherwise.
func (s *Signer) Unsign(token string, maxAge time.Duration) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrTokenInvalid
	}

	payload, err := b64.DecodeString(parts[0])
	if err != nil {
		return "", ErrTokenInvalid
	}
	tsBytes, err := b64.DecodeString(parts[1])
	if err != nil {
		return "", ErrTokenInvalid
	}
	sig, err := b64.DecodeString(parts[2])
	if err != nil {
		return "", ErrTokenInvalid
	}

	expected := s.digest(string(payload), string(tsBytes))
	if !hmac.Equal(sig, expected) {
		return "", ErrTokenInvalid
	}

	ts, err := strconv.ParseInt(string(tsBytes), 10, 64)
	if err != nil {
		return "", ErrTokenInvalid
	}
	issued := time.Unix(ts, 0)
	if issued.After(time.Now().Add(time.Minute)) {
		// A timestamp from the future means a forged or misconfigured clock.
		return "", ErrTokenInvalid
	}
	if time.Since(issued) > maxAge {
		return "", ErrTokenExpired
	}

	return string(payload), nil
}

// UnsignedPayload decodes the payload part of a token WITHOUT verifying
// the signature or age. Callers use it to find which user a token claims
// to belong to when the verification key itself is derived from that
// user's credentials; the claim must be verified afterwards with a
// properly keyed Unsign.
func UnsignedPayload(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrTokenInvalid
	}
	payload, err := b64.DecodeString(parts[0])
	if err != nil {
		return "", ErrTokenInvalid
	}
	return string(payload), nil
}

func (s *Signer) digest(payload, ts string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(payload))
	h.Write([]byte{0})
	h.Write([]byte(ts))
	return h.Sum(nil)
}

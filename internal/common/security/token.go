package security

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// NewSessionToken returns a fresh random opaque token.
func NewSessionToken() string {
	return uuid.NewString()
}

// HashToken is the at-rest form of a session token. Only hashes are persisted.
func HashToken(token string) []byte {
	sum := blake2b.Sum256([]byte(token))
	return sum[:]
}

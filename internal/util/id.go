package util

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random UUIDv4 without dashes, safe for URLs and object keys.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewToken returns n random bytes hex-encoded. Used for opaque session tokens.
func NewToken(n int) string {
	if n <= 0 {
		n = 32
	}
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

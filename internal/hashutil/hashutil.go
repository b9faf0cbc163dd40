// Package hashutil holds the hashing and randomness helpers used to fabricate
// transaction-looking values for simulated charms.
package hashutil

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SHA256Hex returns the lowercase hex SHA-256 digest of message.
func SHA256Hex(message string) string {
	sum := sha256.Sum256([]byte(message))
	return hex.EncodeToString(sum[:])
}

// RandomHex returns 2*n lowercase hex characters read from crypto/rand.
func RandomHex(n int) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("random hex: negative length %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random hex: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

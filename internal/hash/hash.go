// Package hash fingerprints artifacts for the audit trail.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum is the lowercase hex sha256 of b.
func Sum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

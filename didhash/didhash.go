// Package didhash computes the DID hash spec.md §3 defines: the
// SHA-256 hex digest of a DID, used wherever a fixed-width, opaque
// recipient key is needed (queue key, stream topic).
package didhash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Of returns the DID hash for did.
func Of(did string) string {
	sum := sha256.Sum256([]byte(did))
	return hex.EncodeToString(sum[:])
}

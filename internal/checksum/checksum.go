// Package checksum fingerprints diagram content so the search index and
// the watcher can detect changes without comparing full bodies.
package checksum

import (
	"crypto/sha256"
	"fmt"
)

// Sum returns the hex SHA-256 fingerprint of content.
func Sum(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// Match reports whether content hashes to sum. An empty sum never
// matches, so an unindexed diagram is always treated as changed.
func Match(content []byte, sum string) bool {
	return sum != "" && Sum(content) == sum
}

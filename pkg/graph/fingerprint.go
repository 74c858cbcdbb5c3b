package graph

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Fingerprint returns the hex BLAKE3-256 digest of the debug rendering of
// g. Two snapshots with the same names, attributes, adjacency and
// subgraphs in the same order share a fingerprint.
func Fingerprint(g *Graph) string {
	h := blake3.New(32, nil)
	_ = g.Format(h)
	return hex.EncodeToString(h.Sum(nil))
}

// Short returns the first 12 hex characters of a fingerprint, for logs.
func Short(fingerprint string) string {
	if len(fingerprint) <= 12 {
		return fingerprint
	}
	return fingerprint[:12]
}

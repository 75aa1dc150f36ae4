package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Key schema:
//
//   fin:<32-byte digest>            → 0x01 (order finalized)
//   match:<timestamp>:<buy digest>  → MatchRecord (json)
//
// Timestamps are zero-padded to 20 digits so prefix scans come back in
// chronological order.
const (
	prefixFinalized = "fin:"
	prefixMatch     = "match:"
)

func finalizedKey(digest common.Hash) []byte {
	return append([]byte(prefixFinalized), digest[:]...)
}

func matchKey(timestamp int64, buyHash common.Hash) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixMatch, timestamp, buyHash.Hex()))
}

func matchPrefix() []byte {
	return []byte(prefixMatch)
}

// keyUpperBound returns the exclusive upper bound for a prefix scan.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}

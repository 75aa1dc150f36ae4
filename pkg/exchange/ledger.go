package exchange

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// FinalizationLedger is the per-digest one-shot consumption set. Entries
// start unset; the engine sets an entry exactly once, on first successful
// match (or maker cancellation) of that digest, and never unsets it.
type FinalizationLedger interface {
	IsFinalized(digest common.Hash) (bool, error)
	// Finalize marks the digest consumed. Returns false without marking if
	// the digest was already consumed.
	Finalize(digest common.Hash) (bool, error)
}

// MemoryLedger is an in-process FinalizationLedger for tests and devnets.
// The Pebble-backed ledger in pkg/storage is the persistent counterpart.
type MemoryLedger struct {
	mu        sync.Mutex
	finalized map[common.Hash]bool
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{finalized: make(map[common.Hash]bool)}
}

func (l *MemoryLedger) IsFinalized(digest common.Hash) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.finalized[digest], nil
}

func (l *MemoryLedger) Finalize(digest common.Hash) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.finalized[digest] {
		return false, nil
	}
	l.finalized[digest] = true
	return true, nil
}

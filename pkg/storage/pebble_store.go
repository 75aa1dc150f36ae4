package storage

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"

	"github.com/uhyunpark/swapmatch/pkg/exchange"
)

// PebbleStore persists the finalization ledger and match records. It is the
// production counterpart of the in-memory implementations in pkg/exchange.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

// NewPebbleStoreWithOptions opens a store with caller-supplied options,
// e.g. an in-memory filesystem for tests.
func NewPebbleStoreWithOptions(path string, opts *pebble.Options) (*PebbleStore, error) {
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

// IsFinalized reports whether the digest has been consumed.
func (s *PebbleStore) IsFinalized(digest common.Hash) (bool, error) {
	_, closer, err := s.db.Get(finalizedKey(digest))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read finalization flag: %w", err)
	}
	closer.Close()
	return true, nil
}

// Finalize marks the digest consumed. Returns false without writing if the
// digest was already consumed.
func (s *PebbleStore) Finalize(digest common.Hash) (bool, error) {
	done, err := s.IsFinalized(digest)
	if err != nil {
		return false, err
	}
	if done {
		return false, nil
	}
	if err := s.db.Set(finalizedKey(digest), []byte{1}, pebble.Sync); err != nil {
		return false, fmt.Errorf("failed to set finalization flag: %w", err)
	}
	return true, nil
}

// SaveMatch persists a settled match record.
func (s *PebbleStore) SaveMatch(rec *exchange.MatchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal match record: %w", err)
	}
	key := matchKey(rec.Timestamp, rec.BuyHash)
	if err := s.db.Set(key, data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save match record: %w", err)
	}
	return nil
}

// RecentMatches returns up to limit records, newest first.
func (s *PebbleStore) RecentMatches(limit int) ([]*exchange.MatchRecord, error) {
	prefix := matchPrefix()
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open match iterator: %w", err)
	}
	defer iter.Close()

	var records []*exchange.MatchRecord
	for iter.Last(); iter.Valid() && len(records) < limit; iter.Prev() {
		var rec exchange.MatchRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue // skip a corrupt entry rather than fail the scan
		}
		records = append(records, &rec)
	}
	return records, nil
}

var (
	_ exchange.FinalizationLedger = (*PebbleStore)(nil)
	_ exchange.MatchStore         = (*PebbleStore)(nil)
)

package storage

import (
	"math/big"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/ethereum/go-ethereum/common"

	"github.com/uhyunpark/swapmatch/pkg/exchange"
)

func newTestStore(t *testing.T) *PebbleStore {
	t.Helper()
	store, err := NewPebbleStoreWithOptions("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFinalizeOnce(t *testing.T) {
	store := newTestStore(t)
	digest := common.HexToHash("0xd1de57")

	done, err := store.IsFinalized(digest)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if done {
		t.Fatal("fresh digest reported finalized")
	}

	ok, err := store.Finalize(digest)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if !ok {
		t.Fatal("first finalize returned false")
	}

	ok, err = store.Finalize(digest)
	if err != nil {
		t.Fatalf("second finalize errored: %v", err)
	}
	if ok {
		t.Error("second finalize returned true")
	}

	done, err = store.IsFinalized(digest)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !done {
		t.Error("finalized digest reported unconsumed")
	}

	// other digests are unaffected
	done, _ = store.IsFinalized(common.HexToHash("0x07e4"))
	if done {
		t.Error("unrelated digest reported finalized")
	}
}

func TestRecentMatchesNewestFirst(t *testing.T) {
	store := newTestStore(t)

	for i := int64(1); i <= 5; i++ {
		rec := &exchange.MatchRecord{
			BuyHash:   common.BigToHash(big.NewInt(i)),
			SellHash:  common.BigToHash(big.NewInt(100 + i)),
			Maker:     common.HexToAddress("0xaa"),
			Taker:     common.HexToAddress("0xbb"),
			Price:     big.NewInt(i * 1000),
			Timestamp: 1000 + i,
		}
		if err := store.SaveMatch(rec); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	records, err := store.RecentMatches(3)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i, wantTs := range []int64{1005, 1004, 1003} {
		if records[i].Timestamp != wantTs {
			t.Errorf("record %d timestamp = %d, want %d", i, records[i].Timestamp, wantTs)
		}
	}
	if records[0].Price.Int64() != 5000 {
		t.Errorf("newest record price = %s, want 5000", records[0].Price)
	}

	// a limit beyond the stored count returns everything
	all, err := store.RecentMatches(100)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("got %d records, want 5", len(all))
	}
}

func TestMatchKeysDoNotCollideWithLedger(t *testing.T) {
	store := newTestStore(t)
	digest := common.HexToHash("0xfeed")

	rec := &exchange.MatchRecord{
		BuyHash:   digest,
		SellHash:  common.HexToHash("0xbeef"),
		Price:     big.NewInt(1),
		Timestamp: 42,
	}
	if err := store.SaveMatch(rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	done, err := store.IsFinalized(digest)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if done {
		t.Error("match record leaked into the finalization keyspace")
	}

	if _, err := store.Finalize(digest); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	records, err := store.RecentMatches(10)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d match records, want 1", len(records))
	}
}

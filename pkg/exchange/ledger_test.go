package exchange

import (
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestFinalizeOnce(t *testing.T) {
	ledger := NewMemoryLedger()
	digest := common.HexToHash("0xabc123")

	done, err := ledger.IsFinalized(digest)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if done {
		t.Error("fresh digest reported finalized")
	}

	ok, err := ledger.Finalize(digest)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if !ok {
		t.Error("first finalize returned false")
	}

	ok, err = ledger.Finalize(digest)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if ok {
		t.Error("second finalize returned true")
	}

	done, _ = ledger.IsFinalized(digest)
	if !done {
		t.Error("digest not finalized after Finalize")
	}
}

func TestFinalizeConcurrentExactlyOne(t *testing.T) {
	ledger := NewMemoryLedger()
	digest := common.HexToHash("0xdef456")

	const n = 16
	wins := make(chan bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := ledger.Finalize(digest)
			if err != nil {
				t.Errorf("finalize failed: %v", err)
				return
			}
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for ok := range wins {
		if ok {
			count++
		}
	}
	if count != 1 {
		t.Errorf("%d goroutines won the finalize race, want exactly 1", count)
	}
}

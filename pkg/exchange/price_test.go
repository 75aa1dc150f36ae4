package exchange

import (
	"errors"
	"math/big"
	"testing"
)

func auctionOrder(side Side, base, end int64, listing, expiration uint64) *Order {
	o := sampleOrder()
	o.Side = side
	o.SaleKind = SaleKindAuction
	o.BasePrice = big.NewInt(base)
	o.EndPrice = big.NewInt(end)
	o.ListingTime = listing
	o.ExpirationTime = expiration
	return o
}

func TestFixedPriceResolvesToBasePrice(t *testing.T) {
	o := sampleOrder()
	o.BasePrice = big.NewInt(12345)

	for _, now := range []uint64{0, 1000, 1500, 2000, 1 << 40} {
		if got := CurrentPrice(o, now); got.Cmp(o.BasePrice) != 0 {
			t.Errorf("fixed price at t=%d: got %s, want %s", now, got, o.BasePrice)
		}
	}
}

func TestDecliningAuctionInterpolates(t *testing.T) {
	o := auctionOrder(SideSell, 100, 0, 0, 100)

	cases := []struct {
		now  uint64
		want int64
	}{
		{0, 100},
		{50, 50},
		{100, 0},
		{25, 75},
		{99, 1},
	}
	for _, c := range cases {
		if got := CurrentPrice(o, c.now); got.Int64() != c.want {
			t.Errorf("resolve(t=%d) = %s, want %d", c.now, got, c.want)
		}
	}
}

func TestDecliningAuctionFloorsDivision(t *testing.T) {
	// 100 -> 0 over 3 seconds: at t=1 the exact price is 66.67
	o := auctionOrder(SideSell, 100, 0, 0, 3)
	if got := CurrentPrice(o, 1); got.Int64() != 67 {
		// decay = 100*1/3 = 33 (floored), price = 67
		t.Errorf("resolve(t=1) = %s, want 67", got)
	}
}

func TestAscendingAuctionResolvesPerSide(t *testing.T) {
	sell := auctionOrder(SideSell, 100, 500, 0, 100)
	if got := CurrentPrice(sell, 50); got.Int64() != 100 {
		t.Errorf("ascending sell resolves to %s, want basePrice 100", got)
	}

	buy := auctionOrder(SideBuy, 100, 500, 0, 100)
	if got := CurrentPrice(buy, 50); got.Int64() != 500 {
		t.Errorf("ascending buy resolves to %s, want endPrice 500", got)
	}
}

func TestDegenerateAuctionActsAsFixedPrice(t *testing.T) {
	for _, side := range []Side{SideBuy, SideSell} {
		o := auctionOrder(side, 100, 100, 0, 100)
		if got := CurrentPrice(o, 50); got.Int64() != 100 {
			t.Errorf("degenerate auction (%s) resolves to %s, want 100", side, got)
		}
	}
}

func TestMatchPriceSettlesAtBuyPrice(t *testing.T) {
	buy := auctionOrder(SideBuy, 100, 500, 0, 100)
	sell := auctionOrder(SideSell, 100, 500, 0, 100)

	price, err := MatchPrice(buy, sell, 50)
	if err != nil {
		t.Fatalf("match price failed: %v", err)
	}
	if price.Int64() != 500 {
		t.Errorf("settled at %s, want buyer's resolved price 500", price)
	}
}

func TestMatchPriceRejectsBuyBelowSell(t *testing.T) {
	buy := sampleOrder()
	buy.Side = SideBuy
	buy.BasePrice = big.NewInt(50)
	sell := sampleOrder()
	sell.BasePrice = big.NewInt(100)

	if _, err := MatchPrice(buy, sell, 1500); !errors.Is(err, ErrPriceMismatch) {
		t.Errorf("got %v, want ErrPriceMismatch", err)
	}
}

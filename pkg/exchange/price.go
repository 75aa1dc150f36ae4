package exchange

import (
	"fmt"
	"math/big"
)

// CurrentPrice resolves an order's price at the given time (Unix seconds).
//
// Fixed price orders resolve to basePrice unconditionally. Declining auctions
// (basePrice > endPrice) interpolate linearly from basePrice at listingTime to
// endPrice at expirationTime, flooring on integer division. Ascending
// auctions (basePrice < endPrice) resolve to basePrice for a sell and
// endPrice for a buy; the two sides meet in the match check, not here. An
// auction with coinciding endpoints degenerates to a fixed price at basePrice.
//
// Callers only invoke this inside the order's validity window; elapsed time
// is clamped at zero as the sole guard against clock skew.
func CurrentPrice(o *Order, now uint64) *big.Int {
	if o.SaleKind != SaleKindAuction {
		return new(big.Int).Set(o.BasePrice)
	}

	switch o.BasePrice.Cmp(o.EndPrice) {
	case 0:
		return new(big.Int).Set(o.BasePrice)
	case -1: // ascending, reconciled by the match check
		if o.Side == SideSell {
			return new(big.Int).Set(o.BasePrice)
		}
		return new(big.Int).Set(o.EndPrice)
	}

	// declining Dutch auction
	var elapsed uint64
	if now > o.ListingTime {
		elapsed = now - o.ListingTime
	}
	span := o.ExpirationTime - o.ListingTime // > 0, enforced at authorization

	decay := new(big.Int).Sub(o.BasePrice, o.EndPrice)
	decay.Mul(decay, new(big.Int).SetUint64(elapsed))
	decay.Div(decay, new(big.Int).SetUint64(span))
	return new(big.Int).Sub(o.BasePrice, decay)
}

// MatchPrice resolves the settlement price for a compatible buy/sell pair.
// The buyer's resolved price must cover the seller's; settlement happens at
// the buyer's price.
func MatchPrice(buy, sell *Order, now uint64) (*big.Int, error) {
	buyPrice := CurrentPrice(buy, now)
	sellPrice := CurrentPrice(sell, now)
	if buyPrice.Cmp(sellPrice) < 0 {
		return nil, fmt.Errorf("%w: buy %s < sell %s", ErrPriceMismatch, buyPrice, sellPrice)
	}
	return buyPrice, nil
}

package exchange

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func sampleOrder() *Order {
	return &Order{
		Exchange:           common.HexToAddress("0x0e0e"),
		Maker:              common.HexToAddress("0x1111"),
		Taker:              AnyTaker,
		Side:               SideSell,
		SaleKind:           SaleKindFixedPrice,
		Target:             common.HexToAddress("0x2222"),
		PaymentToken:       NativeToken,
		Calldata:           []byte{0xde, 0xad, 0xbe, 0xef},
		ReplacementPattern: []byte{0x00, 0x00, 0x00, 0x00},
		StaticExtra:        nil,
		BasePrice:          big.NewInt(100),
		EndPrice:           big.NewInt(0),
		ListingTime:        1000,
		ExpirationTime:     2000,
		Salt:               big.NewInt(42),
	}
}

func TestHashDeterministic(t *testing.T) {
	hasher := NewOrderHasher(1337)

	h1, err := hasher.Hash(sampleOrder())
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	h2, err := hasher.Hash(sampleOrder())
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if h1 != h2 {
		t.Errorf("identical orders hashed differently: %s vs %s", h1.Hex(), h2.Hex())
	}
	if h1 == (common.Hash{}) {
		t.Error("hash is zero")
	}
}

func TestHashChangesWithEveryField(t *testing.T) {
	hasher := NewOrderHasher(1337)
	base, err := hasher.Hash(sampleOrder())
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	mutations := map[string]func(*Order){
		"exchange":       func(o *Order) { o.Exchange = common.HexToAddress("0xdead") },
		"maker":          func(o *Order) { o.Maker = common.HexToAddress("0xdead") },
		"taker":          func(o *Order) { o.Taker = common.HexToAddress("0xdead") },
		"side":           func(o *Order) { o.Side = SideBuy },
		"saleKind":       func(o *Order) { o.SaleKind = SaleKindAuction },
		"target":         func(o *Order) { o.Target = common.HexToAddress("0xdead") },
		"paymentToken":   func(o *Order) { o.PaymentToken = common.HexToAddress("0xdead") },
		"calldata":       func(o *Order) { o.Calldata[0] ^= 0x01 },
		"mask bit":       func(o *Order) { o.ReplacementPattern[3] = 0x01 },
		"staticTarget":   func(o *Order) { o.StaticTarget = common.HexToAddress("0xdead") },
		"staticExtra":    func(o *Order) { o.StaticExtra = []byte{0x01} },
		"basePrice":      func(o *Order) { o.BasePrice = big.NewInt(101) },
		"endPrice":       func(o *Order) { o.EndPrice = big.NewInt(1) },
		"listingTime":    func(o *Order) { o.ListingTime = 1001 },
		"expirationTime": func(o *Order) { o.ExpirationTime = 2001 },
		"salt":           func(o *Order) { o.Salt = big.NewInt(43) },
	}

	for name, mutate := range mutations {
		o := sampleOrder()
		mutate(o)
		h, err := hasher.Hash(o)
		if err != nil {
			t.Fatalf("hash failed after mutating %s: %v", name, err)
		}
		if h == base {
			t.Errorf("mutating %s did not change the digest", name)
		}
	}
}

func TestHashChangesWithChainID(t *testing.T) {
	h1, err := NewOrderHasher(1337).Hash(sampleOrder())
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	h2, err := NewOrderHasher(1).Hash(sampleOrder())
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if h1 == h2 {
		t.Error("digest identical across chain ids")
	}
}

func TestHashEmptyByteFields(t *testing.T) {
	o := sampleOrder()
	o.Calldata = nil
	o.ReplacementPattern = nil
	o.StaticExtra = nil

	if _, err := NewOrderHasher(1337).Hash(o); err != nil {
		t.Fatalf("hash with empty byte fields failed: %v", err)
	}
}

package exchange

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Side is the direction of an order.
type Side uint8

const (
	SideBuy  Side = 0
	SideSell Side = 1
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// SaleKind selects how the order is priced over time.
type SaleKind uint8

const (
	SaleKindFixedPrice SaleKind = 0
	SaleKindAuction    SaleKind = 1
)

func (k SaleKind) String() string {
	switch k {
	case SaleKindFixedPrice:
		return "fixed_price"
	case SaleKindAuction:
		return "auction"
	default:
		return "unknown"
	}
}

// NativeToken is the paymentToken sentinel meaning "pay in native currency".
var NativeToken = common.Address{}

// AnyTaker is the wildcard taker: any counterparty may fill the order.
var AnyTaker = common.Address{}

// Order is a signed trade intent. Orders are immutable once hashed; the
// digest commits to every field below, so any change produces a new order.
//
// Calldata describes the exact asset-transfer call to execute against Target.
// ReplacementPattern marks which Calldata bytes are wildcards the counter
// order may fill in (empty = none). StaticTarget/StaticExtra optionally name
// a post-condition check invoked after settlement (zero StaticTarget = none).
type Order struct {
	Exchange           common.Address // settlement engine this order is scoped to
	Maker              common.Address
	Taker              common.Address // AnyTaker = open to anyone
	Side               Side
	SaleKind           SaleKind
	Target             common.Address // asset contract
	PaymentToken       common.Address // NativeToken = native currency
	Calldata           []byte
	ReplacementPattern []byte
	StaticTarget       common.Address
	StaticExtra        []byte
	BasePrice          *big.Int
	EndPrice           *big.Int // auction endpoint; unused for fixed price
	ListingTime        uint64   // Unix seconds
	ExpirationTime     uint64   // Unix seconds, 0 = never expires
	Salt               *big.Int
}

// Copy returns a deep copy. The engine reconciles calldata in place, so
// callers that reuse an Order across calls should hand the engine a copy.
func (o *Order) Copy() *Order {
	c := *o
	c.Calldata = append([]byte(nil), o.Calldata...)
	c.ReplacementPattern = append([]byte(nil), o.ReplacementPattern...)
	c.StaticExtra = append([]byte(nil), o.StaticExtra...)
	if o.BasePrice != nil {
		c.BasePrice = new(big.Int).Set(o.BasePrice)
	}
	if o.EndPrice != nil {
		c.EndPrice = new(big.Int).Set(o.EndPrice)
	}
	if o.Salt != nil {
		c.Salt = new(big.Int).Set(o.Salt)
	}
	return &c
}

// OrderPayload is the JSON wire form of an Order. Prices and salt travel as
// decimal strings, byte fields as 0x-prefixed hex.
type OrderPayload struct {
	Exchange           string        `json:"exchange"`
	Maker              string        `json:"maker"`
	Taker              string        `json:"taker"`
	Side               uint8         `json:"side"`
	SaleKind           uint8         `json:"sale_kind"`
	Target             string        `json:"target"`
	PaymentToken       string        `json:"payment_token"`
	Calldata           hexutil.Bytes `json:"calldata"`
	ReplacementPattern hexutil.Bytes `json:"replacement_pattern"`
	StaticTarget       string        `json:"static_target"`
	StaticExtra        hexutil.Bytes `json:"static_extra"`
	BasePrice          string        `json:"base_price"`
	EndPrice           string        `json:"end_price"`
	ListingTime        uint64        `json:"listing_time"`
	ExpirationTime     uint64        `json:"expiration_time"`
	Salt               string        `json:"salt"`
}

// ToOrder converts the wire payload into an Order.
func (p *OrderPayload) ToOrder() (*Order, error) {
	if !common.IsHexAddress(p.Exchange) {
		return nil, fmt.Errorf("invalid exchange address: %s", p.Exchange)
	}
	if !common.IsHexAddress(p.Maker) {
		return nil, fmt.Errorf("invalid maker address: %s", p.Maker)
	}
	if p.Side > uint8(SideSell) {
		return nil, fmt.Errorf("invalid side: %d", p.Side)
	}
	if p.SaleKind > uint8(SaleKindAuction) {
		return nil, fmt.Errorf("invalid sale kind: %d", p.SaleKind)
	}

	basePrice, ok := new(big.Int).SetString(p.BasePrice, 10)
	if !ok {
		return nil, fmt.Errorf("invalid base price: %s", p.BasePrice)
	}
	endPrice, ok := new(big.Int).SetString(p.EndPrice, 10)
	if !ok {
		return nil, fmt.Errorf("invalid end price: %s", p.EndPrice)
	}
	salt, ok := new(big.Int).SetString(p.Salt, 10)
	if !ok {
		return nil, fmt.Errorf("invalid salt: %s", p.Salt)
	}

	return &Order{
		Exchange:           common.HexToAddress(p.Exchange),
		Maker:              common.HexToAddress(p.Maker),
		Taker:              common.HexToAddress(p.Taker),
		Side:               Side(p.Side),
		SaleKind:           SaleKind(p.SaleKind),
		Target:             common.HexToAddress(p.Target),
		PaymentToken:       common.HexToAddress(p.PaymentToken),
		Calldata:           append([]byte(nil), p.Calldata...),
		ReplacementPattern: append([]byte(nil), p.ReplacementPattern...),
		StaticTarget:       common.HexToAddress(p.StaticTarget),
		StaticExtra:        append([]byte(nil), p.StaticExtra...),
		BasePrice:          basePrice,
		EndPrice:           endPrice,
		ListingTime:        p.ListingTime,
		ExpirationTime:     p.ExpirationTime,
		Salt:               salt,
	}, nil
}

// FromOrder converts an Order into its wire payload.
func FromOrder(o *Order) *OrderPayload {
	return &OrderPayload{
		Exchange:           o.Exchange.Hex(),
		Maker:              o.Maker.Hex(),
		Taker:              o.Taker.Hex(),
		Side:               uint8(o.Side),
		SaleKind:           uint8(o.SaleKind),
		Target:             o.Target.Hex(),
		PaymentToken:       o.PaymentToken.Hex(),
		Calldata:           append([]byte(nil), o.Calldata...),
		ReplacementPattern: append([]byte(nil), o.ReplacementPattern...),
		StaticTarget:       o.StaticTarget.Hex(),
		StaticExtra:        append([]byte(nil), o.StaticExtra...),
		BasePrice:          o.BasePrice.String(),
		EndPrice:           o.EndPrice.String(),
		ListingTime:        o.ListingTime,
		ExpirationTime:     o.ExpirationTime,
		Salt:               o.Salt.String(),
	}
}

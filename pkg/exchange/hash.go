package exchange

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// EIP-712 domain constants. The verifying contract slot carries the order's
// exchange identity, so a digest signed for one engine instance never
// verifies on another.
const (
	domainName    = "SwapMatch"
	domainVersion = "1"
)

// OrderHasher computes the EIP-712 digest of an Order.
//
// Variable-length fields (calldata, replacementPattern, staticExtra) are
// keccak-reduced by the typed-data encoder before being folded into the
// struct hash, so they cannot be substituted without changing the digest.
type OrderHasher struct {
	chainID *big.Int
}

func NewOrderHasher(chainID int64) *OrderHasher {
	return &OrderHasher{chainID: big.NewInt(chainID)}
}

var orderTypes = apitypes.Types{
	"EIP712Domain": []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Order": []apitypes.Type{
		{Name: "maker", Type: "address"},
		{Name: "taker", Type: "address"},
		{Name: "side", Type: "uint8"},
		{Name: "saleKind", Type: "uint8"},
		{Name: "target", Type: "address"},
		{Name: "paymentToken", Type: "address"},
		{Name: "calldata", Type: "bytes"},
		{Name: "replacementPattern", Type: "bytes"},
		{Name: "staticTarget", Type: "address"},
		{Name: "staticExtra", Type: "bytes"},
		{Name: "basePrice", Type: "uint256"},
		{Name: "endPrice", Type: "uint256"},
		{Name: "listingTime", Type: "uint256"},
		{Name: "expirationTime", Type: "uint256"},
		{Name: "salt", Type: "uint256"},
	},
}

// Hash returns the order's digest: keccak256(0x1901 || domainSeparator ||
// structHash). Pure and deterministic over all order fields; the exchange
// field is committed through the domain separator.
func (h *OrderHasher) Hash(o *Order) (common.Hash, error) {
	typedData := apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: "Order",
		Domain: apitypes.TypedDataDomain{
			Name:              domainName,
			Version:           domainVersion,
			ChainId:           (*math.HexOrDecimal256)(h.chainID),
			VerifyingContract: o.Exchange.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"maker":              o.Maker.Hex(),
			"taker":              o.Taker.Hex(),
			"side":               fmt.Sprintf("%d", o.Side),
			"saleKind":           fmt.Sprintf("%d", o.SaleKind),
			"target":             o.Target.Hex(),
			"paymentToken":       o.PaymentToken.Hex(),
			"calldata":           hexutil.Encode(o.Calldata),
			"replacementPattern": hexutil.Encode(o.ReplacementPattern),
			"staticTarget":       o.StaticTarget.Hex(),
			"staticExtra":        hexutil.Encode(o.StaticExtra),
			"basePrice":          o.BasePrice.String(),
			"endPrice":           o.EndPrice.String(),
			"listingTime":        new(big.Int).SetUint64(o.ListingTime).String(),
			"expirationTime":     new(big.Int).SetUint64(o.ExpirationTime).String(),
			"salt":               o.Salt.String(),
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash domain: %w", err)
	}
	structHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash order: %w", err)
	}

	raw := make([]byte, 0, 2+len(domainSeparator)+len(structHash))
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domainSeparator...)
	raw = append(raw, structHash...)
	return crypto.Keccak256Hash(raw), nil
}

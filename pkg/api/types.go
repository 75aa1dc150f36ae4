package api

import "github.com/uhyunpark/swapmatch/pkg/exchange"

// MatchSubmission is the body of POST /api/v1/match. Caller defaults to the
// buy maker when omitted; Value is attached native currency in decimal.
type MatchSubmission struct {
	Buy     *exchange.OrderPayload `json:"buy"`
	BuySig  string                 `json:"buy_signature"`
	Sell    *exchange.OrderPayload `json:"sell"`
	SellSig string                 `json:"sell_signature"`
	Caller  string                 `json:"caller,omitempty"`
	Value   string                 `json:"value,omitempty"`
}

// OrderSubmission carries a single order plus signature, used by the cancel
// and validate endpoints.
type OrderSubmission struct {
	Order     *exchange.OrderPayload `json:"order"`
	Signature string                 `json:"signature,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

type HashResponse struct {
	Hash string `json:"hash"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

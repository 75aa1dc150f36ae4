package exchange

import "errors"

// Settlement failures. Every failure aborts the whole call with no state
// change; retry is the caller's responsibility after correcting the input.
var (
	ErrUnauthorized        = errors.New("order not authorized by maker")
	ErrWrongExchange       = errors.New("order scoped to a different exchange")
	ErrInvalidWindow       = errors.New("auction has no valid time window")
	ErrNotMatched          = errors.New("orders cannot be matched")
	ErrAlreadyFinalized    = errors.New("order already finalized")
	ErrInvalidTarget       = errors.New("sell target is not a contract")
	ErrCalldataMismatch    = errors.New("calldata mismatch after reconciliation")
	ErrLengthMismatch      = errors.New("calldata and pattern lengths differ")
	ErrPriceMismatch       = errors.New("buy price below sell price")
	ErrInvalidPayment      = errors.New("invalid payment for order pair")
	ErrTransferFailed      = errors.New("funds transfer failed")
	ErrDelegateCallFailed  = errors.New("delegate call failed")
	ErrPostConditionFailed = errors.New("static post-condition check failed")
	ErrReentrant           = errors.New("reentrant call into settlement")
)

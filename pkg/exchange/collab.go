package exchange

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Registry maps accounts to their execution delegates. An unregistered
// account yields an error, which the engine reports as a delegate failure.
type Registry interface {
	DelegateFor(owner common.Address) (Delegate, error)
}

// Delegate executes an asset-transfer call on behalf of its owning account.
// Its own authorization policy is out of scope here; it must only accept
// calls from engines the registry has approved.
type Delegate interface {
	Invoke(target common.Address, calldata []byte) error
}

// DelegateFunc adapts a function to the Delegate interface.
type DelegateFunc func(target common.Address, calldata []byte) error

func (f DelegateFunc) Invoke(target common.Address, calldata []byte) error {
	return f(target, calldata)
}

// Funds moves payment between accounts on the engine's behalf.
//
// PullToken debits require prior allowance from the payer to the engine.
// RefundToken is the compensating reversal of an earlier pull; it is
// engine-initiated and must not require allowance from the refunding side.
// Go gives this engine no whole-call atomicity, so these reversals are how a
// failed settlement leaves no observable fund movement.
type Funds interface {
	TransferNative(from, to common.Address, amount *big.Int) error
	PullToken(token, from, to common.Address, amount *big.Int) error
	RefundToken(token, from, to common.Address, amount *big.Int) error
}

// TargetInspector answers whether an address hosts deployed code. A swap
// against a non-contract target is nonsensical and is rejected up front.
type TargetInspector interface {
	IsContract(addr common.Address) bool
}

// InspectorFunc adapts a function to the TargetInspector interface.
type InspectorFunc func(addr common.Address) bool

func (f InspectorFunc) IsContract(addr common.Address) bool { return f(addr) }

// StaticCaller runs a read-only post-condition check against a check
// contract. A non-nil error fails the settlement.
type StaticCaller interface {
	StaticCall(target common.Address, data []byte) error
}

// StaticFunc adapts a function to the StaticCaller interface.
type StaticFunc func(target common.Address, data []byte) error

func (f StaticFunc) StaticCall(target common.Address, data []byte) error {
	return f(target, data)
}

// MatchStore persists settled match records for the audit feed.
type MatchStore interface {
	SaveMatch(rec *MatchRecord) error
	RecentMatches(limit int) ([]*MatchRecord, error)
}

package exchange

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	swapcrypto "github.com/uhyunpark/swapmatch/pkg/crypto"
	"github.com/uhyunpark/swapmatch/pkg/util"
)

// feeDenominator sets the protocol fee at price/40 (2.5%).
const feeDenominator = 40

// Config carries the engine's identity and fee policy.
type Config struct {
	// Self is this engine instance's identity. Orders scoped to a
	// different exchange address are rejected.
	Self common.Address
	// ChainID enters the EIP-712 domain separator.
	ChainID int64
	// FeeRecipient receives the protocol fee on every settlement.
	FeeRecipient common.Address
}

// Deps are the engine's injected collaborators. Statics and Store may be
// nil; Clock defaults to wall time; Log defaults to a no-op logger.
type Deps struct {
	Ledger    FinalizationLedger
	Funds     Funds
	Registry  Registry
	Inspector TargetInspector
	Statics   StaticCaller
	Store     MatchStore
	Clock     util.Clock
	Log       *zap.SugaredLogger
}

// MatchRequest is the input to AtomicMatch. Value is the native currency
// attached by the caller; nil means none.
type MatchRequest struct {
	Buy     *Order
	BuySig  []byte
	Sell    *Order
	SellSig []byte
	Caller  common.Address
	Value   *big.Int
}

// MatchRecord is the auditable outcome of a settlement. Maker and taker are
// oriented so the non-calling counterparty is reported as maker regardless
// of which side initiated.
type MatchRecord struct {
	BuyHash   common.Hash    `json:"buy_hash"`
	SellHash  common.Hash    `json:"sell_hash"`
	Maker     common.Address `json:"maker"`
	Taker     common.Address `json:"taker"`
	Price     *big.Int       `json:"price"`
	Timestamp int64          `json:"timestamp"`
}

// Engine is the settlement orchestrator: it validates both orders, checks
// cross-order compatibility, reconciles calldata, moves funds with the fee
// split, invokes the seller's delegate, runs post-condition checks, and
// finalizes both digests. A failed call leaves no observable state change:
// finalization commits last and fund movements are journaled and reversed
// on any later failure.
type Engine struct {
	cfg    Config
	hasher *OrderHasher
	deps   Deps

	mu     sync.Mutex
	holder atomic.Uint64 // goroutine id of the in-flight call, 0 = idle
}

// enter serializes mutating calls and refuses nested re-entry from a
// collaborator callback: the delegate or a payment hook calling back in
// would observe a half-settled ledger. Independent concurrent calls queue
// on the mutex as usual.
func (e *Engine) enter() error {
	gid := goid()
	if gid != 0 && e.holder.Load() == gid {
		return ErrReentrant
	}
	e.mu.Lock()
	e.holder.Store(gid)
	return nil
}

func (e *Engine) exit() {
	e.holder.Store(0)
	e.mu.Unlock()
}

func NewEngine(cfg Config, deps Deps) *Engine {
	if deps.Clock == nil {
		deps.Clock = util.RealClock{}
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}
	return &Engine{
		cfg:    cfg,
		hasher: NewOrderHasher(cfg.ChainID),
		deps:   deps,
	}
}

// HashOrder returns the digest off-engine tooling must sign.
func (e *Engine) HashOrder(o *Order) (common.Hash, error) {
	return e.hasher.Hash(o)
}

// authorizeOrder checks that the order is scoped to this engine, that an
// auction has a well-defined window, and that the order was authorized by
// its maker: a caller transacting directly as maker authorizes implicitly,
// anyone else must present the maker's signature over the digest.
func (e *Engine) authorizeOrder(o *Order, sig []byte, caller common.Address) (common.Hash, error) {
	if o.Exchange != e.cfg.Self {
		return common.Hash{}, fmt.Errorf("%w: order for %s, engine is %s",
			ErrWrongExchange, o.Exchange.Hex(), e.cfg.Self.Hex())
	}
	if o.SaleKind == SaleKindAuction && o.ExpirationTime <= o.ListingTime {
		return common.Hash{}, fmt.Errorf("%w: listing %d, expiration %d",
			ErrInvalidWindow, o.ListingTime, o.ExpirationTime)
	}

	digest, err := e.hasher.Hash(o)
	if err != nil {
		return common.Hash{}, err
	}
	if caller == o.Maker {
		return digest, nil
	}

	signer, err := swapcrypto.RecoverAddress(digest.Bytes(), sig)
	if err != nil || signer != o.Maker {
		return common.Hash{}, fmt.Errorf("%w: digest %s", ErrUnauthorized, digest.Hex())
	}
	return digest, nil
}

// withinWindow reports whether the order is live at the given time.
// ExpirationTime zero means the order never expires.
func withinWindow(o *Order, now uint64) bool {
	return o.ListingTime <= now && (o.ExpirationTime == 0 || o.ExpirationTime >= now)
}

// ascendingAuction reports whether the sell order is a sell-to-highest-bidder
// auction. Only its maker may settle one, so a third party cannot close a bid
// below the current best price on the maker's behalf.
func ascendingAuction(sell *Order) bool {
	return sell.SaleKind == SaleKindAuction && sell.BasePrice.Cmp(sell.EndPrice) <= 0
}

// ordersCanMatch is the cross-order compatibility check.
func ordersCanMatch(buy, sell *Order, caller common.Address, now uint64) bool {
	if buy.Side != SideBuy || sell.Side != SideSell {
		return false
	}
	if buy.Taker != AnyTaker && buy.Taker != sell.Maker {
		return false
	}
	if sell.Taker != AnyTaker && sell.Taker != buy.Maker {
		return false
	}
	if buy.SaleKind != sell.SaleKind ||
		buy.Target != sell.Target ||
		buy.PaymentToken != sell.PaymentToken ||
		buy.BasePrice.Cmp(sell.BasePrice) != 0 {
		return false
	}
	// declining auctions must also agree on the end price
	if sell.SaleKind == SaleKindAuction && sell.BasePrice.Cmp(sell.EndPrice) > 0 &&
		buy.EndPrice.Cmp(sell.EndPrice) != 0 {
		return false
	}
	if ascendingAuction(sell) && caller != sell.Maker {
		return false
	}
	return withinWindow(buy, now) && withinWindow(sell, now)
}

// AtomicMatch settles a compatible buy/sell pair. Either every step succeeds
// and both digests are consumed, or the call fails with one of the sentinel
// errors in errors.go and no state changes.
func (e *Engine) AtomicMatch(req MatchRequest) (*MatchRecord, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.exit()

	buy, sell := req.Buy, req.Sell
	now := uint64(e.deps.Clock.Now().Unix())

	buyHash, err := e.authorizeOrder(buy, req.BuySig, req.Caller)
	if err != nil {
		return nil, err
	}
	sellHash, err := e.authorizeOrder(sell, req.SellSig, req.Caller)
	if err != nil {
		return nil, err
	}

	if !ordersCanMatch(buy, sell, req.Caller, now) {
		return nil, ErrNotMatched
	}

	for _, h := range []common.Hash{buyHash, sellHash} {
		done, err := e.deps.Ledger.IsFinalized(h)
		if err != nil {
			return nil, fmt.Errorf("ledger read: %w", err)
		}
		if done {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyFinalized, h.Hex())
		}
	}

	if !e.deps.Inspector.IsContract(sell.Target) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTarget, sell.Target.Hex())
	}

	if len(buy.ReplacementPattern) > 0 {
		if err := ReconcileCalldata(buy.Calldata, sell.Calldata, buy.ReplacementPattern); err != nil {
			return nil, err
		}
	}
	if len(sell.ReplacementPattern) > 0 {
		if err := ReconcileCalldata(sell.Calldata, buy.Calldata, sell.ReplacementPattern); err != nil {
			return nil, err
		}
	}
	if !bytes.Equal(buy.Calldata, sell.Calldata) {
		return nil, ErrCalldataMismatch
	}

	price, err := MatchPrice(buy, sell, now)
	if err != nil {
		return nil, err
	}

	journal, err := e.settleFunds(buy, sell, req.Caller, req.Value, price)
	if err != nil {
		return nil, err
	}

	delegate, err := e.deps.Registry.DelegateFor(sell.Maker)
	if err != nil {
		e.revert(journal)
		return nil, fmt.Errorf("%w: %v", ErrDelegateCallFailed, err)
	}
	if err := delegate.Invoke(sell.Target, sell.Calldata); err != nil {
		e.revert(journal)
		return nil, fmt.Errorf("%w: %v", ErrDelegateCallFailed, err)
	}

	for _, o := range []*Order{buy, sell} {
		if o.StaticTarget == (common.Address{}) {
			continue
		}
		if e.deps.Statics == nil {
			e.revert(journal)
			return nil, fmt.Errorf("%w: no static caller configured", ErrPostConditionFailed)
		}
		data := make([]byte, 0, len(o.StaticExtra)+len(o.Calldata))
		data = append(data, o.StaticExtra...)
		data = append(data, o.Calldata...)
		if err := e.deps.Statics.StaticCall(o.StaticTarget, data); err != nil {
			e.revert(journal)
			return nil, fmt.Errorf("%w: %v", ErrPostConditionFailed, err)
		}
	}

	// Point of no return: every external sub-call succeeded. Consuming
	// both digests commits the settlement.
	for _, h := range []common.Hash{buyHash, sellHash} {
		ok, err := e.deps.Ledger.Finalize(h)
		if err != nil {
			e.revert(journal)
			return nil, fmt.Errorf("ledger write: %w", err)
		}
		if !ok {
			e.revert(journal)
			return nil, fmt.Errorf("%w: %s", ErrAlreadyFinalized, h.Hex())
		}
	}

	maker, taker := buy.Maker, sell.Maker
	if req.Caller == buy.Maker {
		maker, taker = sell.Maker, buy.Maker
	}
	rec := &MatchRecord{
		BuyHash:   buyHash,
		SellHash:  sellHash,
		Maker:     maker,
		Taker:     taker,
		Price:     price,
		Timestamp: e.deps.Clock.Now().Unix(),
	}
	if e.deps.Store != nil {
		if err := e.deps.Store.SaveMatch(rec); err != nil {
			e.deps.Log.Errorw("match_record_save_failed", "err", err)
		}
	}
	e.deps.Log.Infow("orders_matched",
		"buy_hash", buyHash.Hex(),
		"sell_hash", sellHash.Hex(),
		"maker", maker.Hex(),
		"taker", taker.Hex(),
		"price", price.String(),
	)
	return rec, nil
}

// CancelOrder consumes an order's digest so it can never be filled. Only the
// maker may cancel.
func (e *Engine) CancelOrder(o *Order, sig []byte, caller common.Address) (common.Hash, error) {
	if err := e.enter(); err != nil {
		return common.Hash{}, err
	}
	defer e.exit()

	digest, err := e.authorizeOrder(o, sig, caller)
	if err != nil {
		return common.Hash{}, err
	}
	if caller != o.Maker {
		return common.Hash{}, fmt.Errorf("%w: only maker may cancel", ErrUnauthorized)
	}
	ok, err := e.deps.Ledger.Finalize(digest)
	if err != nil {
		return common.Hash{}, fmt.Errorf("ledger write: %w", err)
	}
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrAlreadyFinalized, digest.Hex())
	}
	e.deps.Log.Infow("order_cancelled", "hash", digest.Hex(), "maker", o.Maker.Hex())
	return digest, nil
}

// ValidateOrder is a read-only preview: it authorizes the order, checks its
// validity window and finalization status, and returns the digest.
func (e *Engine) ValidateOrder(o *Order, sig []byte, caller common.Address) (common.Hash, error) {
	if err := e.enter(); err != nil {
		return common.Hash{}, err
	}
	defer e.exit()

	digest, err := e.authorizeOrder(o, sig, caller)
	if err != nil {
		return common.Hash{}, err
	}
	if !withinWindow(o, uint64(e.deps.Clock.Now().Unix())) {
		return common.Hash{}, ErrNotMatched
	}
	done, err := e.deps.Ledger.IsFinalized(digest)
	if err != nil {
		return common.Hash{}, fmt.Errorf("ledger read: %w", err)
	}
	if done {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrAlreadyFinalized, digest.Hex())
	}
	return digest, nil
}

// fundsMove records one applied transfer so a failed settlement can reverse
// it. A zero token address marks a native transfer.
type fundsMove struct {
	token  common.Address
	from   common.Address
	to     common.Address
	amount *big.Int
}

// settleFunds moves the settlement price plus the protocol fee. A resolved
// price of zero (or below) moves nothing and the settlement proceeds free of
// charge.
func (e *Engine) settleFunds(buy, sell *Order, caller common.Address, value, price *big.Int) ([]fundsMove, error) {
	if price.Sign() <= 0 {
		return nil, nil
	}
	fee := new(big.Int).Div(price, big.NewInt(feeDenominator))

	var journal []fundsMove
	if buy.PaymentToken == NativeToken {
		// The buyer pays directly; a third party cannot attach someone
		// else's native funds.
		if caller != buy.Maker {
			return nil, fmt.Errorf("%w: native payment requires the buyer to call", ErrInvalidPayment)
		}
		total := new(big.Int).Add(price, fee)
		if value == nil || value.Cmp(total) < 0 {
			return nil, fmt.Errorf("%w: attached value below price plus fee", ErrTransferFailed)
		}
		// Only price+fee leaves the caller; any excess attached value
		// never moves, which is the refund.
		if err := e.deps.Funds.TransferNative(caller, sell.Maker, price); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		journal = append(journal, fundsMove{from: caller, to: sell.Maker, amount: price})
		if err := e.deps.Funds.TransferNative(caller, e.cfg.FeeRecipient, fee); err != nil {
			e.revert(journal)
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		journal = append(journal, fundsMove{from: caller, to: e.cfg.FeeRecipient, amount: fee})
		return journal, nil
	}

	if value != nil && value.Sign() != 0 {
		return nil, fmt.Errorf("%w: native value attached to a token settlement", ErrInvalidPayment)
	}
	token := buy.PaymentToken
	if err := e.deps.Funds.PullToken(token, buy.Maker, sell.Maker, price); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	journal = append(journal, fundsMove{token: token, from: buy.Maker, to: sell.Maker, amount: price})
	if err := e.deps.Funds.PullToken(token, buy.Maker, e.cfg.FeeRecipient, fee); err != nil {
		e.revert(journal)
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	journal = append(journal, fundsMove{token: token, from: buy.Maker, to: e.cfg.FeeRecipient, amount: fee})
	return journal, nil
}

// revert reverses applied fund movements, newest first.
func (e *Engine) revert(journal []fundsMove) {
	for i := len(journal) - 1; i >= 0; i-- {
		m := journal[i]
		var err error
		if m.token == NativeToken {
			err = e.deps.Funds.TransferNative(m.to, m.from, m.amount)
		} else {
			err = e.deps.Funds.RefundToken(m.token, m.to, m.from, m.amount)
		}
		if err != nil {
			e.deps.Log.Errorw("funds_revert_failed",
				"from", m.from.Hex(), "to", m.to.Hex(),
				"amount", m.amount.String(), "err", err)
		}
	}
}

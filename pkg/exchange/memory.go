package exchange

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryFunds is an in-process Funds implementation used by devnets and
// tests. Native balances live in one table; token balances and allowances
// per token address. Allowances are granted to the engine itself, so the
// from/to accounting mirrors pull-based transferFrom semantics.
type MemoryFunds struct {
	mu         sync.Mutex
	native     map[common.Address]*big.Int
	tokens     map[common.Address]map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int // token -> owner -> remaining
}

func NewMemoryFunds() *MemoryFunds {
	return &MemoryFunds{
		native:     make(map[common.Address]*big.Int),
		tokens:     make(map[common.Address]map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Mint credits native currency to an account.
func (f *MemoryFunds) Mint(addr common.Address, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credit(f.native, addr, amount)
}

// MintToken credits token balance to an account.
func (f *MemoryFunds) MintToken(token, addr common.Address, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens[token] == nil {
		f.tokens[token] = make(map[common.Address]*big.Int)
	}
	f.credit(f.tokens[token], addr, amount)
}

// Approve grants the engine allowance to pull tokens from owner.
func (f *MemoryFunds) Approve(token, owner common.Address, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.allowances[token] == nil {
		f.allowances[token] = make(map[common.Address]*big.Int)
	}
	f.allowances[token][owner] = new(big.Int).Set(amount)
}

// NativeBalance returns the native balance of an account.
func (f *MemoryFunds) NativeBalance(addr common.Address) *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance(f.native, addr)
}

// TokenBalance returns the token balance of an account.
func (f *MemoryFunds) TokenBalance(token, addr common.Address) *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance(f.tokens[token], addr)
}

func (f *MemoryFunds) TransferNative(from, to common.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.move(f.native, from, to, amount)
}

func (f *MemoryFunds) PullToken(token, from, to common.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	allowed := f.allowances[token][from]
	if allowed == nil || allowed.Cmp(amount) < 0 {
		return fmt.Errorf("allowance exceeded for %s on token %s", from.Hex(), token.Hex())
	}
	if err := f.move(f.tokens[token], from, to, amount); err != nil {
		return err
	}
	allowed.Sub(allowed, amount)
	return nil
}

func (f *MemoryFunds) RefundToken(token, from, to common.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.move(f.tokens[token], from, to, amount)
}

func (f *MemoryFunds) move(table map[common.Address]*big.Int, from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("negative transfer amount %s", amount)
	}
	bal := f.balance(table, from)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient balance for %s: have %s, need %s", from.Hex(), bal, amount)
	}
	table[from] = bal.Sub(bal, amount)
	f.credit(table, to, amount)
	return nil
}

func (f *MemoryFunds) balance(table map[common.Address]*big.Int, addr common.Address) *big.Int {
	if table == nil || table[addr] == nil {
		return new(big.Int)
	}
	return table[addr]
}

func (f *MemoryFunds) credit(table map[common.Address]*big.Int, addr common.Address, amount *big.Int) {
	if table[addr] == nil {
		table[addr] = new(big.Int)
	}
	table[addr].Add(table[addr], amount)
}

// MemoryRegistry is an in-process Registry keyed by owner address.
type MemoryRegistry struct {
	mu        sync.Mutex
	delegates map[common.Address]Delegate
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{delegates: make(map[common.Address]Delegate)}
}

// Register installs a delegate for the given owner.
func (r *MemoryRegistry) Register(owner common.Address, d Delegate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delegates[owner] = d
}

func (r *MemoryRegistry) DelegateFor(owner common.Address) (Delegate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.delegates[owner]
	if !ok {
		return nil, fmt.Errorf("no delegate registered for %s", owner.Hex())
	}
	return d, nil
}

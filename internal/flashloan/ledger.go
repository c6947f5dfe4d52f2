package flashloan

import (
	"sync"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
)

type balanceKey struct {
	account string
	mint    string
}

// Balances is a mutable view over token balances keyed by (account, mint).
// The engine hands a scratch copy to execution steps; mutations become
// visible only when the enclosing execution unit commits.
type Balances struct {
	m map[balanceKey]uint64
}

func newBalances() *Balances {
	return &Balances{m: make(map[balanceKey]uint64)}
}

// Balance returns the current balance of mint held by account.
func (b *Balances) Balance(account, mint string) uint64 {
	return b.m[balanceKey{account: account, mint: mint}]
}

// Credit adds amount to account's balance of mint.
func (b *Balances) Credit(account, mint string, amount uint64) error {
	key := balanceKey{account: account, mint: mint}
	sum, err := checkedAdd(b.m[key], amount)
	if err != nil {
		return err
	}
	b.m[key] = sum
	return nil
}

// Debit removes amount from account's balance of mint.
// Returns ErrInsufficientBalance if the account holds less than amount.
func (b *Balances) Debit(account, mint string, amount uint64) error {
	key := balanceKey{account: account, mint: mint}
	cur := b.m[key]
	if cur < amount {
		return ErrInsufficientBalance
	}
	b.m[key] = cur - amount
	return nil
}

// Transfer moves amount of mint from one account to another.
func (b *Balances) Transfer(from, to, mint string, amount uint64) error {
	if err := b.Debit(from, mint, amount); err != nil {
		return err
	}
	return b.Credit(to, mint, amount)
}

func (b *Balances) clone() *Balances {
	c := &Balances{m: make(map[balanceKey]uint64, len(b.m))}
	for k, v := range b.m {
		c.m[k] = v
	}
	return c
}

// Ledger holds committed pool records and token balances. All mutation goes
// through Engine operations, which apply an entire execution unit or nothing.
type Ledger struct {
	mu       sync.RWMutex
	balances *Balances
	pools    map[string]*domain.Pool // keyed by asset mint
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances: newBalances(),
		pools:    make(map[string]*domain.Pool),
	}
}

// Balance returns the committed balance of mint held by account.
func (l *Ledger) Balance(account, mint string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances.Balance(account, mint)
}

// Fund credits account with amount of mint outside any execution unit.
// Used to seed reserves and working balances.
func (l *Ledger) Fund(account, mint string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances.Credit(account, mint, amount)
}

// Pool returns a copy of the pool for asset, or ErrPoolNotFound.
func (l *Ledger) Pool(asset string) (*domain.Pool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.pools[asset]
	if !ok {
		return nil, ErrPoolNotFound
	}
	poolCopy := *p
	return &poolCopy, nil
}

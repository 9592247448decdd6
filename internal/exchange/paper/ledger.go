package paper

import (
	"sync"

	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

type account struct {
	mu     sync.Mutex
	free   decimal.Decimal
	locked decimal.Decimal
}

// Ledger holds simulated balances. Each asset has its own lock so that
// unrelated assets never contend; no operation spans two assets.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*account
}

// NewLedger creates a ledger with free balances.
func NewLedger(initial map[string]decimal.Decimal) *Ledger {
	l := &Ledger{accounts: make(map[string]*account, len(initial))}
	for asset, amount := range initial {
		l.accounts[asset] = &account{free: amount, locked: decimal.Zero}
	}

	return l
}

func (l *Ledger) account(asset string) *account {
	l.mu.RLock()
	a, ok := l.accounts[asset]
	l.mu.RUnlock()

	if ok {
		return a
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if a, ok = l.accounts[asset]; !ok {
		a = &account{free: decimal.Zero, locked: decimal.Zero}
		l.accounts[asset] = a
	}

	return a
}

// Lock moves amount from free to locked.
func (l *Ledger) Lock(asset string, amount decimal.Decimal) error {
	a := l.account(asset)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.free.LessThan(amount) {
		return errors.Newf(errors.ErrCodeInsufficientBalance,
			"insufficient %s balance: need %s, free %s", asset, amount, a.free)
	}

	a.free = a.free.Sub(amount)
	a.locked = a.locked.Add(amount)

	return nil
}

// Release moves amount from locked back to free.
func (l *Ledger) Release(asset string, amount decimal.Decimal) error {
	return l.takeLocked(asset, amount, true)
}

// Consume removes amount from locked; it left the account through a fill.
func (l *Ledger) Consume(asset string, amount decimal.Decimal) error {
	return l.takeLocked(asset, amount, false)
}

func (l *Ledger) takeLocked(asset string, amount decimal.Decimal, toFree bool) error {
	a := l.account(asset)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.locked.LessThan(amount) {
		return errors.Newf(errors.ErrCodeInsufficientBalance,
			"locked %s balance %s is below %s", asset, a.locked, amount)
	}

	a.locked = a.locked.Sub(amount)
	if toFree {
		a.free = a.free.Add(amount)
	}

	return nil
}

// Credit adds amount to free.
func (l *Ledger) Credit(asset string, amount decimal.Decimal) {
	a := l.account(asset)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.free = a.free.Add(amount)
}

// Balance returns the balance of one asset.
func (l *Ledger) Balance(asset string) types.Balance {
	a := l.account(asset)

	a.mu.Lock()
	defer a.mu.Unlock()

	return types.Balance{Asset: asset, Free: a.free, Locked: a.locked}
}

// Snapshot returns every asset's balance.
func (l *Ledger) Snapshot() map[string]types.Balance {
	l.mu.RLock()
	assets := make([]string, 0, len(l.accounts))

	for asset := range l.accounts {
		assets = append(assets, asset)
	}
	l.mu.RUnlock()

	out := make(map[string]types.Balance, len(assets))
	for _, asset := range assets {
		out[asset] = l.Balance(asset)
	}

	return out
}

// Reconcile overwrites balances with snapshot. Assets missing from the
// snapshot are left untouched.
func (l *Ledger) Reconcile(snapshot map[string]types.Balance) {
	for asset, b := range snapshot {
		a := l.account(asset)

		a.mu.Lock()
		a.free = b.Free
		a.locked = b.Locked
		a.mu.Unlock()
	}
}

// Package bank provides the move-value primitive used by the staking
// orchestrators: named ledgers holding balances, and an auditable journal of
// every movement between them.
package bank

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"stakepool/core/fixedpoint"
)

// Well-known ledgers.
const (
	// Vault holds staked principal and the reward reserve backing pending
	// rewards.
	Vault        = "vault"
	BonusPool    = "pool:bonus"
	ReferralPool = "pool:referral"
	// External is the source of credits entering the book from outside.
	External = "external"

	walletPrefix = "wallet:"
)

var (
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
	ErrInvalidLedger     = errors.New("bank: invalid ledger")
)

// Wallet names the ledger of an external identity.
func Wallet(addr common.Address) string {
	return walletPrefix + strings.ToLower(addr.Hex())
}

// Mover transfers value between named ledgers.
type Mover interface {
	Move(from, to string, amount uint64, memo string) (Movement, error)
}

// Balances persists ledger balances. A missing ledger reads as zero.
type Balances interface {
	LedgerBalance(name string) (uint64, error)
	PutLedgerBalance(name string, amount uint64) error
}

// Movement records one transfer.
type Movement struct {
	ID     uuid.UUID
	From   string
	To     string
	Amount uint64
	Memo   string
}

// Book is a Mover over a Balances store that journals every movement.
type Book struct {
	balances Balances
	journal  []Movement
	newID    func() uuid.UUID
}

// NewBook wraps balances. A nil store gets an in-memory one.
func NewBook(balances Balances) *Book {
	if balances == nil {
		balances = NewMemoryBalances()
	}
	return &Book{balances: balances, newID: uuid.New}
}

// Balance returns the balance held by name.
func (b *Book) Balance(name string) (uint64, error) {
	return b.balances.LedgerBalance(name)
}

// Credit brings amount into the book from outside.
func (b *Book) Credit(to string, amount uint64, memo string) (Movement, error) {
	if err := validLedger(to); err != nil {
		return Movement{}, err
	}
	if amount == 0 {
		return Movement{}, nil
	}
	current, err := b.balances.LedgerBalance(to)
	if err != nil {
		return Movement{}, err
	}
	next, err := fixedpoint.Add(current, amount)
	if err != nil {
		return Movement{}, err
	}
	if err := b.balances.PutLedgerBalance(to, next); err != nil {
		return Movement{}, err
	}
	return b.record(External, to, amount, memo), nil
}

// Move implements Mover. Zero amounts are accepted and not journaled.
func (b *Book) Move(from, to string, amount uint64, memo string) (Movement, error) {
	if err := validLedger(from); err != nil {
		return Movement{}, err
	}
	if err := validLedger(to); err != nil {
		return Movement{}, err
	}
	if from == to {
		return Movement{}, fmt.Errorf("%w: cannot move %s to itself", ErrInvalidLedger, from)
	}
	if amount == 0 {
		return Movement{}, nil
	}
	source, err := b.balances.LedgerBalance(from)
	if err != nil {
		return Movement{}, err
	}
	if source < amount {
		return Movement{}, fmt.Errorf("%w: %s holds %d, need %d", ErrInsufficientFunds, from, source, amount)
	}
	dest, err := b.balances.LedgerBalance(to)
	if err != nil {
		return Movement{}, err
	}
	credited, err := fixedpoint.Add(dest, amount)
	if err != nil {
		return Movement{}, err
	}
	if err := b.balances.PutLedgerBalance(from, source-amount); err != nil {
		return Movement{}, err
	}
	if err := b.balances.PutLedgerBalance(to, credited); err != nil {
		return Movement{}, err
	}
	return b.record(from, to, amount, memo), nil
}

// Journal returns the movements recorded by this book, oldest first.
func (b *Book) Journal() []Movement {
	out := make([]Movement, len(b.journal))
	copy(out, b.journal)
	return out
}

func (b *Book) record(from, to string, amount uint64, memo string) Movement {
	mv := Movement{ID: b.newID(), From: from, To: to, Amount: amount, Memo: memo}
	b.journal = append(b.journal, mv)
	return mv
}

func validLedger(name string) error {
	if strings.TrimSpace(name) == "" || name == External {
		return fmt.Errorf("%w: %q", ErrInvalidLedger, name)
	}
	return nil
}

// MemoryBalances is an in-memory Balances store.
type MemoryBalances struct {
	mu       sync.RWMutex
	balances map[string]uint64
}

func NewMemoryBalances() *MemoryBalances {
	return &MemoryBalances{balances: make(map[string]uint64)}
}

func (m *MemoryBalances) LedgerBalance(name string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[name], nil
}

func (m *MemoryBalances) PutLedgerBalance(name string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if amount == 0 {
		delete(m.balances, name)
		return nil
	}
	m.balances[name] = amount
	return nil
}

// Total sums every balance. Tests use it to check conservation.
func (m *MemoryBalances) Total() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total uint64
	for _, amount := range m.balances {
		next, err := fixedpoint.Add(total, amount)
		if err != nil {
			return 0, err
		}
		total = next
	}
	return total, nil
}

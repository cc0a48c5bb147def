package state

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	stakeerr "stakepool/core/errors"
	"stakepool/native/bank"
	"stakepool/native/stakepool"
	"stakepool/storage"
)

var (
	testAuthority = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	testPlatform  = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	testTeam      = common.HexToAddress("0x00000000000000000000000000000000000000f2")
	testAlice     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

// unit runs fn as one unit of work, committing on success and discarding on
// failure.
func unit(store *Store, now int64, fn func(*stakepool.Engine, *bank.Book) error) error {
	session := store.Begin()
	book := bank.NewBook(session)
	engine := stakepool.NewEngine()
	engine.SetState(session)
	engine.SetMover(book)
	engine.SetNowFunc(func() int64 { return now })
	if err := fn(engine, book); err != nil {
		session.Discard()
		return err
	}
	return session.Commit()
}

func TestEngineOverLevelDB(t *testing.T) {
	db, err := storage.NewLevelDB(filepath.Join(t.TempDir(), "ledger"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	store := NewStore(db)
	const t0 int64 = 1_700_000_000

	err = unit(store, t0, func(e *stakepool.Engine, book *bank.Book) error {
		if _, err := e.Initialize(stakepool.Globals{Authority: testAuthority, Platform: testPlatform, Team: testTeam}); err != nil {
			return err
		}
		_, err := book.Credit(bank.Wallet(testAlice), 20_000_000_000, "fund")
		return err
	})
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	err = unit(store, t0+10, func(e *stakepool.Engine, _ *bank.Book) error {
		_, err := e.Contribute(testAlice, 10_000_000_000, nil)
		return err
	})
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}

	// A failing unit leaves no trace.
	err = unit(store, t0+20, func(e *stakepool.Engine, _ *bank.Book) error {
		if _, err := e.Withdraw(testAlice, 1_000_000_000); err != nil {
			return err
		}
		return errors.New("host abort")
	})
	if err == nil || err.Error() != "host abort" {
		t.Fatalf("expected host abort, got %v", err)
	}

	reader := store.Begin()
	pool, ok, err := reader.StakepoolPool()
	if err != nil || !ok {
		t.Fatalf("pool: %v %v", ok, err)
	}
	if pool.TotalStaked != 9_000_000_000 || pool.LastUpdateTime != t0+10 {
		t.Fatalf("aborted unit leaked into state: %+v", pool)
	}
	vault, err := reader.LedgerBalance(bank.Vault)
	if err != nil || vault != 9_000_000_000 {
		t.Fatalf("unexpected vault %d %v", vault, err)
	}
	names, balances, err := reader.LedgerBalances()
	if err != nil {
		t.Fatalf("ledger balances: %v", err)
	}
	var total uint64
	for _, name := range names {
		total += balances[name]
	}
	if total != 20_000_000_000 {
		t.Fatalf("value not conserved: %d", total)
	}
	bonusPool, _, err := reader.StakepoolBonus()
	if err != nil || bonusPool.Balance != balances[bank.BonusPool] {
		t.Fatalf("bonus pool out of sync with its ledger: %+v %v", bonusPool, err)
	}

	err = unit(store, t0+30, func(e *stakepool.Engine, _ *bank.Book) error {
		_, err := e.Initialize(stakepool.Globals{Authority: testAuthority, Platform: testPlatform, Team: testTeam})
		return err
	})
	if !errors.Is(err, stakeerr.ErrAlreadyInitialized) {
		t.Fatalf("expected already initialised, got %v", err)
	}
}

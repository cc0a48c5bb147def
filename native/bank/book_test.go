package bank

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

func TestMoveUpdatesBalancesAndJournal(t *testing.T) {
	balances := NewMemoryBalances()
	book := NewBook(balances)
	alice := Wallet(common.HexToAddress("0x00000000000000000000000000000000000000a1"))

	if _, err := book.Credit(alice, 1_000, "fund"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	mv, err := book.Move(alice, Vault, 400, "stake")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if mv.ID == uuid.Nil || mv.Amount != 400 || mv.From != alice || mv.To != Vault {
		t.Fatalf("unexpected movement %+v", mv)
	}
	if got, _ := book.Balance(alice); got != 600 {
		t.Fatalf("unexpected wallet balance %d", got)
	}
	if got, _ := book.Balance(Vault); got != 400 {
		t.Fatalf("unexpected vault balance %d", got)
	}
	journal := book.Journal()
	if len(journal) != 2 || journal[0].From != External {
		t.Fatalf("unexpected journal %+v", journal)
	}
	if journal[0].ID == journal[1].ID {
		t.Fatalf("movement ids must be unique")
	}
	total, err := balances.Total()
	if err != nil || total != 1_000 {
		t.Fatalf("value not conserved: %d %v", total, err)
	}
}

func TestMoveRejections(t *testing.T) {
	book := NewBook(nil)
	if _, err := book.Move(Vault, platformWallet(), 1, ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if _, err := book.Move(Vault, Vault, 1, ""); !errors.Is(err, ErrInvalidLedger) {
		t.Fatalf("expected invalid ledger, got %v", err)
	}
	if _, err := book.Move(External, Vault, 1, ""); !errors.Is(err, ErrInvalidLedger) {
		t.Fatalf("external must not be debited, got %v", err)
	}
	mv, err := book.Move(Vault, BonusPool, 0, "")
	if err != nil || mv.Amount != 0 || len(book.Journal()) != 0 {
		t.Fatalf("zero move should be a silent no-op: %+v %v", mv, err)
	}
}

func platformWallet() string {
	return Wallet(common.HexToAddress("0x00000000000000000000000000000000000000f1"))
}

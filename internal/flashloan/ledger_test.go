package flashloan

import (
	"errors"
	"testing"
)

func TestLedger_FundAndBalance(t *testing.T) {
	ledger := NewLedger()

	if err := ledger.Fund("acct", "mint", 1000); err != nil {
		t.Fatalf("Fund failed: %v", err)
	}
	if got := ledger.Balance("acct", "mint"); got != 1000 {
		t.Errorf("Balance mismatch: got %d, want 1000", got)
	}
	if got := ledger.Balance("acct", "other"); got != 0 {
		t.Errorf("Expected zero balance for other mint, got %d", got)
	}
}

func TestBalances_DebitInsufficient(t *testing.T) {
	b := newBalances()
	if err := b.Credit("acct", "mint", 100); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	if err := b.Debit("acct", "mint", 101); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("Expected ErrInsufficientBalance, got %v", err)
	}
	if got := b.Balance("acct", "mint"); got != 100 {
		t.Errorf("Failed debit mutated balance: got %d, want 100", got)
	}
}

func TestBalances_Transfer(t *testing.T) {
	b := newBalances()
	if err := b.Credit("from", "mint", 100); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if err := b.Transfer("from", "to", "mint", 40); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	if got := b.Balance("from", "mint"); got != 60 {
		t.Errorf("Sender balance: got %d, want 60", got)
	}
	if got := b.Balance("to", "mint"); got != 40 {
		t.Errorf("Receiver balance: got %d, want 40", got)
	}
}

func TestBalances_CloneIsolation(t *testing.T) {
	b := newBalances()
	if err := b.Credit("acct", "mint", 100); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	c := b.clone()
	if err := c.Credit("acct", "mint", 50); err != nil {
		t.Fatalf("Credit on clone failed: %v", err)
	}

	if got := b.Balance("acct", "mint"); got != 100 {
		t.Errorf("Clone mutation leaked into original: got %d, want 100", got)
	}
	if got := c.Balance("acct", "mint"); got != 150 {
		t.Errorf("Clone balance: got %d, want 150", got)
	}
}

func TestLedger_PoolNotFound(t *testing.T) {
	ledger := NewLedger()
	if _, err := ledger.Pool("missing"); !errors.Is(err, ErrPoolNotFound) {
		t.Errorf("Expected ErrPoolNotFound, got %v", err)
	}
}

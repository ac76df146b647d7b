package wallet

import (
	"errors"
	"testing"
	"time"

	"gearshare/internal/domain/shared/money"
)

var now = time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)

func testWallet(t *testing.T) *Wallet {
	t.Helper()
	w, err := NewWallet("w-1", "owner-1", "USD", now)
	if err != nil {
		t.Fatalf("NewWallet() error = %v", err)
	}
	return w
}

func TestNewWalletStartsEmpty(t *testing.T) {
	w := testWallet(t)
	if !w.Balance.IsZero() || !w.PendingBalance.IsZero() {
		t.Fatalf("fresh wallet balances: %v / %v", w.Balance, w.PendingBalance)
	}
	if _, err := NewWallet("w-2", "", "USD", now); err == nil {
		t.Fatal("wallet without owner must fail")
	}
}

func TestDepositToPending(t *testing.T) {
	w := testWallet(t)
	tx, err := w.DepositToPending("tx-1", "bk-1", money.Must(9000, "USD"), now)
	if err != nil {
		t.Fatalf("DepositToPending() error = %v", err)
	}
	if w.PendingBalance.Amount != 9000 || w.Balance.Amount != 0 {
		t.Fatalf("balances after deposit: %v / %v", w.Balance, w.PendingBalance)
	}
	if tx.Status != TxPending || tx.BookingID != "bk-1" || tx.Amount.Amount != 9000 {
		t.Fatalf("transaction = %+v", tx)
	}

	if _, err := w.DepositToPending("tx-2", "bk-2", money.Must(0, "USD"), now); !errors.Is(err, ErrAmountInvalid) {
		t.Fatalf("zero deposit must fail, got %v", err)
	}
}

func TestRelease(t *testing.T) {
	w := testWallet(t)
	tx, _ := w.DepositToPending("tx-1", "bk-1", money.Must(9000, "USD"), now)

	if err := w.Release(tx, now); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if w.Balance.Amount != 9000 || w.PendingBalance.Amount != 0 {
		t.Fatalf("balances after release: %v / %v", w.Balance, w.PendingBalance)
	}
	if tx.Status != TxReleased || tx.ReleasedAt == nil {
		t.Fatalf("transaction after release = %+v", tx)
	}

	// A second release finds the transaction settled; balances stay put.
	if err := w.Release(tx, now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double release must fail, got %v", err)
	}
	if w.Balance.Amount != 9000 || w.PendingBalance.Amount != 0 {
		t.Fatalf("balances moved on failed release: %v / %v", w.Balance, w.PendingBalance)
	}
}

func TestRefund(t *testing.T) {
	w := testWallet(t)
	tx, _ := w.DepositToPending("tx-1", "bk-1", money.Must(9000, "USD"), now)

	if err := w.Refund(tx, now); err != nil {
		t.Fatalf("Refund() error = %v", err)
	}
	if w.Balance.Amount != 0 || w.PendingBalance.Amount != 0 {
		t.Fatalf("refund must not credit the wallet: %v / %v", w.Balance, w.PendingBalance)
	}
	if tx.Status != TxRefunded {
		t.Fatalf("transaction status = %s", tx.Status)
	}

	if err := w.Refund(tx, now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double refund must fail, got %v", err)
	}
	if err := w.Release(tx, now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("release after refund must fail, got %v", err)
	}
}

func TestWalletMismatch(t *testing.T) {
	w := testWallet(t)
	other, _ := NewWallet("w-2", "owner-2", "USD", now)
	tx, _ := other.DepositToPending("tx-1", "bk-1", money.Must(100, "USD"), now)
	if err := w.Release(tx, now); !errors.Is(err, ErrWalletMismatch) {
		t.Fatalf("expected ErrWalletMismatch, got %v", err)
	}
}

func TestDispute(t *testing.T) {
	w := testWallet(t)

	pending, _ := w.DepositToPending("tx-1", "bk-1", money.Must(100, "USD"), now)
	from, err := pending.Dispute(now)
	if err != nil || from != TxPending {
		t.Fatalf("Dispute() = %s, %v", from, err)
	}
	if pending.Status != TxDisputed {
		t.Fatalf("status = %s", pending.Status)
	}
	// Frozen escrow can no longer settle.
	if err := w.Release(pending, now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("release of disputed tx must fail, got %v", err)
	}
	if err := w.Refund(pending, now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("refund of disputed tx must fail, got %v", err)
	}

	released, _ := w.DepositToPending("tx-2", "bk-2", money.Must(100, "USD"), now)
	_ = w.Release(released, now)
	from, err = released.Dispute(now)
	if err != nil || from != TxReleased {
		t.Fatalf("Dispute() on released = %s, %v", from, err)
	}

	refunded, _ := w.DepositToPending("tx-3", "bk-3", money.Must(100, "USD"), now)
	_ = w.Refund(refunded, now)
	if _, err := refunded.Dispute(now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("dispute of refunded tx must fail, got %v", err)
	}

	if _, err := pending.Dispute(now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double dispute must fail, got %v", err)
	}
}

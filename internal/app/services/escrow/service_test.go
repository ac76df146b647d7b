package escrow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gearshare/internal/app/uow"
	"gearshare/internal/domain/shared/money"
	domainwallet "gearshare/internal/domain/wallet"
	"gearshare/internal/infra/storage/memory"
)

var now = time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) (*Service, uow.UnitOfWork) {
	t.Helper()
	factory := memory.NewFactory()
	unit, err := factory.Begin(context.Background(), uow.TxOptions{})
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	ids := 0
	svc := &Service{
		Outbox:  memory.NewOutbox(),
		Encoder: nil,
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
	}
	return svc, unit
}

func TestDepositCreatesWalletLazily(t *testing.T) {
	svc, unit := newFixture(t)
	ctx := context.Background()

	tx, err := svc.Deposit(ctx, unit, "owner-1", "bk-1", money.Must(9000, "USD"), now)
	if err != nil {
		t.Fatalf("Deposit() error = %v", err)
	}
	if tx.Status != domainwallet.TxPending {
		t.Fatalf("transaction status = %s", tx.Status)
	}

	w, err := unit.Wallets().ByOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ByOwner() error = %v", err)
	}
	if w.PendingBalance.Amount != 9000 || w.Balance.Amount != 0 {
		t.Fatalf("balances: %v / %v", w.Balance, w.PendingBalance)
	}
}

func TestDepositRejectsSecondEscrowForBooking(t *testing.T) {
	svc, unit := newFixture(t)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, unit, "owner-1", "bk-1", money.Must(9000, "USD"), now); err != nil {
		t.Fatalf("Deposit() error = %v", err)
	}
	if _, err := svc.Deposit(ctx, unit, "owner-1", "bk-1", money.Must(9000, "USD"), now); !errors.Is(err, domainwallet.ErrAlreadyEscrowed) {
		t.Fatalf("expected ErrAlreadyEscrowed, got %v", err)
	}

	w, _ := unit.Wallets().ByOwner(ctx, "owner-1")
	if w.PendingBalance.Amount != 9000 {
		t.Fatalf("pending balance changed on rejected deposit: %v", w.PendingBalance)
	}
}

func TestReleaseMovesEscrowToBalance(t *testing.T) {
	svc, unit := newFixture(t)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, unit, "owner-1", "bk-1", money.Must(9000, "USD"), now); err != nil {
		t.Fatalf("Deposit() error = %v", err)
	}
	tx, err := svc.Release(ctx, unit, "bk-1", now)
	if err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if tx.Status != domainwallet.TxReleased {
		t.Fatalf("transaction status = %s", tx.Status)
	}

	w, _ := unit.Wallets().ByOwner(ctx, "owner-1")
	if w.Balance.Amount != 9000 || w.PendingBalance.Amount != 0 {
		t.Fatalf("balances after release: %v / %v", w.Balance, w.PendingBalance)
	}

	// Second settle loses the conditional update and must not touch balances.
	if _, err := svc.Release(ctx, unit, "bk-1", now); !errors.Is(err, domainwallet.ErrInvalidState) {
		t.Fatalf("double release: got %v", err)
	}
	w, _ = unit.Wallets().ByOwner(ctx, "owner-1")
	if w.Balance.Amount != 9000 || w.PendingBalance.Amount != 0 {
		t.Fatalf("balances moved on failed release: %v / %v", w.Balance, w.PendingBalance)
	}
}

func TestRefundDropsEscrowOnly(t *testing.T) {
	svc, unit := newFixture(t)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, unit, "owner-1", "bk-1", money.Must(9000, "USD"), now); err != nil {
		t.Fatalf("Deposit() error = %v", err)
	}
	tx, err := svc.Refund(ctx, unit, "bk-1", now)
	if err != nil {
		t.Fatalf("Refund() error = %v", err)
	}
	if tx.Status != domainwallet.TxRefunded {
		t.Fatalf("transaction status = %s", tx.Status)
	}

	w, _ := unit.Wallets().ByOwner(ctx, "owner-1")
	if w.Balance.Amount != 0 || w.PendingBalance.Amount != 0 {
		t.Fatalf("refund must not credit the wallet: %v / %v", w.Balance, w.PendingBalance)
	}

	if _, err := svc.Release(ctx, unit, "bk-1", now); !errors.Is(err, domainwallet.ErrInvalidState) {
		t.Fatalf("release after refund: got %v", err)
	}
}

func TestDisputeFreezesTransaction(t *testing.T) {
	svc, unit := newFixture(t)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, unit, "owner-1", "bk-1", money.Must(9000, "USD"), now); err != nil {
		t.Fatalf("Deposit() error = %v", err)
	}
	tx, err := svc.Dispute(ctx, unit, "bk-1", now)
	if err != nil {
		t.Fatalf("Dispute() error = %v", err)
	}
	if tx.Status != domainwallet.TxDisputed {
		t.Fatalf("transaction status = %s", tx.Status)
	}

	// Escrow stays held and can no longer settle.
	w, _ := unit.Wallets().ByOwner(ctx, "owner-1")
	if w.PendingBalance.Amount != 9000 {
		t.Fatalf("pending balance after dispute: %v", w.PendingBalance)
	}
	if _, err := svc.Release(ctx, unit, "bk-1", now); !errors.Is(err, domainwallet.ErrInvalidState) {
		t.Fatalf("release of disputed escrow: got %v", err)
	}
	if _, err := svc.Refund(ctx, unit, "bk-1", now); !errors.Is(err, domainwallet.ErrInvalidState) {
		t.Fatalf("refund of disputed escrow: got %v", err)
	}
}

func TestDisputeAfterRelease(t *testing.T) {
	svc, unit := newFixture(t)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, unit, "owner-1", "bk-1", money.Must(9000, "USD"), now); err != nil {
		t.Fatalf("Deposit() error = %v", err)
	}
	if _, err := svc.Release(ctx, unit, "bk-1", now); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	tx, err := svc.Dispute(ctx, unit, "bk-1", now)
	if err != nil {
		t.Fatalf("Dispute() after release error = %v", err)
	}
	if tx.Status != domainwallet.TxDisputed {
		t.Fatalf("transaction status = %s", tx.Status)
	}
	// Funds already moved; the flag is an audit mark only.
	w, _ := unit.Wallets().ByOwner(ctx, "owner-1")
	if w.Balance.Amount != 9000 {
		t.Fatalf("balance after disputed release: %v", w.Balance)
	}
}

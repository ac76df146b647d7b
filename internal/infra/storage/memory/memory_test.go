package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	domainbooking "gearshare/internal/domain/booking"
	domainitem "gearshare/internal/domain/item"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
	domainwallet "gearshare/internal/domain/wallet"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func testItem(t *testing.T) *domainitem.Item {
	t.Helper()
	it, err := domainitem.NewItem(domainitem.CreateParams{
		ID:        "item-1",
		OwnerID:   "owner-1",
		Title:     "Camera",
		DailyRate: money.Must(3000, "USD"),
		Now:       now,
	})
	if err != nil {
		t.Fatalf("NewItem() error = %v", err)
	}
	return it
}

func newBooking(t *testing.T, id string) *domainbooking.Booking {
	t.Helper()
	dr := daterange.Must(
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC),
	)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		Item:      testItem(t),
		RenterID:  "renter-1",
		Range:     dr,
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("NewBooking() error = %v", err)
	}
	return b
}

func TestBookingSaveConcurrentOverlap(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		b := newBooking(t, fmt.Sprintf("bk-%d", i))
		wg.Add(1)
		go func(i int, b *domainbooking.Booking) {
			defer wg.Done()
			errs[i] = repo.Save(ctx, b)
		}(i, b)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domainbooking.ErrDatesUnavailable):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("%d concurrent saves won the slot, want 1", won)
	}
}

func TestBookingSaveUpdateSkipsOwnOverlap(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	b := newBooking(t, "bk-1")
	if err := repo.Save(ctx, b); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := b.Accept("cap", now); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if err := repo.Save(ctx, b); err != nil {
		t.Fatalf("update must not collide with itself: %v", err)
	}
	stored, err := repo.ByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("ByID() error = %v", err)
	}
	if stored.Status != domainbooking.StatusAccepted || stored.Version != 2 {
		t.Fatalf("stored = %s v%d", stored.Status, stored.Version)
	}
}

func TestBookingTerminalStateFreesRange(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	b := newBooking(t, "bk-1")
	if err := repo.Save(ctx, b); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := b.Reject(now); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if err := repo.Save(ctx, b); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Save(ctx, newBooking(t, "bk-2")); err != nil {
		t.Fatalf("rejected booking still blocks the range: %v", err)
	}
}

func TestTransactionSettleConcurrentCAS(t *testing.T) {
	repo := NewTransactionRepository()
	ctx := context.Background()

	w, err := domainwallet.NewWallet("w-1", "owner-1", "USD", now)
	if err != nil {
		t.Fatalf("NewWallet() error = %v", err)
	}
	tx, err := w.DepositToPending("tx-1", "bk-1", money.Must(9000, "USD"), now)
	if err != nil {
		t.Fatalf("DepositToPending() error = %v", err)
	}
	if err := repo.Save(ctx, tx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	release := *tx
	release.Status = domainwallet.TxReleased
	releasedAt := now
	release.ReleasedAt = &releasedAt
	refund := *tx
	refund.Status = domainwallet.TxRefunded

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, candidate := range []*domainwallet.WalletTransaction{&release, &refund} {
		wg.Add(1)
		go func(i int, candidate *domainwallet.WalletTransaction) {
			defer wg.Done()
			results[i] = repo.Settle(ctx, candidate, domainwallet.TxPending)
		}(i, candidate)
	}
	wg.Wait()

	if (results[0] == nil) == (results[1] == nil) {
		t.Fatalf("exactly one settler must win: %v / %v", results[0], results[1])
	}
	for _, err := range results {
		if err != nil && !errors.Is(err, domainwallet.ErrInvalidState) {
			t.Fatalf("loser error = %v", err)
		}
	}

	stored, err := repo.ByID(ctx, tx.ID)
	if err != nil {
		t.Fatalf("ByID() error = %v", err)
	}
	if stored.Status != domainwallet.TxReleased && stored.Status != domainwallet.TxRefunded {
		t.Fatalf("stored status = %s", stored.Status)
	}
}

func TestTransactionSaveRejectsDuplicateBooking(t *testing.T) {
	repo := NewTransactionRepository()
	ctx := context.Background()
	w, _ := domainwallet.NewWallet("w-1", "owner-1", "USD", now)
	first, _ := w.DepositToPending("tx-1", "bk-1", money.Must(100, "USD"), now)
	second, _ := w.DepositToPending("tx-2", "bk-1", money.Must(100, "USD"), now)
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Save(ctx, second); !errors.Is(err, domainwallet.ErrAlreadyEscrowed) {
		t.Fatalf("expected ErrAlreadyEscrowed, got %v", err)
	}
}

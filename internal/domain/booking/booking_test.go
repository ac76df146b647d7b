package booking

import (
	"errors"
	"testing"
	"time"

	"gearshare/internal/domain/item"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
	"gearshare/internal/domain/user"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func testItem(t *testing.T) *item.Item {
	t.Helper()
	it, err := item.NewItem(item.CreateParams{
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

func testBooking(t *testing.T) *Booking {
	t.Helper()
	dr := daterange.Must(
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC),
	)
	b, err := NewBooking(CreateParams{
		ID:        "bk-1",
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

func TestNewBooking(t *testing.T) {
	b := testBooking(t)
	if b.Status != StatusRequested || b.PaymentStatus != PaymentUnpaid {
		t.Fatalf("fresh booking in %s/%s", b.Status, b.PaymentStatus)
	}
	if b.TotalPrice.Amount != 9000 {
		t.Fatalf("TotalPrice = %d, want 9000 (3000 x 3 days)", b.TotalPrice.Amount)
	}
	if b.DailyRate.Amount != 3000 {
		t.Fatalf("DailyRate snapshot = %d", b.DailyRate.Amount)
	}
	if len(b.PendingEvents()) != 1 {
		t.Fatalf("expected one requested event, got %d", len(b.PendingEvents()))
	}
}

func TestNewBookingOwnItem(t *testing.T) {
	dr := daterange.Must(
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC),
	)
	_, err := NewBooking(CreateParams{
		ID:        "bk-x",
		Item:      testItem(t),
		RenterID:  "owner-1",
		Range:     dr,
		CreatedAt: now,
	})
	if !errors.Is(err, ErrOwnItem) {
		t.Fatalf("expected ErrOwnItem, got %v", err)
	}
}

func TestValidateDateRange(t *testing.T) {
	past := daterange.Must(
		time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 25, 0, 0, 0, 0, time.UTC),
	)
	if err := ValidateDateRange(past, now); !errors.Is(err, ErrStartInPast) {
		t.Fatalf("expected ErrStartInPast, got %v", err)
	}
	today := daterange.Must(
		time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC),
	)
	if err := ValidateDateRange(today, now); err != nil {
		t.Fatalf("same-day start must be allowed, got %v", err)
	}
}

func TestAccept(t *testing.T) {
	b := testBooking(t)
	if err := b.Accept("cap_123", now); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if b.Status != StatusAccepted || b.PaymentStatus != PaymentPaid {
		t.Fatalf("after accept: %s/%s", b.Status, b.PaymentStatus)
	}
	if b.PaymentReference != "cap_123" {
		t.Fatalf("PaymentReference = %q", b.PaymentReference)
	}
	if err := b.Accept("cap_456", now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second accept must fail, got %v", err)
	}
}

func TestRejectOnlyFromRequested(t *testing.T) {
	b := testBooking(t)
	if err := b.Reject(now); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if b.Status != StatusRejected {
		t.Fatalf("Status = %s", b.Status)
	}

	b2 := testBooking(t)
	_ = b2.Accept("cap", now)
	if err := b2.Reject(now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("reject after accept must fail, got %v", err)
	}
}

func TestCancelOnlyFromAccepted(t *testing.T) {
	b := testBooking(t)
	if err := b.Cancel(now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel before accept must fail, got %v", err)
	}
	_ = b.Accept("cap", now)
	if err := b.Cancel(now); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if b.Status != StatusCancelled || b.PaymentStatus != PaymentRefunded {
		t.Fatalf("after cancel: %s/%s", b.Status, b.PaymentStatus)
	}
}

func TestConfirmByRequiresBothParties(t *testing.T) {
	b := testBooking(t)
	_ = b.Accept("cap", now)

	completed, err := b.ConfirmBy("renter-1", now)
	if err != nil || completed {
		t.Fatalf("first confirmation: completed=%v err=%v", completed, err)
	}
	if b.Status != StatusAccepted {
		t.Fatalf("single confirmation must not complete, status=%s", b.Status)
	}

	// Repeat by the same party stays incomplete.
	completed, err = b.ConfirmBy("renter-1", now)
	if err != nil || completed {
		t.Fatalf("repeat confirmation: completed=%v err=%v", completed, err)
	}

	completed, err = b.ConfirmBy("owner-1", now)
	if err != nil || !completed {
		t.Fatalf("second party confirmation: completed=%v err=%v", completed, err)
	}
	if b.Status != StatusCompleted || b.ReturnedAt == nil {
		t.Fatalf("after both confirm: status=%s returnedAt=%v", b.Status, b.ReturnedAt)
	}
}

func TestConfirmByOutsider(t *testing.T) {
	b := testBooking(t)
	_ = b.Accept("cap", now)
	if _, err := b.ConfirmBy("someone-else", now); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestConfirmByBeforeAccept(t *testing.T) {
	b := testBooking(t)
	if _, err := b.ConfirmBy("renter-1", now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestMarkDisputed(t *testing.T) {
	b := testBooking(t)
	if err := b.MarkDisputed("renter-1", now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("dispute on REQUESTED must fail, got %v", err)
	}
	_ = b.Accept("cap", now)
	if err := b.MarkDisputed("stranger", now); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if err := b.MarkDisputed("owner-1", now); err != nil {
		t.Fatalf("MarkDisputed() error = %v", err)
	}
	if b.Status != StatusAccepted {
		t.Fatalf("dispute must not change booking status, got %s", b.Status)
	}
}

func TestIsActive(t *testing.T) {
	b := testBooking(t)
	if !b.IsActive() {
		t.Fatal("REQUESTED must be active")
	}
	_ = b.Accept("cap", now)
	if !b.IsActive() {
		t.Fatal("ACCEPTED must be active")
	}
	_, _ = b.ConfirmBy(user.ID("renter-1"), now)
	_, _ = b.ConfirmBy(user.ID("owner-1"), now)
	if b.IsActive() {
		t.Fatal("COMPLETED must not be active")
	}
}

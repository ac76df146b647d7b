package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gearshare/internal/app/policies"
	"gearshare/internal/app/services/escrow"
	"gearshare/internal/app/uow"
	domainbooking "gearshare/internal/domain/booking"
	domainitem "gearshare/internal/domain/item"
	"gearshare/internal/domain/shared/money"
	domainuser "gearshare/internal/domain/user"
	domainwallet "gearshare/internal/domain/wallet"
	"gearshare/internal/infra/payments"
	"gearshare/internal/infra/storage/memory"
)

// Date validation runs against the wall clock, so test ranges are anchored a
// month out.
var base = func() time.Time {
	t := time.Now().UTC().AddDate(0, 1, 0)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}()

func futureDay(offset int) time.Time { return base.AddDate(0, 0, offset) }

type fixture struct {
	factory memory.Factory
	gateway *payments.MemoryGateway
	request *RequestBookingHandler
	accept  *AcceptBookingHandler
	reject  *RejectBookingHandler
	confirm *ConfirmBookingHandler
	cancel  *CancelBookingHandler
	dispute *DisputeBookingHandler
	ids     int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		factory: memory.NewFactory(),
		gateway: payments.NewMemoryGateway(),
	}
	box := memory.NewOutbox()
	svc := &escrow.Service{Outbox: box}
	f.request = &RequestBookingHandler{UoWFactory: f.factory, Outbox: box}
	f.accept = &AcceptBookingHandler{UoWFactory: f.factory, Payments: f.gateway, Escrow: svc, Outbox: box}
	f.reject = &RejectBookingHandler{UoWFactory: f.factory, Outbox: box}
	f.confirm = &ConfirmBookingHandler{UoWFactory: f.factory, Escrow: svc, Outbox: box}
	f.cancel = &CancelBookingHandler{UoWFactory: f.factory, Payments: f.gateway, Escrow: svc, Outbox: box}
	f.dispute = &DisputeBookingHandler{UoWFactory: f.factory, Escrow: svc, Outbox: box}

	ctx := context.Background()
	now := time.Now().UTC()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	owner, _ := domainuser.NewUser("owner-1", "owner@example.com", "Owner", now)
	renter, _ := domainuser.NewUser("renter-1", "renter@example.com", "Renter", now)
	if err := unit.Users().Save(ctx, owner); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	if err := unit.Users().Save(ctx, renter); err != nil {
		t.Fatalf("seed renter: %v", err)
	}
	it, err := domainitem.NewItem(domainitem.CreateParams{
		ID:        "item-1",
		OwnerID:   "owner-1",
		Title:     "Cordless drill",
		DailyRate: money.Must(3000, "USD"),
		Now:       now,
	})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	if err := unit.Items().Save(ctx, it); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return f
}

func (f *fixture) requestBooking(t *testing.T, start, end time.Time) *RequestBookingResult {
	t.Helper()
	res, err := f.tryRequest(start, end)
	if err != nil {
		t.Fatalf("RequestBooking error = %v", err)
	}
	return res
}

func (f *fixture) tryRequest(start, end time.Time) (*RequestBookingResult, error) {
	f.ids++
	return f.request.Handle(context.Background(), RequestBookingCommand{
		CommandID: fmt.Sprintf("bk-%d", f.ids),
		ItemID:    "item-1",
		RenterID:  "renter-1",
		StartDate: start,
		EndDate:   end,
	})
}

func (f *fixture) acceptedBooking(t *testing.T) string {
	t.Helper()
	res := f.requestBooking(t, futureDay(0), futureDay(3))
	if _, err := f.accept.Handle(context.Background(), AcceptBookingCommand{BookingID: res.Booking.ID, CallerID: "owner-1"}); err != nil {
		t.Fatalf("AcceptBooking error = %v", err)
	}
	return res.Booking.ID
}

func (f *fixture) wallet(t *testing.T, ownerID string) *domainwallet.Wallet {
	t.Helper()
	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	w, err := unit.Wallets().ByOwner(ctx, domainuser.ID(ownerID))
	if err != nil {
		t.Fatalf("ByOwner() error = %v", err)
	}
	return w
}

func (f *fixture) transaction(t *testing.T, bookingID string) *domainwallet.WalletTransaction {
	t.Helper()
	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	tx, err := unit.WalletTransactions().ByBooking(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		t.Fatalf("ByBooking() error = %v", err)
	}
	return tx
}

func TestRequestBooking(t *testing.T) {
	f := newFixture(t)
	res := f.requestBooking(t, futureDay(0), futureDay(3))

	b := res.Booking
	if b.Status != string(domainbooking.StatusRequested) {
		t.Fatalf("Status = %s", b.Status)
	}
	if b.Days != 3 || b.TotalPrice != 9000 || b.DailyRate != 3000 {
		t.Fatalf("pricing: days=%d rate=%d total=%d", b.Days, b.DailyRate, b.TotalPrice)
	}
	if b.PaymentStatus != string(domainbooking.PaymentUnpaid) {
		t.Fatalf("PaymentStatus = %s", b.PaymentStatus)
	}
}

func TestRequestBookingConflicts(t *testing.T) {
	f := newFixture(t)
	f.requestBooking(t, futureDay(3), futureDay(7))

	if _, err := f.tryRequest(futureDay(0), futureDay(4)); !errors.Is(err, domainbooking.ErrDatesUnavailable) {
		t.Fatalf("overlapping request: got %v", err)
	}
	// Back-to-back is fine: the first range's end day is exclusive.
	if _, err := f.tryRequest(futureDay(0), futureDay(3)); err != nil {
		t.Fatalf("abutting request: got %v", err)
	}
}

func TestRequestBookingRejectedRangeFreesDates(t *testing.T) {
	f := newFixture(t)
	first := f.requestBooking(t, futureDay(0), futureDay(3))
	if _, err := f.reject.Handle(context.Background(), RejectBookingCommand{BookingID: first.Booking.ID, CallerID: "owner-1"}); err != nil {
		t.Fatalf("RejectBooking error = %v", err)
	}
	if _, err := f.tryRequest(futureDay(0), futureDay(3)); err != nil {
		t.Fatalf("rebooking rejected dates: got %v", err)
	}
}

func TestAcceptBooking(t *testing.T) {
	f := newFixture(t)
	res := f.requestBooking(t, futureDay(0), futureDay(3))

	accepted, err := f.accept.Handle(context.Background(), AcceptBookingCommand{BookingID: res.Booking.ID, CallerID: "owner-1"})
	if err != nil {
		t.Fatalf("AcceptBooking error = %v", err)
	}
	if accepted.Booking.Status != string(domainbooking.StatusAccepted) {
		t.Fatalf("Status = %s", accepted.Booking.Status)
	}
	if accepted.Booking.PaymentStatus != string(domainbooking.PaymentPaid) || accepted.Booking.PaymentReference == "" {
		t.Fatalf("payment: %s %q", accepted.Booking.PaymentStatus, accepted.Booking.PaymentReference)
	}
	if _, ok := f.gateway.Captures[accepted.Booking.PaymentReference]; !ok {
		t.Fatal("capture not recorded at the gateway")
	}

	w := f.wallet(t, "owner-1")
	if w.PendingBalance.Amount != 9000 || w.Balance.Amount != 0 {
		t.Fatalf("owner balances after accept: %v / %v", w.Balance, w.PendingBalance)
	}
	if tx := f.transaction(t, res.Booking.ID); tx.Status != domainwallet.TxPending {
		t.Fatalf("transaction status = %s", tx.Status)
	}
}

func TestAcceptBookingOnlyByOwner(t *testing.T) {
	f := newFixture(t)
	res := f.requestBooking(t, futureDay(0), futureDay(3))
	if _, err := f.accept.Handle(context.Background(), AcceptBookingCommand{BookingID: res.Booking.ID, CallerID: "renter-1"}); !errors.Is(err, domainbooking.ErrNotParticipant) {
		t.Fatalf("renter accepting own request: got %v", err)
	}
}

func TestAcceptBookingDeclinedCapture(t *testing.T) {
	f := newFixture(t)
	res := f.requestBooking(t, futureDay(0), futureDay(3))
	f.gateway.DeclineCaptures = true

	_, err := f.accept.Handle(context.Background(), AcceptBookingCommand{BookingID: res.Booking.ID, CallerID: "owner-1"})
	if !errors.Is(err, policies.ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}

	// The booking stays open for a retry and no escrow was written.
	ctx := context.Background()
	unit, _ := f.factory.Begin(ctx, uow.TxOptions{})
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(res.Booking.ID))
	if err != nil {
		t.Fatalf("ByID() error = %v", err)
	}
	if b.Status != domainbooking.StatusRequested || b.PaymentStatus != domainbooking.PaymentUnpaid {
		t.Fatalf("after declined capture: %s/%s", b.Status, b.PaymentStatus)
	}
	if _, err := unit.WalletTransactions().ByBooking(ctx, b.ID); !errors.Is(err, domainwallet.ErrTransactionNotFound) {
		t.Fatalf("expected no transaction, got %v", err)
	}
}

func TestConfirmBookingReleasesOnSecondParty(t *testing.T) {
	f := newFixture(t)
	id := f.acceptedBooking(t)
	ctx := context.Background()

	first, err := f.confirm.Handle(ctx, ConfirmBookingCommand{BookingID: id, CallerID: "renter-1"})
	if err != nil {
		t.Fatalf("first confirm error = %v", err)
	}
	if first.Completed || first.Booking.Status != string(domainbooking.StatusAccepted) {
		t.Fatalf("first confirm: completed=%v status=%s", first.Completed, first.Booking.Status)
	}
	if w := f.wallet(t, "owner-1"); w.Balance.Amount != 0 {
		t.Fatalf("funds moved on single confirmation: %v", w.Balance)
	}

	second, err := f.confirm.Handle(ctx, ConfirmBookingCommand{BookingID: id, CallerID: "owner-1"})
	if err != nil {
		t.Fatalf("second confirm error = %v", err)
	}
	if !second.Completed || second.Booking.Status != string(domainbooking.StatusCompleted) {
		t.Fatalf("second confirm: completed=%v status=%s", second.Completed, second.Booking.Status)
	}

	w := f.wallet(t, "owner-1")
	if w.Balance.Amount != 9000 || w.PendingBalance.Amount != 0 {
		t.Fatalf("owner balances after completion: %v / %v", w.Balance, w.PendingBalance)
	}
	if tx := f.transaction(t, id); tx.Status != domainwallet.TxReleased || tx.ReleasedAt == nil {
		t.Fatalf("transaction after completion = %+v", tx)
	}

	// Completed bookings free the calendar.
	if _, err := f.tryRequest(futureDay(0), futureDay(3)); err != nil {
		t.Fatalf("rebooking completed dates: got %v", err)
	}
}

func TestConfirmBookingOutsider(t *testing.T) {
	f := newFixture(t)
	id := f.acceptedBooking(t)
	if _, err := f.confirm.Handle(context.Background(), ConfirmBookingCommand{BookingID: id, CallerID: "stranger"}); !errors.Is(err, domainbooking.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	id := f.acceptedBooking(t)

	res, err := f.cancel.Handle(context.Background(), CancelBookingCommand{BookingID: id, CallerID: "renter-1"})
	if err != nil {
		t.Fatalf("CancelBooking error = %v", err)
	}
	if res.Booking.Status != string(domainbooking.StatusCancelled) || res.Booking.PaymentStatus != string(domainbooking.PaymentRefunded) {
		t.Fatalf("after cancel: %s/%s", res.Booking.Status, res.Booking.PaymentStatus)
	}

	w := f.wallet(t, "owner-1")
	if w.Balance.Amount != 0 || w.PendingBalance.Amount != 0 {
		t.Fatalf("owner balances after cancel: %v / %v", w.Balance, w.PendingBalance)
	}
	if tx := f.transaction(t, id); tx.Status != domainwallet.TxRefunded {
		t.Fatalf("transaction status = %s", tx.Status)
	}
	if _, ok := f.gateway.Refunds[res.Booking.PaymentReference]; !ok {
		t.Fatal("refund not recorded at the gateway")
	}
}

func TestCancelBookingBeforeAccept(t *testing.T) {
	f := newFixture(t)
	res := f.requestBooking(t, futureDay(0), futureDay(3))
	if _, err := f.cancel.Handle(context.Background(), CancelBookingCommand{BookingID: res.Booking.ID, CallerID: "renter-1"}); !errors.Is(err, domainbooking.ErrInvalidState) {
		t.Fatalf("cancel of REQUESTED booking: got %v", err)
	}
}

func TestDisputeBooking(t *testing.T) {
	f := newFixture(t)
	id := f.acceptedBooking(t)

	res, err := f.dispute.Handle(context.Background(), DisputeBookingCommand{BookingID: id, CallerID: "renter-1"})
	if err != nil {
		t.Fatalf("DisputeBooking error = %v", err)
	}
	if res.Booking.Status != string(domainbooking.StatusAccepted) {
		t.Fatalf("dispute must not change booking status, got %s", res.Booking.Status)
	}
	if res.Transaction.Status != string(domainwallet.TxDisputed) {
		t.Fatalf("transaction status = %s", res.Transaction.Status)
	}

	// The frozen escrow blocks completion and cancellation settlements.
	ctx := context.Background()
	if _, err := f.confirm.Handle(ctx, ConfirmBookingCommand{BookingID: id, CallerID: "renter-1"}); err != nil {
		t.Fatalf("confirm while disputed error = %v", err)
	}
	if _, err := f.confirm.Handle(ctx, ConfirmBookingCommand{BookingID: id, CallerID: "owner-1"}); !errors.Is(err, domainwallet.ErrInvalidState) {
		t.Fatalf("completing a disputed booking: got %v", err)
	}
	if w := f.wallet(t, "owner-1"); w.PendingBalance.Amount != 9000 || w.Balance.Amount != 0 {
		t.Fatalf("disputed escrow moved: %v / %v", w.Balance, w.PendingBalance)
	}
}

func TestGetBookingVisibility(t *testing.T) {
	f := newFixture(t)
	res := f.requestBooking(t, futureDay(0), futureDay(3))
	h := &GetBookingHandler{UoWFactory: f.factory}
	ctx := context.Background()

	if _, err := h.Handle(ctx, GetBookingQuery{BookingID: res.Booking.ID, CallerID: "owner-1"}); err != nil {
		t.Fatalf("owner read error = %v", err)
	}
	if _, err := h.Handle(ctx, GetBookingQuery{BookingID: res.Booking.ID, CallerID: "stranger"}); !errors.Is(err, domainbooking.ErrNotParticipant) {
		t.Fatalf("stranger read: got %v", err)
	}
	if _, err := h.Handle(ctx, GetBookingQuery{BookingID: "missing", CallerID: "owner-1"}); !errors.Is(err, domainbooking.ErrNotFound) {
		t.Fatalf("missing booking: got %v", err)
	}
}

func TestListBookingsByRole(t *testing.T) {
	f := newFixture(t)
	f.requestBooking(t, futureDay(0), futureDay(3))
	f.requestBooking(t, futureDay(5), futureDay(8))
	h := &ListBookingsHandler{UoWFactory: f.factory}
	ctx := context.Background()

	asOwner, err := h.Handle(ctx, ListBookingsQuery{UserID: "owner-1", Role: RoleOwner})
	if err != nil {
		t.Fatalf("owner list error = %v", err)
	}
	if len(asOwner.Bookings.Items) != 2 {
		t.Fatalf("owner sees %d bookings", len(asOwner.Bookings.Items))
	}

	asRenter, err := h.Handle(ctx, ListBookingsQuery{UserID: "renter-1"})
	if err != nil {
		t.Fatalf("renter list error = %v", err)
	}
	if len(asRenter.Bookings.Items) != 2 {
		t.Fatalf("renter sees %d bookings", len(asRenter.Bookings.Items))
	}

	empty, err := h.Handle(ctx, ListBookingsQuery{UserID: "owner-1"})
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if len(empty.Bookings.Items) != 0 {
		t.Fatalf("owner as renter sees %d bookings", len(empty.Bookings.Items))
	}
}

package booking

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/domain/item"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/events"
	"gearshare/internal/domain/shared/money"
	"gearshare/internal/domain/user"
)

var (
	ErrNotFound         = errors.New("booking: not found")
	ErrInvalidState     = errors.New("booking: invalid state transition")
	ErrStartInPast      = errors.New("booking: start date is in the past")
	ErrDatesUnavailable = errors.New("booking: item already booked for these dates")
	ErrNotParticipant   = errors.New("booking: caller is not a party to this booking")
	ErrOwnItem          = errors.New("booking: owners cannot book their own items")
	ErrRenterRequired   = errors.New("booking: renter id is required")
)

type BookingID string

type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// ActiveStatuses are the states that still reserve the item's dates against
// new overlapping bookings.
var ActiveStatuses = []Status{StatusRequested, StatusAccepted}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Booking is a reservation of one item for a half-open date range. DailyRate is
// a snapshot of the item's price at request time; later catalog price changes
// never touch existing bookings.
type Booking struct {
	ID               BookingID
	ItemID           item.ID
	RenterID         user.ID
	OwnerID          item.OwnerID
	Range            daterange.DateRange
	DailyRate        money.Money
	TotalPrice       money.Money
	Status           Status
	PaymentStatus    PaymentStatus
	PaymentReference string
	RenterConfirmed  bool
	OwnerConfirmed   bool
	ReturnedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByRenter(ctx context.Context, renterID user.ID) ([]*Booking, error)
	ListByOwner(ctx context.Context, ownerID item.OwnerID) ([]*Booking, error)
	// ActiveOverlapping reports whether any booking in an active status on the
	// item overlaps the candidate range. The atomic guard against concurrent
	// inserts lives in Save; this is the query-level check.
	ActiveOverlapping(ctx context.Context, itemID item.ID, dr daterange.DateRange) (bool, error)
}

// ValidateDateRange rejects ranges starting before today (UTC, day granularity).
func ValidateDateRange(dr daterange.DateRange, now time.Time) error {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if dr.Start.Before(today) {
		return ErrStartInPast
	}
	return nil
}

type CreateParams struct {
	ID        BookingID
	Item      *item.Item
	RenterID  user.ID
	Range     daterange.DateRange
	CreatedAt time.Time
}

// NewBooking snapshots the item's daily rate, computes the total for the range
// and starts the reservation in REQUESTED/UNPAID.
func NewBooking(params CreateParams) (*Booking, error) {
	if params.RenterID == "" {
		return nil, ErrRenterRequired
	}
	if string(params.Item.OwnerID) == string(params.RenterID) {
		return nil, ErrOwnItem
	}
	if !params.Item.DailyRate.IsPositive() {
		return nil, item.ErrDailyRate
	}
	now := params.CreatedAt.UTC()
	total := params.Item.DailyRate.Multiply(int64(params.Range.Days()))
	b := &Booking{
		ID:            params.ID,
		ItemID:        params.Item.ID,
		RenterID:      params.RenterID,
		OwnerID:       params.Item.OwnerID,
		Range:         params.Range,
		DailyRate:     params.Item.DailyRate,
		TotalPrice:    total,
		Status:        StatusRequested,
		PaymentStatus: PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	b.Record(BookingRequested{BookingID: b.ID, ItemID: b.ItemID, RenterID: b.RenterID, Range: b.Range, Total: b.TotalPrice, At: now})
	return b, nil
}

// Accept moves REQUESTED to ACCEPTED once the payment has been captured. The
// gateway reference becomes part of the booking's audit trail.
func (b *Booking) Accept(paymentReference string, now time.Time) error {
	if b.Status != StatusRequested {
		return ErrInvalidState
	}
	b.Status = StatusAccepted
	b.PaymentStatus = PaymentPaid
	b.PaymentReference = paymentReference
	b.UpdatedAt = now.UTC()
	b.Record(BookingAccepted{BookingID: b.ID, ItemID: b.ItemID, Total: b.TotalPrice, At: b.UpdatedAt})
	return nil
}

// Reject terminates a REQUESTED booking. No funds were captured yet, so this is
// a pure status transition.
func (b *Booking) Reject(now time.Time) error {
	if b.Status != StatusRequested {
		return ErrInvalidState
	}
	b.Status = StatusRejected
	b.UpdatedAt = now.UTC()
	b.Record(BookingRejected{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// Cancel terminates an ACCEPTED booking before completion; the escrowed funds
// are refunded by the caller.
func (b *Booking) Cancel(now time.Time) error {
	if b.Status != StatusAccepted {
		return ErrInvalidState
	}
	b.Status = StatusCancelled
	b.PaymentStatus = PaymentRefunded
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, Refund: b.TotalPrice, At: b.UpdatedAt})
	return nil
}

// ConfirmBy records the calling party's confirmation. The booking completes,
// and reports completed=true, only when both parties have confirmed; a single
// confirmation must not move any funds.
func (b *Booking) ConfirmBy(callerID user.ID, now time.Time) (completed bool, err error) {
	if b.Status != StatusAccepted {
		return false, ErrInvalidState
	}
	switch {
	case callerID == b.RenterID:
		b.RenterConfirmed = true
	case string(callerID) == string(b.OwnerID):
		b.OwnerConfirmed = true
	default:
		return false, ErrNotParticipant
	}
	ts := now.UTC()
	b.UpdatedAt = ts
	b.Record(PartyConfirmed{BookingID: b.ID, PartyID: callerID, At: ts})
	if b.RenterConfirmed && b.OwnerConfirmed {
		b.Status = StatusCompleted
		b.ReturnedAt = &ts
		b.Record(BookingCompleted{BookingID: b.ID, ItemID: b.ItemID, Total: b.TotalPrice, At: ts})
		return true, nil
	}
	return false, nil
}

// MarkDisputed validates that the caller may open a dispute. The booking status
// itself does not change; the associated wallet transaction carries the mark.
func (b *Booking) MarkDisputed(callerID user.ID, now time.Time) error {
	if b.Status != StatusAccepted && b.Status != StatusCompleted {
		return ErrInvalidState
	}
	if !b.IsParticipant(callerID) {
		return ErrNotParticipant
	}
	b.UpdatedAt = now.UTC()
	b.Record(BookingDisputed{BookingID: b.ID, RaisedBy: callerID, At: b.UpdatedAt})
	return nil
}

// IsParticipant reports whether the given user is the renter or the owner.
func (b *Booking) IsParticipant(callerID user.ID) bool {
	return callerID == b.RenterID || string(callerID) == string(b.OwnerID)
}

// IsActive reports whether the booking still reserves its dates.
func (b *Booking) IsActive() bool {
	for _, s := range ActiveStatuses {
		if b.Status == s {
			return true
		}
	}
	return false
}

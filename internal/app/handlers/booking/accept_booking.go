package booking

import (
	"context"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/dto"
	"gearshare/internal/app/middleware"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/services/escrow"
	"gearshare/internal/app/uow"
	domainbooking "gearshare/internal/domain/booking"
	domainuser "gearshare/internal/domain/user"
)

const acceptBookingKey = "booking.accept"

type AcceptBookingCommand struct {
	BookingID       string
	CallerID        string
	IdempotencyKeyV string
}

func (c AcceptBookingCommand) Key() string { return acceptBookingKey }

func (c AcceptBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c AcceptBookingCommand) ResultPrototype() any { return &AcceptBookingResult{} }

type AcceptBookingResult struct {
	Booking dto.Booking `json:"booking"`
}

// AcceptBookingHandler captures the renter's payment and moves the total into
// the owner's escrow. A declined capture leaves the booking REQUESTED and no
// wallet transaction exists.
type AcceptBookingHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentsPort
	Escrow     *escrow.Service
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *AcceptBookingHandler) Handle(ctx context.Context, cmd AcceptBookingCommand) (*AcceptBookingResult, error) {
	now := time.Now().UTC()
	var result *AcceptBookingResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if string(b.OwnerID) != cmd.CallerID {
			return domainbooking.ErrNotParticipant
		}
		if b.Status != domainbooking.StatusRequested {
			return domainbooking.ErrInvalidState
		}

		reference, err := h.Payments.AuthorizeAndCapture(ctx, string(b.RenterID), string(b.ID), b.TotalPrice)
		if err != nil {
			return err
		}
		if err := b.Accept(reference, now); err != nil {
			return err
		}
		if _, err := h.Escrow.Deposit(ctx, unit, domainuser.ID(b.OwnerID), b.ID, b.TotalPrice, now); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := drainEvents(ctx, h.Outbox, h.Encoder, b); err != nil {
			return err
		}
		result = &AcceptBookingResult{Booking: dto.MapBooking(b)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[AcceptBookingCommand, *AcceptBookingResult] = (*AcceptBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*AcceptBookingCommand)(nil)

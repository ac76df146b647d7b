package booking

import (
	"context"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/dto"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/services/escrow"
	"gearshare/internal/app/uow"
	domainbooking "gearshare/internal/domain/booking"
	domainuser "gearshare/internal/domain/user"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string
	CallerID  string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingResult struct {
	Booking dto.Booking `json:"booking"`
}

// CancelBookingHandler unwinds an accepted booking: the escrowed transaction is
// refunded, the gateway returns the capture to the renter, and the booking
// terminates in CANCELLED. A gateway failure rolls the whole unit back.
type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentsPort
	Escrow     *escrow.Service
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	now := time.Now().UTC()
	var result *CancelBookingResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if !b.IsParticipant(domainuser.ID(cmd.CallerID)) {
			return domainbooking.ErrNotParticipant
		}
		if err := b.Cancel(now); err != nil {
			return err
		}
		if _, err := h.Escrow.Refund(ctx, unit, b.ID, now); err != nil {
			return err
		}
		if err := h.Payments.Refund(ctx, b.PaymentReference, b.TotalPrice); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := drainEvents(ctx, h.Outbox, h.Encoder, b); err != nil {
			return err
		}
		result = &CancelBookingResult{Booking: dto.MapBooking(b)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)

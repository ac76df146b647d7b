package booking

import (
	"context"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/dto"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/uow"
	domainbooking "gearshare/internal/domain/booking"
)

const rejectBookingKey = "booking.reject"

type RejectBookingCommand struct {
	BookingID string
	CallerID  string
}

func (c RejectBookingCommand) Key() string { return rejectBookingKey }

type RejectBookingResult struct {
	Booking dto.Booking `json:"booking"`
}

// RejectBookingHandler declines a REQUESTED booking. Nothing was captured yet,
// so no money moves.
type RejectBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RejectBookingHandler) Handle(ctx context.Context, cmd RejectBookingCommand) (*RejectBookingResult, error) {
	now := time.Now().UTC()
	var result *RejectBookingResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if string(b.OwnerID) != cmd.CallerID {
			return domainbooking.ErrNotParticipant
		}
		if err := b.Reject(now); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := drainEvents(ctx, h.Outbox, h.Encoder, b); err != nil {
			return err
		}
		result = &RejectBookingResult{Booking: dto.MapBooking(b)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[RejectBookingCommand, *RejectBookingResult] = (*RejectBookingHandler)(nil)

package booking

import (
	"context"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/dto"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/services/escrow"
	"gearshare/internal/app/uow"
	domainbooking "gearshare/internal/domain/booking"
	domainuser "gearshare/internal/domain/user"
)

const confirmBookingKey = "booking.confirm"

type ConfirmBookingCommand struct {
	BookingID string
	CallerID  string
}

func (c ConfirmBookingCommand) Key() string { return confirmBookingKey }

type ConfirmBookingResult struct {
	Booking   dto.Booking `json:"booking"`
	Completed bool        `json:"completed"`
}

// ConfirmBookingHandler records one party's confirmation. Escrow is released
// only on the confirmation that makes both flags true; a single confirmation
// never moves funds.
type ConfirmBookingHandler struct {
	UoWFactory uow.UoWFactory
	Escrow     *escrow.Service
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *ConfirmBookingHandler) Handle(ctx context.Context, cmd ConfirmBookingCommand) (*ConfirmBookingResult, error) {
	now := time.Now().UTC()
	var result *ConfirmBookingResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		completed, err := b.ConfirmBy(domainuser.ID(cmd.CallerID), now)
		if err != nil {
			return err
		}
		if completed {
			if _, err := h.Escrow.Release(ctx, unit, b.ID, now); err != nil {
				return err
			}
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := drainEvents(ctx, h.Outbox, h.Encoder, b); err != nil {
			return err
		}
		result = &ConfirmBookingResult{Booking: dto.MapBooking(b), Completed: completed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[ConfirmBookingCommand, *ConfirmBookingResult] = (*ConfirmBookingHandler)(nil)

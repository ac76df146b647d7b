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

const disputeBookingKey = "booking.dispute"

type DisputeBookingCommand struct {
	BookingID string
	CallerID  string
}

func (c DisputeBookingCommand) Key() string { return disputeBookingKey }

type DisputeBookingResult struct {
	Booking     dto.Booking           `json:"booking"`
	Transaction dto.WalletTransaction `json:"transaction"`
}

// DisputeBookingHandler freezes the booking's escrow transaction. Resolution is
// an administrative process outside this service; no transition unfreezes it
// here.
type DisputeBookingHandler struct {
	UoWFactory uow.UoWFactory
	Escrow     *escrow.Service
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *DisputeBookingHandler) Handle(ctx context.Context, cmd DisputeBookingCommand) (*DisputeBookingResult, error) {
	now := time.Now().UTC()
	var result *DisputeBookingResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if err := b.MarkDisputed(domainuser.ID(cmd.CallerID), now); err != nil {
			return err
		}
		tx, err := h.Escrow.Dispute(ctx, unit, b.ID, now)
		if err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := drainEvents(ctx, h.Outbox, h.Encoder, b); err != nil {
			return err
		}
		result = &DisputeBookingResult{Booking: dto.MapBooking(b), Transaction: dto.MapWalletTransaction(tx)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[DisputeBookingCommand, *DisputeBookingResult] = (*DisputeBookingHandler)(nil)

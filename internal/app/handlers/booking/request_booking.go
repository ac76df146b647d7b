package booking

import (
	"context"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/dto"
	"gearshare/internal/app/middleware"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/uow"
	domainbooking "gearshare/internal/domain/booking"
	domainitem "gearshare/internal/domain/item"
	domainrange "gearshare/internal/domain/shared/daterange"
	domainuser "gearshare/internal/domain/user"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	CommandID       string
	ItemID          string
	RenterID        string
	StartDate       time.Time
	EndDate         time.Time
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	Booking dto.Booking `json:"booking"`
}

// RequestBookingHandler creates a REQUESTED booking if the item is free for
// the candidate range. The overlap query runs in the same unit of work as the
// insert; the storage layer's slot guard closes the remaining race window.
type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	dr, err := domainrange.New(cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := domainbooking.ValidateDateRange(dr, now); err != nil {
		return nil, err
	}

	var result *RequestBookingResult
	err = runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		it, err := unit.Items().ByID(ctx, domainitem.ID(cmd.ItemID))
		if err != nil {
			return err
		}
		if _, err := unit.Users().ByID(ctx, domainuser.ID(cmd.RenterID)); err != nil {
			return err
		}

		taken, err := unit.Bookings().ActiveOverlapping(ctx, it.ID, dr)
		if err != nil {
			return err
		}
		if taken {
			return domainbooking.ErrDatesUnavailable
		}

		b, err := domainbooking.NewBooking(domainbooking.CreateParams{
			ID:        domainbooking.BookingID(cmd.CommandID),
			Item:      it,
			RenterID:  domainuser.ID(cmd.RenterID),
			Range:     dr,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := drainEvents(ctx, h.Outbox, h.Encoder, b); err != nil {
			return err
		}
		result = &RequestBookingResult{Booking: dto.MapBooking(b)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)

package booking

import (
	"context"

	"gearshare/internal/app/dto"
	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/queries"
	"gearshare/internal/app/uow"
	domainbooking "gearshare/internal/domain/booking"
	domainuser "gearshare/internal/domain/user"
)

const getBookingKey = "booking.get"

type GetBookingQuery struct {
	BookingID string
	CallerID  string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingResult struct {
	Booking dto.Booking `json:"booking"`
}

// GetBookingHandler returns one booking, visible only to its two parties.
type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (*GetBookingResult, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(domainuser.ID(q.CallerID)) {
		return nil, domainbooking.ErrNotParticipant
	}
	return &GetBookingResult{Booking: dto.MapBooking(b)}, nil
}

var _ queries.Handler[GetBookingQuery, *GetBookingResult] = (*GetBookingHandler)(nil)

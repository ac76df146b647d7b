package booking

import (
	"context"

	"gearshare/internal/app/dto"
	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/queries"
	"gearshare/internal/app/uow"
	domainbooking "gearshare/internal/domain/booking"
	domainitem "gearshare/internal/domain/item"
	domainuser "gearshare/internal/domain/user"
)

const listBookingsKey = "booking.list"

// RoleOwner lists bookings on the caller's items; any other value lists
// bookings the caller made as a renter.
const RoleOwner = "owner"

type ListBookingsQuery struct {
	UserID string
	Role   string
}

func (q ListBookingsQuery) Key() string { return listBookingsKey }

type ListBookingsResult struct {
	Bookings dto.BookingCollection `json:"bookings"`
}

type ListBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) (*ListBookingsResult, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	var list []*domainbooking.Booking
	if q.Role == RoleOwner {
		list, err = unit.Bookings().ListByOwner(ctx, domainitem.OwnerID(q.UserID))
	} else {
		list, err = unit.Bookings().ListByRenter(ctx, domainuser.ID(q.UserID))
	}
	if err != nil {
		return nil, err
	}
	return &ListBookingsResult{Bookings: dto.MapBookings(list)}, nil
}

var _ queries.Handler[ListBookingsQuery, *ListBookingsResult] = (*ListBookingsHandler)(nil)

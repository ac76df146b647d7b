package booking

import (
	"time"

	"gearshare/internal/domain/item"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
	"gearshare/internal/domain/user"
)

type BookingRequested struct {
	BookingID BookingID
	ItemID    item.ID
	RenterID  user.ID
	Range     daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingAccepted struct {
	BookingID BookingID
	ItemID    item.ID
	Total     money.Money
	At        time.Time
}

func (e BookingAccepted) EventName() string     { return "booking.accepted" }
func (e BookingAccepted) AggregateID() string   { return string(e.BookingID) }
func (e BookingAccepted) OccurredAt() time.Time { return e.At }

type BookingRejected struct {
	BookingID BookingID
	At        time.Time
}

func (e BookingRejected) EventName() string     { return "booking.rejected" }
func (e BookingRejected) AggregateID() string   { return string(e.BookingID) }
func (e BookingRejected) OccurredAt() time.Time { return e.At }

type PartyConfirmed struct {
	BookingID BookingID
	PartyID   user.ID
	At        time.Time
}

func (e PartyConfirmed) EventName() string     { return "booking.party_confirmed" }
func (e PartyConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e PartyConfirmed) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID BookingID
	ItemID    item.ID
	Total     money.Money
	At        time.Time
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	Refund    money.Money
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingDisputed struct {
	BookingID BookingID
	RaisedBy  user.ID
	At        time.Time
}

func (e BookingDisputed) EventName() string     { return "booking.disputed" }
func (e BookingDisputed) AggregateID() string   { return string(e.BookingID) }
func (e BookingDisputed) OccurredAt() time.Time { return e.At }

package dto

import (
	"time"

	domainbooking "gearshare/internal/domain/booking"
)

const dateLayout = "2006-01-02"

// Booking is the API projection of a booking aggregate.
type Booking struct {
	ID               string     `json:"id"`
	ItemID           string     `json:"item_id"`
	RenterID         string     `json:"renter_id"`
	OwnerID          string     `json:"owner_id"`
	StartDate        string     `json:"start_date"`
	EndDate          string     `json:"end_date"`
	Days             int        `json:"days"`
	DailyRate        int64      `json:"daily_rate"`
	TotalPrice       int64      `json:"total_price"`
	Currency         string     `json:"currency"`
	Status           string     `json:"status"`
	PaymentStatus    string     `json:"payment_status"`
	PaymentReference string     `json:"payment_reference,omitempty"`
	RenterConfirmed  bool       `json:"renter_confirmed"`
	OwnerConfirmed   bool       `json:"owner_confirmed"`
	ReturnedAt       *time.Time `json:"returned_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	return Booking{
		ID:               string(b.ID),
		ItemID:           string(b.ItemID),
		RenterID:         string(b.RenterID),
		OwnerID:          string(b.OwnerID),
		StartDate:        b.Range.Start.Format(dateLayout),
		EndDate:          b.Range.End.Format(dateLayout),
		Days:             b.Range.Days(),
		DailyRate:        b.DailyRate.Amount,
		TotalPrice:       b.TotalPrice.Amount,
		Currency:         b.TotalPrice.Currency,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		PaymentReference: b.PaymentReference,
		RenterConfirmed:  b.RenterConfirmed,
		OwnerConfirmed:   b.OwnerConfirmed,
		ReturnedAt:       b.ReturnedAt,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

// BookingCollection wraps a list response.
type BookingCollection struct {
	Items []Booking `json:"items"`
}

func MapBookings(list []*domainbooking.Booking) BookingCollection {
	items := make([]Booking, 0, len(list))
	for _, b := range list {
		items = append(items, MapBooking(b))
	}
	return BookingCollection{Items: items}
}

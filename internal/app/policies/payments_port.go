package policies

import (
	"context"
	"errors"

	"gearshare/internal/domain/shared/money"
)

// ErrPaymentDeclined is surfaced when the external gateway refuses to capture
// or refund; the booking transition that needed the money does not happen.
var ErrPaymentDeclined = errors.New("payments: gateway declined the operation")

// PaymentsPort is the boundary to the external payment gateway. The gateway
// charges the renter's payment method; wallet balances only ever see the
// escrow side of the movement.
type PaymentsPort interface {
	// AuthorizeAndCapture charges the renter for the booking total and returns
	// an opaque gateway reference.
	AuthorizeAndCapture(ctx context.Context, renterID string, bookingID string, amount money.Money) (reference string, err error)
	// Refund returns a captured amount to the renter's original payment method.
	Refund(ctx context.Context, reference string, amount money.Money) error
}

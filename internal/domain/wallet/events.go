package wallet

import (
	"time"

	"gearshare/internal/domain/booking"
	"gearshare/internal/domain/shared/money"
)

type EscrowDeposited struct {
	WalletID      WalletID
	TransactionID TransactionID
	BookingID     booking.BookingID
	Amount        money.Money
	At            time.Time
}

func (e EscrowDeposited) EventName() string     { return "wallet.escrow_deposited" }
func (e EscrowDeposited) AggregateID() string   { return string(e.WalletID) }
func (e EscrowDeposited) OccurredAt() time.Time { return e.At }

type EscrowReleased struct {
	WalletID      WalletID
	TransactionID TransactionID
	BookingID     booking.BookingID
	Amount        money.Money
	At            time.Time
}

func (e EscrowReleased) EventName() string     { return "wallet.escrow_released" }
func (e EscrowReleased) AggregateID() string   { return string(e.WalletID) }
func (e EscrowReleased) OccurredAt() time.Time { return e.At }

type EscrowRefunded struct {
	WalletID      WalletID
	TransactionID TransactionID
	BookingID     booking.BookingID
	Amount        money.Money
	At            time.Time
}

func (e EscrowRefunded) EventName() string     { return "wallet.escrow_refunded" }
func (e EscrowRefunded) AggregateID() string   { return string(e.WalletID) }
func (e EscrowRefunded) OccurredAt() time.Time { return e.At }

type EscrowDisputed struct {
	WalletID      WalletID
	TransactionID TransactionID
	BookingID     booking.BookingID
	Amount        money.Money
	At            time.Time
}

func (e EscrowDisputed) EventName() string     { return "wallet.escrow_disputed" }
func (e EscrowDisputed) AggregateID() string   { return string(e.WalletID) }
func (e EscrowDisputed) OccurredAt() time.Time { return e.At }

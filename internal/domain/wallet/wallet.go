package wallet

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/domain/booking"
	"gearshare/internal/domain/shared/events"
	"gearshare/internal/domain/shared/money"
	"gearshare/internal/domain/user"
)

var (
	ErrNotFound            = errors.New("wallet: not found")
	ErrTransactionNotFound = errors.New("wallet: transaction not found")
	ErrInvalidState        = errors.New("wallet: transaction is not in the required state")
	ErrAlreadyEscrowed     = errors.New("wallet: booking already has an escrow transaction")
	ErrAmountInvalid       = errors.New("wallet: amount must be positive")
	ErrWalletMismatch      = errors.New("wallet: transaction belongs to a different wallet")
)

type WalletID string
type TransactionID string

// Wallet holds an owner's funds: Balance is withdrawable, PendingBalance is
// escrow held for bookings that have not settled. Neither may go negative, and
// both move only through the escrow service's ledger operations.
type Wallet struct {
	ID             WalletID
	OwnerID        user.ID
	Balance        money.Money
	PendingBalance money.Money
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id WalletID) (*Wallet, error)
	ByOwner(ctx context.Context, ownerID user.ID) (*Wallet, error)
	Save(ctx context.Context, w *Wallet) error
}

type TxStatus string

const (
	TxPending  TxStatus = "PENDING"
	TxReleased TxStatus = "RELEASED"
	TxRefunded TxStatus = "REFUNDED"
	TxDisputed TxStatus = "DISPUTED"
)

// WalletTransaction is the permanent audit record of one booking's money
// movement. Exactly one exists per escrowed booking; it is never deleted.
type WalletTransaction struct {
	ID         TransactionID
	WalletID   WalletID
	BookingID  booking.BookingID
	Amount     money.Money
	Status     TxStatus
	CreatedAt  time.Time
	ReleasedAt *time.Time
	events.EventRecorder
}

type TransactionRepository interface {
	ByID(ctx context.Context, id TransactionID) (*WalletTransaction, error)
	ByBooking(ctx context.Context, bookingID booking.BookingID) (*WalletTransaction, error)
	ListByWallet(ctx context.Context, walletID WalletID) ([]*WalletTransaction, error)
	// Save inserts a transaction; a second insert for the same booking fails
	// with ErrAlreadyEscrowed.
	Save(ctx context.Context, tx *WalletTransaction) error
	// Settle persists a status transition only if the stored status still equals
	// from. The loser of a concurrent settle gets ErrInvalidState and no fund
	// movement is persisted.
	Settle(ctx context.Context, tx *WalletTransaction, from TxStatus) error
}

func NewWallet(id WalletID, ownerID user.ID, currency string, now time.Time) (*Wallet, error) {
	if ownerID == "" {
		return nil, user.ErrIDRequired
	}
	zero, err := money.New(0, currency)
	if err != nil {
		return nil, err
	}
	now = now.UTC()
	return &Wallet{
		ID:             id,
		OwnerID:        ownerID,
		Balance:        zero,
		PendingBalance: zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// DepositToPending moves freshly captured funds into escrow and creates the
// booking's transaction record in PENDING.
func (w *Wallet) DepositToPending(txID TransactionID, bookingID booking.BookingID, amount money.Money, now time.Time) (*WalletTransaction, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountInvalid
	}
	pending, err := w.PendingBalance.Add(amount)
	if err != nil {
		return nil, err
	}
	ts := now.UTC()
	w.PendingBalance = pending
	w.UpdatedAt = ts
	tx := &WalletTransaction{
		ID:        txID,
		WalletID:  w.ID,
		BookingID: bookingID,
		Amount:    amount,
		Status:    TxPending,
		CreatedAt: ts,
	}
	w.Record(EscrowDeposited{WalletID: w.ID, TransactionID: tx.ID, BookingID: bookingID, Amount: amount, At: ts})
	return tx, nil
}

// Release settles a PENDING transaction in the owner's favor: escrow leaves the
// pending balance and lands on the available balance as one unit.
func (w *Wallet) Release(tx *WalletTransaction, now time.Time) error {
	if tx.WalletID != w.ID {
		return ErrWalletMismatch
	}
	if tx.Status != TxPending {
		return ErrInvalidState
	}
	pending, err := w.PendingBalance.SubChecked(tx.Amount)
	if err != nil {
		return err
	}
	balance, err := w.Balance.Add(tx.Amount)
	if err != nil {
		return err
	}
	ts := now.UTC()
	w.PendingBalance = pending
	w.Balance = balance
	w.UpdatedAt = ts
	tx.Status = TxReleased
	tx.ReleasedAt = &ts
	w.Record(EscrowReleased{WalletID: w.ID, TransactionID: tx.ID, BookingID: tx.BookingID, Amount: tx.Amount, At: ts})
	return nil
}

// Refund settles a PENDING transaction in the renter's favor: escrow leaves the
// pending balance; the money returns to the renter's payment method at the
// gateway, never through the wallet's available balance.
func (w *Wallet) Refund(tx *WalletTransaction, now time.Time) error {
	if tx.WalletID != w.ID {
		return ErrWalletMismatch
	}
	if tx.Status != TxPending {
		return ErrInvalidState
	}
	pending, err := w.PendingBalance.SubChecked(tx.Amount)
	if err != nil {
		return err
	}
	ts := now.UTC()
	w.PendingBalance = pending
	w.UpdatedAt = ts
	tx.Status = TxRefunded
	w.Record(EscrowRefunded{WalletID: w.ID, TransactionID: tx.ID, BookingID: tx.BookingID, Amount: tx.Amount, At: ts})
	return nil
}

// Dispute freezes the transaction for out-of-band resolution. A PENDING
// transaction keeps its escrow held; a RELEASED one is only flagged since the
// funds already moved. Refunded transactions have nothing left to argue over.
func (t *WalletTransaction) Dispute(now time.Time) (from TxStatus, err error) {
	switch t.Status {
	case TxPending, TxReleased:
		from = t.Status
	default:
		return "", ErrInvalidState
	}
	ts := now.UTC()
	t.Status = TxDisputed
	t.Record(EscrowDisputed{WalletID: t.WalletID, TransactionID: t.ID, BookingID: t.BookingID, Amount: t.Amount, At: ts})
	return from, nil
}

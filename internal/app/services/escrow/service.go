package escrow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"gearshare/internal/app/outbox"
	"gearshare/internal/app/uow"
	domainbooking "gearshare/internal/domain/booking"
	"gearshare/internal/domain/shared/money"
	domainuser "gearshare/internal/domain/user"
	domainwallet "gearshare/internal/domain/wallet"
)

// Service is the wallet ledger's sole writer. Every operation is a
// read-modify-write over one wallet and at most one transaction, executed
// inside the caller's unit of work so status check and balance update commit
// or fail together.
type Service struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	NewID   func() string
}

// Deposit moves a captured booking total into the owner's escrow, lazily
// creating the wallet, and creates the booking's PENDING transaction.
func (s *Service) Deposit(ctx context.Context, unit uow.UnitOfWork, ownerID domainuser.ID, bookingID domainbooking.BookingID, amount money.Money, now time.Time) (*domainwallet.WalletTransaction, error) {
	if _, err := unit.WalletTransactions().ByBooking(ctx, bookingID); err == nil {
		return nil, domainwallet.ErrAlreadyEscrowed
	} else if !errors.Is(err, domainwallet.ErrTransactionNotFound) {
		return nil, err
	}

	w, err := unit.Wallets().ByOwner(ctx, ownerID)
	if errors.Is(err, domainwallet.ErrNotFound) {
		w, err = domainwallet.NewWallet(domainwallet.WalletID(s.newID()), ownerID, amount.Currency, now)
	}
	if err != nil {
		return nil, err
	}

	tx, err := w.DepositToPending(domainwallet.TransactionID(s.newID()), bookingID, amount, now)
	if err != nil {
		return nil, err
	}
	if err := unit.WalletTransactions().Save(ctx, tx); err != nil {
		return nil, err
	}
	if err := unit.Wallets().Save(ctx, w); err != nil {
		return nil, err
	}
	return tx, s.recordEvents(ctx, w)
}

// Release settles the booking's escrow in the owner's favor. Only one
// concurrent settler can win: the conditional Settle write is attempted before
// the wallet balances are persisted, so a loser leaves both untouched.
func (s *Service) Release(ctx context.Context, unit uow.UnitOfWork, bookingID domainbooking.BookingID, now time.Time) (*domainwallet.WalletTransaction, error) {
	w, tx, err := s.load(ctx, unit, bookingID)
	if err != nil {
		return nil, err
	}
	if err := w.Release(tx, now); err != nil {
		return nil, err
	}
	if err := unit.WalletTransactions().Settle(ctx, tx, domainwallet.TxPending); err != nil {
		return nil, err
	}
	if err := unit.Wallets().Save(ctx, w); err != nil {
		return nil, err
	}
	return tx, s.recordEvents(ctx, w)
}

// Refund settles the booking's escrow in the renter's favor: the pending
// balance drops and nothing is credited to the wallet; the gateway returns the
// money to the renter's payment method.
func (s *Service) Refund(ctx context.Context, unit uow.UnitOfWork, bookingID domainbooking.BookingID, now time.Time) (*domainwallet.WalletTransaction, error) {
	w, tx, err := s.load(ctx, unit, bookingID)
	if err != nil {
		return nil, err
	}
	if err := w.Refund(tx, now); err != nil {
		return nil, err
	}
	if err := unit.WalletTransactions().Settle(ctx, tx, domainwallet.TxPending); err != nil {
		return nil, err
	}
	if err := unit.Wallets().Save(ctx, w); err != nil {
		return nil, err
	}
	return tx, s.recordEvents(ctx, w)
}

// Dispute freezes the booking's transaction for out-of-band resolution.
// Balances do not move; a PENDING transaction simply stops being releasable or
// refundable.
func (s *Service) Dispute(ctx context.Context, unit uow.UnitOfWork, bookingID domainbooking.BookingID, now time.Time) (*domainwallet.WalletTransaction, error) {
	tx, err := unit.WalletTransactions().ByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	from, err := tx.Dispute(now)
	if err != nil {
		return nil, err
	}
	if err := unit.WalletTransactions().Settle(ctx, tx, from); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, s.Outbox, s.Encoder, tx.PendingEvents()); err != nil {
		return nil, err
	}
	tx.ClearEvents()
	return tx, nil
}

func (s *Service) load(ctx context.Context, unit uow.UnitOfWork, bookingID domainbooking.BookingID) (*domainwallet.Wallet, *domainwallet.WalletTransaction, error) {
	tx, err := unit.WalletTransactions().ByBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	w, err := unit.Wallets().ByID(ctx, tx.WalletID)
	if err != nil {
		return nil, nil, err
	}
	return w, tx, nil
}

func (s *Service) recordEvents(ctx context.Context, w *domainwallet.Wallet) error {
	if err := outbox.RecordDomainEvents(ctx, s.Outbox, s.Encoder, w.PendingEvents()); err != nil {
		return err
	}
	w.ClearEvents()
	return nil
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

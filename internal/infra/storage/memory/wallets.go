package memory

import (
	"context"
	"sort"
	"sync"

	domainbooking "gearshare/internal/domain/booking"
	domainuser "gearshare/internal/domain/user"
	domainwallet "gearshare/internal/domain/wallet"
)

// WalletRepository stores wallets in memory.
type WalletRepository struct {
	mu      sync.RWMutex
	byID    map[domainwallet.WalletID]*domainwallet.Wallet
	byOwner map[domainuser.ID]domainwallet.WalletID
}

func NewWalletRepository() *WalletRepository {
	return &WalletRepository{
		byID:    make(map[domainwallet.WalletID]*domainwallet.Wallet),
		byOwner: make(map[domainuser.ID]domainwallet.WalletID),
	}
}

func (r *WalletRepository) ByID(ctx context.Context, id domainwallet.WalletID) (*domainwallet.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.byID[id]
	if !ok {
		return nil, domainwallet.ErrNotFound
	}
	clone := *w
	return &clone, nil
}

func (r *WalletRepository) ByOwner(ctx context.Context, ownerID domainuser.ID) (*domainwallet.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byOwner[ownerID]
	if !ok {
		return nil, domainwallet.ErrNotFound
	}
	w, ok := r.byID[id]
	if !ok {
		return nil, domainwallet.ErrNotFound
	}
	clone := *w
	return &clone, nil
}

func (r *WalletRepository) Save(ctx context.Context, w *domainwallet.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.Version++
	clone := *w
	r.byID[w.ID] = &clone
	r.byOwner[w.OwnerID] = w.ID
	return nil
}

// TransactionRepository stores escrow transactions in memory. The
// booking-uniqueness and conditional-settle guards run under one mutex so they
// behave like the Mongo unique index and filtered update.
type TransactionRepository struct {
	mu        sync.RWMutex
	byID      map[domainwallet.TransactionID]*domainwallet.WalletTransaction
	byBooking map[domainbooking.BookingID]domainwallet.TransactionID
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		byID:      make(map[domainwallet.TransactionID]*domainwallet.WalletTransaction),
		byBooking: make(map[domainbooking.BookingID]domainwallet.TransactionID),
	}
}

func (r *TransactionRepository) ByID(ctx context.Context, id domainwallet.TransactionID) (*domainwallet.WalletTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.byID[id]
	if !ok {
		return nil, domainwallet.ErrTransactionNotFound
	}
	clone := *tx
	return &clone, nil
}

func (r *TransactionRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainwallet.WalletTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byBooking[bookingID]
	if !ok {
		return nil, domainwallet.ErrTransactionNotFound
	}
	tx, ok := r.byID[id]
	if !ok {
		return nil, domainwallet.ErrTransactionNotFound
	}
	clone := *tx
	return &clone, nil
}

func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID domainwallet.WalletID) ([]*domainwallet.WalletTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainwallet.WalletTransaction, 0)
	for _, tx := range r.byID {
		if tx.WalletID == walletID {
			clone := *tx
			matches = append(matches, &clone)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domainwallet.WalletTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byBooking[tx.BookingID]; exists {
		return domainwallet.ErrAlreadyEscrowed
	}
	clone := *tx
	r.byID[tx.ID] = &clone
	r.byBooking[tx.BookingID] = tx.ID
	return nil
}

func (r *TransactionRepository) Settle(ctx context.Context, tx *domainwallet.WalletTransaction, from domainwallet.TxStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[tx.ID]
	if !ok {
		return domainwallet.ErrTransactionNotFound
	}
	if stored.Status != from {
		return domainwallet.ErrInvalidState
	}
	stored.Status = tx.Status
	stored.ReleasedAt = tx.ReleasedAt
	return nil
}

var _ domainwallet.Repository = (*WalletRepository)(nil)
var _ domainwallet.TransactionRepository = (*TransactionRepository)(nil)

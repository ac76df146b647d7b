package dto

import (
	"time"

	domainwallet "gearshare/internal/domain/wallet"
)

// Wallet is the API projection of a wallet's balances.
type Wallet struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Balance        int64     `json:"balance"`
	PendingBalance int64     `json:"pending_balance"`
	Currency       string    `json:"currency"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func MapWallet(w *domainwallet.Wallet) Wallet {
	return Wallet{
		ID:             string(w.ID),
		OwnerID:        string(w.OwnerID),
		Balance:        w.Balance.Amount,
		PendingBalance: w.PendingBalance.Amount,
		Currency:       w.Balance.Currency,
		UpdatedAt:      w.UpdatedAt,
	}
}

// WalletTransaction is the API projection of one escrow movement.
type WalletTransaction struct {
	ID         string     `json:"id"`
	WalletID   string     `json:"wallet_id"`
	BookingID  string     `json:"booking_id"`
	Amount     int64      `json:"amount"`
	Currency   string     `json:"currency"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
}

func MapWalletTransaction(tx *domainwallet.WalletTransaction) WalletTransaction {
	return WalletTransaction{
		ID:         string(tx.ID),
		WalletID:   string(tx.WalletID),
		BookingID:  string(tx.BookingID),
		Amount:     tx.Amount.Amount,
		Currency:   tx.Amount.Currency,
		Status:     string(tx.Status),
		CreatedAt:  tx.CreatedAt,
		ReleasedAt: tx.ReleasedAt,
	}
}

// WalletStatement pairs balances with the transaction history.
type WalletStatement struct {
	Wallet       Wallet              `json:"wallet"`
	Transactions []WalletTransaction `json:"transactions"`
}

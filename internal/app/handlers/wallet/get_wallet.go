package wallet

import (
	"context"
	"errors"

	"gearshare/internal/app/dto"
	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/queries"
	"gearshare/internal/app/uow"
	domainuser "gearshare/internal/domain/user"
	domainwallet "gearshare/internal/domain/wallet"
)

const getWalletKey = "wallet.get"

type GetWalletQuery struct {
	OwnerID  string
	Currency string
}

func (q GetWalletQuery) Key() string { return getWalletKey }

type GetWalletResult struct {
	Statement dto.WalletStatement `json:"statement"`
}

// GetWalletHandler returns the owner's balances and transaction history.
// Wallets are created on first deposit, so an owner without one gets an empty
// statement rather than a 404.
type GetWalletHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetWalletHandler) Handle(ctx context.Context, q GetWalletQuery) (*GetWalletResult, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	w, err := unit.Wallets().ByOwner(ctx, domainuser.ID(q.OwnerID))
	if errors.Is(err, domainwallet.ErrNotFound) {
		return &GetWalletResult{Statement: dto.WalletStatement{
			Wallet:       dto.Wallet{OwnerID: q.OwnerID, Currency: q.Currency},
			Transactions: []dto.WalletTransaction{},
		}}, nil
	}
	if err != nil {
		return nil, err
	}

	txs, err := unit.WalletTransactions().ListByWallet(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	statement := dto.WalletStatement{
		Wallet:       dto.MapWallet(w),
		Transactions: make([]dto.WalletTransaction, 0, len(txs)),
	}
	for _, tx := range txs {
		statement.Transactions = append(statement.Transactions, dto.MapWalletTransaction(tx))
	}
	return &GetWalletResult{Statement: statement}, nil
}

var _ queries.Handler[GetWalletQuery, *GetWalletResult] = (*GetWalletHandler)(nil)

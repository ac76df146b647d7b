package uow

import (
	"context"

	domainbooking "gearshare/internal/domain/booking"
	domainitem "gearshare/internal/domain/item"
	domainuser "gearshare/internal/domain/user"
	domainwallet "gearshare/internal/domain/wallet"
)

// UnitOfWork coordinates repositories inside a transaction boundary. Every
// command runs its overlap checks and fund movements inside exactly one unit.
type UnitOfWork interface {
	Items() domainitem.Repository
	Users() domainuser.Repository
	Bookings() domainbooking.Repository
	Wallets() domainwallet.Repository
	WalletTransactions() domainwallet.TransactionRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}

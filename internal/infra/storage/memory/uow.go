package memory

import (
	"context"
	"errors"

	"gearshare/internal/app/uow"
	domainbooking "gearshare/internal/domain/booking"
	domainitem "gearshare/internal/domain/item"
	domainuser "gearshare/internal/domain/user"
	domainwallet "gearshare/internal/domain/wallet"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ItemsRepo    domainitem.Repository
	UsersRepo    domainuser.Repository
	BookingsRepo domainbooking.Repository
	WalletsRepo  domainwallet.Repository
	WalletTxRepo domainwallet.TransactionRepository
}

// NewFactory builds a factory over fresh empty stores.
func NewFactory() Factory {
	return Factory{
		ItemsRepo:    NewItemRepository(),
		UsersRepo:    NewUserRepository(),
		BookingsRepo: NewBookingRepository(),
		WalletsRepo:  NewWalletRepository(),
		WalletTxRepo: NewTransactionRepository(),
	}
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided but
// the abstraction matches the application ports; the repositories' own guards
// keep the critical invariants.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ItemsRepo == nil || f.UsersRepo == nil || f.BookingsRepo == nil || f.WalletsRepo == nil || f.WalletTxRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		items:    f.ItemsRepo,
		users:    f.UsersRepo,
		bookings: f.BookingsRepo,
		wallets:  f.WalletsRepo,
		walletTx: f.WalletTxRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	items    domainitem.Repository
	users    domainuser.Repository
	bookings domainbooking.Repository
	wallets  domainwallet.Repository
	walletTx domainwallet.TransactionRepository
}

func (u *Unit) Items() domainitem.Repository { return u.items }

func (u *Unit) Users() domainuser.Repository { return u.users }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Wallets() domainwallet.Repository { return u.wallets }

func (u *Unit) WalletTransactions() domainwallet.TransactionRepository { return u.walletTx }

func (u *Unit) Commit(ctx context.Context) error { return nil }

func (u *Unit) Rollback(ctx context.Context) error { return nil }

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)

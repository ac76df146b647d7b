package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gearshare/internal/app/uow"
	domainbooking "gearshare/internal/domain/booking"
	domainitem "gearshare/internal/domain/item"
	domainuser "gearshare/internal/domain/user"
	domainwallet "gearshare/internal/domain/wallet"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ItemsRepo    domainitem.Repository
	UsersRepo    domainuser.Repository
	BookingsRepo domainbooking.Repository
	WalletsRepo  domainwallet.Repository
	WalletTxRepo domainwallet.TransactionRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:       f.DB,
		session:  session,
		items:    f.ItemsRepo,
		users:    f.UsersRepo,
		bookings: f.BookingsRepo,
		wallets:  f.WalletsRepo,
		walletTx: f.WalletTxRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

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

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)

package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "gearshare/internal/domain/booking"
	"gearshare/internal/domain/shared/money"
	domainuser "gearshare/internal/domain/user"
	domainwallet "gearshare/internal/domain/wallet"
)

type WalletRepository struct {
	col *mongo.Collection
}

func NewWalletRepository(db *mongo.Database) *WalletRepository {
	return &WalletRepository{col: db.Collection("agg_wallet")}
}

func (r *WalletRepository) ByID(ctx context.Context, id domainwallet.WalletID) (*domainwallet.Wallet, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *WalletRepository) ByOwner(ctx context.Context, ownerID domainuser.ID) (*domainwallet.Wallet, error) {
	return r.findOne(ctx, bson.M{"owner_id": string(ownerID)})
}

func (r *WalletRepository) findOne(ctx context.Context, filter bson.M) (*domainwallet.Wallet, error) {
	var doc walletDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainwallet.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *WalletRepository) Save(ctx context.Context, w *domainwallet.Wallet) error {
	doc := newWalletDocument(w)
	filter := bson.M{"_id": doc.ID, "version": w.Version}
	doc.Version = w.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	w.Version = doc.Version
	return nil
}

type walletDocument struct {
	ID             string `bson:"_id"`
	OwnerID        string `bson:"owner_id"`
	Balance        int64  `bson:"balance"`
	PendingBalance int64  `bson:"pending_balance"`
	Currency       string `bson:"currency"`
	CreatedAt      int64  `bson:"created_at"`
	UpdatedAt      int64  `bson:"updated_at"`
	Version        int64  `bson:"version"`
}

func newWalletDocument(w *domainwallet.Wallet) walletDocument {
	return walletDocument{
		ID:             string(w.ID),
		OwnerID:        string(w.OwnerID),
		Balance:        w.Balance.Amount,
		PendingBalance: w.PendingBalance.Amount,
		Currency:       w.Balance.Currency,
		CreatedAt:      w.CreatedAt.UnixMilli(),
		UpdatedAt:      w.UpdatedAt.UnixMilli(),
		Version:        w.Version,
	}
}

func (d walletDocument) toAggregate() *domainwallet.Wallet {
	return &domainwallet.Wallet{
		ID:             domainwallet.WalletID(d.ID),
		OwnerID:        domainuser.ID(d.OwnerID),
		Balance:        money.Money{Amount: d.Balance, Currency: d.Currency},
		PendingBalance: money.Money{Amount: d.PendingBalance, Currency: d.Currency},
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
		Version:        d.Version,
	}
}

type TransactionRepository struct {
	col *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{col: db.Collection("wallet_transactions")}
}

func (r *TransactionRepository) ByID(ctx context.Context, id domainwallet.TransactionID) (*domainwallet.WalletTransaction, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *TransactionRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainwallet.WalletTransaction, error) {
	return r.findOne(ctx, bson.M{"booking_id": string(bookingID)})
}

func (r *TransactionRepository) findOne(ctx context.Context, filter bson.M) (*domainwallet.WalletTransaction, error) {
	var doc transactionDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainwallet.ErrTransactionNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID domainwallet.WalletID) ([]*domainwallet.WalletTransaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"wallet_id": string(walletID)}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var result []*domainwallet.WalletTransaction
	for cursor.Next(ctx) {
		var doc transactionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc.toAggregate())
	}
	return result, cursor.Err()
}

// Save inserts the transaction; the unique booking_id index rejects a second
// escrow for the same booking.
func (r *TransactionRepository) Save(ctx context.Context, tx *domainwallet.WalletTransaction) error {
	if _, err := r.col.InsertOne(ctx, newTransactionDocument(tx)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainwallet.ErrAlreadyEscrowed
		}
		return err
	}
	return nil
}

// Settle is a conditional status transition; the filter on the previous status
// makes the loser of a concurrent settle fail without touching the document.
func (r *TransactionRepository) Settle(ctx context.Context, tx *domainwallet.WalletTransaction, from domainwallet.TxStatus) error {
	set := bson.M{"status": string(tx.Status)}
	if tx.ReleasedAt != nil {
		set["released_at"] = tx.ReleasedAt.UnixMilli()
	}
	filter := bson.M{"_id": string(tx.ID), "status": string(from)}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainwallet.ErrInvalidState
	}
	return nil
}

type transactionDocument struct {
	ID         string `bson:"_id"`
	WalletID   string `bson:"wallet_id"`
	BookingID  string `bson:"booking_id"`
	Amount     int64  `bson:"amount"`
	Currency   string `bson:"currency"`
	Status     string `bson:"status"`
	CreatedAt  int64  `bson:"created_at"`
	ReleasedAt *int64 `bson:"released_at,omitempty"`
}

func newTransactionDocument(tx *domainwallet.WalletTransaction) transactionDocument {
	doc := transactionDocument{
		ID:        string(tx.ID),
		WalletID:  string(tx.WalletID),
		BookingID: string(tx.BookingID),
		Amount:    tx.Amount.Amount,
		Currency:  tx.Amount.Currency,
		Status:    string(tx.Status),
		CreatedAt: tx.CreatedAt.UnixMilli(),
	}
	if tx.ReleasedAt != nil {
		ms := tx.ReleasedAt.UnixMilli()
		doc.ReleasedAt = &ms
	}
	return doc
}

func (d transactionDocument) toAggregate() *domainwallet.WalletTransaction {
	tx := &domainwallet.WalletTransaction{
		ID:        domainwallet.TransactionID(d.ID),
		WalletID:  domainwallet.WalletID(d.WalletID),
		BookingID: domainbooking.BookingID(d.BookingID),
		Amount:    money.Money{Amount: d.Amount, Currency: d.Currency},
		Status:    domainwallet.TxStatus(d.Status),
		CreatedAt: timestampToTime(d.CreatedAt),
	}
	if d.ReleasedAt != nil {
		t := timestampToTime(*d.ReleasedAt)
		tx.ReleasedAt = &t
	}
	return tx
}

var _ domainwallet.Repository = (*WalletRepository)(nil)
var _ domainwallet.TransactionRepository = (*TransactionRepository)(nil)

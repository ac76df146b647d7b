package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainitem "gearshare/internal/domain/item"
	"gearshare/internal/domain/shared/money"
)

type ItemRepository struct {
	col *mongo.Collection
}

func NewItemRepository(db *mongo.Database) *ItemRepository {
	return &ItemRepository{col: db.Collection("agg_item")}
}

func (r *ItemRepository) ByID(ctx context.Context, id domainitem.ID) (*domainitem.Item, error) {
	var doc itemDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainitem.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ItemRepository) Save(ctx context.Context, it *domainitem.Item) error {
	doc := newItemDocument(it)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

type itemDocument struct {
	ID        string `bson:"_id"`
	OwnerID   string `bson:"owner_id"`
	Title     string `bson:"title"`
	DailyRate int64  `bson:"daily_rate"`
	Currency  string `bson:"currency"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func newItemDocument(it *domainitem.Item) itemDocument {
	return itemDocument{
		ID:        string(it.ID),
		OwnerID:   string(it.OwnerID),
		Title:     it.Title,
		DailyRate: it.DailyRate.Amount,
		Currency:  it.DailyRate.Currency,
		CreatedAt: it.CreatedAt.UnixMilli(),
		UpdatedAt: it.UpdatedAt.UnixMilli(),
	}
}

func (d itemDocument) toAggregate() *domainitem.Item {
	return &domainitem.Item{
		ID:        domainitem.ID(d.ID),
		OwnerID:   domainitem.OwnerID(d.OwnerID),
		Title:     d.Title,
		DailyRate: money.Money{Amount: d.DailyRate, Currency: d.Currency},
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}
}

var _ domainitem.Repository = (*ItemRepository)(nil)

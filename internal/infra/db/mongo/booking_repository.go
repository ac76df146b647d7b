package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "gearshare/internal/domain/booking"
	domainitem "gearshare/internal/domain/item"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
	domainuser "gearshare/internal/domain/user"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col   *mongo.Collection
	slots *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{
		col:   db.Collection("agg_booking"),
		slots: db.Collection("booking_slots"),
	}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save persists the aggregate with an optimistic version filter. A fresh
// active booking also claims one slot document per covered day; the unique
// {item_id, day} index turns a concurrent double-book into a duplicate key
// error. Slots are freed when the booking leaves the active statuses.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
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

	if b.Version == 0 && b.IsActive() {
		if err := r.claimSlots(ctx, b); err != nil {
			return err
		}
	}
	if !b.IsActive() {
		if _, err := r.slots.DeleteMany(ctx, bson.M{"booking_id": doc.ID}); err != nil {
			return err
		}
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) claimSlots(ctx context.Context, b *domainbooking.Booking) error {
	docs := make([]any, 0, b.Range.Days())
	b.Range.EachDay(func(day time.Time) {
		docs = append(docs, slotDocument{
			ItemID:    string(b.ItemID),
			Day:       day.UnixMilli(),
			BookingID: string(b.ID),
		})
	})
	if _, err := r.slots.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrDatesUnavailable
		}
		return err
	}
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"renter_id": string(renterID)})
}

func (r *BookingRepository) ListByOwner(ctx context.Context, ownerID domainitem.OwnerID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"owner_id": string(ownerID)})
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var result []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc.toAggregate())
	}
	return result, cursor.Err()
}

func (r *BookingRepository) ActiveOverlapping(ctx context.Context, itemID domainitem.ID, dr daterange.DateRange) (bool, error) {
	statuses := make([]string, 0, len(domainbooking.ActiveStatuses))
	for _, s := range domainbooking.ActiveStatuses {
		statuses = append(statuses, string(s))
	}
	filter := bson.M{
		"item_id":     string(itemID),
		"status":      bson.M{"$in": statuses},
		"range.start": bson.M{"$lt": dr.End.UnixMilli()},
		"range.end":   bson.M{"$gt": dr.Start.UnixMilli()},
	}
	count, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type bookingDocument struct {
	ID               string        `bson:"_id"`
	ItemID           string        `bson:"item_id"`
	RenterID         string        `bson:"renter_id"`
	OwnerID          string        `bson:"owner_id"`
	Range            rangeDocument `bson:"range"`
	DailyRate        int64         `bson:"daily_rate"`
	TotalPrice       int64         `bson:"total_price"`
	Currency         string        `bson:"currency"`
	Status           string        `bson:"status"`
	PaymentStatus    string        `bson:"payment_status"`
	PaymentReference string        `bson:"payment_reference,omitempty"`
	RenterConfirmed  bool          `bson:"renter_confirmed"`
	OwnerConfirmed   bool          `bson:"owner_confirmed"`
	ReturnedAt       *int64        `bson:"returned_at,omitempty"`
	CreatedAt        int64         `bson:"created_at"`
	UpdatedAt        int64         `bson:"updated_at"`
	Version          int64         `bson:"version"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type slotDocument struct {
	ItemID    string `bson:"item_id"`
	Day       int64  `bson:"day"`
	BookingID string `bson:"booking_id"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:               string(b.ID),
		ItemID:           string(b.ItemID),
		RenterID:         string(b.RenterID),
		OwnerID:          string(b.OwnerID),
		Range:            rangeDocument{Start: b.Range.Start.UnixMilli(), End: b.Range.End.UnixMilli()},
		DailyRate:        b.DailyRate.Amount,
		TotalPrice:       b.TotalPrice.Amount,
		Currency:         b.TotalPrice.Currency,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		PaymentReference: b.PaymentReference,
		RenterConfirmed:  b.RenterConfirmed,
		OwnerConfirmed:   b.OwnerConfirmed,
		CreatedAt:        b.CreatedAt.UnixMilli(),
		UpdatedAt:        b.UpdatedAt.UnixMilli(),
		Version:          b.Version,
	}
	if b.ReturnedAt != nil {
		ms := b.ReturnedAt.UnixMilli()
		doc.ReturnedAt = &ms
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	agg := &domainbooking.Booking{
		ID:               domainbooking.BookingID(d.ID),
		ItemID:           domainitem.ID(d.ItemID),
		RenterID:         domainuser.ID(d.RenterID),
		OwnerID:          domainitem.OwnerID(d.OwnerID),
		Range:            daterange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		DailyRate:        money.Money{Amount: d.DailyRate, Currency: d.Currency},
		TotalPrice:       money.Money{Amount: d.TotalPrice, Currency: d.Currency},
		Status:           domainbooking.Status(d.Status),
		PaymentStatus:    domainbooking.PaymentStatus(d.PaymentStatus),
		PaymentReference: d.PaymentReference,
		RenterConfirmed:  d.RenterConfirmed,
		OwnerConfirmed:   d.OwnerConfirmed,
		CreatedAt:        timestampToTime(d.CreatedAt),
		UpdatedAt:        timestampToTime(d.UpdatedAt),
		Version:          d.Version,
	}
	if d.ReturnedAt != nil {
		t := timestampToTime(*d.ReturnedAt)
		agg.ReturnedAt = &t
	}
	return agg
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)

package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bookingsCollection = "bookings"

// bookingCollection is the subset of *mongo.Collection the store uses.
type bookingCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

type bookingDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Service   string    `bson:"service"`
	Date      string    `bson:"date"`
	Time      string    `bson:"time"`
	Phone     string    `bson:"phone"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d bookingDocument) booking() Booking {
	return Booking{
		ID:        d.ID,
		Name:      d.Name,
		Service:   d.Service,
		Date:      d.Date,
		Time:      d.Time,
		Phone:     d.Phone,
		CreatedAt: d.CreatedAt,
	}
}

func documentFromBooking(b Booking) bookingDocument {
	return bookingDocument{
		ID:        b.ID,
		Name:      b.Name,
		Service:   b.Service,
		Date:      b.Date,
		Time:      b.Time,
		Phone:     b.Phone,
		CreatedAt: b.CreatedAt,
	}
}

// MongoStore persists bookings as documents. EnsureIndexes must run once at
// startup; the unique slot index is what rejects concurrent double bookings.
type MongoStore struct {
	coll    bookingCollection
	timeout time.Duration
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	if db == nil {
		panic("bookings: mongo database required")
	}
	return &MongoStore{coll: db.Collection(bookingsCollection), timeout: 5 * time.Second}
}

func newMongoStoreWithCollection(coll bookingCollection) *MongoStore {
	return &MongoStore{coll: coll, timeout: 5 * time.Second}
}

// EnsureBookingIndexes creates the unique (service, date, time) index and the listing index.
func EnsureBookingIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "service", Value: 1}, {Key: "date", Value: 1}, {Key: "time", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("bookings_slot_key"),
		},
		{
			Keys:    bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("bookings_schedule_idx"),
		},
	}
	if _, err := db.Collection(bookingsCollection).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("bookings: create mongo indexes: %w", err)
	}
	return nil
}

func slotFilter(slot Slot) bson.M {
	return bson.M{"service": slot.Service, "date": slot.Date, "time": slot.Time}
}

func (s *MongoStore) FindBooking(ctx context.Context, slot Slot) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc bookingDocument
	err := s.coll.FindOne(ctx, slotFilter(slot)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: mongo find: %w", err)
	}
	b := doc.booking()
	return &b, nil
}

func (s *MongoStore) InsertBooking(ctx context.Context, b Booking) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	b.ID = newBookingID()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, documentFromBooking(b)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("bookings: mongo insert: %w", err)
	}
	return &b, nil
}

func (s *MongoStore) ListBookings(ctx context.Context) ([]Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("bookings: mongo list: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bookingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("bookings: mongo decode: %w", err)
	}
	out := make([]Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.booking())
	}
	return out, nil
}

func (s *MongoStore) GetBooking(ctx context.Context, id string) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc bookingDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: mongo get: %w", err)
	}
	b := doc.booking()
	return &b, nil
}

func (s *MongoStore) UpdateBooking(ctx context.Context, b Booking) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":    b.Name,
		"service": b.Service,
		"date":    b.Date,
		"time":    b.Time,
		"phone":   b.Phone,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc bookingDocument
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": b.ID}, update, opts).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, ErrConflict
	case err != nil:
		return nil, fmt.Errorf("bookings: mongo update: %w", err)
	}
	updated := doc.booking()
	return &updated, nil
}

func (s *MongoStore) DeleteBooking(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("bookings: mongo delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const servicesCollection = "services"

type serviceCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

type serviceDocument struct {
	ID              string    `bson:"_id"`
	Name            string    `bson:"name"`
	NameKey         string    `bson:"nameKey"`
	Description     *string   `bson:"description,omitempty"`
	DurationMinutes *int      `bson:"durationMinutes,omitempty"`
	Price           *float64  `bson:"price,omitempty"`
	CreatedAt       time.Time `bson:"createdAt"`
}

func (d serviceDocument) service() Service {
	return Service{
		ID:              d.ID,
		Name:            d.Name,
		Description:     d.Description,
		DurationMinutes: d.DurationMinutes,
		Price:           d.Price,
		CreatedAt:       d.CreatedAt,
	}
}

// MongoStore keeps services in the services collection, keyed for lookup by
// the lowercased name.
type MongoStore struct {
	coll serviceCollection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	if db == nil {
		panic("catalog: mongo database required")
	}
	return &MongoStore{coll: db.Collection(servicesCollection)}
}

func newMongoStoreWithCollection(coll serviceCollection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureServiceIndexes creates the unique nameKey index.
func EnsureServiceIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := db.Collection(servicesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "nameKey", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("services_name_key"),
	})
	if err != nil {
		return fmt.Errorf("catalog: create mongo indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) ListServices(ctx context.Context) ([]Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("catalog: mongo list: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []serviceDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("catalog: mongo decode: %w", err)
	}
	out := make([]Service, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.service())
	}
	return out, nil
}

func (s *MongoStore) FindServiceByName(ctx context.Context, name string) (*Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc serviceDocument
	err := s.coll.FindOne(ctx, bson.M{"nameKey": NameKey(name)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: mongo find: %w", err)
	}
	svc := doc.service()
	return &svc, nil
}

func (s *MongoStore) CreateService(ctx context.Context, req CreateServiceRequest) (*Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc := serviceDocument{
		ID:              uuid.NewString(),
		Name:            req.Name,
		NameKey:         NameKey(req.Name),
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		CreatedAt:       time.Now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateService
		}
		return nil, fmt.Errorf("catalog: mongo insert: %w", err)
	}
	svc := doc.service()
	return &svc, nil
}

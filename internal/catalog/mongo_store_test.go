package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeServiceCollection struct {
	lastFilter interface{}
	findDoc    interface{}
	findErr    error
	insertErr  error
	listDocs   []interface{}
}

func (f *fakeServiceCollection) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	f.lastFilter = filter
	doc := f.findDoc
	if doc == nil {
		doc = serviceDocument{}
	}
	return mongo.NewSingleResultFromDocument(doc, f.findErr, nil)
}

func (f *fakeServiceCollection) InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	return &mongo.InsertOneResult{}, nil
}

func (f *fakeServiceCollection) Find(context.Context, interface{}, ...*options.FindOptions) (*mongo.Cursor, error) {
	return mongo.NewCursorFromDocuments(f.listDocs, nil, nil)
}

func TestMongoFindServiceByNameUsesNameKey(t *testing.T) {
	coll := &fakeServiceCollection{findDoc: serviceDocument{ID: "s1", Name: "Corte clásico", NameKey: "corte clásico"}}
	store := newMongoStoreWithCollection(coll)

	svc, err := store.FindServiceByName(context.Background(), "  CORTE Clásico ")
	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.Equal(t, "Corte clásico", svc.Name)
	assert.Equal(t, bson.M{"nameKey": "corte clásico"}, coll.lastFilter)

	coll.findErr = mongo.ErrNoDocuments
	svc, err = store.FindServiceByName(context.Background(), "Tinte")
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestMongoCreateServiceDuplicate(t *testing.T) {
	coll := &fakeServiceCollection{insertErr: mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}}
	store := newMongoStoreWithCollection(coll)

	_, err := store.CreateService(context.Background(), CreateServiceRequest{Name: "Corte"})
	assert.ErrorIs(t, err, ErrDuplicateService)
}

func TestMongoListServices(t *testing.T) {
	coll := &fakeServiceCollection{listDocs: []interface{}{
		serviceDocument{ID: "a", Name: "Barba"},
		serviceDocument{ID: "b", Name: "Corte"},
	}}
	store := newMongoStoreWithCollection(coll)

	list, err := store.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Barba", list[0].Name)
}

package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/turnosbot/turnos/internal/bookings"
	"github.com/turnosbot/turnos/internal/catalog"
	appconfig "github.com/turnosbot/turnos/internal/config"
	"github.com/turnosbot/turnos/pkg/logging"
)

// Stores holds the persistence backends selected by STORE_BACKEND.
type Stores struct {
	Backend  string
	Bookings bookings.Store
	Services catalog.Store

	closers []func(context.Context) error
}

// Close releases every connection opened by BuildStores.
func (s *Stores) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// BuildStores connects the configured backend and returns the booking and
// service stores that share it.
func BuildStores(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Stores, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.StoreBackend {
	case appconfig.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: create postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		logger.Info("connected to postgres")
		return &Stores{
			Backend:  appconfig.StorePostgres,
			Bookings: bookings.NewPostgresStore(pool),
			Services: catalog.NewPostgresStore(pool),
			closers: []func(context.Context) error{func(context.Context) error {
				pool.Close()
				return nil
			}},
		}, nil

	case appconfig.StoreMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect mongo: %w", err)
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("bootstrap: ping mongo: %w", err)
		}
		db := client.Database(cfg.MongoDatabase)
		if err := bookings.EnsureBookingIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		if err := catalog.EnsureServiceIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info("connected to mongo", "database", cfg.MongoDatabase)
		return &Stores{
			Backend:  appconfig.StoreMongo,
			Bookings: bookings.NewMongoStore(db),
			Services: catalog.NewMongoStore(db),
			closers:  []func(context.Context) error{client.Disconnect},
		}, nil

	case appconfig.StoreMemory:
		logger.Warn("using in-memory stores; data is lost on restart")
		return &Stores{
			Backend:  appconfig.StoreMemory,
			Bookings: bookings.NewMemoryStore(),
			Services: catalog.NewMemoryStore(),
		}, nil

	default:
		return nil, fmt.Errorf("bootstrap: unknown store backend %q", cfg.StoreBackend)
	}
}

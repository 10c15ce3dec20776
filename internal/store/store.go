package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Options controls connection behaviour.
type Options struct {
	Database    string
	ConnTimeout time.Duration
	Logger      *zap.Logger
}

// Store hides direct access to the underlying Mongo client so higher layers
// can focus on business logic. The service keeps running when the database is
// unreachable; repositories consult Connected before issuing queries.
type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	logger    *zap.Logger
	opts      Options
	connected atomic.Bool
}

// New initializes a Mongo client and validates connectivity with Ping.
// A failed ping is reported but does not prevent construction: the store
// starts disconnected and a later HealthCheck can flip it to connected.
func New(ctx context.Context, uri string, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Database == "" {
		opts.Database = "moviehub"
	}

	connCtx := ctx
	if opts.ConnTimeout > 0 {
		var cancel context.CancelFunc
		connCtx, cancel = context.WithTimeout(ctx, opts.ConnTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(connCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	s := &Store{
		client: client,
		db:     client.Database(opts.Database),
		logger: logger,
		opts:   opts,
	}

	if err := client.Ping(connCtx, readpref.Primary()); err != nil {
		logger.Warn("store: database unreachable, continuing disconnected", zap.Error(err))
		return s, nil
	}

	s.connected.Store(true)
	logger.Info("store: database connection established", zap.String("database", opts.Database))
	return s, nil
}

// Close releases database resources.
func (s *Store) Close(ctx context.Context) {
	if s == nil || s.client == nil {
		return
	}
	s.logger.Info("store: closing client")
	_ = s.client.Disconnect(ctx)
}

// HealthCheck verifies the database is reachable and refreshes the
// connected flag.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store not initialized")
	}
	checkCtx := ctx
	if s.opts.ConnTimeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, s.opts.ConnTimeout)
		defer cancel()
	}
	if err := s.client.Ping(checkCtx, readpref.Primary()); err != nil {
		s.connected.Store(false)
		return err
	}
	s.connected.Store(true)
	return nil
}

// Connected reports whether the last connectivity probe succeeded.
func (s *Store) Connected() bool {
	return s != nil && s.connected.Load()
}

// Database exposes the underlying database handle for repositories.
func (s *Store) Database() *mongo.Database {
	return s.db
}

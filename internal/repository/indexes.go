package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the catalog and account indexes. Failures are
// returned to the caller, which logs and continues: index creation is an
// optimization, not a startup requirement.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	if err := r.Movies.ensureIndexes(ctx); err != nil {
		return err
	}
	return r.Users.ensureIndexes(ctx)
}

func (r *MoviesRepository) ensureIndexes(ctx context.Context) error {
	if !r.store.Connected() {
		return ErrUnavailable
	}
	_, err := r.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}},
		{Keys: bson.D{{Key: "genre", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "rating", Value: -1}}},
		{Keys: bson.D{{Key: "year", Value: -1}}},
		{
			Keys:    bson.D{{Key: "tmdbId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	return err
}

func (r *UsersRepository) ensureIndexes(ctx context.Context) error {
	if !r.store.Connected() {
		return ErrUnavailable
	}
	_, err := r.collection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

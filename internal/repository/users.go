package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/moviehub/moviehub/internal/domain"
	"github.com/moviehub/moviehub/internal/store"
)

// UsersRepository provides persistence helpers for user accounts.
type UsersRepository struct {
	store *store.Store
}

func (r *UsersRepository) collection() *mongo.Collection {
	return r.store.Database().Collection(usersCollection)
}

// Create inserts a new account. Email is lowercased before storage.
func (r *UsersRepository) Create(ctx context.Context, email, passwordHash string) (domain.User, error) {
	if !r.store.Connected() {
		return domain.User{}, ErrUnavailable
	}
	user := domain.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	res, err := r.collection().InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, err
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return user, nil
}

// GetByEmail fetches an account by its lowercased email.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	if !r.store.Connected() {
		return domain.User{}, ErrUnavailable
	}
	var user domain.User
	err := r.collection().FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetByID fetches an account by its hex identifier.
func (r *UsersRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	if !r.store.Connected() {
		return domain.User{}, ErrUnavailable
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.User{}, ErrNotFound
	}
	var user domain.User
	err = r.collection().FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// SetResetToken stores the hashed password-reset token and its expiry.
func (r *UsersRepository) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	if !r.store.Connected() {
		return ErrUnavailable
	}
	res, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"resetTokenHash": tokenHash, "resetTokenExpires": expires}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByResetToken fetches the account holding an unexpired reset token hash.
func (r *UsersRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	if !r.store.Connected() {
		return domain.User{}, ErrUnavailable
	}
	var user domain.User
	err := r.collection().FindOne(ctx, bson.M{
		"resetTokenHash":    tokenHash,
		"resetTokenExpires": bson.M{"$gt": now},
	}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// UpdatePassword replaces the password hash and clears any reset token.
func (r *UsersRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	if !r.store.Connected() {
		return ErrUnavailable
	}
	res, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set":   bson.M{"passwordHash": passwordHash},
			"$unset": bson.M{"resetTokenHash": "", "resetTokenExpires": ""},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddFavorite adds a movie to the user's favorites set.
func (r *UsersRepository) AddFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error {
	if !r.store.Connected() {
		return ErrUnavailable
	}
	res, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"favorites": movieID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveFavorite removes a movie from the user's favorites set.
func (r *UsersRepository) RemoveFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error {
	if !r.store.Connected() {
		return ErrUnavailable
	}
	_, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"favorites": movieID}})
	return err
}

// PushHistory records a catalog visit at the head of the user's watch
// history, deduplicating by movie and keeping at most MaxWatchHistory
// entries. Read-modify-write, matching the original behaviour.
func (r *UsersRepository) PushHistory(ctx context.Context, userID, movieID primitive.ObjectID, at time.Time) (int, error) {
	if !r.store.Connected() {
		return 0, ErrUnavailable
	}
	user, err := r.GetByID(ctx, userID.Hex())
	if err != nil {
		return 0, err
	}

	history := make([]domain.WatchHistoryEntry, 0, len(user.WatchHistory)+1)
	history = append(history, domain.WatchHistoryEntry{Movie: movieID, WatchedAt: at})
	for _, entry := range user.WatchHistory {
		if entry.Movie == movieID {
			continue
		}
		history = append(history, entry)
	}
	if len(history) > domain.MaxWatchHistory {
		history = history[:domain.MaxWatchHistory]
	}

	_, err = r.collection().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"watchHistory": history}})
	if err != nil {
		return 0, err
	}
	return len(history), nil
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxWatchHistory bounds the per-user history list.
const MaxWatchHistory = 20

// WatchHistoryEntry records one catalog visit.
type WatchHistoryEntry struct {
	Movie     primitive.ObjectID `bson:"movie" json:"movie"`
	WatchedAt time.Time          `bson:"watchedAt" json:"watchedAt"`
}

// User is a registered account. Email is stored lowercased and unique.
type User struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Email             string               `bson:"email" json:"email"`
	PasswordHash      string               `bson:"passwordHash" json:"-"`
	Favorites         []primitive.ObjectID `bson:"favorites,omitempty" json:"favorites,omitempty"`
	WatchHistory      []WatchHistoryEntry  `bson:"watchHistory,omitempty" json:"watchHistory,omitempty"`
	ResetTokenHash    string               `bson:"resetTokenHash,omitempty" json:"-"`
	ResetTokenExpires time.Time            `bson:"resetTokenExpires,omitempty" json:"-"`
	CreatedAt         time.Time            `bson:"createdAt" json:"createdAt"`
}

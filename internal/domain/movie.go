package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Watch provider availability types as delivered by TMDB.
const (
	ProviderFlatrate = "flatrate"
	ProviderRent     = "rent"
	ProviderBuy      = "buy"
	ProviderAds      = "ads"
	ProviderFree     = "free"
)

// WatchProvider describes one streaming/rental source for a movie.
type WatchProvider struct {
	ProviderID int    `bson:"providerId" json:"providerId"`
	Name       string `bson:"name" json:"name"`
	LogoURL    string `bson:"logoUrl,omitempty" json:"logoUrl,omitempty"`
	Type       string `bson:"type" json:"type"`
}

// Movie is the canonical catalog entity.
type Movie struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Year           int                `bson:"year,omitempty" json:"year,omitempty"`
	Genre          []string           `bson:"genre,omitempty" json:"genre,omitempty"`
	Duration       string             `bson:"duration,omitempty" json:"duration,omitempty"`
	Director       string             `bson:"director,omitempty" json:"director,omitempty"`
	Cast           []string           `bson:"cast,omitempty" json:"cast,omitempty"`
	Poster         string             `bson:"poster,omitempty" json:"poster,omitempty"`
	Backdrop       string             `bson:"backdrop,omitempty" json:"backdrop,omitempty"`
	Rating         float64            `bson:"rating,omitempty" json:"rating,omitempty"`
	Views          int64              `bson:"views" json:"views"`
	Featured       bool               `bson:"featured" json:"featured"`
	Trending       bool               `bson:"trending" json:"trending"`
	TMDBID         int64              `bson:"tmdbId,omitempty" json:"tmdbId,omitempty"`
	TrailerURL     string             `bson:"trailerUrl,omitempty" json:"trailerUrl,omitempty"`
	TrailerKey     string             `bson:"trailerKey,omitempty" json:"trailerKey,omitempty"`
	WatchProviders []WatchProvider    `bson:"watchProviders,omitempty" json:"watchProviders,omitempty"`
	WatchLink      string             `bson:"watchLink,omitempty" json:"watchLink,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// MovieSuggestion is the trimmed projection served by the search
// suggestion endpoint.
type MovieSuggestion struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Title  string             `bson:"title" json:"title"`
	Year   int                `bson:"year,omitempty" json:"year,omitempty"`
	Poster string             `bson:"poster,omitempty" json:"poster,omitempty"`
}

// GenreCount is one row of the genre aggregation.
type GenreCount struct {
	Name  string `bson:"_id" json:"name"`
	Count int64  `bson:"count" json:"count"`
}

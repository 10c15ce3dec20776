package httpserver

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/moviehub/moviehub/internal/domain"
	"github.com/moviehub/moviehub/internal/repository"
)

// The handler layer consumes narrow slices of the catalog service and the
// repositories so tests can substitute in-memory stubs.

type catalogService interface {
	List(ctx context.Context, filters repository.MovieListFilters) (repository.MovieListResult, error)
	Featured(ctx context.Context) ([]domain.Movie, error)
	Trending(ctx context.Context) ([]domain.Movie, error)
	Genres(ctx context.Context, min int, sortMode string) ([]domain.GenreCount, error)
	Suggestions(ctx context.Context, q string) ([]domain.MovieSuggestion, error)
	Get(ctx context.Context, id string) (domain.Movie, error)
}

type movieAdminStore interface {
	GetByID(ctx context.Context, id string) (domain.Movie, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Movie, error)
	AdminList(ctx context.Context) ([]domain.Movie, error)
	Create(ctx context.Context, movie domain.Movie) (domain.Movie, error)
	Update(ctx context.Context, id string, params repository.MovieUpdateParams) (domain.Movie, error)
	Delete(ctx context.Context, id string) error
}

type userStore interface {
	Create(ctx context.Context, email, passwordHash string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	AddFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error
	RemoveFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error
	PushHistory(ctx context.Context, userID, movieID primitive.ObjectID, at time.Time) (int, error)
}

type contactStore interface {
	Create(ctx context.Context, msg domain.ContactMessage) (domain.ContactMessage, error)
	CountRecentByIP(ctx context.Context, ip string, since time.Time) (int64, error)
	List(ctx context.Context, filters repository.ContactListFilters) (repository.ContactListResult, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, now time.Time) (repository.ContactStats, error)
	Export(ctx context.Context, filters repository.ContactListFilters, fn func(domain.ContactMessage) error) error
}

// Package catalog answers movie read requests through the advisory cache:
// filtered/paginated listing, featured and trending subsets, search
// suggestions, genre aggregation, and detail fetches.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moviehub/moviehub/internal/cache"
	"github.com/moviehub/moviehub/internal/domain"
	"github.com/moviehub/moviehub/internal/repository"
)

// Cache TTLs. Lists churn quickly; flagged subsets and genre stats are
// near-static.
const (
	listTTL    = 60 * time.Second
	flaggedTTL = 5 * time.Minute
	genresTTL  = 5 * time.Minute
)

// MovieStore is the slice of the movies repository the catalog consumes.
type MovieStore interface {
	List(ctx context.Context, filters repository.MovieListFilters) (repository.MovieListResult, error)
	ListFeatured(ctx context.Context) ([]domain.Movie, error)
	ListTrending(ctx context.Context) ([]domain.Movie, error)
	Suggestions(ctx context.Context, q string) ([]domain.MovieSuggestion, error)
	GenreCounts(ctx context.Context, min int, sortMode string) ([]domain.GenreCount, error)
	GetAndIncrementViews(ctx context.Context, id string) (domain.Movie, error)
}

// Service is the catalog query service. An unavailable store yields empty
// list payloads rather than errors; detail lookups surface
// repository.ErrNotFound.
type Service struct {
	store  MovieStore
	cache  cache.Cache
	logger *zap.Logger
}

// New constructs the service.
func New(store MovieStore, c cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = cache.NewMemory()
	}
	return &Service{store: store, cache: c, logger: logger}
}

// List returns the filtered, sorted, paginated catalog slice, serving from
// cache when a live entry exists.
func (s *Service) List(ctx context.Context, filters repository.MovieListFilters) (repository.MovieListResult, error) {
	filters.Normalize()
	key := listKey(filters)

	var cached repository.MovieListResult
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	result, err := s.store.List(ctx, filters)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			s.logger.Warn("catalog: store unavailable, serving empty list")
			return repository.MovieListResult{
				Items: []domain.Movie{},
				Page:  filters.Page,
				Limit: filters.Limit,
			}, nil
		}
		return repository.MovieListResult{}, err
	}

	s.cache.Set(ctx, key, result, listTTL)
	return result, nil
}

// Featured returns the featured subset (at most ten movies).
func (s *Service) Featured(ctx context.Context) ([]domain.Movie, error) {
	return s.flagged(ctx, "featured", s.store.ListFeatured)
}

// Trending returns the trending subset (at most ten movies).
func (s *Service) Trending(ctx context.Context) ([]domain.Movie, error) {
	return s.flagged(ctx, "trending", s.store.ListTrending)
}

func (s *Service) flagged(ctx context.Context, key string, fetch func(context.Context) ([]domain.Movie, error)) ([]domain.Movie, error) {
	var cached []domain.Movie
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	items, err := fetch(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			s.logger.Warn("catalog: store unavailable, serving empty list", zap.String("subset", key))
			return []domain.Movie{}, nil
		}
		return nil, err
	}

	s.cache.Set(ctx, key, items, flaggedTTL)
	return items, nil
}

// Genres returns genre tags with occurrence counts, filtered by a minimum
// threshold and ordered by the requested mode ("alpha" or "count").
func (s *Service) Genres(ctx context.Context, min int, sortMode string) ([]domain.GenreCount, error) {
	if min < 1 {
		min = 1
	}
	sortMode = strings.ToLower(strings.TrimSpace(sortMode))
	if sortMode != "alpha" {
		sortMode = "count"
	}
	key := genresKey(min, sortMode)

	var cached []domain.GenreCount
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	counts, err := s.store.GenreCounts(ctx, min, sortMode)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			return []domain.GenreCount{}, nil
		}
		return nil, err
	}

	s.cache.Set(ctx, key, counts, genresTTL)
	return counts, nil
}

// Suggestions returns the trimmed title-match projection for the search box.
// An empty query yields an empty list without touching the store.
func (s *Service) Suggestions(ctx context.Context, q string) ([]domain.MovieSuggestion, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.MovieSuggestion{}, nil
	}
	items, err := s.store.Suggestions(ctx, q)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			return []domain.MovieSuggestion{}, nil
		}
		return nil, err
	}
	return items, nil
}

// Get fetches a movie by id, incrementing its view counter. Never cached:
// every fetch must count.
func (s *Service) Get(ctx context.Context, id string) (domain.Movie, error) {
	return s.store.GetAndIncrementViews(ctx, id)
}

// Command seed populates the movie catalog from TMDB. It walks the popular,
// top-rated, and trending lists, enriches each movie with details, videos,
// and watch providers, and upserts by TMDB id so reruns refresh instead of
// duplicating.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/moviehub/moviehub/internal/config"
	"github.com/moviehub/moviehub/internal/domain"
	"github.com/moviehub/moviehub/internal/repository"
	"github.com/moviehub/moviehub/internal/store"
	"github.com/moviehub/moviehub/internal/tmdb"
)

const (
	requestDelay   = 500 * time.Millisecond
	providerRegion = "US"
)

func main() {
	pages := flag.Int("pages", 2, "pages to fetch from each TMDB list")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request TMDB timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.TMDBAPIKey == "" {
		log.Fatal("TMDB_API_KEY is required for seeding")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.New(ctx, cfg.MongoURI, store.Options{
		Database:    cfg.MongoDatabase,
		ConnTimeout: time.Duration(cfg.MongoTimeoutSecs) * time.Second,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("init store", zap.Error(err))
	}
	if !st.Connected() {
		logger.Fatal("database unreachable, cannot seed")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		st.Close(closeCtx)
	}()

	repo := repository.New(st)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warn("ensure indexes failed", zap.Error(err))
	}

	client, err := tmdb.NewClient(cfg.TMDBBaseURL, cfg.TMDBAPIKey, *timeout, logger)
	if err != nil {
		logger.Fatal("init tmdb client", zap.Error(err))
	}

	if err := run(ctx, client, repo, logger, *pages); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("seeding interrupted")
			return
		}
		logger.Fatal("seeding failed", zap.Error(err))
	}
}

func run(ctx context.Context, client *tmdb.Client, repo *repository.Repository, logger *zap.Logger, pages int) error {
	genres, err := client.Genres(ctx)
	if err != nil {
		return err
	}

	type listPage func(context.Context, int) ([]tmdb.ListedMovie, error)
	lists := []struct {
		name  string
		fetch listPage
	}{
		{"popular", client.Popular},
		{"top_rated", client.TopRated},
		{"trending", client.Trending},
	}

	seen := make(map[int64]struct{})
	var stored, skipped int

	for _, list := range lists {
		for page := 1; page <= pages; page++ {
			movies, err := list.fetch(ctx, page)
			if err != nil {
				return err
			}
			for _, listed := range movies {
				if err := ctx.Err(); err != nil {
					return err
				}
				if _, ok := seen[listed.ID]; ok {
					continue
				}
				seen[listed.ID] = struct{}{}

				movie, err := enrich(ctx, client, genres, listed)
				if err != nil {
					logger.Warn("skipping movie",
						zap.Int64("tmdbId", listed.ID),
						zap.String("title", listed.Title),
						zap.Error(err))
					skipped++
					continue
				}
				if err := repo.Movies.UpsertByTMDBID(ctx, movie); err != nil {
					return err
				}
				stored++
				time.Sleep(requestDelay)
			}
		}
	}

	logger.Info("seeding complete", zap.Int("stored", stored), zap.Int("skipped", skipped))
	return nil
}

// enrich fetches the per-movie payloads and maps them onto the catalog
// entity. Missing videos or providers degrade to empty values; a failed
// details fetch fails the movie.
func enrich(ctx context.Context, client *tmdb.Client, genres []tmdb.Genre, listed tmdb.ListedMovie) (domain.Movie, error) {
	details, err := client.Details(ctx, listed.ID)
	if err != nil {
		return domain.Movie{}, err
	}

	videos, err := client.Videos(ctx, listed.ID)
	if err != nil && !errors.Is(err, tmdb.ErrNotFound) {
		return domain.Movie{}, err
	}

	providers, err := client.WatchProviders(ctx, listed.ID, providerRegion)
	if err != nil && !errors.Is(err, tmdb.ErrNotFound) {
		return domain.Movie{}, err
	}

	return tmdb.Transform(listed, genres, details, videos, providers), nil
}

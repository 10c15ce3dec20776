package repository

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/moviehub/moviehub/internal/domain"
	"github.com/moviehub/moviehub/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	flaggedListCap  = 10
	suggestionCap   = 10
)

// MoviesRepository provides persistence helpers for movie documents.
type MoviesRepository struct {
	store *store.Store
}

// MovieListFilters encapsulates search, sort, and pagination options.
type MovieListFilters struct {
	Genre  *string
	Year   *int
	Search *string
	Sort   string
	Limit  int
	Page   int
}

// MovieListResult returns the paginated payload.
type MovieListResult struct {
	Items []domain.Movie `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// MovieUpdateParams bundles the optional fields an admin update may touch.
// Nil pointers leave the stored value untouched.
type MovieUpdateParams struct {
	Title          *string
	Description    *string
	Year           *int
	Genre          []string
	Duration       *string
	Director       *string
	Cast           []string
	Poster         *string
	Backdrop       *string
	Rating         *float64
	Featured       *bool
	Trending       *bool
	TrailerURL     *string
	TrailerKey     *string
	WatchProviders []domain.WatchProvider
	WatchLink      *string
}

func (r *MoviesRepository) collection() *mongo.Collection {
	return r.store.Database().Collection(moviesCollection)
}

// Normalize clamps pagination values to sane bounds. The original service
// passed caller-supplied values straight through; capping here is a deliberate
// deviation.
func (f *MovieListFilters) Normalize() {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	} else if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Page < 1 {
		f.Page = 1
	}
}

func (f MovieListFilters) query() bson.M {
	query := bson.M{}
	if f.Genre != nil && strings.TrimSpace(*f.Genre) != "" {
		query["genre"] = strings.TrimSpace(*f.Genre)
	}
	if f.Year != nil {
		query["year"] = *f.Year
	}
	if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
		query["title"] = bson.M{
			"$regex":   regexp.QuoteMeta(strings.TrimSpace(*f.Search)),
			"$options": "i",
		}
	}
	return query
}

func sortSpec(mode string) bson.D {
	switch mode {
	case "newest":
		return bson.D{{Key: "createdAt", Value: -1}}
	case "popular":
		return bson.D{{Key: "views", Value: -1}}
	case "rating":
		return bson.D{{Key: "rating", Value: -1}}
	case "year":
		return bson.D{{Key: "year", Value: -1}}
	default:
		return bson.D{{Key: "title", Value: 1}}
	}
}

// List returns movies matching the provided filters along with the total
// count. Count and find are issued concurrently.
func (r *MoviesRepository) List(ctx context.Context, filters MovieListFilters) (MovieListResult, error) {
	if !r.store.Connected() {
		return MovieListResult{}, ErrUnavailable
	}
	filters.Normalize()

	query := filters.query()
	skip := int64((filters.Page - 1) * filters.Limit)
	limit := int64(filters.Limit)

	var (
		items []domain.Movie
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cursor, err := r.collection().Find(gctx, query, options.Find().
			SetSort(sortSpec(filters.Sort)).
			SetLimit(limit).
			SetSkip(skip))
		if err != nil {
			return err
		}
		return cursor.All(gctx, &items)
	})
	g.Go(func() error {
		count, err := r.collection().CountDocuments(gctx, query)
		if err != nil {
			return err
		}
		total = count
		return nil
	})
	if err := g.Wait(); err != nil {
		return MovieListResult{}, err
	}

	if items == nil {
		items = []domain.Movie{}
	}
	return MovieListResult{
		Items: items,
		Total: total,
		Page:  filters.Page,
		Limit: filters.Limit,
	}, nil
}

// ListFeatured returns up to ten movies flagged as featured.
func (r *MoviesRepository) ListFeatured(ctx context.Context) ([]domain.Movie, error) {
	return r.listFlagged(ctx, "featured")
}

// ListTrending returns up to ten movies flagged as trending.
func (r *MoviesRepository) ListTrending(ctx context.Context) ([]domain.Movie, error) {
	return r.listFlagged(ctx, "trending")
}

func (r *MoviesRepository) listFlagged(ctx context.Context, field string) ([]domain.Movie, error) {
	if !r.store.Connected() {
		return nil, ErrUnavailable
	}
	cursor, err := r.collection().Find(ctx, bson.M{field: true}, options.Find().SetLimit(flaggedListCap))
	if err != nil {
		return nil, err
	}
	var items []domain.Movie
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Movie{}
	}
	return items, nil
}

// Suggestions returns a trimmed projection of movies whose title contains
// the query, capped at ten entries.
func (r *MoviesRepository) Suggestions(ctx context.Context, q string) ([]domain.MovieSuggestion, error) {
	if !r.store.Connected() {
		return nil, ErrUnavailable
	}
	filter := bson.M{"title": bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}}
	cursor, err := r.collection().Find(ctx, filter, options.Find().
		SetLimit(suggestionCap).
		SetProjection(bson.M{"title": 1, "year": 1, "poster": 1}))
	if err != nil {
		return nil, err
	}
	var items []domain.MovieSuggestion
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.MovieSuggestion{}
	}
	return items, nil
}

// GenreCounts flattens genre tags across the collection and groups them with
// occurrence counts. Non-string entries are excluded. sortMode "alpha" orders
// by name ascending; anything else orders by count descending with an
// alphabetical tie-break.
func (r *MoviesRepository) GenreCounts(ctx context.Context, min int, sortMode string) ([]domain.GenreCount, error) {
	if !r.store.Connected() {
		return nil, ErrUnavailable
	}

	sortStage := bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}
	if sortMode == "alpha" {
		sortStage = bson.D{{Key: "_id", Value: 1}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$genre"}},
		{{Key: "$match", Value: bson.M{"genre": bson.M{"$type": "string"}}}},
		{{Key: "$group", Value: bson.M{"_id": "$genre", "count": bson.M{"$sum": 1}}}},
		{{Key: "$match", Value: bson.M{"count": bson.M{"$gte": min}}}},
		{{Key: "$sort", Value: sortStage}},
	}

	cursor, err := r.collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var counts []domain.GenreCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []domain.GenreCount{}
	}
	return counts, nil
}

// GetByID fetches a movie by its hex identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id string) (domain.Movie, error) {
	if !r.store.Connected() {
		return domain.Movie{}, ErrUnavailable
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Movie{}, ErrNotFound
	}
	var movie domain.Movie
	err = r.collection().FindOne(ctx, bson.M{"_id": oid}).Decode(&movie)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// GetAndIncrementViews fetches a movie and bumps its view counter in a
// single atomic operation, returning the updated document.
func (r *MoviesRepository) GetAndIncrementViews(ctx context.Context, id string) (domain.Movie, error) {
	if !r.store.Connected() {
		return domain.Movie{}, ErrUnavailable
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Movie{}, ErrNotFound
	}
	var movie domain.Movie
	err = r.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&movie)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// ListByIDs fetches the movies for the given identifiers. Missing ids are
// silently skipped; order follows the input.
func (r *MoviesRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Movie, error) {
	if !r.store.Connected() {
		return nil, ErrUnavailable
	}
	if len(ids) == 0 {
		return []domain.Movie{}, nil
	}
	cursor, err := r.collection().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var found []domain.Movie
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]domain.Movie, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}
	ordered := make([]domain.Movie, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			ordered = append(ordered, m)
		}
	}
	return ordered, nil
}

// Create inserts a new movie document and returns the stored entity.
func (r *MoviesRepository) Create(ctx context.Context, movie domain.Movie) (domain.Movie, error) {
	if !r.store.Connected() {
		return domain.Movie{}, ErrUnavailable
	}
	if movie.CreatedAt.IsZero() {
		movie.CreatedAt = time.Now().UTC()
	}
	res, err := r.collection().InsertOne(ctx, movie)
	if err != nil {
		return domain.Movie{}, err
	}
	movie.ID = res.InsertedID.(primitive.ObjectID)
	return movie, nil
}

// Update applies the non-nil fields of params to a movie and returns the
// updated document.
func (r *MoviesRepository) Update(ctx context.Context, id string, params MovieUpdateParams) (domain.Movie, error) {
	if !r.store.Connected() {
		return domain.Movie{}, ErrUnavailable
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Movie{}, ErrNotFound
	}

	set := bson.M{}
	setString := func(field string, val *string) {
		if val != nil {
			set[field] = *val
		}
	}
	setString("title", params.Title)
	setString("description", params.Description)
	setString("duration", params.Duration)
	setString("director", params.Director)
	setString("poster", params.Poster)
	setString("backdrop", params.Backdrop)
	setString("trailerUrl", params.TrailerURL)
	setString("trailerKey", params.TrailerKey)
	setString("watchLink", params.WatchLink)
	if params.Year != nil {
		set["year"] = *params.Year
	}
	if params.Genre != nil {
		set["genre"] = params.Genre
	}
	if params.Cast != nil {
		set["cast"] = params.Cast
	}
	if params.Rating != nil {
		set["rating"] = *params.Rating
	}
	if params.Featured != nil {
		set["featured"] = *params.Featured
	}
	if params.Trending != nil {
		set["trending"] = *params.Trending
	}
	if params.WatchProviders != nil {
		set["watchProviders"] = params.WatchProviders
	}

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	var movie domain.Movie
	err = r.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&movie)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// Delete removes a movie document.
func (r *MoviesRepository) Delete(ctx context.Context, id string) error {
	if !r.store.Connected() {
		return ErrUnavailable
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.collection().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AdminList returns the full catalog, newest first, for the admin console.
func (r *MoviesRepository) AdminList(ctx context.Context) ([]domain.Movie, error) {
	if !r.store.Connected() {
		return nil, ErrUnavailable
	}
	cursor, err := r.collection().Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var items []domain.Movie
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Movie{}
	}
	return items, nil
}

// UpsertByTMDBID inserts a movie or refreshes the existing document sharing
// its external catalog id. Used by the seeding command.
func (r *MoviesRepository) UpsertByTMDBID(ctx context.Context, movie domain.Movie) error {
	if !r.store.Connected() {
		return ErrUnavailable
	}
	if movie.CreatedAt.IsZero() {
		movie.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection().UpdateOne(ctx,
		bson.M{"tmdbId": movie.TMDBID},
		bson.M{
			"$set": bson.M{
				"title":          movie.Title,
				"description":    movie.Description,
				"year":           movie.Year,
				"genre":          movie.Genre,
				"duration":       movie.Duration,
				"director":       movie.Director,
				"cast":           movie.Cast,
				"poster":         movie.Poster,
				"backdrop":       movie.Backdrop,
				"rating":         movie.Rating,
				"featured":       movie.Featured,
				"trending":       movie.Trending,
				"trailerUrl":     movie.TrailerURL,
				"trailerKey":     movie.TrailerKey,
				"watchProviders": movie.WatchProviders,
				"watchLink":      movie.WatchLink,
			},
			"$setOnInsert": bson.M{
				"views":     int64(0),
				"createdAt": movie.CreatedAt,
			},
		},
		options.Update().SetUpsert(true))
	return err
}

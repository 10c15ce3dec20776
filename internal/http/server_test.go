package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/moviehub/moviehub/internal/auth"
	"github.com/moviehub/moviehub/internal/config"
	"github.com/moviehub/moviehub/internal/domain"
	"github.com/moviehub/moviehub/internal/mailer"
	"github.com/moviehub/moviehub/internal/ratelimit"
	"github.com/moviehub/moviehub/internal/repository"
)

func newTestServer(tb testing.TB, mods ...func(*Server)) *Server {
	tb.Helper()
	s := &Server{
		cfg: config.Config{
			Port:       "0",
			UploadsDir: tb.TempDir(),
			AppURL:     "http://localhost:5000",
			AdminUser:  "admin",
			AdminPass:  "hunter22",
		},
		tokens:   auth.NewTokens("user-secret", "admin-secret"),
		mail:     mailer.NewLog(zap.NewNop()),
		limiter:  ratelimit.New(10000, time.Minute),
		loginLim: ratelimit.New(10, 15*time.Minute),
		validate: validator.New(),
		logger:   zap.NewNop(),
	}
	for _, mod := range mods {
		mod(s)
	}
	s.router = s.buildRouter()
	return s
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// fakeMailer records deliveries for assertions.
type fakeMailer struct {
	sent []sentMail
}

type sentMail struct {
	From    string
	To      string
	Subject string
	Body    string
}

func (f *fakeMailer) Send(from, to, subject, body string) error {
	f.sent = append(f.sent, sentMail{From: from, To: to, Subject: subject, Body: body})
	return nil
}

// fakeCatalog answers from fixed payloads.
type fakeCatalog struct {
	listResult repository.MovieListResult
	listErr    error
	featured   []domain.Movie
	genres     []domain.GenreCount
	detail     domain.Movie
	detailErr  error

	lastFilters repository.MovieListFilters
}

func (f *fakeCatalog) List(ctx context.Context, filters repository.MovieListFilters) (repository.MovieListResult, error) {
	f.lastFilters = filters
	return f.listResult, f.listErr
}

func (f *fakeCatalog) Featured(ctx context.Context) ([]domain.Movie, error) {
	return f.featured, nil
}

func (f *fakeCatalog) Trending(ctx context.Context) ([]domain.Movie, error) {
	return f.featured, nil
}

func (f *fakeCatalog) Genres(ctx context.Context, min int, sortMode string) ([]domain.GenreCount, error) {
	return f.genres, nil
}

func (f *fakeCatalog) Suggestions(ctx context.Context, q string) ([]domain.MovieSuggestion, error) {
	if q == "" {
		return []domain.MovieSuggestion{}, nil
	}
	return []domain.MovieSuggestion{{Title: "Inception"}}, nil
}

func (f *fakeCatalog) Get(ctx context.Context, id string) (domain.Movie, error) {
	return f.detail, f.detailErr
}

// fakeMovies backs the user and admin handlers with an in-memory map.
type fakeMovies struct {
	byID map[primitive.ObjectID]domain.Movie
	err  error
}

func newFakeMovies(movies ...domain.Movie) *fakeMovies {
	f := &fakeMovies{byID: make(map[primitive.ObjectID]domain.Movie)}
	for _, m := range movies {
		f.byID[m.ID] = m
	}
	return f
}

func (f *fakeMovies) GetByID(ctx context.Context, id string) (domain.Movie, error) {
	if f.err != nil {
		return domain.Movie{}, f.err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Movie{}, repository.ErrNotFound
	}
	movie, ok := f.byID[oid]
	if !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	return movie, nil
}

func (f *fakeMovies) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Movie, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Movie, 0, len(ids))
	for _, id := range ids {
		if m, ok := f.byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovies) AdminList(ctx context.Context) ([]domain.Movie, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Movie, 0, len(f.byID))
	for _, m := range f.byID {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMovies) Create(ctx context.Context, movie domain.Movie) (domain.Movie, error) {
	if f.err != nil {
		return domain.Movie{}, f.err
	}
	movie.ID = primitive.NewObjectID()
	movie.CreatedAt = time.Now()
	f.byID[movie.ID] = movie
	return movie, nil
}

func (f *fakeMovies) Update(ctx context.Context, id string, params repository.MovieUpdateParams) (domain.Movie, error) {
	if f.err != nil {
		return domain.Movie{}, f.err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Movie{}, repository.ErrNotFound
	}
	movie, ok := f.byID[oid]
	if !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	if params.Title != nil {
		movie.Title = *params.Title
	}
	if params.Rating != nil {
		movie.Rating = *params.Rating
	}
	if params.Poster != nil {
		movie.Poster = *params.Poster
	}
	f.byID[oid] = movie
	return movie, nil
}

func (f *fakeMovies) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	if _, ok := f.byID[oid]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, oid)
	return nil
}

// fakeUsers is an in-memory account store keyed by lowercase email.
type fakeUsers struct {
	byEmail map[string]domain.User
	err     error
}

func newFakeUsers(users ...domain.User) *fakeUsers {
	f := &fakeUsers{byEmail: make(map[string]domain.User)}
	for _, u := range users {
		f.byEmail[u.Email] = u
	}
	return f
}

func (f *fakeUsers) Create(ctx context.Context, email, passwordHash string) (domain.User, error) {
	if f.err != nil {
		return domain.User{}, f.err
	}
	if _, ok := f.byEmail[email]; ok {
		return domain.User{}, repository.ErrDuplicateEmail
	}
	user := domain.User{ID: primitive.NewObjectID(), Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	f.byEmail[email] = user
	return user, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	if f.err != nil {
		return domain.User{}, f.err
	}
	user, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (domain.User, error) {
	if f.err != nil {
		return domain.User{}, f.err
	}
	for _, u := range f.byEmail {
		if u.ID.Hex() == id {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func (f *fakeUsers) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	for email, u := range f.byEmail {
		if u.ID == id {
			u.ResetTokenHash = tokenHash
			u.ResetTokenExpires = expires
			f.byEmail[email] = u
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeUsers) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	for _, u := range f.byEmail {
		if u.ResetTokenHash == tokenHash && u.ResetTokenExpires.After(now) {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	for email, u := range f.byEmail {
		if u.ID == id {
			u.PasswordHash = passwordHash
			u.ResetTokenHash = ""
			f.byEmail[email] = u
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeUsers) AddFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error {
	for email, u := range f.byEmail {
		if u.ID != userID {
			continue
		}
		for _, fav := range u.Favorites {
			if fav == movieID {
				return nil
			}
		}
		u.Favorites = append(u.Favorites, movieID)
		f.byEmail[email] = u
		return nil
	}
	return repository.ErrNotFound
}

func (f *fakeUsers) RemoveFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error {
	for email, u := range f.byEmail {
		if u.ID != userID {
			continue
		}
		kept := u.Favorites[:0]
		for _, fav := range u.Favorites {
			if fav != movieID {
				kept = append(kept, fav)
			}
		}
		u.Favorites = kept
		f.byEmail[email] = u
		return nil
	}
	return repository.ErrNotFound
}

func (f *fakeUsers) PushHistory(ctx context.Context, userID, movieID primitive.ObjectID, at time.Time) (int, error) {
	for email, u := range f.byEmail {
		if u.ID != userID {
			continue
		}
		entries := []domain.WatchHistoryEntry{{Movie: movieID, WatchedAt: at}}
		for _, e := range u.WatchHistory {
			if e.Movie != movieID {
				entries = append(entries, e)
			}
		}
		if len(entries) > domain.MaxWatchHistory {
			entries = entries[:domain.MaxWatchHistory]
		}
		u.WatchHistory = entries
		f.byEmail[email] = u
		return len(entries), nil
	}
	return 0, repository.ErrNotFound
}

// fakeContacts records submissions and a per-IP count.
type fakeContacts struct {
	messages []domain.ContactMessage
	recent   int64
	err      error
}

func (f *fakeContacts) Create(ctx context.Context, msg domain.ContactMessage) (domain.ContactMessage, error) {
	if f.err != nil {
		return domain.ContactMessage{}, f.err
	}
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeContacts) CountRecentByIP(ctx context.Context, ip string, since time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.recent, nil
}

func (f *fakeContacts) List(ctx context.Context, filters repository.ContactListFilters) (repository.ContactListResult, error) {
	if f.err != nil {
		return repository.ContactListResult{}, f.err
	}
	return repository.ContactListResult{Items: f.messages, Total: int64(len(f.messages)), Page: 1, Limit: 20}, nil
}

func (f *fakeContacts) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	for i, msg := range f.messages {
		if msg.ID.Hex() == id {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeContacts) Stats(ctx context.Context, now time.Time) (repository.ContactStats, error) {
	if f.err != nil {
		return repository.ContactStats{}, f.err
	}
	return repository.ContactStats{Total: int64(len(f.messages))}, nil
}

func (f *fakeContacts) Export(ctx context.Context, filters repository.ContactListFilters, fn func(domain.ContactMessage) error) error {
	if f.err != nil {
		return f.err
	}
	for _, msg := range f.messages {
		if err := fn(msg); err != nil {
			return err
		}
	}
	return nil
}

func TestHealthzWithoutStore(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestAPIInfo(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestGlobalRateLimit(t *testing.T) {
	s := newTestServer(t, func(s *Server) {
		s.limiter = ratelimit.New(2, time.Minute)
		s.catalog = &fakeCatalog{}
	})

	for i := 0; i < 2; i++ {
		rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/movies/featured", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/movies/featured", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/moviehub/moviehub/internal/domain"
)

func userRequest(t *testing.T, s *Server, user domain.User, method, target string) *http.Request {
	t.Helper()
	token, err := s.tokens.IssueUser(user.ID.Hex(), user.Email)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestMe(t *testing.T) {
	movieID := primitive.NewObjectID()
	user := domain.User{
		ID:        primitive.NewObjectID(),
		Email:     "user@example.com",
		Favorites: []primitive.ObjectID{movieID},
	}
	s := newTestServer(t, func(s *Server) { s.users = newFakeUsers(user) })

	rec := doRequest(s, userRequest(t, s, user, http.MethodGet, "/api/user/me"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var resp profileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Email != user.Email || resp.FavoritesCount != 1 || resp.HistoryCount != 0 {
		t.Fatalf("unexpected profile: %+v", resp)
	}
}

func TestFavoritesRoundTrip(t *testing.T) {
	movie := domain.Movie{ID: primitive.NewObjectID(), Title: "Inception"}
	user := domain.User{ID: primitive.NewObjectID(), Email: "user@example.com"}
	users := newFakeUsers(user)
	s := newTestServer(t, func(s *Server) {
		s.users = users
		s.movies = newFakeMovies(movie)
	})

	// Add twice; the store dedupes.
	for i := 0; i < 2; i++ {
		rec := doRequest(s, userRequest(t, s, user, http.MethodPost, "/api/user/favorites/"+movie.ID.Hex()))
		if rec.Code != http.StatusOK {
			t.Fatalf("add favorite: status = %d (body %s)", rec.Code, rec.Body.String())
		}
	}
	if got := len(users.byEmail[user.Email].Favorites); got != 1 {
		t.Fatalf("favorites count = %d, want 1", got)
	}

	rec := doRequest(s, userRequest(t, s, user, http.MethodGet, "/api/user/favorites"))
	if rec.Code != http.StatusOK {
		t.Fatalf("list favorites: status = %d", rec.Code)
	}
	var movies []domain.Movie
	if err := json.Unmarshal(rec.Body.Bytes(), &movies); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(movies) != 1 || movies[0].Title != "Inception" {
		t.Fatalf("unexpected favorites: %+v", movies)
	}

	rec = doRequest(s, userRequest(t, s, user, http.MethodDelete, "/api/user/favorites/"+movie.ID.Hex()))
	if rec.Code != http.StatusOK {
		t.Fatalf("remove favorite: status = %d", rec.Code)
	}
	if got := len(users.byEmail[user.Email].Favorites); got != 0 {
		t.Fatalf("favorites count after removal = %d, want 0", got)
	}
}

func TestAddFavoriteUnknownMovie(t *testing.T) {
	user := domain.User{ID: primitive.NewObjectID(), Email: "user@example.com"}
	s := newTestServer(t, func(s *Server) {
		s.users = newFakeUsers(user)
		s.movies = newFakeMovies()
	})

	rec := doRequest(s, userRequest(t, s, user, http.MethodPost, "/api/user/favorites/"+primitive.NewObjectID().Hex()))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAddFavoriteInvalidID(t *testing.T) {
	user := domain.User{ID: primitive.NewObjectID(), Email: "user@example.com"}
	s := newTestServer(t, func(s *Server) {
		s.users = newFakeUsers(user)
		s.movies = newFakeMovies()
	})

	rec := doRequest(s, userRequest(t, s, user, http.MethodPost, "/api/user/favorites/not-hex"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHistoryDedupAndOrder(t *testing.T) {
	first := domain.Movie{ID: primitive.NewObjectID(), Title: "First"}
	second := domain.Movie{ID: primitive.NewObjectID(), Title: "Second"}
	user := domain.User{ID: primitive.NewObjectID(), Email: "user@example.com"}
	users := newFakeUsers(user)
	s := newTestServer(t, func(s *Server) {
		s.users = users
		s.movies = newFakeMovies(first, second)
	})

	for _, id := range []primitive.ObjectID{first.ID, second.ID, first.ID} {
		rec := doRequest(s, userRequest(t, s, user, http.MethodPost, "/api/user/history/"+id.Hex()))
		if rec.Code != http.StatusOK {
			t.Fatalf("push history: status = %d (body %s)", rec.Code, rec.Body.String())
		}
	}

	history := users.byEmail[user.Email].WatchHistory
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2 (rewatch dedupes)", len(history))
	}
	if history[0].Movie != first.ID {
		t.Fatal("most recent watch should lead the history")
	}
}

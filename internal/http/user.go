package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/moviehub/moviehub/internal/domain"
	"github.com/moviehub/moviehub/internal/repository"
)

type profileResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FavoritesCount int    `json:"favoritesCount"`
	HistoryCount   int    `json:"historyCount"`
}

// currentUser loads the authenticated account behind the request.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	claims, ok := userClaims(r)
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return domain.User{}, false
	}
	user, err := s.users.GetByID(r.Context(), claims.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.respondError(w, http.StatusUnauthorized, "Unauthorized")
		case errors.Is(err, repository.ErrUnavailable):
			s.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
		default:
			s.logger.Error("load user failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "Failed to load account")
		}
		return domain.User{}, false
	}
	return user, true
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, profileResponse{
		ID:             user.ID.Hex(),
		Email:          user.Email,
		FavoritesCount: len(user.Favorites),
		HistoryCount:   len(user.WatchHistory),
	})
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	movies, err := s.movies.ListByIDs(r.Context(), user.Favorites)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			s.respondJSON(w, http.StatusOK, []domain.Movie{})
			return
		}
		s.logger.Error("list favorites failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch favorites")
		return
	}
	s.respondJSON(w, http.StatusOK, movies)
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	movieID, ok := s.movieIDParam(w, r)
	if !ok {
		return
	}

	// Adding verifies the movie exists; removing does not need to.
	if _, err := s.movies.GetByID(r.Context(), movieID.Hex()); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrUnavailable) {
			s.respondError(w, http.StatusNotFound, "Movie not found")
			return
		}
		s.logger.Error("favorite movie lookup failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to update favorites")
		return
	}

	if err := s.users.AddFavorite(r.Context(), user.ID, movieID); err != nil {
		s.respondStoreWriteError(w, err, "Failed to update favorites")
		return
	}
	s.respondMessage(w, http.StatusOK, "Added to favorites")
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	movieID, ok := s.movieIDParam(w, r)
	if !ok {
		return
	}

	if err := s.users.RemoveFavorite(r.Context(), user.ID, movieID); err != nil {
		s.respondStoreWriteError(w, err, "Failed to update favorites")
		return
	}
	s.respondMessage(w, http.StatusOK, "Removed from favorites")
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	ids := make([]primitive.ObjectID, 0, len(user.WatchHistory))
	watchedAt := make(map[primitive.ObjectID]time.Time, len(user.WatchHistory))
	for _, entry := range user.WatchHistory {
		ids = append(ids, entry.Movie)
		watchedAt[entry.Movie] = entry.WatchedAt
	}

	movies, err := s.movies.ListByIDs(r.Context(), ids)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			s.respondJSON(w, http.StatusOK, []historyEntryResponse{})
			return
		}
		s.logger.Error("list history failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}

	entries := make([]historyEntryResponse, 0, len(movies))
	for _, movie := range movies {
		entries = append(entries, historyEntryResponse{Movie: movie, WatchedAt: watchedAt[movie.ID]})
	}
	s.respondJSON(w, http.StatusOK, entries)
}

type historyEntryResponse struct {
	Movie     domain.Movie `json:"movie"`
	WatchedAt time.Time    `json:"watchedAt"`
}

func (s *Server) handleAddHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	movieID, ok := s.movieIDParam(w, r)
	if !ok {
		return
	}

	count, err := s.users.PushHistory(r.Context(), user.ID, movieID, time.Now())
	if err != nil {
		s.respondStoreWriteError(w, err, "Failed to update history")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"historyCount": count})
}

func (s *Server) movieIDParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid movie id")
		return primitive.ObjectID{}, false
	}
	return oid, true
}

func (s *Server) respondStoreWriteError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, repository.ErrUnavailable):
		s.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		s.logger.Error("store write failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, fallback)
	}
}

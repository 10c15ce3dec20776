package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/moviehub/moviehub/internal/repository"
)

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	filters, err := buildMovieFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.catalog.List(r.Context(), filters)
	if err != nil {
		s.logger.Error("list movies failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch movies")
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// buildMovieFilters parses list query parameters. Malformed numeric input is
// rejected rather than coerced or ignored.
func buildMovieFilters(query url.Values) (repository.MovieListFilters, error) {
	var filters repository.MovieListFilters

	if val := strings.TrimSpace(query.Get("genre")); val != "" {
		filters.Genre = &val
	}
	if val := strings.TrimSpace(query.Get("year")); val != "" {
		year, err := strconv.Atoi(val)
		if err != nil {
			return filters, fmt.Errorf("invalid year value")
		}
		filters.Year = &year
	}
	if val := strings.TrimSpace(query.Get("search")); val != "" {
		filters.Search = &val
	}
	filters.Sort = strings.TrimSpace(query.Get("sort"))

	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil {
			return filters, fmt.Errorf("invalid limit value")
		}
		filters.Limit = limit
	}
	if val := strings.TrimSpace(query.Get("page")); val != "" {
		page, err := strconv.Atoi(val)
		if err != nil {
			return filters, fmt.Errorf("invalid page value")
		}
		filters.Page = page
	}
	return filters, nil
}

func (s *Server) handleFeatured(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.Featured(r.Context())
	if err != nil {
		s.logger.Error("featured movies failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch movies")
		return
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.Trending(r.Context())
	if err != nil {
		s.logger.Error("trending movies failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch movies")
		return
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	min := 1
	if val := strings.TrimSpace(query.Get("min")); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid min value")
			return
		}
		min = parsed
	}
	sortMode := strings.TrimSpace(query.Get("sort"))

	counts, err := s.catalog.Genres(r.Context(), min, sortMode)
	if err != nil {
		s.logger.Error("genre aggregation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch genres")
		return
	}
	s.respondJSON(w, http.StatusOK, counts)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.Suggestions(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.logger.Error("suggestions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch suggestions")
		return
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	movie, err := s.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrUnavailable) {
			s.respondError(w, http.StatusNotFound, "Movie not found")
			return
		}
		s.logger.Error("get movie failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch movie")
		return
	}
	s.respondJSON(w, http.StatusOK, movie)
}

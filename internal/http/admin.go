package httpserver

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moviehub/moviehub/internal/auth"
	"github.com/moviehub/moviehub/internal/domain"
	"github.com/moviehub/moviehub/internal/repository"
)

const maxUploadSize = 10 << 20 // 10 MiB

type adminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if !s.loginLim.Allow(clientIP(r)) {
		s.respondError(w, http.StatusTooManyRequests, "Too many login attempts, please try again later")
		return
	}

	var req adminLoginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	if req.Username != s.cfg.AdminUser || !s.checkAdminPassword(req.Password) {
		s.respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.tokens.IssueAdmin(req.Username)
	if err != nil {
		s.logger.Error("issue admin token failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// checkAdminPassword prefers the bcrypt hash; the plaintext variable is a
// development fallback.
func (s *Server) checkAdminPassword(password string) bool {
	if s.cfg.AdminPassHash != "" {
		return auth.CheckPassword(s.cfg.AdminPassHash, password)
	}
	return s.cfg.AdminPass != "" && s.cfg.AdminPass == password
}

func (s *Server) handleAdminListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := s.movies.AdminList(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			s.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
			return
		}
		s.logger.Error("admin list movies failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch movies")
		return
	}
	s.respondJSON(w, http.StatusOK, movies)
}

func (s *Server) handleAdminCreateMovie(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.respondError(w, http.StatusBadRequest, "Expected multipart form data")
		return
	}

	form := r.MultipartForm
	title := strings.TrimSpace(formValue(form, "title"))
	if title == "" {
		s.respondError(w, http.StatusBadRequest, "Title is required")
		return
	}

	movie := domain.Movie{
		Title:       title,
		Description: formValue(form, "description"),
		Duration:    formValue(form, "duration"),
		Director:    formValue(form, "director"),
		Backdrop:    formValue(form, "backdrop"),
		TrailerURL:  formValue(form, "trailerUrl"),
		TrailerKey:  formValue(form, "trailerKey"),
		WatchLink:   formValue(form, "watchLink"),
		Featured:    formValue(form, "featured") == "true",
		Trending:    formValue(form, "trending") == "true",
	}

	if val := formValue(form, "year"); val != "" {
		year, err := strconv.Atoi(val)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid year value")
			return
		}
		movie.Year = year
	}
	if val := formValue(form, "rating"); val != "" {
		rating, err := strconv.ParseFloat(val, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid rating value")
			return
		}
		movie.Rating = rating
	}
	if val := formValue(form, "genre"); val != "" {
		if err := json.Unmarshal([]byte(val), &movie.Genre); err != nil {
			s.respondError(w, http.StatusBadRequest, "genre must be a JSON array of strings")
			return
		}
	}
	if val := formValue(form, "cast"); val != "" {
		if err := json.Unmarshal([]byte(val), &movie.Cast); err != nil {
			s.respondError(w, http.StatusBadRequest, "cast must be a JSON array of strings")
			return
		}
	}
	if val := formValue(form, "watchProviders"); val != "" {
		if err := json.Unmarshal([]byte(val), &movie.WatchProviders); err != nil {
			s.respondError(w, http.StatusBadRequest, "watchProviders must be a JSON array")
			return
		}
	}

	poster, err := s.savePoster(form)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if poster != "" {
		movie.Poster = poster
	} else {
		movie.Poster = formValue(form, "poster")
	}

	created, err := s.movies.Create(r.Context(), movie)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			s.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
			return
		}
		s.logger.Error("admin create movie failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to create movie")
		return
	}

	w.Header().Set("Location", "/api/movies/"+url.PathEscape(created.ID.Hex()))
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleAdminUpdateMovie(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.respondError(w, http.StatusBadRequest, "Expected multipart form data")
		return
	}
	form := r.MultipartForm

	var params repository.MovieUpdateParams
	setString := func(field string, dst **string) {
		if vals, ok := form.Value[field]; ok && len(vals) > 0 {
			val := vals[0]
			*dst = &val
		}
	}
	setString("title", &params.Title)
	setString("description", &params.Description)
	setString("duration", &params.Duration)
	setString("director", &params.Director)
	setString("backdrop", &params.Backdrop)
	setString("trailerUrl", &params.TrailerURL)
	setString("trailerKey", &params.TrailerKey)
	setString("watchLink", &params.WatchLink)

	if val := formValue(form, "year"); val != "" {
		year, err := strconv.Atoi(val)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid year value")
			return
		}
		params.Year = &year
	}
	if val := formValue(form, "rating"); val != "" {
		rating, err := strconv.ParseFloat(val, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid rating value")
			return
		}
		params.Rating = &rating
	}
	if val := formValue(form, "featured"); val != "" {
		featured := val == "true"
		params.Featured = &featured
	}
	if val := formValue(form, "trending"); val != "" {
		trending := val == "true"
		params.Trending = &trending
	}
	if val := formValue(form, "genre"); val != "" {
		if err := json.Unmarshal([]byte(val), &params.Genre); err != nil {
			s.respondError(w, http.StatusBadRequest, "genre must be a JSON array of strings")
			return
		}
	}
	if val := formValue(form, "cast"); val != "" {
		if err := json.Unmarshal([]byte(val), &params.Cast); err != nil {
			s.respondError(w, http.StatusBadRequest, "cast must be a JSON array of strings")
			return
		}
	}
	if val := formValue(form, "watchProviders"); val != "" {
		if err := json.Unmarshal([]byte(val), &params.WatchProviders); err != nil {
			s.respondError(w, http.StatusBadRequest, "watchProviders must be a JSON array")
			return
		}
	}

	poster, err := s.savePoster(form)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if poster != "" {
		params.Poster = &poster
	} else if val := formValue(form, "poster"); val != "" {
		params.Poster = &val
	}

	updated, err := s.movies.Update(r.Context(), id, params)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "Movie not found")
		case errors.Is(err, repository.ErrUnavailable):
			s.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
		default:
			s.logger.Error("admin update movie failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "Failed to update movie")
		}
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAdminDeleteMovie(w http.ResponseWriter, r *http.Request) {
	err := s.movies.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "Movie not found")
		case errors.Is(err, repository.ErrUnavailable):
			s.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
		default:
			s.logger.Error("admin delete movie failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "Failed to delete movie")
		}
		return
	}
	s.respondMessage(w, http.StatusOK, "Movie deleted")
}

// savePoster stores an uploaded poster under the uploads dir with a random
// filename, returning its public path. Empty when no file was sent.
func (s *Server) savePoster(form *multipart.Form) (string, error) {
	files, ok := form.File["poster"]
	if !ok || len(files) == 0 {
		return "", nil
	}
	header := files[0]

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", fmt.Errorf("poster must be a jpg, png, or webp image")
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("could not read uploaded poster")
	}
	defer src.Close()

	if err := os.MkdirAll(s.cfg.UploadsDir, 0o755); err != nil {
		return "", fmt.Errorf("could not store uploaded poster")
	}
	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.cfg.UploadsDir, name))
	if err != nil {
		return "", fmt.Errorf("could not store uploaded poster")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("could not store uploaded poster")
	}
	return "/uploads/" + name, nil
}

func formValue(form *multipart.Form, field string) string {
	if vals, ok := form.Value[field]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func (s *Server) handleAdminListContacts(w http.ResponseWriter, r *http.Request) {
	filters, err := buildContactFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.contacts.List(r.Context(), filters)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			s.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
			return
		}
		s.logger.Error("admin list contacts failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func buildContactFilters(query url.Values) (repository.ContactListFilters, error) {
	var filters repository.ContactListFilters
	filters.Q = strings.TrimSpace(query.Get("q"))

	if val := strings.TrimSpace(query.Get("from")); val != "" {
		from, err := time.Parse("2006-01-02", val)
		if err != nil {
			return filters, fmt.Errorf("invalid from date, expected YYYY-MM-DD")
		}
		filters.From = &from
	}
	if val := strings.TrimSpace(query.Get("to")); val != "" {
		to, err := time.Parse("2006-01-02", val)
		if err != nil {
			return filters, fmt.Errorf("invalid to date, expected YYYY-MM-DD")
		}
		filters.To = &to
	}
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

func (s *Server) handleAdminDeleteContact(w http.ResponseWriter, r *http.Request) {
	err := s.contacts.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "Message not found")
		case errors.Is(err, repository.ErrUnavailable):
			s.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
		default:
			s.logger.Error("admin delete contact failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "Failed to delete message")
		}
		return
	}
	s.respondMessage(w, http.StatusOK, "Message deleted")
}

func (s *Server) handleAdminExportContacts(w http.ResponseWriter, r *http.Request) {
	filters, err := buildContactFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="contact-messages.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "name", "email", "subject", "message", "createdAt"})

	err = s.contacts.Export(r.Context(), filters, func(msg domain.ContactMessage) error {
		return cw.Write([]string{
			msg.ID.Hex(),
			msg.Name,
			msg.Email,
			msg.Subject,
			msg.Message,
			msg.CreatedAt.UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		// Headers are already out; all we can do is log and truncate.
		s.logger.Error("contact export failed", zap.Error(err))
		return
	}
	cw.Flush()
}

func (s *Server) handleAdminContactStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.contacts.Stats(r.Context(), time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			s.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
			return
		}
		s.logger.Error("contact stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

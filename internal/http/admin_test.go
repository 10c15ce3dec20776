package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/moviehub/moviehub/internal/auth"
	"github.com/moviehub/moviehub/internal/domain"
	"github.com/moviehub/moviehub/internal/ratelimit"
)

func adminRequest(t *testing.T, s *Server, method, target string, body io.Reader, contentType string) *http.Request {
	t.Helper()
	token, err := s.tokens.IssueAdmin("admin")
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func multipartBody(t *testing.T, fields map[string]string, posterName string, poster []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for field, value := range fields {
		if err := mw.WriteField(field, value); err != nil {
			t.Fatal(err)
		}
	}
	if posterName != "" {
		fw, err := mw.CreateFormFile("poster", posterName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(poster); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf, mw.FormDataContentType()
}

func TestAdminLogin(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		password   string
		wantStatus int
	}{
		{"valid", "admin", "hunter22", http.StatusOK},
		{"wrong password", "admin", "wrong", http.StatusUnauthorized},
		{"wrong username", "root", "hunter22", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := doRequest(s, jsonRequest(http.MethodPost, "/api/admin/login", map[string]string{
				"username": tt.username, "password": tt.password,
			}))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if _, err := s.tokens.VerifyAdmin(body["token"]); err != nil {
				t.Fatalf("issued admin token does not verify: %v", err)
			}
		})
	}
}

func TestAdminLoginPrefersHash(t *testing.T) {
	hash, err := auth.HashPassword("hashed secret")
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, func(s *Server) {
		s.cfg.AdminPassHash = hash
		s.cfg.AdminPass = "plaintext ignored"
	})

	rec := doRequest(s, jsonRequest(http.MethodPost, "/api/admin/login", map[string]string{
		"username": "admin", "password": "hashed secret",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("hash login: status = %d", rec.Code)
	}

	rec = doRequest(s, jsonRequest(http.MethodPost, "/api/admin/login", map[string]string{
		"username": "admin", "password": "plaintext ignored",
	}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("plaintext must not work once a hash is set: status = %d", rec.Code)
	}
}

func TestAdminLoginRateLimit(t *testing.T) {
	s := newTestServer(t, func(s *Server) {
		s.loginLim = ratelimit.New(2, 15*time.Minute)
	})

	payload := map[string]string{"username": "admin", "password": "wrong"}
	for i := 0; i < 2; i++ {
		rec := doRequest(s, jsonRequest(http.MethodPost, "/api/admin/login", payload))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i+1, rec.Code)
		}
	}
	rec := doRequest(s, jsonRequest(http.MethodPost, "/api/admin/login", payload))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, func(s *Server) { s.movies = newFakeMovies() })

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/admin/movies", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	// A user-scope token must not open the admin surface.
	userToken, err := s.tokens.IssueUser(primitive.NewObjectID().Hex(), "user@example.com")
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/movies", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rec = doRequest(s, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("user token: status = %d, want 401", rec.Code)
	}
}

func TestAdminCreateMovie(t *testing.T) {
	movies := newFakeMovies()
	s := newTestServer(t, func(s *Server) { s.movies = movies })

	body, contentType := multipartBody(t, map[string]string{
		"title":    "Arrival",
		"year":     "2016",
		"rating":   "7.9",
		"genre":    `["Drama","Science Fiction"]`,
		"cast":     `["Amy Adams"]`,
		"featured": "true",
	}, "poster.jpg", []byte("jpeg bytes"))

	rec := doRequest(s, adminRequest(t, s, http.MethodPost, "/api/admin/movies", body, contentType))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	var created domain.Movie
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Title != "Arrival" || created.Year != 2016 || !created.Featured {
		t.Fatalf("unexpected movie: %+v", created)
	}
	if len(created.Genre) != 2 || created.Genre[1] != "Science Fiction" {
		t.Fatalf("genre = %v", created.Genre)
	}
	if !strings.HasPrefix(created.Poster, "/uploads/") || !strings.HasSuffix(created.Poster, ".jpg") {
		t.Fatalf("poster path = %q", created.Poster)
	}

	// The uploaded file must exist under the uploads dir.
	stored := filepath.Join(s.cfg.UploadsDir, strings.TrimPrefix(created.Poster, "/uploads/"))
	data, err := os.ReadFile(stored)
	if err != nil {
		t.Fatalf("stored poster: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Fatal("stored poster content mismatch")
	}
	if rec.Header().Get("Location") == "" {
		t.Fatal("expected a Location header")
	}
}

func TestAdminCreateMovieRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"missing title", map[string]string{"year": "2016"}},
		{"bad year", map[string]string{"title": "Arrival", "year": "soon"}},
		{"bad rating", map[string]string{"title": "Arrival", "rating": "great"}},
		{"bad genre json", map[string]string{"title": "Arrival", "genre": "Drama"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			movies := newFakeMovies()
			s := newTestServer(t, func(s *Server) { s.movies = movies })

			body, contentType := multipartBody(t, tt.fields, "", nil)
			rec := doRequest(s, adminRequest(t, s, http.MethodPost, "/api/admin/movies", body, contentType))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			if len(movies.byID) != 0 {
				t.Fatal("invalid movie must not be stored")
			}
		})
	}
}

func TestAdminCreateMovieRejectsBadPosterType(t *testing.T) {
	s := newTestServer(t, func(s *Server) { s.movies = newFakeMovies() })

	body, contentType := multipartBody(t, map[string]string{"title": "Arrival"}, "poster.exe", []byte("nope"))
	rec := doRequest(s, adminRequest(t, s, http.MethodPost, "/api/admin/movies", body, contentType))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAdminUpdateMovie(t *testing.T) {
	movie := domain.Movie{ID: primitive.NewObjectID(), Title: "Arival", Rating: 7.0}
	movies := newFakeMovies(movie)
	s := newTestServer(t, func(s *Server) { s.movies = movies })

	body, contentType := multipartBody(t, map[string]string{"title": "Arrival", "rating": "7.9"}, "", nil)
	rec := doRequest(s, adminRequest(t, s, http.MethodPut, "/api/admin/movies/"+movie.ID.Hex(), body, contentType))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	updated := movies.byID[movie.ID]
	if updated.Title != "Arrival" || updated.Rating != 7.9 {
		t.Fatalf("unexpected movie after update: %+v", updated)
	}
}

func TestAdminDeleteMovie(t *testing.T) {
	movie := domain.Movie{ID: primitive.NewObjectID(), Title: "Arrival"}
	movies := newFakeMovies(movie)
	s := newTestServer(t, func(s *Server) { s.movies = movies })

	rec := doRequest(s, adminRequest(t, s, http.MethodDelete, "/api/admin/movies/"+movie.ID.Hex(), nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(movies.byID) != 0 {
		t.Fatal("movie should be gone")
	}

	rec = doRequest(s, adminRequest(t, s, http.MethodDelete, "/api/admin/movies/"+movie.ID.Hex(), nil, ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: status = %d, want 404", rec.Code)
	}
}

func TestAdminContactList(t *testing.T) {
	contacts := &fakeContacts{messages: []domain.ContactMessage{
		{ID: primitive.NewObjectID(), Name: "Jamie", Email: "jamie@example.com", Subject: "Hi", Message: "Hello there"},
	}}
	s := newTestServer(t, func(s *Server) { s.contacts = contacts })

	rec := doRequest(s, adminRequest(t, s, http.MethodGet, "/api/admin/contact/messages", nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = doRequest(s, adminRequest(t, s, http.MethodGet, "/api/admin/contact/messages?from=yesterday", nil, ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad from date: status = %d, want 400", rec.Code)
	}
}

func TestAdminContactExportCSV(t *testing.T) {
	contacts := &fakeContacts{messages: []domain.ContactMessage{
		{ID: primitive.NewObjectID(), Name: "Jamie", Email: "jamie@example.com", Subject: "Hi", Message: "Hello, \"world\"", CreatedAt: time.Now()},
	}}
	s := newTestServer(t, func(s *Server) { s.contacts = contacts })

	rec := doRequest(s, adminRequest(t, s, http.MethodGet, "/api/admin/contact/messages/export", nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want header plus one row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,name,email") {
		t.Fatalf("csv header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "jamie@example.com") {
		t.Fatalf("csv row = %q", lines[1])
	}
}

func TestAdminContactStats(t *testing.T) {
	contacts := &fakeContacts{messages: []domain.ContactMessage{{}, {}}}
	s := newTestServer(t, func(s *Server) { s.contacts = contacts })

	rec := doRequest(s, adminRequest(t, s, http.MethodGet, "/api/admin/contact/stats", nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var stats map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats["total"] != 2 {
		t.Fatalf("total = %d, want 2", stats["total"])
	}
}

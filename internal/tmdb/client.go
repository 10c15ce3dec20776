// Package tmdb is the client for The Movie Database API, used by the
// catalog seeding command.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned when TMDB cannot find the requested resource.
var ErrNotFound = errors.New("tmdb: not found")

// Client wraps the slice of the TMDB v3 API the seeder needs.
type Client struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient constructs an HTTP-backed TMDB client.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	return &Client{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// ListedMovie is one entry of a TMDB list response.
type ListedMovie struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	GenreIDs     []int   `json:"genre_ids"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	Popularity   float64 `json:"popularity"`
}

type listResponse struct {
	Results []ListedMovie `json:"results"`
}

// Genre is one TMDB genre id/name pair.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type genresResponse struct {
	Genres []Genre `json:"genres"`
}

// Credits carries the cast and crew of a movie.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CastMember is one credited actor.
type CastMember struct {
	Name string `json:"name"`
}

// CrewMember is one credited crew member.
type CrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// Details is the per-movie detail payload, with credits appended.
type Details struct {
	Runtime int      `json:"runtime"`
	Credits *Credits `json:"credits"`
}

// Video is one entry of the videos response.
type Video struct {
	Key      string `json:"key"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type videosResponse struct {
	Results []Video `json:"results"`
}

// RegionProviders is the per-region watch provider payload.
type RegionProviders struct {
	Link     string         `json:"link"`
	Flatrate []ProviderItem `json:"flatrate"`
	Rent     []ProviderItem `json:"rent"`
	Buy      []ProviderItem `json:"buy"`
	Ads      []ProviderItem `json:"ads"`
	Free     []ProviderItem `json:"free"`
}

// ProviderItem is one watch provider entry.
type ProviderItem struct {
	ProviderID int    `json:"provider_id"`
	Name       string `json:"provider_name"`
	LogoPath   string `json:"logo_path"`
}

type providersResponse struct {
	Results map[string]RegionProviders `json:"results"`
}

// Popular returns one page of the popular movie list.
func (c *Client) Popular(ctx context.Context, page int) ([]ListedMovie, error) {
	var payload listResponse
	err := c.get(ctx, "/movie/popular", url.Values{"page": {strconv.Itoa(page)}, "language": {"en-US"}}, &payload)
	return payload.Results, err
}

// TopRated returns one page of the top-rated movie list.
func (c *Client) TopRated(ctx context.Context, page int) ([]ListedMovie, error) {
	var payload listResponse
	err := c.get(ctx, "/movie/top_rated", url.Values{"page": {strconv.Itoa(page)}, "language": {"en-US"}}, &payload)
	return payload.Results, err
}

// Trending returns one page of the weekly trending list.
func (c *Client) Trending(ctx context.Context, page int) ([]ListedMovie, error) {
	var payload listResponse
	err := c.get(ctx, "/trending/movie/week", url.Values{"page": {strconv.Itoa(page)}, "language": {"en-US"}}, &payload)
	return payload.Results, err
}

// Genres returns the full genre id/name mapping.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var payload genresResponse
	err := c.get(ctx, "/genre/movie/list", url.Values{"language": {"en-US"}}, &payload)
	return payload.Genres, err
}

// Details returns a movie's details with credits appended.
func (c *Client) Details(ctx context.Context, movieID int64) (Details, error) {
	var payload Details
	err := c.get(ctx, fmt.Sprintf("/movie/%d", movieID), url.Values{
		"language":           {"en-US"},
		"append_to_response": {"credits"},
	}, &payload)
	return payload, err
}

// Videos returns a movie's trailer/teaser entries.
func (c *Client) Videos(ctx context.Context, movieID int64) ([]Video, error) {
	var payload videosResponse
	err := c.get(ctx, fmt.Sprintf("/movie/%d/videos", movieID), url.Values{"language": {"en-US"}}, &payload)
	return payload.Results, err
}

// WatchProviders returns the watch provider payload for one region, or nil
// when the region has none.
func (c *Client) WatchProviders(ctx context.Context, movieID int64, region string) (*RegionProviders, error) {
	var payload providersResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/watch/providers", movieID), nil, &payload); err != nil {
		return nil, err
	}
	if regional, ok := payload.Results[region]; ok {
		return &regional, nil
	}
	return nil, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	endpoint := *c.baseURL
	endpoint.Path = c.baseURL.Path + path
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("decode tmdb response: %w", err)
		}
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		c.logger.Warn("tmdb: unexpected status", zap.Int("status", resp.StatusCode), zap.String("path", path))
		return fmt.Errorf("tmdb: upstream returned %d", resp.StatusCode)
	}
}

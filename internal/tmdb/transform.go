package tmdb

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/moviehub/moviehub/internal/domain"
)

const (
	posterBaseURL   = "https://image.tmdb.org/t/p/w500"
	backdropBaseURL = "https://image.tmdb.org/t/p/w1280"
	logoBaseURL     = "https://image.tmdb.org/t/p/w92"
	youtubeWatchURL = "https://www.youtube.com/watch?v="
	placeholderURL  = "https://via.placeholder.com/500x750?text=No+Image"

	maxDirectors = 2
	maxCast      = 6

	featuredRating     = 7.5
	featuredPopularity = 100
	trendingPopularity = 50
)

// Transform maps a listed TMDB movie plus its enrichment payloads onto the
// catalog entity. Missing enrichment degrades to placeholder values rather
// than failing the movie.
func Transform(listed ListedMovie, genres []Genre, details Details, videos []Video, providers *RegionProviders) domain.Movie {
	genreNames := make([]string, 0, len(listed.GenreIDs))
	for _, id := range listed.GenreIDs {
		genreNames = append(genreNames, genreName(genres, id))
	}
	if len(genreNames) == 0 {
		genreNames = []string{"Unknown"}
	}

	directors := make([]string, 0, maxDirectors)
	if details.Credits != nil {
		for _, member := range details.Credits.Crew {
			if member.Job != "Director" {
				continue
			}
			directors = append(directors, member.Name)
			if len(directors) == maxDirectors {
				break
			}
		}
	}
	director := "Unknown"
	if len(directors) > 0 {
		director = strings.Join(directors, ", ")
	}

	cast := make([]string, 0, maxCast)
	if details.Credits != nil {
		for _, member := range details.Credits.Cast {
			cast = append(cast, member.Name)
			if len(cast) == maxCast {
				break
			}
		}
	}
	if len(cast) == 0 {
		cast = []string{"Unknown"}
	}

	duration := "N/A"
	if details.Runtime > 0 {
		duration = fmt.Sprintf("%dh %dm", details.Runtime/60, details.Runtime%60)
	}

	poster := placeholderURL
	if listed.PosterPath != "" {
		poster = posterBaseURL + listed.PosterPath
	}
	backdrop := ""
	if listed.BackdropPath != "" {
		backdrop = backdropBaseURL + listed.BackdropPath
	}

	description := listed.Overview
	if description == "" {
		description = "No description available"
	}

	trailerURL, trailerKey := "", ""
	if trailer := PickBestTrailer(videos); trailer != nil {
		trailerKey = trailer.Key
		trailerURL = youtubeWatchURL + trailer.Key
	}

	watchProviders, watchLink := normalizeProviders(providers)

	return domain.Movie{
		Title:          listed.Title,
		Description:    description,
		Year:           releaseYear(listed.ReleaseDate),
		Genre:          genreNames,
		Duration:       duration,
		Director:       director,
		Cast:           cast,
		Poster:         poster,
		Backdrop:       backdrop,
		Rating:         roundRating(listed.VoteAverage),
		Featured:       listed.VoteAverage >= featuredRating || listed.Popularity >= featuredPopularity,
		Trending:       listed.Popularity >= trendingPopularity,
		TMDBID:         listed.ID,
		TrailerURL:     trailerURL,
		TrailerKey:     trailerKey,
		WatchProviders: watchProviders,
		WatchLink:      watchLink,
		CreatedAt:      time.Now().UTC(),
	}
}

// PickBestTrailer prefers an official YouTube trailer, then any YouTube
// trailer, then any YouTube video, then anything at all.
func PickBestTrailer(videos []Video) *Video {
	if len(videos) == 0 {
		return nil
	}

	var youtube []Video
	for _, v := range videos {
		if v.Site == "YouTube" {
			youtube = append(youtube, v)
		}
	}

	var trailers []Video
	for _, v := range youtube {
		if v.Type == "Trailer" {
			trailers = append(trailers, v)
		}
	}
	if len(trailers) > 0 {
		for i := range trailers {
			if trailers[i].Official {
				return &trailers[i]
			}
		}
		return &trailers[0]
	}
	if len(youtube) > 0 {
		return &youtube[0]
	}
	return &videos[0]
}

func normalizeProviders(providers *RegionProviders) ([]domain.WatchProvider, string) {
	if providers == nil {
		return []domain.WatchProvider{}, ""
	}

	out := make([]domain.WatchProvider, 0)
	push := func(items []ProviderItem, providerType string) {
		for _, item := range items {
			logo := ""
			if item.LogoPath != "" {
				logo = logoBaseURL + item.LogoPath
			}
			out = append(out, domain.WatchProvider{
				ProviderID: item.ProviderID,
				Name:       item.Name,
				LogoURL:    logo,
				Type:       providerType,
			})
		}
	}
	push(providers.Flatrate, domain.ProviderFlatrate)
	push(providers.Rent, domain.ProviderRent)
	push(providers.Buy, domain.ProviderBuy)
	push(providers.Ads, domain.ProviderAds)
	push(providers.Free, domain.ProviderFree)

	return out, providers.Link
}

func genreName(genres []Genre, id int) string {
	for _, g := range genres {
		if g.ID == id {
			return g.Name
		}
	}
	return "Unknown"
}

func releaseYear(releaseDate string) int {
	if len(releaseDate) >= 4 {
		if year, err := strconv.Atoi(releaseDate[:4]); err == nil {
			return year
		}
	}
	return time.Now().Year()
}

func roundRating(rating float64) float64 {
	return float64(int(rating*10+0.5)) / 10
}

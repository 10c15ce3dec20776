package catalog

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/moviehub/moviehub/internal/repository"
)

// listKey serializes the normalized filters in a fixed field order so that
// logically identical requests yield byte-identical keys. Free-text values
// are escaped so a value containing a delimiter cannot collide with a
// different query's key.
func listKey(filters repository.MovieListFilters) string {
	genre, year, search := "", "", ""
	if filters.Genre != nil {
		genre = *filters.Genre
	}
	if filters.Year != nil {
		year = strconv.Itoa(*filters.Year)
	}
	if filters.Search != nil {
		search = *filters.Search
	}
	return "list:genre=" + url.QueryEscape(genre) +
		"&year=" + year +
		"&search=" + url.QueryEscape(search) +
		"&sort=" + url.QueryEscape(filters.Sort) +
		"&limit=" + strconv.Itoa(filters.Limit) +
		"&page=" + strconv.Itoa(filters.Page)
}

func genresKey(min int, sortMode string) string {
	return fmt.Sprintf("genres:min=%d:sort=%s", min, sortMode)
}

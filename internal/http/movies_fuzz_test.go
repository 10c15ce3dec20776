package httpserver

import (
	"net/url"
	"testing"
)

// FuzzBuildMovieFilters checks that arbitrary query strings either parse
// into normalized filters or fail cleanly. A malformed numeric value must
// never survive into the filters.
func FuzzBuildMovieFilters(f *testing.F) {
	f.Add("genre=Drama&year=2015&limit=20&page=1")
	f.Add("year=banana")
	f.Add("limit=-5&page=0")
	f.Add("search=%ff%fe")
	f.Add("sort=newest&sort=popular")

	f.Fuzz(func(t *testing.T, raw string) {
		query, err := url.ParseQuery(raw)
		if err != nil {
			t.Skip()
		}

		filters, err := buildMovieFilters(query)
		if err != nil {
			return
		}

		filters.Normalize()
		if filters.Limit < 1 || filters.Limit > 100 {
			t.Fatalf("normalized limit out of range: %d", filters.Limit)
		}
		if filters.Page < 1 {
			t.Fatalf("normalized page below 1: %d", filters.Page)
		}
		if filters.Genre != nil && *filters.Genre == "" {
			t.Fatal("empty genre filter should be absent, not empty")
		}
	})
}

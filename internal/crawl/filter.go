package crawl

import (
	"context"
	"log"
	"strings"

	"ottshelf/internal/tmdb"
	"ottshelf/pkg/models"
)

// Source is the upstream catalog provider the crawl depends on. It is
// satisfied by *tmdb.Client and by fakes in tests.
type Source interface {
	DiscoverPage(ctx context.Context, language string, page int) (records []tmdb.RawMovie, hasMore bool, err error)
	WatchProviders(ctx context.Context, id int64) (tmdb.Availability, error)
	ExternalIDs(ctx context.Context, id int64) (string, error)
}

// imdbPrefix is the fixed prefix of a well-formed IMDb title ID.
const imdbPrefix = "tt"

// Filter decides whether one raw listing record becomes a published movie.
//
// The tier list is the business rule distinguishing "available to stream"
// from merely "listed": a record passes only if the target region offers at
// least one of the configured tiers (normally just "flatrate").
type Filter struct {
	Source Source
	Region string
	Tiers  []string
}

// Accept runs the filter and enrichment steps for one raw record. It returns
// the populated movie and true, or the zero movie and false on rejection.
//
// Lookup failures are rejections, not errors: one bad record must never
// abort the crawl, so failures are logged and the record is dropped.
func (f *Filter) Accept(ctx context.Context, raw tmdb.RawMovie) (models.Movie, bool) {
	if raw.ID == 0 || strings.TrimSpace(raw.Title) == "" {
		return models.Movie{}, false
	}

	av, err := f.Source.WatchProviders(ctx, raw.ID)
	if err != nil {
		log.Printf("[crawl] providers lookup failed for %d (%q): %v", raw.ID, raw.Title, err)
		return models.Movie{}, false
	}
	if !f.hasConfiguredTier(av) {
		return models.Movie{}, false
	}

	imdbID, err := f.Source.ExternalIDs(ctx, raw.ID)
	if err != nil {
		log.Printf("[crawl] external id lookup failed for %d (%q): %v", raw.ID, raw.Title, err)
		return models.Movie{}, false
	}
	if !strings.HasPrefix(imdbID, imdbPrefix) || len(imdbID) <= len(imdbPrefix) {
		return models.Movie{}, false
	}

	return models.Movie{
		ImdbID:       imdbID,
		TMDBID:       raw.ID,
		Title:        raw.Title,
		ReleaseDate:  raw.ReleaseDate,
		PosterPath:   raw.PosterPath,
		BackdropPath: raw.BackdropPath,
		Overview:     raw.Overview,
	}, true
}

func (f *Filter) hasConfiguredTier(av tmdb.Availability) bool {
	for _, tier := range f.Tiers {
		if av.HasTier(f.Region, tier) {
			return true
		}
	}
	return false
}

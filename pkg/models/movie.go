package models

import "time"

// Movie is the normalized, internal form of one published catalog entry.
//
// All upstream records are mapped into this structure by the crawl filter,
// then the cache and serving layers only ever see this representation.
type Movie struct {
	ImdbID       string `json:"imdb_id"`                 // canonical cross-source ID ("tt..."), dedup key
	TMDBID       int64  `json:"tmdb_id"`                 // provider-native ID, used for detail lookups only
	Title        string `json:"title"`                   // main display title
	ReleaseDate  string `json:"release_date,omitempty"`  // "YYYY-MM-DD" or empty
	PosterPath   string `json:"poster_path,omitempty"`   // opaque path fragment, base URL added at serve time
	BackdropPath string `json:"backdrop_path,omitempty"` // opaque path fragment
	Overview     string `json:"overview,omitempty"`
}

// StopReason records how a crawl run ended.
type StopReason string

const (
	// StopExhausted means the upstream listing ran out of pages.
	StopExhausted StopReason = "exhausted"
	// StopPageBudget means the configured page budget was reached.
	StopPageBudget StopReason = "page-budget"
	// StopTimeBudget means the configured wall-clock budget elapsed.
	StopTimeBudget StopReason = "time-budget"
	// StopUpstreamError means a listing page failed; items gathered before
	// the failure are still part of the batch.
	StopUpstreamError StopReason = "upstream-error"
)

// CrawlBatch is the outcome of one crawl run: the accepted movies in
// encounter order plus counters describing how the run went.
type CrawlBatch struct {
	Movies       []Movie    `json:"movies"`
	PagesVisited int        `json:"pages_visited"`
	Considered   int        `json:"considered"` // raw records seen
	Accepted     int        `json:"accepted"`   // records that passed the filter
	StopReason   StopReason `json:"stop_reason"`
}

// Snapshot is the published state of one catalog: an ordered movie list
// (insertion order, first-seen wins) plus a generation counter.
//
// Snapshots are immutable once published; a merge always produces a new one.
type Snapshot struct {
	Movies     []Movie   `json:"movies"`
	Generation uint64    `json:"generation"`
	UpdatedAt  time.Time `json:"updated_at"`
}

package tmdb

import "fmt"

// ErrorKind classifies an upstream failure for callers that care about
// retry-worthiness. The crawl loop treats both kinds the same (stop the
// crawl, keep partial results), so the kind is informational today.
type ErrorKind string

const (
	// KindTransient covers network failures and 5xx responses.
	KindTransient ErrorKind = "transient"
	// KindPermanent covers 4xx responses and malformed payloads.
	KindPermanent ErrorKind = "permanent"
)

// UpstreamError is a typed failure from a TMDB call.
type UpstreamError struct {
	Op     string // "discover", "providers", "external_ids"
	Status int    // HTTP status, 0 if the request never completed
	Kind   ErrorKind
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("tmdb %s: %s (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("tmdb %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func kindForStatus(status int) ErrorKind {
	if status >= 500 {
		return KindTransient
	}
	return KindPermanent
}

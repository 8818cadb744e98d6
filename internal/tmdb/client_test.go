package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ottshelf/internal/tmdb"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "IN"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestDiscoverPageSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("api_key") != "key" {
			t.Fatalf("expected api_key query parameter, got %q", r.URL.RawQuery)
		}
		if q.Get("with_original_language") != "ml" || q.Get("page") != "2" || q.Get("region") != "IN" {
			t.Fatalf("unexpected discover params: %q", r.URL.RawQuery)
		}
		if q.Get("sort_by") != "release_date.desc" || q.Get("release_date.lte") == "" {
			t.Fatalf("missing listing params: %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":2,"total_pages":3,"results":[{"id":42,"title":"Example","release_date":"2025-08-01","poster_path":"/p.jpg"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "IN")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	records, hasMore, err := client.DiscoverPage(context.Background(), "ml", 2)
	if err != nil {
		t.Fatalf("DiscoverPage returned error: %v", err)
	}
	if !hasMore {
		t.Fatal("expected hasMore on page 2 of 3")
	}
	if len(records) != 1 || records[0].ID != 42 || records[0].Title != "Example" {
		t.Fatalf("unexpected records: %#v", records)
	}
}

func TestDiscoverPageRejectsPageZero(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "IN")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, _, err := client.DiscoverPage(context.Background(), "ml", 0); err == nil {
		t.Fatal("expected error for page 0")
	}
}

func TestErrorKindByStatus(t *testing.T) {
	for status, want := range map[int]tmdb.ErrorKind{
		http.StatusInternalServerError: tmdb.KindTransient,
		http.StatusNotFound:            tmdb.KindPermanent,
	} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		client, err := tmdb.New("key", server.URL, "IN")
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}

		_, _, err = client.DiscoverPage(context.Background(), "ml", 1)
		server.Close()
		if err == nil {
			t.Fatalf("expected error for status %d", status)
		}

		var ue *tmdb.UpstreamError
		if !errors.As(err, &ue) {
			t.Fatalf("error is %T, want *UpstreamError", err)
		}
		if ue.Kind != want || ue.Status != status {
			t.Fatalf("status %d classified as %s, want %s", status, ue.Kind, want)
		}
	}
}

func TestWatchProvidersParsesTiers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/42/watch/providers" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{"IN":{"link":"https://example.com","flatrate":[{"provider_name":"Stream+"}],"rent":[{"provider_name":"RentCo"}]},"US":{"buy":[{"provider_name":"BuyCo"}]}}}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "IN")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	av, err := client.WatchProviders(context.Background(), 42)
	if err != nil {
		t.Fatalf("WatchProviders returned error: %v", err)
	}
	if !av.HasTier("IN", "flatrate") || !av.HasTier("IN", "rent") {
		t.Fatalf("IN tiers missing: %#v", av)
	}
	if av.HasTier("IN", "link") {
		t.Fatal("link field counted as a tier")
	}
	if av.HasTier("US", "flatrate") || !av.HasTier("US", "buy") {
		t.Fatalf("US tiers wrong: %#v", av)
	}
	if av.HasTier("DE", "flatrate") {
		t.Fatal("absent region reported available")
	}
}

func TestExternalIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/42/external_ids" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"imdb_id":"tt0000042"}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "IN")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	id, err := client.ExternalIDs(context.Background(), 42)
	if err != nil {
		t.Fatalf("ExternalIDs returned error: %v", err)
	}
	if id != "tt0000042" {
		t.Fatalf("imdb id = %q, want tt0000042", id)
	}
}

func TestDecodeFailureIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "IN")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, err = client.ExternalIDs(context.Background(), 1)
	var ue *tmdb.UpstreamError
	if !errors.As(err, &ue) || ue.Kind != tmdb.KindPermanent {
		t.Fatalf("malformed payload not classified permanent: %v", err)
	}
}

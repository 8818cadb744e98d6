package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RawMovie is one entry of the TMDB discover listing, before filtering.
type RawMovie struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	ReleaseDate  string `json:"release_date"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
	Overview     string `json:"overview"`
}

type discoverResponse struct {
	Page       int        `json:"page"`
	Results    []RawMovie `json:"results"`
	TotalPages int        `json:"total_pages"`
}

// Availability holds per-region streaming offers for one movie.
type Availability struct {
	// Regions maps a region code to the set of offer tiers present there
	// ("flatrate", "rent", "buy", ...).
	Regions map[string]map[string]bool
}

// HasTier reports whether the given region offers the given tier.
func (a Availability) HasTier(region, tier string) bool {
	if a.Regions == nil {
		return false
	}
	return a.Regions[region][tier]
}

type providersResponse struct {
	Results map[string]map[string]json.RawMessage `json:"results"`
}

type externalIDsResponse struct {
	ImdbID string `json:"imdb_id"`
}

// Client provides access to the TMDB API for catalog crawls. It does not
// retry; retry and budget policy belong to the caller.
type Client struct {
	apiKey     string
	baseURL    string
	region     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, region string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		region:     strings.TrimSpace(region),
		httpClient: &http.Client{Timeout: 12 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// DiscoverPage fetches one page of the discover listing for movies in the
// given original language, newest releases first, restricted to titles
// already released. Pages are 1-based. An empty Results slice means the
// listing is exhausted; hasMore mirrors TMDB's total_pages.
func (c *Client) DiscoverPage(ctx context.Context, language string, page int) ([]RawMovie, bool, error) {
	if page < 1 {
		return nil, false, &UpstreamError{Op: "discover", Kind: KindPermanent, Err: fmt.Errorf("page must be >= 1, got %d", page)}
	}

	params := url.Values{}
	params.Set("with_original_language", language)
	params.Set("sort_by", "release_date.desc")
	params.Set("release_date.lte", time.Now().Format("2006-01-02"))
	params.Set("region", c.region)
	params.Set("page", strconv.Itoa(page))

	var payload discoverResponse
	if err := c.get(ctx, "discover", "/discover/movie", params, &payload); err != nil {
		return nil, false, err
	}
	return payload.Results, payload.Page < payload.TotalPages, nil
}

// WatchProviders fetches the per-region streaming offers for one movie.
func (c *Client) WatchProviders(ctx context.Context, id int64) (Availability, error) {
	var payload providersResponse
	path := fmt.Sprintf("/movie/%d/watch/providers", id)
	if err := c.get(ctx, "providers", path, nil, &payload); err != nil {
		return Availability{}, err
	}

	av := Availability{Regions: make(map[string]map[string]bool, len(payload.Results))}
	for region, offers := range payload.Results {
		tiers := make(map[string]bool, len(offers))
		for tier := range offers {
			// the payload mixes offer arrays with a "link" field; only
			// array-valued keys are actual tiers
			if tier == "link" {
				continue
			}
			tiers[tier] = true
		}
		av.Regions[region] = tiers
	}
	return av, nil
}

// ExternalIDs fetches the cross-provider IDs for one movie and returns the
// IMDb ID, which may be empty when TMDB has none on file.
func (c *Client) ExternalIDs(ctx context.Context, id int64) (string, error) {
	var payload externalIDsResponse
	path := fmt.Sprintf("/movie/%d/external_ids", id)
	if err := c.get(ctx, "external_ids", path, nil, &payload); err != nil {
		return "", err
	}
	return payload.ImdbID, nil
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return &UpstreamError{Op: op, Kind: KindPermanent, Err: fmt.Errorf("parse url: %w", err)}
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return &UpstreamError{Op: op, Kind: KindPermanent, Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Op: op, Kind: KindTransient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &UpstreamError{Op: op, Status: resp.StatusCode, Kind: kindForStatus(resp.StatusCode), Err: fmt.Errorf("tmdb %s returned %d", op, resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{Op: op, Kind: KindPermanent, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

package stremio

import "ottshelf/pkg/models"

// image size variants TMDB serves under its image base URL
const (
	posterSize   = "w500"
	backdropSize = "w780"
)

// Meta is one catalog entry in the addon wire format.
type Meta struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Poster      string `json:"poster,omitempty"`
	Background  string `json:"background,omitempty"`
	Description string `json:"description,omitempty"`
	ReleaseInfo string `json:"releaseInfo,omitempty"`
}

// ToMeta translates one published movie into the addon format. Items missing
// the IMDb ID or title are dropped here as well; the cache should never hold
// them, but the outward schema must not either.
func ToMeta(m models.Movie, imageBaseURL string) (Meta, bool) {
	if m.ImdbID == "" || m.Title == "" {
		return Meta{}, false
	}

	meta := Meta{
		ID:          m.ImdbID,
		Type:        "movie",
		Name:        m.Title,
		Description: m.Overview,
		ReleaseInfo: m.ReleaseDate,
	}
	if m.PosterPath != "" {
		meta.Poster = imageBaseURL + "/" + posterSize + m.PosterPath
	}
	if m.BackdropPath != "" {
		meta.Background = imageBaseURL + "/" + backdropSize + m.BackdropPath
	}
	return meta, true
}

// ToMetas translates a snapshot's movie list, preserving order.
func ToMetas(movies []models.Movie, imageBaseURL string) []Meta {
	metas := make([]Meta, 0, len(movies))
	for _, m := range movies {
		if meta, ok := ToMeta(m, imageBaseURL); ok {
			metas = append(metas, meta)
		}
	}
	return metas
}

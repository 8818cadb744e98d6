package utils

import (
	"os"
	"strconv"
	"strings"
	"time"

	"ottshelf/pkg/models"
)

type Config struct {
	TMDBAPIKey   string
	TMDBBaseURL  string
	ImageBaseURL string

	Region   string           // availability region, e.g. "IN"
	Tiers    []string         // offer tiers counted as "streamable"
	Catalogs []models.Catalog // one independent crawl per catalog

	PageBudget      int           // pages per crawl per catalog
	TimeBudget      time.Duration // wall-clock cap per crawl per catalog
	RefreshInterval time.Duration // 0 disables periodic refresh

	ListenAddr string
}

// LoadConfig reads configuration from OTTSHELF_* environment variables with
// dev-friendly defaults matching the public addon deployment.
func LoadConfig() Config {
	cfg := Config{
		TMDBAPIKey:      os.Getenv("OTTSHELF_TMDB_API_KEY"),
		TMDBBaseURL:     envOr("OTTSHELF_TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		ImageBaseURL:    envOr("OTTSHELF_IMAGE_BASE_URL", "https://image.tmdb.org/t/p"),
		Region:          envOr("OTTSHELF_REGION", "IN"),
		Tiers:           splitList(envOr("OTTSHELF_TIERS", "flatrate")),
		Catalogs:        parseCatalogs(os.Getenv("OTTSHELF_CATALOGS")),
		PageBudget:      envInt("OTTSHELF_PAGE_BUDGET", 40),
		TimeBudget:      envDuration("OTTSHELF_TIME_BUDGET", 5*time.Minute),
		RefreshInterval: envDuration("OTTSHELF_REFRESH_INTERVAL", 0),
		ListenAddr:      envOr("OTTSHELF_LISTEN_ADDR", ":7000"),
	}
	return cfg
}

// parseCatalogs parses "id:Name:lang,id:Name:lang". Malformed entries are
// skipped; an empty or fully malformed value falls back to the default
// Malayalam + Hindi pair.
func parseCatalogs(s string) []models.Catalog {
	var catalogs []models.Catalog
	for _, entry := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			continue
		}
		id, name, lang := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
		if id == "" || name == "" || lang == "" {
			continue
		}
		catalogs = append(catalogs, models.Catalog{ID: id, Name: name, Language: lang})
	}
	if len(catalogs) == 0 {
		return []models.Catalog{
			{ID: "malayalam", Name: "Malayalam", Language: "ml"},
			{ID: "hindi", Name: "Hindi", Language: "hi"},
		}
	}
	return catalogs
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt reads a positive integer. Unset, malformed, zero, and negative
// values all fall back to def; there is no "unlimited" spelling.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

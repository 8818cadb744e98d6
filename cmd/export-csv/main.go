package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"

	"ottshelf/pkg/database"
)

// Dumps the durable catalog snapshot to CSV, one file of all catalogs,
// preserving the published order within each catalog.
func main() {
	out := flag.String("out", "exports/catalog.csv", "output CSV path")
	flag.Parse()

	ctx := context.Background()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := exportCatalog(ctx, db, *out); err != nil {
		log.Fatalf("export failed: %v", err)
	}
	log.Printf("catalog exported to %s", *out)
}

func exportCatalog(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"catalog", "position", "imdb_id", "tmdb_id", "title", "release_date", "poster_path", "backdrop_path", "overview"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT catalog, position, imdb_id, tmdb_id, title, release_date, poster_path, backdrop_path, overview
        FROM movies
        ORDER BY catalog, position
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			catalog      string
			position     string
			imdbID       string
			tmdbID       string
			title        string
			releaseDate  sql.NullString
			posterPath   sql.NullString
			backdropPath sql.NullString
			overview     sql.NullString
		)

		if err := rows.Scan(&catalog, &position, &imdbID, &tmdbID, &title, &releaseDate, &posterPath, &backdropPath, &overview); err != nil {
			return err
		}

		if err := w.Write([]string{
			catalog,
			position,
			imdbID,
			tmdbID,
			title,
			releaseDate.String,
			posterPath.String,
			backdropPath.String,
			overview.String,
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

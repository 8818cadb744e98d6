package database

import (
	"database/sql"
	"fmt"
)

// schema is embedded so the binary works without a checkout next to it.
// The movies table is the durable snapshot: one row per published movie,
// insertion order kept in `position`. catalog_meta tracks the generation
// counter and last-update time per catalog.
const schema = `
CREATE TABLE IF NOT EXISTS movies (
  catalog       TEXT NOT NULL,
  imdb_id       TEXT NOT NULL,
  tmdb_id       INTEGER NOT NULL,
  title         TEXT NOT NULL,
  release_date  TEXT,
  poster_path   TEXT,
  backdrop_path TEXT,
  overview      TEXT,
  position      INTEGER NOT NULL,
  PRIMARY KEY (catalog, imdb_id)
);

CREATE INDEX IF NOT EXISTS idx_movies_catalog_position
  ON movies (catalog, position);

CREATE TABLE IF NOT EXISTS catalog_meta (
  catalog    TEXT PRIMARY KEY,
  generation INTEGER NOT NULL,
  updated_at TEXT NOT NULL
);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

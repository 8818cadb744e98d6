package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"ottshelf/pkg/models"
)

// Store owns the published snapshots, one per catalog, and their durable
// copy in sqlite.
//
// The in-memory snapshot is the source of truth for serving: Read is a
// lock-free pointer load and never blocks on a crawl or on persistence.
// Publish swaps the pointer and hands the new snapshot to a single
// background writer, so durable writes are serialized and best-effort —
// a failed write is logged, never surfaced.
type Store struct {
	db    *sql.DB
	snaps map[string]*atomic.Pointer[models.Snapshot]

	persistCh chan persistJob
	wg        sync.WaitGroup
	closeOnce sync.Once

	mu     sync.Mutex // guards closed and the persistCh send in Publish
	closed bool
}

type persistJob struct {
	catalog string
	snap    models.Snapshot
}

// NewStore creates a store for a fixed set of catalogs, each starting empty,
// and starts the persistence writer. A nil db keeps the cache memory-only.
func NewStore(db *sql.DB, catalogs []string) *Store {
	s := &Store{
		db:        db,
		snaps:     make(map[string]*atomic.Pointer[models.Snapshot], len(catalogs)),
		persistCh: make(chan persistJob, 8),
	}
	for _, c := range catalogs {
		p := &atomic.Pointer[models.Snapshot]{}
		p.Store(&models.Snapshot{Movies: []models.Movie{}})
		s.snaps[c] = p
	}

	s.wg.Add(1)
	go s.persistLoop()
	return s
}

// Catalogs returns the catalog IDs this store serves.
func (s *Store) Catalogs() []string {
	out := make([]string, 0, len(s.snaps))
	for c := range s.snaps {
		out = append(out, c)
	}
	return out
}

// Read returns the current snapshot for a catalog. Unknown catalogs read as
// empty. The returned snapshot is fully consistent: a publish racing with
// this call either happened before it (new snapshot) or after (old one).
func (s *Store) Read(catalog string) models.Snapshot {
	p, ok := s.snaps[catalog]
	if !ok {
		return models.Snapshot{Movies: []models.Movie{}}
	}
	return *p.Load()
}

// Publish atomically replaces a catalog's snapshot with the given movie list,
// bumping the generation, and queues a durable write. Callers must not
// modify movies after passing it in.
func (s *Store) Publish(catalog string, movies []models.Movie) models.Snapshot {
	p, ok := s.snaps[catalog]
	if !ok {
		log.Printf("[cache] publish to unknown catalog %q dropped", catalog)
		return models.Snapshot{}
	}

	next := models.Snapshot{
		Movies:     movies,
		Generation: p.Load().Generation + 1,
		UpdatedAt:  time.Now().UTC(),
	}
	p.Store(&next)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		// a crawl can still finish while the server is shutting down; serve
		// its result from memory but the durable copy is gone
		log.Printf("[cache] store closed, skipping durable write for %s gen %d", catalog, next.Generation)
		return next
	}
	select {
	case s.persistCh <- persistJob{catalog: catalog, snap: next}:
	default:
		// durability is advisory; never let a slow disk block a publish
		log.Printf("[cache] persist queue full, skipping durable write for %s gen %d", catalog, next.Generation)
	}
	return next
}

// Load replaces the in-memory snapshots with whatever the database holds.
// Called once at startup. Any read failure leaves the affected catalog
// empty and is logged; a missing or fresh database is a valid empty cache,
// not an error.
func (s *Store) Load(ctx context.Context) {
	if s.db == nil {
		return
	}
	for catalog, p := range s.snaps {
		snap, err := s.loadCatalog(ctx, catalog)
		if err != nil {
			log.Printf("[cache] load %s failed, starting empty: %v", catalog, err)
			continue
		}
		if len(snap.Movies) == 0 && snap.Generation == 0 {
			continue
		}
		p.Store(&snap)
		log.Printf("[cache] loaded %s: %d movies (gen %d)", catalog, len(snap.Movies), snap.Generation)
	}
}

// Close stops the persistence writer after draining queued writes. Publishes
// after Close still swap the in-memory snapshot but are no longer persisted.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.persistCh)
		s.wg.Wait()
	})
}

func (s *Store) persistLoop() {
	defer s.wg.Done()
	for job := range s.persistCh {
		if err := s.persist(job.catalog, job.snap); err != nil {
			log.Printf("[cache] durable write for %s gen %d failed: %v", job.catalog, job.snap.Generation, err)
		}
	}
}

func (s *Store) persist(catalog string, snap models.Snapshot) error {
	if s.db == nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// rewrite the catalog wholesale; the snapshot is the unit of durability
	if _, err := tx.Exec(`DELETE FROM movies WHERE catalog = ?`, catalog); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO movies (catalog, imdb_id, tmdb_id, title, release_date, poster_path, backdrop_path, overview, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range snap.Movies {
		if _, err := stmt.Exec(
			catalog, m.ImdbID, m.TMDBID, m.Title,
			m.ReleaseDate, m.PosterPath, m.BackdropPath, m.Overview, i,
		); err != nil {
			return fmt.Errorf("insert %s: %w", m.ImdbID, err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO catalog_meta (catalog, generation, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(catalog) DO UPDATE SET
		  generation = excluded.generation,
		  updated_at = excluded.updated_at
	`, catalog, snap.Generation, snap.UpdatedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("upsert meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) loadCatalog(ctx context.Context, catalog string) (models.Snapshot, error) {
	snap := models.Snapshot{Movies: []models.Movie{}}

	row := s.db.QueryRowContext(ctx, `
		SELECT generation, updated_at FROM catalog_meta WHERE catalog = ?
	`, catalog)

	var updatedAt string
	if err := row.Scan(&snap.Generation, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return snap, nil
		}
		return snap, fmt.Errorf("scan meta: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		snap.UpdatedAt = t
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT imdb_id, tmdb_id, title, release_date, poster_path, backdrop_path, overview
		FROM movies
		WHERE catalog = ?
		ORDER BY position ASC
	`, catalog)
	if err != nil {
		return snap, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m            models.Movie
			releaseDate  sql.NullString
			posterPath   sql.NullString
			backdropPath sql.NullString
			overview     sql.NullString
		)
		if err := rows.Scan(&m.ImdbID, &m.TMDBID, &m.Title, &releaseDate, &posterPath, &backdropPath, &overview); err != nil {
			return snap, fmt.Errorf("scan movie: %w", err)
		}
		m.ReleaseDate = releaseDate.String
		m.PosterPath = posterPath.String
		m.BackdropPath = backdropPath.String
		m.Overview = overview.String
		snap.Movies = append(snap.Movies, m)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("rows err: %w", err)
	}
	return snap, nil
}

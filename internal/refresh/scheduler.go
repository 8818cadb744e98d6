package refresh

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ottshelf/internal/cache"
	"ottshelf/internal/crawl"
	"ottshelf/pkg/models"
)

// Crawler runs one crawl for one language. Satisfied by *crawl.Controller.
type Crawler interface {
	Crawl(ctx context.Context, language string) models.CrawlBatch
}

// Scheduler triggers refresh runs: crawl every configured catalog, merge
// into the published snapshots, publish. At most one run executes at a time;
// a trigger while running is refused, not queued.
type Scheduler struct {
	store    *cache.Store
	crawler  Crawler
	catalogs []models.Catalog
	interval time.Duration

	running atomic.Bool

	mu          sync.Mutex
	runID       string // current or most recent run
	stopReasons map[string]models.StopReason
}

// CatalogStatus describes one catalog in a status report.
type CatalogStatus struct {
	ItemCount      int               `json:"item_count"`
	Generation     uint64            `json:"generation"`
	LastUpdated    time.Time         `json:"last_updated"`
	LastStopReason models.StopReason `json:"last_stop_reason,omitempty"`
}

// Status is a point-in-time view of the scheduler and the cache.
type Status struct {
	State    string                   `json:"state"` // "idle" or "running"
	RunID    string                   `json:"run_id,omitempty"`
	Catalogs map[string]CatalogStatus `json:"catalogs"`
}

// NewScheduler creates a scheduler. interval <= 0 disables periodic runs;
// Run then only serves triggers.
func NewScheduler(store *cache.Store, crawler Crawler, catalogs []models.Catalog, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:       store,
		crawler:     crawler,
		catalogs:    catalogs,
		interval:    interval,
		stopReasons: make(map[string]models.StopReason, len(catalogs)),
	}
}

// Trigger starts a refresh run in the background unless one is already
// running. It reports whether a run was started and the run's ID.
func (s *Scheduler) Trigger(ctx context.Context) (bool, string) {
	if !s.running.CompareAndSwap(false, true) {
		return false, ""
	}

	runID := uuid.NewString()
	s.mu.Lock()
	s.runID = runID
	s.mu.Unlock()

	go s.run(ctx, runID)
	return true, runID
}

// Run blocks until ctx is done, firing a refresh every interval. A tick that
// lands while a run is still in flight is skipped by the run-lock.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if started, runID := s.Trigger(ctx); started {
				log.Printf("[refresh] periodic run %s started", runID)
			}
		}
	}
}

// Status reports the scheduler state and per-catalog cache counters.
func (s *Scheduler) Status() Status {
	state := "idle"
	if s.running.Load() {
		state = "running"
	}

	s.mu.Lock()
	runID := s.runID
	reasons := make(map[string]models.StopReason, len(s.stopReasons))
	for k, v := range s.stopReasons {
		reasons[k] = v
	}
	s.mu.Unlock()

	catalogs := make(map[string]CatalogStatus, len(s.catalogs))
	for _, c := range s.catalogs {
		snap := s.store.Read(c.ID)
		catalogs[c.ID] = CatalogStatus{
			ItemCount:      len(snap.Movies),
			Generation:     snap.Generation,
			LastUpdated:    snap.UpdatedAt,
			LastStopReason: reasons[c.ID],
		}
	}
	return Status{State: state, RunID: runID, Catalogs: catalogs}
}

// run crawls each catalog independently. Partial batches merge like full
// ones: whatever a crawl produced before stopping is still published.
func (s *Scheduler) run(ctx context.Context, runID string) {
	defer s.running.Store(false)
	start := time.Now()
	log.Printf("[refresh] run %s: refreshing %d catalogs", runID, len(s.catalogs))

	for _, c := range s.catalogs {
		batch := s.crawler.Crawl(ctx, c.Language)

		existing := s.store.Read(c.ID)
		merged, added := crawl.Merge(existing, batch)

		s.mu.Lock()
		s.stopReasons[c.ID] = batch.StopReason
		s.mu.Unlock()

		if added == 0 {
			log.Printf("[refresh] run %s: %s unchanged at %d movies (%s)", runID, c.ID, len(existing.Movies), batch.StopReason)
			continue
		}
		snap := s.store.Publish(c.ID, merged)
		log.Printf("[refresh] run %s: %s +%d movies, now %d (gen %d, %s)",
			runID, c.ID, added, len(snap.Movies), snap.Generation, batch.StopReason)
	}

	log.Printf("[refresh] run %s: done in %s", runID, time.Since(start).Round(time.Millisecond))
}

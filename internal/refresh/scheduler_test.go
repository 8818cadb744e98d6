package refresh

import (
	"context"
	"testing"
	"time"

	"ottshelf/internal/cache"
	"ottshelf/pkg/models"
)

// blockingCrawler parks every crawl until released.
type blockingCrawler struct {
	started chan string         // receives the language of each crawl
	release chan struct{}       // close to let crawls finish
	batches map[string]models.CrawlBatch
}

func (c *blockingCrawler) Crawl(ctx context.Context, language string) models.CrawlBatch {
	c.started <- language
	<-c.release
	return c.batches[language]
}

// instantCrawler returns canned batches immediately.
type instantCrawler struct {
	batches map[string]models.CrawlBatch
}

func (c *instantCrawler) Crawl(ctx context.Context, language string) models.CrawlBatch {
	return c.batches[language]
}

var testCatalogs = []models.Catalog{
	{ID: "malayalam", Name: "Malayalam", Language: "ml"},
	{ID: "hindi", Name: "Hindi", Language: "hi"},
}

func batchOf(reason models.StopReason, ids ...string) models.CrawlBatch {
	b := models.CrawlBatch{StopReason: reason}
	for _, id := range ids {
		b.Movies = append(b.Movies, models.Movie{ImdbID: id, Title: "Movie " + id})
	}
	b.Accepted = len(b.Movies)
	return b
}

func waitForIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for s.running.Load() {
		select {
		case <-deadline:
			t.Fatal("scheduler did not return to idle")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestTriggerRefusedWhileRunning(t *testing.T) {
	store := cache.NewStore(nil, []string{"malayalam", "hindi"})
	defer store.Close()

	crawler := &blockingCrawler{
		started: make(chan string, 2),
		release: make(chan struct{}),
		batches: map[string]models.CrawlBatch{
			"ml": batchOf(models.StopExhausted, "tt0001"),
			"hi": batchOf(models.StopExhausted),
		},
	}
	s := NewScheduler(store, crawler, testCatalogs, 0)

	started, runID := s.Trigger(context.Background())
	if !started || runID == "" {
		t.Fatalf("first trigger: started=%v runID=%q", started, runID)
	}
	<-crawler.started // the run is now inside a crawl

	if st := s.Status(); st.State != "running" || st.RunID != runID {
		t.Fatalf("status during run: %+v", st)
	}
	if started, _ := s.Trigger(context.Background()); started {
		t.Fatal("second trigger started a concurrent run")
	}

	close(crawler.release)
	<-crawler.started // second catalog's crawl
	waitForIdle(t, s)

	if st := s.Status(); st.State != "idle" {
		t.Fatalf("status after run: %+v", st)
	}

	// the lock is free again once the run finished
	if started, _ := s.Trigger(context.Background()); !started {
		t.Fatal("trigger after completion refused")
	}
	<-crawler.started
	<-crawler.started
	waitForIdle(t, s)
}

func TestRunMergesAndPublishes(t *testing.T) {
	store := cache.NewStore(nil, []string{"malayalam", "hindi"})
	defer store.Close()

	crawler := &instantCrawler{batches: map[string]models.CrawlBatch{
		"ml": batchOf(models.StopExhausted, "tt0001", "tt0002"),
		"hi": batchOf(models.StopExhausted, "tt0009"),
	}}
	s := NewScheduler(store, crawler, testCatalogs, 0)

	if started, _ := s.Trigger(context.Background()); !started {
		t.Fatal("trigger refused")
	}
	waitForIdle(t, s)

	ml := store.Read("malayalam")
	if len(ml.Movies) != 2 || ml.Movies[0].ImdbID != "tt0001" {
		t.Fatalf("malayalam snapshot wrong: %#v", ml.Movies)
	}
	if hi := store.Read("hindi"); len(hi.Movies) != 1 {
		t.Fatalf("hindi snapshot wrong: %#v", hi.Movies)
	}

	st := s.Status()
	if st.Catalogs["malayalam"].ItemCount != 2 || st.Catalogs["malayalam"].LastStopReason != models.StopExhausted {
		t.Fatalf("status catalogs wrong: %+v", st.Catalogs)
	}
}

func TestPartialBatchStillMerges(t *testing.T) {
	store := cache.NewStore(nil, []string{"malayalam", "hindi"})
	defer store.Close()

	crawler := &instantCrawler{batches: map[string]models.CrawlBatch{
		"ml": batchOf(models.StopTimeBudget, "tt0001"),
		"hi": batchOf(models.StopUpstreamError, "tt0009"),
	}}
	s := NewScheduler(store, crawler, testCatalogs, 0)

	s.Trigger(context.Background())
	waitForIdle(t, s)

	if ml := store.Read("malayalam"); len(ml.Movies) != 1 {
		t.Fatalf("time-budget partial batch discarded: %#v", ml.Movies)
	}
	if hi := store.Read("hindi"); len(hi.Movies) != 1 {
		t.Fatalf("upstream-error partial batch discarded: %#v", hi.Movies)
	}

	st := s.Status()
	if st.Catalogs["malayalam"].LastStopReason != models.StopTimeBudget {
		t.Fatalf("stop reason not recorded: %+v", st.Catalogs)
	}
}

func TestRerunAddsNothingAndKeepsGeneration(t *testing.T) {
	store := cache.NewStore(nil, []string{"malayalam", "hindi"})
	defer store.Close()

	crawler := &instantCrawler{batches: map[string]models.CrawlBatch{
		"ml": batchOf(models.StopExhausted, "tt0001"),
		"hi": batchOf(models.StopExhausted),
	}}
	s := NewScheduler(store, crawler, testCatalogs, 0)

	s.Trigger(context.Background())
	waitForIdle(t, s)
	gen := store.Read("malayalam").Generation

	s.Trigger(context.Background())
	waitForIdle(t, s)

	snap := store.Read("malayalam")
	if len(snap.Movies) != 1 {
		t.Fatalf("rerun changed the snapshot: %#v", snap.Movies)
	}
	if snap.Generation != gen {
		t.Fatalf("rerun republished with no additions: gen %d -> %d", gen, snap.Generation)
	}
}

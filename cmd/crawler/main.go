package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"ottshelf/internal/cache"
	"ottshelf/internal/crawl"
	"ottshelf/internal/tmdb"
	"ottshelf/pkg/database"
	"ottshelf/pkg/utils"
)

// One-shot crawl: refresh every configured catalog once, merge into the
// stored snapshots, and exit. Useful for cron-driven refreshes and for
// populating the database before first serving.
func main() {
	_ = godotenv.Load()

	cfg := utils.LoadConfig()
	if cfg.TMDBAPIKey == "" {
		log.Fatal("OTTSHELF_TMDB_API_KEY is required")
	}

	ctx := context.Background()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	catalogIDs := make([]string, 0, len(cfg.Catalogs))
	for _, c := range cfg.Catalogs {
		catalogIDs = append(catalogIDs, c.ID)
	}

	store := cache.NewStore(db, catalogIDs)
	store.Load(ctx)

	source, err := tmdb.New(cfg.TMDBAPIKey, cfg.TMDBBaseURL, cfg.Region)
	if err != nil {
		log.Fatalf("tmdb client: %v", err)
	}

	controller := &crawl.Controller{
		Source:     source,
		Filter:     &crawl.Filter{Source: source, Region: cfg.Region, Tiers: cfg.Tiers},
		PageBudget: cfg.PageBudget,
		TimeBudget: cfg.TimeBudget,
	}

	for _, c := range cfg.Catalogs {
		batch := controller.Crawl(ctx, c.Language)

		existing := store.Read(c.ID)
		merged, added := crawl.Merge(existing, batch)
		if added == 0 {
			log.Printf("%s: unchanged at %d movies (%s)", c.ID, len(existing.Movies), batch.StopReason)
			continue
		}

		snap := store.Publish(c.ID, merged)
		log.Printf("%s: +%d movies, now %d (gen %d, %s)", c.ID, added, len(snap.Movies), snap.Generation, batch.StopReason)
	}

	// drain queued durable writes before exit
	store.Close()
}

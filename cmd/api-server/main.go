package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"ottshelf/internal/cache"
	"ottshelf/internal/crawl"
	"ottshelf/internal/refresh"
	"ottshelf/internal/stremio"
	"ottshelf/internal/tmdb"
	"ottshelf/pkg/database"
	"ottshelf/pkg/utils"
)

func main() {
	_ = godotenv.Load() // optional .env for local runs

	cfg := utils.LoadConfig()
	if cfg.TMDBAPIKey == "" {
		log.Fatal("OTTSHELF_TMDB_API_KEY is required")
	}

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	catalogIDs := make([]string, 0, len(cfg.Catalogs))
	for _, c := range cfg.Catalogs {
		catalogIDs = append(catalogIDs, c.ID)
	}

	store := cache.NewStore(db, catalogIDs)
	defer store.Close()
	store.Load(context.Background())

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

	scheduler := refresh.NewScheduler(store, controller, cfg.Catalogs, cfg.RefreshInterval)

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(schedulerCtx)
	}()

	// cold-start refresh so the catalogs fill without waiting for a trigger
	if _, runID := scheduler.Trigger(schedulerCtx); runID != "" {
		log.Printf("startup refresh %s triggered", runID)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	handler := stremio.NewHandler(store, scheduler, cfg.Catalogs, cfg.ImageBaseURL)
	handler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down")
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("server stopped")
}

package crawl

import (
	"context"
	"log"
	"time"

	"ottshelf/pkg/models"
)

// maxPageCeiling is TMDB's documented maximum page number. It bounds the
// crawl loop even if the configured page budget is misconfigured upward.
const maxPageCeiling = 500

// Controller drives one crawl: paginate the upstream listing, filter each
// record, and accumulate a batch within page and wall-clock budgets.
type Controller struct {
	Source     Source
	Filter     *Filter
	PageBudget int           // pages per crawl; capped by maxPageCeiling
	TimeBudget time.Duration // wall-clock cap per crawl; 0 means no cap
}

// Crawl runs the page loop for one language. It never returns an error: a
// failed page stops the crawl and whatever was accumulated so far is still a
// valid partial batch, reported through StopReason.
func (c *Controller) Crawl(ctx context.Context, language string) models.CrawlBatch {
	start := time.Now()
	batch := models.CrawlBatch{Movies: []models.Movie{}}

	pageCap := c.PageBudget
	if pageCap <= 0 || pageCap > maxPageCeiling {
		pageCap = maxPageCeiling
	}

	for page := 1; ; page++ {
		if page > pageCap {
			batch.StopReason = models.StopPageBudget
			break
		}
		if c.TimeBudget > 0 && time.Since(start) > c.TimeBudget {
			batch.StopReason = models.StopTimeBudget
			break
		}

		records, hasMore, err := c.Source.DiscoverPage(ctx, language, page)
		if err != nil {
			log.Printf("[crawl] %s: page %d failed: %v", language, page, err)
			batch.StopReason = models.StopUpstreamError
			break
		}
		batch.PagesVisited++

		if len(records) == 0 {
			batch.StopReason = models.StopExhausted
			break
		}

		for _, raw := range records {
			batch.Considered++
			movie, ok := c.Filter.Accept(ctx, raw)
			if !ok {
				continue
			}
			batch.Movies = append(batch.Movies, movie)
			batch.Accepted++
		}

		if !hasMore {
			batch.StopReason = models.StopExhausted
			break
		}
	}

	log.Printf("[crawl] %s: %d accepted of %d considered across %d pages (%s, %s)",
		language, batch.Accepted, batch.Considered, batch.PagesVisited,
		batch.StopReason, time.Since(start).Round(time.Millisecond))
	return batch
}

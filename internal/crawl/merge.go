package crawl

import "ottshelf/pkg/models"

// Merge combines a crawled batch into an existing snapshot's movie list,
// deduplicating by IMDb ID. First write wins: a movie already in the
// snapshot is never overwritten by a later crawl, even if upstream data
// changed. The result keeps the existing order, then appends new movies in
// batch order, and reports how many were actually added.
//
// Merge is pure; publishing the result is the caller's job.
func Merge(existing models.Snapshot, batch models.CrawlBatch) ([]models.Movie, int) {
	seen := make(map[string]bool, len(existing.Movies))
	for _, m := range existing.Movies {
		seen[m.ImdbID] = true
	}

	merged := make([]models.Movie, len(existing.Movies), len(existing.Movies)+len(batch.Movies))
	copy(merged, existing.Movies)

	added := 0
	for _, m := range batch.Movies {
		if seen[m.ImdbID] {
			continue
		}
		seen[m.ImdbID] = true
		merged = append(merged, m)
		added++
	}
	return merged, added
}

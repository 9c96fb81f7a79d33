package enrich

import (
	"context"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"identivibe/pkg/item"
	"identivibe/pkg/logger"
	"identivibe/pkg/models"
)

// ContentFetcher fetches a user's own recent content for enrichment.
type ContentFetcher interface {
	UserContent(ctx context.Context, username string, limit int) ([]item.Item, error)
}

// Stage adds each sampled user's own captions to their bundle via a
// secondary fetch. Users whose content is private, unavailable, empty or
// unreachable are dropped and counted; every sampled user ends up either
// enriched or skipped.
type Stage struct {
	fetcher ContentFetcher
	perUser int
	workers int
	logger  logger.Logger
}

// New creates an enrichment stage. perUser bounds the secondary fetch per
// user; workers below 2 means sequential processing.
func New(fetcher ContentFetcher, perUser, workers int, log logger.Logger) *Stage {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Stage{
		fetcher: fetcher,
		perUser: perUser,
		workers: workers,
		logger:  log,
	}
}

// outcome is one user's enrichment result. Cancellation leaves later
// users unprocessed; those are neither enriched nor skipped.
type outcome struct {
	bundle    *models.UserBundle
	processed bool
}

// Enrich processes the sampled bundles in order and returns the enriched
// survivors plus the skip count. Cancellation aborts between users and
// surfaces the context error, but bundles completed before that point are
// still returned as valid output.
func (s *Stage) Enrich(ctx context.Context, bundles []models.UserBundle) ([]models.UserBundle, int, error) {
	var (
		results []outcome
		err     error
	)
	if s.workers > 1 && len(bundles) > 1 {
		results, err = s.enrichConcurrent(ctx, bundles)
		if err != nil {
			return nil, 0, err
		}
	} else {
		results = s.enrichSequential(ctx, bundles)
	}

	enriched := make([]models.UserBundle, 0, len(results))
	skipped := 0
	for _, r := range results {
		if !r.processed {
			continue
		}
		if r.bundle == nil {
			skipped++
			continue
		}
		enriched = append(enriched, *r.bundle)
	}

	s.logger.InfoWithFields("enrichment complete", map[string]interface{}{
		"sampled":  len(bundles),
		"enriched": len(enriched),
		"skipped":  skipped,
	})
	return enriched, skipped, ctx.Err()
}

func (s *Stage) enrichSequential(ctx context.Context, bundles []models.UserBundle) []outcome {
	results := make([]outcome, len(bundles))
	for i, b := range bundles {
		if ctx.Err() != nil {
			break
		}
		results[i] = outcome{bundle: s.enrichOne(ctx, b), processed: true}
	}
	return results
}

func (s *Stage) enrichConcurrent(ctx context.Context, bundles []models.UserBundle) ([]outcome, error) {
	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := make([]outcome, len(bundles))
	var wg sync.WaitGroup
	for i, b := range bundles {
		if ctx.Err() != nil {
			break
		}
		i, b := i, b
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			results[i] = outcome{bundle: s.enrichOne(ctx, b), processed: true}
		}); err != nil {
			wg.Done()
		}
	}
	wg.Wait()

	return results, nil
}

// enrichOne returns nil when the user should be skipped.
func (s *Stage) enrichOne(ctx context.Context, b models.UserBundle) *models.UserBundle {
	items, err := s.fetcher.UserContent(ctx, b.Username, s.perUser)
	if err != nil {
		s.logger.WarnWithFields("enrichment fetch failed, skipping user", map[string]interface{}{
			"username": b.Username,
			"error":    err.Error(),
		})
		return nil
	}
	if unavailable(items) {
		s.logger.DebugWithFields("user content private or unavailable", map[string]interface{}{
			"username": b.Username,
		})
		return nil
	}

	captions := make([]string, 0, len(items))
	for _, it := range items {
		if c := strings.TrimSpace(it.Caption()); c != "" {
			captions = append(captions, c)
		}
	}
	if len(captions) == 0 {
		return nil
	}

	b.Captions = captions
	return &b
}

// unavailable reports whether a user content response indicates a private
// or otherwise inaccessible account: any item carrying a private flag or
// an error indicator marks the whole account. An empty result set counts
// too: these fetches target accounts already known to have posted.
func unavailable(items []item.Item) bool {
	if len(items) == 0 {
		return true
	}
	for _, it := range items {
		if it.Private() || it.Errored() {
			return true
		}
		text := strings.ToLower(it.ErrorText())
		if strings.Contains(text, "private") || strings.Contains(text, "forbidden") {
			return true
		}
	}
	return false
}

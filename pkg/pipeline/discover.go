package pipeline

import (
	"context"
	"strings"

	"identivibe/pkg/item"
	"identivibe/pkg/logger"
)

// Discovery is what walking the seed neighborhood produced: the unique
// authors in encounter order and every raw item visited on the way, kept
// for the bundling stage.
type Discovery struct {
	Users []string
	Items []item.Item
}

// Walker expands a set of seed nodes breadth-first into a bounded, deduped
// author list. Each node is fetched once; a failed node is logged and
// skipped rather than aborting the walk.
type Walker struct {
	maxUsers int
	logger   logger.Logger
}

// NewWalker creates a Walker. A non-positive maxUsers means unbounded.
func NewWalker(maxUsers int, log logger.Logger) *Walker {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Walker{maxUsers: maxUsers, logger: log}
}

// Walk fetches each seed node and collects the authors of the returned
// items. Deleted and blank authors are ignored. The walk stops early once
// the user bound is reached or the context is cancelled.
func (w *Walker) Walk(ctx context.Context, seeds []string, fetch func(ctx context.Context, seed string) ([]item.Item, error)) (*Discovery, error) {
	seen := make(map[string]struct{})
	d := &Discovery{}

	for _, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if w.maxUsers > 0 && len(d.Users) >= w.maxUsers {
			break
		}

		items, err := fetch(ctx, seed)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			w.logger.WarnWithFields("seed fetch failed, skipping", map[string]interface{}{
				"seed":  seed,
				"error": err.Error(),
			})
			continue
		}
		d.Items = append(d.Items, items...)

		for _, it := range items {
			author := strings.TrimSpace(it.Author())
			if author == "" || strings.EqualFold(author, "[deleted]") {
				continue
			}
			if _, dup := seen[author]; dup {
				continue
			}
			seen[author] = struct{}{}
			d.Users = append(d.Users, author)
			if w.maxUsers > 0 && len(d.Users) >= w.maxUsers {
				break
			}
		}
	}

	w.logger.DebugWithFields("discovery walk finished", map[string]interface{}{
		"seeds": len(seeds),
		"users": len(d.Users),
		"items": len(d.Items),
	})
	return d, nil
}

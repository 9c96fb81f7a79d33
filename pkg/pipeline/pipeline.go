package pipeline

import (
	"context"
	"strings"

	"identivibe/pkg/bundle"
	"identivibe/pkg/config"
	"identivibe/pkg/enrich"
	errs "identivibe/pkg/errors"
	"identivibe/pkg/item"
	"identivibe/pkg/logger"
	"identivibe/pkg/models"
	"identivibe/pkg/sample"
)

// State is the pipeline's current stage.
type State string

const (
	StateDiscovering State = "discovering"
	StateBundling    State = "bundling"
	StateSampling    State = "sampling"
	StateEnriching   State = "enriching"
	StateDone        State = "done"
)

// Source is a platform backend the pipeline harvests from: discover the
// audience around a seed, then fetch an individual user's own content.
type Source interface {
	DiscoverUsers(ctx context.Context, seed string) (*Discovery, error)
	UserContent(ctx context.Context, username string, limit int) ([]item.Item, error)
}

// Result is a finished harvest: the enriched user bundles plus how many
// sampled users were dropped during enrichment.
type Result struct {
	Users   []models.UserBundle
	Skipped int
}

// Pipeline drives a harvest through its stages in order: discover the
// audience, bundle content per author, sample, enrich. A seed with no raw
// items or no bundleable authors aborts the run with a typed sentinel; an
// empty sample or fully-skipped enrichment is a legal empty result.
type Pipeline struct {
	source  Source
	cfg     config.HarvestConfig
	sampler *sample.Sampler
	logger  logger.Logger
	state   State
}

// New creates a Pipeline over a platform source. A nil sampler gets a
// clock-seeded one.
func New(source Source, cfg config.HarvestConfig, sampler *sample.Sampler, log logger.Logger) *Pipeline {
	if sampler == nil {
		sampler = sample.New()
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pipeline{
		source:  source,
		cfg:     cfg,
		sampler: sampler,
		logger:  log,
		state:   StateDiscovering,
	}
}

// State returns the stage the pipeline last entered.
func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) enter(s State) {
	p.state = s
	p.logger.InfoWithFields("pipeline stage", map[string]interface{}{"stage": string(s)})
}

// Run executes the full harvest for one seed.
func (p *Pipeline) Run(ctx context.Context, seed string) (*Result, error) {
	p.enter(StateDiscovering)
	discovery, err := p.source.DiscoverUsers(ctx, seed)
	if err != nil {
		return nil, err
	}
	if len(discovery.Items) == 0 {
		return nil, errs.ErrNoContent
	}

	// Only authors the walk admitted get bundled: the deleted-author
	// sentinel and anyone past the user cap stay out even though their
	// raw items were kept.
	p.enter(StateBundling)
	admitted := make(map[string]struct{}, len(discovery.Users))
	for _, u := range discovery.Users {
		admitted[u] = struct{}{}
	}
	bundler := bundle.New(p.cfg.MaxCommentsPerUser, p.cfg.Dedupe)
	for _, it := range discovery.Items {
		if _, ok := admitted[strings.TrimSpace(it.Author())]; ok {
			bundler.AddItem(it)
		}
	}
	if bundler.Count() == 0 {
		return nil, errs.ErrNoUsers
	}

	// An empty sample is legal and yields an empty final result.
	p.enter(StateSampling)
	sampled := p.sampler.Usernames(bundler, p.cfg.MinComments, p.cfg.SampleSize)
	bundles := make([]models.UserBundle, 0, len(sampled))
	for _, username := range sampled {
		bundles = append(bundles, models.UserBundle{
			Username: username,
			Comments: bundler.Texts(username),
		})
	}

	p.enter(StateEnriching)
	stage := enrich.New(p.source, p.cfg.UserPosts, p.cfg.EnrichWorkers, p.logger)
	enriched, skipped, err := stage.Enrich(ctx, bundles)
	if err != nil {
		return &Result{Users: enriched, Skipped: skipped}, err
	}

	p.enter(StateDone)
	return &Result{Users: enriched, Skipped: skipped}, nil
}

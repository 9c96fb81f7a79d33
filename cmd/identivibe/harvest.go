package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"identivibe/pkg/ai"
	"identivibe/pkg/auth"
	"identivibe/pkg/cache"
	"identivibe/pkg/config"
	errs "identivibe/pkg/errors"
	"identivibe/pkg/logger"
	"identivibe/pkg/models"
	"identivibe/pkg/output"
	"identivibe/pkg/scraper"
)

var (
	// Harvest command flags
	platform       string
	seedPosts      int
	commentsPer    int
	maxUsers       int
	sampleSize     int
	userPosts      int
	maxPerUser     int
	enrichWorkers  int
	cacheDir       string
	noCache        bool
	outPath        string
	apifyToken     string
	annotate       bool
)

// harvestCmd represents the harvest command
var harvestCmd = &cobra.Command{
	Use:   "harvest <target>",
	Short: "Harvest the audience around a seed account or community",
	Long: `Harvest the audience around a seed target and write a JSON payload.

The target depends on the platform:
  reddit     a subreddit name or URL (e.g. golang or r/golang)
  instagram  a profile handle or URL
  youtube    a channel handle (e.g. @somechannel)

Instagram harvests need an Apify token, stored via 'identivibe auth login',
the APIFY_TOKEN environment variable, or the --token flag. YouTube harvests
need YOUTUBE_API_KEY.`,
	Example: `  # Harvest a subreddit's commenters
  identivibe harvest r/golang

  # Harvest an Instagram audience with a larger sample
  identivibe harvest natgeo --platform instagram --sample 400

  # Parallel enrichment, no cache
  identivibe harvest r/cooking --enrich-workers 4 --no-cache`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runHarvest(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(harvestCmd)

	harvestCmd.Flags().StringVarP(&platform, "platform", "P", "", "platform to harvest (reddit, instagram, youtube)")
	harvestCmd.Flags().IntVar(&seedPosts, "posts", 0, "seed posts to expand")
	harvestCmd.Flags().IntVar(&commentsPer, "comments", 0, "comments to pull per seed post")
	harvestCmd.Flags().IntVar(&maxUsers, "max-users", 0, "cap on discovered users")
	harvestCmd.Flags().IntVar(&sampleSize, "sample", 0, "sample size drawn from eligible users")
	harvestCmd.Flags().IntVar(&userPosts, "user-posts", 0, "posts to pull per sampled user during enrichment")
	harvestCmd.Flags().IntVar(&maxPerUser, "max-comments-per-user", 0, "cap on stored comments per user")
	harvestCmd.Flags().IntVar(&enrichWorkers, "enrich-workers", 0, "concurrent enrichment workers")
	harvestCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory for the result cache")
	harvestCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	harvestCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file path")
	harvestCmd.Flags().StringVar(&apifyToken, "token", "", "Apify API token")
	harvestCmd.Flags().BoolVar(&annotate, "annotate", false, "annotate bundles with the configured AI model")
}

func runHarvest(cmd *cobra.Command, args []string) {
	target := strings.TrimSpace(args[0])

	flags := make(map[string]interface{})
	if platform != "" {
		flags["platform"] = platform
	}
	if seedPosts > 0 {
		flags["posts"] = seedPosts
	}
	if commentsPer > 0 {
		flags["comments"] = commentsPer
	}
	if maxUsers > 0 {
		flags["max-users"] = maxUsers
	}
	if sampleSize > 0 {
		flags["sample"] = sampleSize
	}
	if userPosts > 0 {
		flags["user-posts"] = userPosts
	}
	if maxPerUser > 0 {
		flags["max-comments-per-user"] = maxPerUser
	}
	if enrichWorkers > 0 {
		flags["enrich-workers"] = enrichWorkers
	}
	if cacheDir != "" {
		flags["cache-dir"] = cacheDir
	}
	if noCache {
		flags["no-cache"] = true
	}
	if outPath != "" {
		flags["out"] = outPath
	}
	if apifyToken != "" {
		flags["token"] = apifyToken
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		fatal("failed to load configuration", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		fatal("failed to initialize logger", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("identivibe starting")

	// Fill the Apify token from stored credentials when neither flag nor
	// environment provided one.
	if cfg.Harvest.Platform == "instagram" && cfg.Apify.Token == "" {
		if manager, err := auth.NewManager(); err == nil {
			if token, err := manager.Token("apify"); err == nil {
				cfg.Apify.Token = token
				log.Info("using stored Apify credentials")
			}
		}
	}

	store, err := cache.New(cfg.Cache.Directory, cfg.Cache.Enabled, log)
	if err != nil {
		fatal("failed to initialize cache", err)
	}

	s, err := scraper.New(cfg, store, log)
	if err != nil {
		fatal("failed to initialize scraper", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	payload, err := s.GetPayload(ctx, target)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNoContent):
			log.WithField("target", target).Error("no content discovered around the seed")
		case errors.Is(err, errs.ErrNoUsers):
			log.WithField("target", target).Error("no bundleable users found around the seed")
		default:
			log.WithError(err).WithField("target", target).Error("harvest failed")
		}
		os.Exit(1)
	}

	if annotate || cfg.AI.Enabled {
		annotatePayload(ctx, cfg, payload, log)
	}

	if err := output.WritePayload(cfg.Output.Path, payload, log); err != nil {
		fatal("failed to write output", err)
	}

	log.InfoWithFields("harvest complete", map[string]interface{}{
		"platform": payload.Platform,
		"seed":     payload.Seed,
		"users":    len(payload.Users),
		"output":   cfg.Output.Path,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	})
}

// annotatePayload runs the optional AI pass. Annotation failures degrade
// to unannotated bundles, never a failed harvest.
func annotatePayload(ctx context.Context, cfg *config.Config, payload *models.PlatformPayload, log logger.Logger) {
	annotator, err := ai.NewAnnotator(cfg.AI, log)
	if err != nil {
		log.WithError(err).Warn("failed to initialize annotator, skipping annotation")
		return
	}

	for i := range payload.Users {
		if ctx.Err() != nil {
			return
		}
		annotation, err := annotator.Annotate(ctx, payload.Users[i])
		if err != nil {
			log.WithError(err).WithField("username", payload.Users[i].Username).
				Warn("annotation failed, leaving bundle unannotated")
			continue
		}
		payload.Users[i].Labels = annotation.Labels
		payload.Users[i].Summary = annotation.Summary
	}
}

func fatal(msg string, err error) {
	log := logger.GetLogger()
	log.WithError(err).Error(msg)
	os.Exit(1)
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"identivibe/pkg/logger"
	"identivibe/pkg/output"
	"identivibe/pkg/scraper"
)

var mergeOut string

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge <payload.json> [payload.json...]",
	Short: "Merge harvested payloads from multiple platforms",
	Long: `Merge payload files from separate platform runs into one document.

Merging is shallow and last-write-wins: when two payloads carry the same
field, the one given later on the command line stands.`,
	Example: `  identivibe merge reddit.json instagram.json --out merged.json`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runMerge(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "merged.json", "output file path")
}

func runMerge(cmd *cobra.Command, args []string) {
	if err := logger.Initialize(nil); err != nil {
		fatal("failed to initialize logger", err)
	}
	log := logger.GetLogger()

	merger := scraper.NewMerger()
	for _, path := range args {
		payload, err := output.ReadPayload(path)
		if err != nil {
			log.WithError(err).WithField("file", path).Error("failed to load payload")
			os.Exit(1)
		}
		merger.Add(payload)
		log.InfoWithFields("payload merged", map[string]interface{}{
			"file":     path,
			"platform": payload.Platform,
			"users":    len(payload.Users),
		})
	}

	if err := output.WriteMerged(mergeOut, merger.Merged(), log); err != nil {
		fatal("failed to write merged output", err)
	}
}

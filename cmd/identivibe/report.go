package main

import (
	"github.com/spf13/cobra"

	"identivibe/internal/report"
	"identivibe/pkg/logger"
)

var (
	reportFile string
	reportPort string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Serve charts over a harvested payload file",
	Long: `Serve a local dashboard charting a harvested payload: content volume
per user and aggregate community activity. The payload file is re-read on
every request, so a re-run harvest shows up on refresh.`,
	Example: `  identivibe report --file bundles.json --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(nil); err != nil {
			return err
		}
		return report.Serve(reportFile, reportPort, logger.GetLogger())
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&reportFile, "file", "f", "bundles.json", "payload file to chart")
	reportCmd.Flags().StringVarP(&reportPort, "port", "p", "8080", "port to listen on")
}

// Package report serves a local dashboard over a harvested payload file:
// a histogram of content volume per user and a pie of community activity.
package report

import (
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"identivibe/pkg/logger"
	"identivibe/pkg/models"
	"identivibe/pkg/output"
)

// maxBars keeps the per-user chart readable for large samples.
const maxBars = 40

// Serve renders charts for the payload file on every request and blocks
// serving HTTP on the given port.
func Serve(dataFile, port string, log logger.Logger) error {
	if log == nil {
		log = logger.GetLogger()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		payload, err := output.ReadPayload(dataFile)
		if err != nil {
			log.WithError(err).Error("failed to load payload")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if err := contentBar(payload).Render(w); err != nil {
			log.WithError(err).Error("failed to render chart")
			return
		}
		if pie := communityPie(payload); pie != nil {
			if err := pie.Render(w); err != nil {
				log.WithError(err).Error("failed to render chart")
			}
		}
	})

	log.InfoWithFields("report server listening", map[string]interface{}{
		"port": port,
		"file": dataFile,
	})
	return http.ListenAndServe(":"+port, mux)
}

// contentBar charts comments and captions per user, largest bundles first.
func contentBar(payload *models.PlatformPayload) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Content per user"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)

	users := make([]models.UserBundle, len(payload.Users))
	copy(users, payload.Users)
	sort.Slice(users, func(i, j int) bool {
		return len(users[i].Comments) > len(users[j].Comments)
	})
	if len(users) > maxBars {
		users = users[:maxBars]
	}

	var x []string
	var comments, captions []opts.BarData
	for _, u := range users {
		x = append(x, u.Username)
		comments = append(comments, opts.BarData{Value: len(u.Comments)})
		captions = append(captions, opts.BarData{Value: len(u.Captions)})
	}
	bar.SetXAxis(x).
		AddSeries("Comments", comments).
		AddSeries("Captions", captions)
	return bar
}

// communityPie charts aggregate subreddit activity across all users, or
// nil when no histograms are present.
func communityPie(payload *models.PlatformPayload) *charts.Pie {
	counts := make(map[string]int)
	for _, u := range payload.Users {
		for _, h := range u.Histogram {
			counts[h.Subreddit] += h.Count
		}
	}
	if len(counts) == 0 {
		return nil
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Community activity"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)

	var items []opts.PieData
	for name, count := range counts {
		items = append(items, opts.PieData{Name: name, Value: count})
	}
	pie.AddSeries("Activity", items)
	return pie
}

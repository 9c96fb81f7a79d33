package models

// SubredditCount is one histogram entry of a user's community activity.
type SubredditCount struct {
	Subreddit string `json:"subreddit"`
	Count     int    `json:"count"`
}

// UserBundle is the unit of pipeline output: one user's aggregated primary
// content plus the secondary signal collected during enrichment. A bundle
// with empty captions never appears in final output; such users are
// counted as skipped instead.
type UserBundle struct {
	Username  string           `json:"username"`
	Comments  []string         `json:"comments"`
	Captions  []string         `json:"captions"`
	Histogram []SubredditCount `json:"subreddit_histogram,omitempty"`

	// Filled by the optional AI annotation pass
	Labels  []string `json:"labels,omitempty"`
	Summary string   `json:"summary,omitempty"`
}

// PlatformPayload is the terminal output of one platform run.
type PlatformPayload struct {
	Platform string       `json:"platform"`
	Seed     string       `json:"seed"`
	Users    []UserBundle `json:"users"`
	Note     string       `json:"note,omitempty"`
}

// Fields flattens the payload into a field map for merging with payloads
// from other platforms. Merging is shallow and last-write-wins: a later
// platform's value replaces an earlier one under the same key.
func (p *PlatformPayload) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"platform": p.Platform,
		"seed":     p.Seed,
		"users":    p.Users,
	}
	if p.Note != "" {
		fields["note"] = p.Note
	}
	return fields
}

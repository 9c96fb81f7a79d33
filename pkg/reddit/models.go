package reddit

import "encoding/json"

// Listing is the standard Reddit JSON envelope. Missing data or children
// decode to zero values, which downstream code treats as empty pages.
type Listing struct {
	Data struct {
		Children []Thing `json:"children"`
	} `json:"data"`
}

// Thing is one wrapped content unit: a post (t3) or comment (t1).
type Thing struct {
	Kind string    `json:"kind"`
	Data ThingData `json:"data"`
}

// ThingData carries the fields the pipeline reads. Posts populate Title
// and Selftext, comments populate Body.
type ThingData struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Subreddit string `json:"subreddit"`
	Title     string `json:"title"`
	Selftext  string `json:"selftext"`
	Body      string `json:"body"`
	Permalink string `json:"permalink"`
}

// decodeCommentsPage handles the comments endpoint, which returns a
// two-element array [post listing, comment listing] rather than a single
// listing. Anything shorter decodes as empty.
func decodeCommentsPage(data []byte) ([]Thing, error) {
	var pages []Listing
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, err
	}
	if len(pages) < 2 {
		return nil, nil
	}
	return pages[1].Data.Children, nil
}

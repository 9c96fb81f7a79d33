package scraper

import (
	"context"
	"errors"
	"testing"

	"identivibe/pkg/cache"
	"identivibe/pkg/config"
	errs "identivibe/pkg/errors"
	"identivibe/pkg/models"
	"identivibe/pkg/reddit"
)

func TestNewUnknownPlatform(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Harvest.Platform = "myspace"
	store, _ := cache.New(t.TempDir(), false, nil)

	_, err := New(cfg, store, nil)
	var apiErr *errs.Error
	if !errors.As(err, &apiErr) || apiErr.Type != errs.ErrorTypeUnknown {
		t.Fatalf("expected a typed error for an unknown platform, got %v", err)
	}
}

func TestNewDispatchesByPlatform(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Apify.Token = "tok"
	cfg.YouTube.APIKey = "key"
	store, _ := cache.New(t.TempDir(), false, nil)

	tests := []struct {
		platform string
		expected string
	}{
		{"reddit", "reddit"},
		{"Instagram", "instagram"},
		{"YOUTUBE", "youtube"},
	}
	for _, test := range tests {
		cfg.Harvest.Platform = test.platform
		s, err := New(cfg, store, nil)
		if err != nil {
			t.Fatalf("%s: %v", test.platform, err)
		}
		if s.Platform() != test.expected {
			t.Errorf("%s: got platform %s", test.platform, s.Platform())
		}
	}
}

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"NASA", "nasa"},
		{"@NASA", "nasa"},
		{"https://www.instagram.com/nasa/", "nasa"},
		{"https://instagram.com/nasa?igsh=abc", "nasa"},
		{"instagram.com/nasa/#top", "nasa"},
		{"  nasa  ", "nasa"},
	}
	for _, test := range tests {
		if got := NormalizeHandle(test.in); got != test.expected {
			t.Errorf("NormalizeHandle(%q) = %q, expected %q", test.in, got, test.expected)
		}
	}
}

func TestNormalizeSubreddit(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"golang", "golang"},
		{"r/golang", "golang"},
		{"https://www.reddit.com/r/golang/", "golang"},
		{"reddit.com/r/golang?sort=new", "golang"},
		{"  r/golang  ", "golang"},
	}
	for _, test := range tests {
		if got := NormalizeSubreddit(test.in); got != test.expected {
			t.Errorf("NormalizeSubreddit(%q) = %q, expected %q", test.in, got, test.expected)
		}
	}
}

func TestMergerLastWriteWins(t *testing.T) {
	first := &models.PlatformPayload{
		Platform: "reddit",
		Seed:     "golang",
		Users:    []models.UserBundle{{Username: "alice"}},
		Note:     "1 sampled users skipped as private, unavailable or empty",
	}
	second := &models.PlatformPayload{
		Platform: "instagram",
		Seed:     "nasa",
		Users:    []models.UserBundle{{Username: "bob"}},
	}

	m := NewMerger()
	m.Add(first)
	m.Add(second)
	merged := m.Merged()

	if merged["platform"] != "instagram" || merged["seed"] != "nasa" {
		t.Errorf("later payload must win: %v", merged)
	}
	users, ok := merged["users"].([]models.UserBundle)
	if !ok || len(users) != 1 || users[0].Username != "bob" {
		t.Errorf("unexpected users: %v", merged["users"])
	}
	// Note was only set on the first payload, so it survives the merge.
	if merged["note"] == "" {
		t.Error("unset keys in a later payload must not clear earlier ones")
	}
}

func TestSkipNote(t *testing.T) {
	if got := skipNote(0); got != "" {
		t.Errorf("zero skips must produce no note, got %q", got)
	}
	if got := skipNote(3); got != "3 sampled users skipped as private, unavailable or empty" {
		t.Errorf("unexpected note %q", got)
	}
}

type fakeRedditAPI struct {
	listings map[string][]reddit.Thing // sort -> posts
	comments map[string][]reddit.Thing // postID -> comments
	user     map[string][]reddit.Thing // username -> submissions
	activity map[string][]reddit.Thing // username -> comments site-wide
}

func thing(data reddit.ThingData) reddit.Thing {
	return reddit.Thing{Kind: "t1", Data: data}
}

func (f *fakeRedditAPI) SubredditPosts(_ context.Context, _, sort string, _ int) ([]reddit.Thing, error) {
	return f.listings[sort], nil
}

func (f *fakeRedditAPI) PostComments(_ context.Context, _, postID string, _ int) ([]reddit.Thing, error) {
	return f.comments[postID], nil
}

func (f *fakeRedditAPI) UserComments(_ context.Context, username string, _ int) ([]reddit.Thing, error) {
	return f.activity[username], nil
}

func (f *fakeRedditAPI) UserPosts(_ context.Context, username string, _ int) ([]reddit.Thing, error) {
	return f.user[username], nil
}

func redditHarvestConfig() config.HarvestConfig {
	return config.HarvestConfig{
		SeedPosts:          4,
		CommentsPerPost:    50,
		MaxUsers:           10,
		SampleSize:         10,
		UserPosts:          10,
		MaxCommentsPerUser: 10,
		MinComments:        1,
		Dedupe:             true,
		EnrichWorkers:      1,
	}
}

// Hot and new listings overlap on p1; the duplicate must be walked once.
func TestRedditDiscoverDedupesListings(t *testing.T) {
	api := &fakeRedditAPI{
		listings: map[string][]reddit.Thing{
			"hot": {thing(reddit.ThingData{ID: "p1"}), thing(reddit.ThingData{ID: "p2"})},
			"new": {thing(reddit.ThingData{ID: "p1"}), thing(reddit.ThingData{ID: "p3"})},
		},
		comments: map[string][]reddit.Thing{
			"p1": {thing(reddit.ThingData{Author: "alice", Body: "a"})},
			"p2": {thing(reddit.ThingData{Author: "bob", Body: "b"})},
			"p3": {thing(reddit.ThingData{Author: "carol", Body: "c"})},
		},
	}

	s := NewReddit(api, redditHarvestConfig(), nil, nil)
	d, err := s.DiscoverUsers(context.Background(), "golang")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Users) != 3 {
		t.Errorf("expected 3 unique users, got %v", d.Users)
	}
	// One authorless post item plus one comment per unique post.
	if len(d.Items) != 6 {
		t.Errorf("p1 walked twice: %d items", len(d.Items))
	}
}

// A post's own author counts as discovered even when nobody commented.
func TestRedditDiscoverIncludesPostAuthors(t *testing.T) {
	api := &fakeRedditAPI{
		listings: map[string][]reddit.Thing{
			"hot": {thing(reddit.ThingData{ID: "p1", Author: "poster", Title: "quiet thread"})},
		},
	}

	s := NewReddit(api, redditHarvestConfig(), nil, nil)
	d, err := s.DiscoverUsers(context.Background(), "golang")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Users) != 1 || d.Users[0] != "poster" {
		t.Fatalf("expected the post author discovered, got %v", d.Users)
	}
	if len(d.Items) != 1 || d.Items[0].Text() != "quiet thread" {
		t.Errorf("post item missing or wrong: %+v", d.Items)
	}
}

// Post authors come before the post's commenters in encounter order.
func TestRedditDiscoverOrdersPostAuthorFirst(t *testing.T) {
	api := &fakeRedditAPI{
		listings: map[string][]reddit.Thing{
			"hot": {thing(reddit.ThingData{ID: "p1", Author: "poster", Title: "t"})},
		},
		comments: map[string][]reddit.Thing{
			"p1": {thing(reddit.ThingData{Author: "commenter", Body: "reply"})},
		},
	}

	s := NewReddit(api, redditHarvestConfig(), nil, nil)
	d, err := s.DiscoverUsers(context.Background(), "golang")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Users) != 2 || d.Users[0] != "poster" || d.Users[1] != "commenter" {
		t.Fatalf("unexpected order: %v", d.Users)
	}
}

func TestRedditUserContentCaptions(t *testing.T) {
	api := &fakeRedditAPI{
		user: map[string][]reddit.Thing{
			"alice": {
				thing(reddit.ThingData{Author: "alice", Title: "My post", Selftext: "Body text"}),
				thing(reddit.ThingData{Author: "alice", Title: "Link only"}),
			},
		},
	}

	s := NewReddit(api, redditHarvestConfig(), nil, nil)
	items, err := s.UserContent(context.Background(), "alice", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Caption() != "My post\n\nBody text" {
		t.Errorf("unexpected caption %q", items[0].Caption())
	}
	if items[1].Caption() != "Link only" {
		t.Errorf("title-only post must keep its title, got %q", items[1].Caption())
	}
}

func TestTopSubreddits(t *testing.T) {
	var things []reddit.Thing
	add := func(sub string, n int) {
		for i := 0; i < n; i++ {
			things = append(things, thing(reddit.ThingData{Subreddit: sub}))
		}
	}
	add("golang", 5)
	add("programming", 3)
	add("zsh", 3)
	add("askreddit", 1)

	got := topSubreddits(things, 3)
	if len(got) != 3 {
		t.Fatalf("expected truncation to 3, got %d", len(got))
	}
	if got[0].Subreddit != "golang" || got[0].Count != 5 {
		t.Errorf("unexpected leader: %+v", got[0])
	}
	// programming and zsh tie on count; name breaks the tie.
	if got[1].Subreddit != "programming" || got[2].Subreddit != "zsh" {
		t.Errorf("tiebreak broken: %+v", got[1:])
	}

	if topSubreddits(nil, 3) != nil {
		t.Error("no activity must yield a nil histogram")
	}
}

func TestRedditGetPayload(t *testing.T) {
	api := &fakeRedditAPI{
		listings: map[string][]reddit.Thing{
			"hot": {thing(reddit.ThingData{ID: "p1"})},
		},
		comments: map[string][]reddit.Thing{
			"p1": {
				thing(reddit.ThingData{Author: "alice", Body: "great write-up"}),
				thing(reddit.ThingData{Author: "bob", Body: "agreed"}),
			},
		},
		user: map[string][]reddit.Thing{
			"alice": {thing(reddit.ThingData{Author: "alice", Title: "My project"})},
			// bob has no submissions and ends up skipped
		},
		activity: map[string][]reddit.Thing{
			"alice": {thing(reddit.ThingData{Subreddit: "golang"})},
		},
	}

	s := NewReddit(api, redditHarvestConfig(), nil, nil)
	payload, err := s.GetPayload(context.Background(), "r/golang")
	if err != nil {
		t.Fatal(err)
	}

	if payload.Platform != "reddit" || payload.Seed != "golang" {
		t.Errorf("unexpected payload header: %+v", payload)
	}
	if len(payload.Users) != 1 || payload.Users[0].Username != "alice" {
		t.Fatalf("expected only alice, got %+v", payload.Users)
	}
	if len(payload.Users[0].Histogram) != 1 || payload.Users[0].Histogram[0].Subreddit != "golang" {
		t.Errorf("histogram not attached: %+v", payload.Users[0].Histogram)
	}
	if payload.Note != "1 sampled users skipped as private, unavailable or empty" {
		t.Errorf("unexpected note %q", payload.Note)
	}
}

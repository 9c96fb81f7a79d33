package output

import (
	"os"
	"path/filepath"
	"testing"

	"identivibe/pkg/models"
)

func TestWriteAndReadPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bundles.json")
	payload := &models.PlatformPayload{
		Platform: "reddit",
		Seed:     "golang",
		Users: []models.UserBundle{
			{
				Username:  "alice",
				Comments:  []string{"first", "second"},
				Captions:  []string{"my post"},
				Histogram: []models.SubredditCount{{Subreddit: "golang", Count: 3}},
			},
		},
		Note: "1 sampled users skipped as private, unavailable or empty",
	}

	if err := WritePayload(path, payload, nil); err != nil {
		t.Fatal(err)
	}

	got, err := ReadPayload(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Platform != "reddit" || got.Seed != "golang" || got.Note != payload.Note {
		t.Errorf("header lost in roundtrip: %+v", got)
	}
	if len(got.Users) != 1 || got.Users[0].Username != "alice" {
		t.Fatalf("users lost in roundtrip: %+v", got.Users)
	}
	if len(got.Users[0].Histogram) != 1 || got.Users[0].Histogram[0].Count != 3 {
		t.Errorf("histogram lost in roundtrip: %+v", got.Users[0].Histogram)
	}
}

func TestWritePayloadLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundles.json")

	if err := WritePayload(path, &models.PlatformPayload{Platform: "reddit"}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file must be renamed away")
	}
}

func TestWriteMerged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged.json")
	fields := map[string]interface{}{
		"platform": "instagram",
		"seed":     "nasa",
		"users":    []models.UserBundle{{Username: "bob"}},
	}

	if err := WriteMerged(path, fields, nil); err != nil {
		t.Fatal(err)
	}

	got, err := ReadPayload(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Platform != "instagram" || len(got.Users) != 1 {
		t.Errorf("merged output unreadable as payload: %+v", got)
	}
}

func TestReadPayloadErrors(t *testing.T) {
	if _, err := ReadPayload(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file must fail")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0644)
	if _, err := ReadPayload(bad); err == nil {
		t.Error("corrupt file must fail")
	}
}

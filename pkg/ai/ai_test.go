package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"identivibe/pkg/config"
	errs "identivibe/pkg/errors"
	"identivibe/pkg/models"
)

func fakeOpenAI(t *testing.T, replies []string) *httptest.Server {
	t.Helper()
	var call int
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		reply := replies[call]
		if call < len(replies)-1 {
			call++
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{
					"message":       map[string]interface{}{"role": "assistant", "content": reply},
					"finish_reason": "stop",
				},
			},
		})
	}))
}

func newTestAnnotator(t *testing.T, baseURL string) *LLMAnnotator {
	t.Helper()
	a, err := NewAnnotator(config.AIConfig{
		BaseURL: baseURL,
		Model:   "test-model",
		Token:   "test",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestAnnotate(t *testing.T) {
	server := fakeOpenAI(t, []string{`{"labels":["gaming","sarcastic"],"summary":"A dry-humored gamer."}`})
	defer server.Close()

	a := newTestAnnotator(t, server.URL)
	annotation, err := a.Annotate(context.Background(), models.UserBundle{
		Username: "alice",
		Comments: []string{"git gud"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(annotation.Labels) != 2 || annotation.Labels[0] != "gaming" {
		t.Errorf("unexpected labels %v", annotation.Labels)
	}
	if annotation.Summary != "A dry-humored gamer." {
		t.Errorf("unexpected summary %q", annotation.Summary)
	}
}

func TestAnnotateStripsCodeFence(t *testing.T) {
	server := fakeOpenAI(t, []string{"```json\n{\"labels\":[\"music\"],\"summary\":\"s\"}\n```"})
	defer server.Close()

	a := newTestAnnotator(t, server.URL)
	annotation, err := a.Annotate(context.Background(), models.UserBundle{Username: "bob"})
	if err != nil {
		t.Fatal(err)
	}
	if len(annotation.Labels) != 1 || annotation.Labels[0] != "music" {
		t.Errorf("fenced reply not parsed: %+v", annotation)
	}
}

func TestAnnotateRetriesMalformedReplies(t *testing.T) {
	server := fakeOpenAI(t, []string{
		"not json at all",
		`{"labels":["books"],"summary":"A reader."}`,
	})
	defer server.Close()

	a := newTestAnnotator(t, server.URL)
	annotation, err := a.Annotate(context.Background(), models.UserBundle{Username: "carol"})
	if err != nil {
		t.Fatal(err)
	}
	if len(annotation.Labels) != 1 || annotation.Labels[0] != "books" {
		t.Errorf("expected recovery on second attempt: %+v", annotation)
	}
}

func TestAnnotateGivesUpOnGarbage(t *testing.T) {
	server := fakeOpenAI(t, []string{"still not json"})
	defer server.Close()

	a := newTestAnnotator(t, server.URL)
	_, err := a.Annotate(context.Background(), models.UserBundle{Username: "dave"})

	var apiErr *errs.Error
	if !errors.As(err, &apiErr) || apiErr.Type != errs.ErrorTypeParsing {
		t.Fatalf("expected parsing error, got %v", err)
	}
}

func TestBundleText(t *testing.T) {
	text := bundleText(models.UserBundle{
		Username: "alice",
		Comments: []string{"one", "two"},
		Captions: []string{"cap"},
	})
	if !strings.Contains(text, "- one") || !strings.Contains(text, "- two") {
		t.Errorf("comments missing from prompt: %q", text)
	}
	if !strings.Contains(text, "Captions:") || !strings.Contains(text, "- cap") {
		t.Errorf("captions missing from prompt: %q", text)
	}

	noCaptions := bundleText(models.UserBundle{Comments: []string{"x"}})
	if strings.Contains(noCaptions, "Captions:") {
		t.Error("empty caption section must be omitted")
	}
}

func TestMockAnnotator(t *testing.T) {
	mock := &MockAnnotator{
		Annotations: map[string]*Annotation{
			"alice": {Labels: []string{"test"}, Summary: "s"},
		},
	}

	a, err := mock.Annotate(context.Background(), models.UserBundle{Username: "alice"})
	if err != nil || a.Summary != "s" {
		t.Errorf("unexpected result: %v %v", a, err)
	}

	a, err = mock.Annotate(context.Background(), models.UserBundle{Username: "unknown"})
	if err != nil || a == nil {
		t.Errorf("unregistered user must get an empty annotation: %v %v", a, err)
	}

	if len(mock.Calls) != 2 || mock.Calls[0] != "alice" {
		t.Errorf("calls not recorded: %v", mock.Calls)
	}
}

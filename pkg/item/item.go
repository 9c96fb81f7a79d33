package item

import "strings"

// Item is one schemaless content unit returned by a remote dataset: a post,
// a comment, or an error placeholder. Remote actors expose the same logical
// field under different keys depending on content type, so all field access
// goes through ordered extraction rules rather than direct lookups.
type Item map[string]interface{}

// Rule is one candidate location for a logical field. A path with more
// than one segment descends into nested objects.
type Rule struct {
	Path []string
}

// String returns the first non-blank string produced by the rules, with
// surrounding whitespace trimmed. Values of the form {"text": "..."} are
// unwrapped one level, matching the nested caption objects some actors emit.
func (it Item) String(rules []Rule) string {
	for _, r := range rules {
		v := it.lookup(r.Path)
		if v == nil {
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			v = nested["text"]
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// Bool returns the first boolean produced by the rules, or false.
func (it Item) Bool(rules []Rule) bool {
	for _, r := range rules {
		if b, ok := it.lookup(r.Path).(bool); ok {
			return b
		}
	}
	return false
}

func (it Item) lookup(path []string) interface{} {
	var cur interface{} = map[string]interface{}(it)
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// Extraction rules per logical field. Documented by source format:
// ownerUsername/username/owner.username come from the Instagram comment
// actor, author from the Reddit JSON shape.
var (
	authorRules = []Rule{
		{Path: []string{"ownerUsername"}},
		{Path: []string{"username"}},
		{Path: []string{"owner", "username"}},
		{Path: []string{"author"}},
	}

	textRules = []Rule{
		{Path: []string{"text"}},
		{Path: []string{"body"}},
		{Path: []string{"content"}},
	}

	captionRules = []Rule{
		{Path: []string{"caption"}},
		{Path: []string{"text"}},
		{Path: []string{"description"}},
	}

	urlRules = []Rule{
		{Path: []string{"url"}},
		{Path: []string{"postUrl"}},
	}

	errorRules = []Rule{
		{Path: []string{"error"}},
		{Path: []string{"errorDescription"}},
	}
)

// Author returns the item's author identifier, or "" when absent.
func (it Item) Author() string {
	return it.String(authorRules)
}

// Text returns the item's primary text, or "" when absent or blank.
func (it Item) Text() string {
	return it.String(textRules)
}

// Caption returns the item's caption text, or "" when absent or blank.
func (it Item) Caption() string {
	return it.String(captionRules)
}

// URL returns the item's content URL. Items carrying only a shortCode get
// a canonical post URL composed from it.
func (it Item) URL() string {
	if u := it.String(urlRules); u != "" {
		return u
	}
	if code := it.String([]Rule{{Path: []string{"shortCode"}}}); code != "" {
		return "https://www.instagram.com/p/" + code + "/"
	}
	return ""
}

// Private reports whether the item carries an explicit private flag.
func (it Item) Private() bool {
	return it.Bool([]Rule{{Path: []string{"isPrivate"}}, {Path: []string{"private"}}})
}

// Errored reports whether the item carries any error indicator, whatever
// its type: some actors emit an error string, others a bare boolean.
func (it Item) Errored() bool {
	switch v := it["error"].(type) {
	case nil:
	case bool:
		if v {
			return true
		}
	case string:
		if strings.TrimSpace(v) != "" {
			return true
		}
	default:
		return true
	}
	return it.ErrorText() != ""
}

// ErrorText returns the item's error indicator, combining the error field
// and any error message, or "" for a clean item.
func (it Item) ErrorText() string {
	parts := make([]string, 0, 2)
	if e := it.String(errorRules); e != "" {
		parts = append(parts, e)
	}
	if msg := it.String([]Rule{{Path: []string{"errorMessage"}}}); msg != "" {
		parts = append(parts, msg)
	}
	return strings.Join(parts, ": ")
}

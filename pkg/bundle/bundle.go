package bundle

import (
	"strings"

	"identivibe/pkg/item"
	"identivibe/pkg/models"
)

// Bundler groups harvested texts by author, enforcing a per-author cap and
// optional exact-duplicate suppression. Authors keep first-seen order, and
// duplicates never consume cap slots.
type Bundler struct {
	maxPerUser int
	dedupe     bool

	order []string
	texts map[string][]string
	seen  map[string]map[string]struct{}
}

// New creates a Bundler. A non-positive maxPerUser means unlimited.
func New(maxPerUser int, dedupe bool) *Bundler {
	return &Bundler{
		maxPerUser: maxPerUser,
		dedupe:     dedupe,
		texts:      make(map[string][]string),
		seen:       make(map[string]map[string]struct{}),
	}
}

// Add records one text under an author. It reports whether the text was
// kept; blank authors, blank texts, duplicates (when deduping) and texts
// past the cap are dropped.
func (b *Bundler) Add(author, text string) bool {
	author = strings.TrimSpace(author)
	text = strings.TrimSpace(text)
	if author == "" || text == "" {
		return false
	}

	if b.dedupe {
		set, ok := b.seen[author]
		if !ok {
			set = make(map[string]struct{})
			b.seen[author] = set
		}
		if _, dup := set[text]; dup {
			return false
		}
		set[text] = struct{}{}
	}

	if b.maxPerUser > 0 && len(b.texts[author]) >= b.maxPerUser {
		return false
	}

	if _, known := b.texts[author]; !known {
		b.order = append(b.order, author)
	}
	b.texts[author] = append(b.texts[author], text)
	return true
}

// AddItem extracts the author and text from a raw item and records them.
func (b *Bundler) AddItem(it item.Item) bool {
	return b.Add(it.Author(), it.Text())
}

// AddItems records a batch of raw items and returns how many were kept.
func (b *Bundler) AddItems(items []item.Item) int {
	kept := 0
	for _, it := range items {
		if b.AddItem(it) {
			kept++
		}
	}
	return kept
}

// Users returns authors in first-seen order.
func (b *Bundler) Users() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Texts returns the kept texts for one author, in arrival order.
func (b *Bundler) Texts(author string) []string {
	texts := b.texts[author]
	out := make([]string, len(texts))
	copy(out, texts)
	return out
}

// Count returns the number of distinct authors bundled so far.
func (b *Bundler) Count() int {
	return len(b.order)
}

// Bundles materializes the grouped content as user bundles in first-seen
// author order.
func (b *Bundler) Bundles() []models.UserBundle {
	out := make([]models.UserBundle, 0, len(b.order))
	for _, author := range b.order {
		out = append(out, models.UserBundle{
			Username: author,
			Comments: b.Texts(author),
		})
	}
	return out
}

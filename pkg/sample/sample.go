package sample

import (
	"math/rand"
	"time"

	"identivibe/pkg/bundle"
)

// Sampler draws a uniform random subset of bundled authors. Seeded
// construction makes draws reproducible.
type Sampler struct {
	rng *rand.Rand
}

// New creates a Sampler seeded from the clock.
func New() *Sampler {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded creates a Sampler with a fixed seed.
func NewSeeded(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Eligible returns the authors holding at least minTexts kept texts, in the
// bundler's first-seen order. A non-positive minTexts admits everyone.
func Eligible(b *bundle.Bundler, minTexts int) []string {
	users := b.Users()
	if minTexts <= 0 {
		return users
	}
	out := users[:0]
	for _, u := range users {
		if len(b.Texts(u)) >= minTexts {
			out = append(out, u)
		}
	}
	return out
}

// Pick draws min(size, len(users)) authors uniformly without replacement.
// The input slice is not modified.
func (s *Sampler) Pick(users []string, size int) []string {
	if size <= 0 || len(users) == 0 {
		return nil
	}

	shuffled := make([]string, len(users))
	copy(shuffled, users)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if size > len(shuffled) {
		size = len(shuffled)
	}
	return shuffled[:size]
}

// Usernames filters the bundler by the minimum-content threshold and draws
// a sample in one step.
func (s *Sampler) Usernames(b *bundle.Bundler, minTexts, size int) []string {
	return s.Pick(Eligible(b, minTexts), size)
}

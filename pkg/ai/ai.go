package ai

import (
	"context"

	"identivibe/pkg/models"
)

// Annotation is the model's read on one user bundle: short vibe labels
// plus a one-line summary.
type Annotation struct {
	Labels  []string `json:"labels"`
	Summary string   `json:"summary"`
}

// Annotator derives an annotation from a user's harvested content.
// Implementations must be safe for concurrent use.
type Annotator interface {
	Annotate(ctx context.Context, bundle models.UserBundle) (*Annotation, error)
}

package ai

import (
	"context"

	"identivibe/pkg/models"
)

// MockAnnotator is a test double returning canned annotations per username.
type MockAnnotator struct {
	Annotations map[string]*Annotation
	Err         error
	Calls       []string
}

// Annotate returns the canned annotation for the bundle's username, or an
// empty annotation when none is registered.
func (m *MockAnnotator) Annotate(_ context.Context, bundle models.UserBundle) (*Annotation, error) {
	m.Calls = append(m.Calls, bundle.Username)
	if m.Err != nil {
		return nil, m.Err
	}
	if a, ok := m.Annotations[bundle.Username]; ok {
		return a, nil
	}
	return &Annotation{}, nil
}

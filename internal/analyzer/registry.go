package analyzer

import (
	"fmt"

	"docbench/internal/domain"
	"docbench/internal/port"
)

// Registry holds the configured analyzers in registration order. It is
// constructed once at process start and passed by reference to the
// benchmark service; analyzer instances are reused across documents and
// across runs.
type Registry struct {
	labels    []string
	analyzers map[string]port.DocumentAnalyzer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{analyzers: make(map[string]port.DocumentAnalyzer)}
}

// Register adds an analyzer under its label. Re-registering a label
// replaces the analyzer but keeps its original position.
func (r *Registry) Register(a port.DocumentAnalyzer) {
	label := a.Label()
	if _, exists := r.analyzers[label]; !exists {
		r.labels = append(r.labels, label)
	}
	r.analyzers[label] = a
}

// Get returns the analyzer registered under label.
func (r *Registry) Get(label string) (port.DocumentAnalyzer, bool) {
	a, ok := r.analyzers[label]
	return a, ok
}

// Labels returns all registered labels in registration order.
func (r *Registry) Labels() []string {
	out := make([]string, len(r.labels))
	copy(out, r.labels)
	return out
}

// Select resolves the requested labels to analyzers, preserving
// registration order. An empty request selects every registered analyzer.
func (r *Registry) Select(requested []string) ([]port.DocumentAnalyzer, error) {
	if len(requested) == 0 {
		requested = r.labels
	}
	want := make(map[string]bool, len(requested))
	for _, label := range requested {
		if _, ok := r.analyzers[label]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownBackend, label)
		}
		want[label] = true
	}
	var selected []port.DocumentAnalyzer
	for _, label := range r.labels {
		if want[label] {
			selected = append(selected, r.analyzers[label])
		}
	}
	return selected, nil
}

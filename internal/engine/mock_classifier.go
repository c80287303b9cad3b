package engine

import (
	"context"
	"sync"
)

// MockClassifier is a scriptable Classifier for tests. Without a Script it
// answers "Misc" for everything.
type MockClassifier struct {
	// Script receives the zero-based call number and the chunk, and
	// decides the response for that call.
	Script func(call int, descriptions []string) ([]string, error)

	// Calls records every chunk received, in order.
	Calls [][]string

	mu sync.Mutex
}

// ClassifyBatch implements Classifier.
func (m *MockClassifier) ClassifyBatch(_ context.Context, descriptions []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := len(m.Calls)
	m.Calls = append(m.Calls, append([]string(nil), descriptions...))

	if m.Script != nil {
		return m.Script(call, descriptions)
	}

	categories := make([]string, len(descriptions))
	for i := range categories {
		categories[i] = "Misc"
	}
	return categories, nil
}

// CallCount returns how many times ClassifyBatch was invoked.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

package embedding

import (
	"fmt"
	"sort"
	"sync"

	"github.com/poiesic/alignsearch/core"
)

// Registry holds the embeddings loaded into a session, keyed by name.
// The first embedding added is the default.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Embedding
	first string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Embedding)}
}

// Add registers e, replacing any embedding of the same name.
func (r *Registry) Add(e Embedding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.first == "" {
		r.first = e.Name()
	}
	r.items[e.Name()] = e
}

// Lookup returns the embedding called name. An empty name selects the default.
func (r *Registry) Lookup(name string) (Embedding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.first
	}
	e, ok := r.items[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownEmbedding, name)
	}
	return e, nil
}

// Default returns the first embedding added.
func (r *Registry) Default() (Embedding, error) {
	return r.Lookup("")
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for n := range r.items {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

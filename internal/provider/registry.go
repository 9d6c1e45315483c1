package provider

import (
	"context"
	"strings"
	"sync"
)

// Registry maps provider names to their generation clients.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Generator
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Generator)}
}

// Register adds or replaces a backend under the given name.
func (r *Registry) Register(name string, backend Generator) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || backend == nil {
		return
	}
	r.mu.Lock()
	r.backends[name] = backend
	r.mu.Unlock()
}

// Get returns the backend registered under the given name.
func (r *Registry) Get(name string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	backend, ok := r.backends[strings.ToLower(strings.TrimSpace(name))]
	return backend, ok
}

// GenerateContent dispatches to the backend named in cfg.Provider.
func (r *Registry) GenerateContent(ctx context.Context, prompt string, cfg Config) (*Result, error) {
	backend, ok := r.Get(cfg.Provider)
	if !ok {
		return nil, ErrUnknownProvider
	}
	return backend.GenerateContent(ctx, prompt, cfg)
}

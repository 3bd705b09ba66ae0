package llm

import (
	"fmt"
	"sync"
)

// Registry holds all available LLM providers, and the per-function routing
// table naming which provider currently handles each logical function.
// Switching a function's binding is atomic: in-flight calls hold the
// provider they started with, new calls see the new one (spec.md §4.5).
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	routes    map[string]string // function name -> provider name
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		routes:    make(map[string]string),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Route binds a logical function ("analyze_intent", "complete", "embed",
// "anonymise") to a registered provider by name.
func (r *Registry) Route(function, providerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[providerName]; !ok {
		return fmt.Errorf("llm provider %q not registered", providerName)
	}
	r.routes[function] = providerName
	return nil
}

// ProviderFor returns the provider currently bound to function.
func (r *Registry) ProviderFor(function string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.routes[function]
	if !ok {
		return nil, fmt.Errorf("no provider routed for function %q", function)
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("llm provider %q not registered", name)
	}
	return p, nil
}

// All returns every registered provider.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	return result
}

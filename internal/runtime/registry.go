package runtime

import (
	"fmt"
	"sync"

	"github.com/wisbric/ai-shell/internal/apperr"
)

// Registry holds the set of registered modules in construction order.
// Construction order doubles as shutdown order, reversed (spec.md §4.11:
// "modules are stopped in the reverse of their startup order").
type Registry struct {
	mu      sync.Mutex
	order   []string
	modules map[string]Module
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// RegisterModule adds m under name, in the order Register is called. A
// duplicate name is rejected rather than silently overwriting a running
// component.
func (r *Registry) RegisterModule(name string, m Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[name]; exists {
		return apperr.New(apperr.KindDuplicateName, "runtime.register", fmt.Sprintf("module %q already registered", name))
	}
	r.modules[name] = m
	r.order = append(r.order, name)
	return nil
}

// Ordered returns the registered modules in registration order.
func (r *Registry) Ordered() []Module {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Module, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.modules[name])
	}
	return out
}

// Reversed returns the registered modules in reverse registration order.
func (r *Registry) Reversed() []Module {
	ordered := r.Ordered()
	out := make([]Module, len(ordered))
	for i, m := range ordered {
		out[len(ordered)-1-i] = m
	}
	return out
}

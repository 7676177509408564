package shipper

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry manages registered shipping carriers. Lookups are
// case-insensitive and accept any alias registered for a carrier, since
// vendor naming is inconsistent across stored records.
type Registry struct {
	shippers map[string]Shipper
	aliases  map[string]string
	mu       sync.RWMutex
}

// NewRegistry creates a new shipper registry.
func NewRegistry() *Registry {
	return &Registry{
		shippers: make(map[string]Shipper),
		aliases:  make(map[string]string),
	}
}

// Register adds a shipper to the registry under its name and aliases.
func (r *Registry) Register(s Shipper, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := s.Name()
	r.shippers[name] = s
	r.aliases[aliasKey(name)] = name
	for _, a := range aliases {
		r.aliases[aliasKey(a)] = name
	}
}

// Get returns a shipper by name or alias.
func (r *Registry) Get(name string) (Shipper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[aliasKey(name)]; ok {
		if s, ok := r.shippers[canonical]; ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCarrierNotFound, name)
}

// Aliases returns every alias registered for the carrier name or alias.
func (r *Registry) Aliases(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical, ok := r.aliases[aliasKey(name)]
	if !ok {
		return nil
	}
	var out []string
	for alias, target := range r.aliases {
		if target == canonical {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// All returns all registered shippers.
func (r *Registry) All() []Shipper {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Shipper, 0, len(r.shippers))
	for _, s := range r.shippers {
		result = append(result, s)
	}
	return result
}

// Names returns the names of all registered shippers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.shippers))
	for name := range r.shippers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered shippers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shippers)
}

func aliasKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

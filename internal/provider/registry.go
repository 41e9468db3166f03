package provider

import (
	"fmt"
	"strings"
)

// Registry indexes the available providers by name.
type Registry struct {
	byName map[string]Provider
}

func NewRegistry(providers ...Provider) (Registry, error) {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			return Registry{}, fmt.Errorf("provider must not be nil")
		}
		name := strings.ToLower(strings.TrimSpace(p.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("provider name must not be empty")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("duplicate provider %q", name)
		}
		byName[name] = p
	}
	return Registry{byName: byName}, nil
}

func (r Registry) Get(name string) (Provider, bool) {
	if r.byName == nil {
		return nil, false
	}
	p, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Select returns the named providers in the given order. Stage order matters:
// a later provider overwrites fields of an item an earlier one also emitted.
func (r Registry) Select(names []string) ([]Provider, error) {
	out := make([]Provider, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if key == "" || seen[key] {
			continue
		}
		p, ok := r.Get(key)
		if !ok {
			return nil, fmt.Errorf("unknown provider %q", n)
		}
		seen[key] = true
		out = append(out, p)
	}
	return out, nil
}

package swaggerkit

import (
	"slices"
	"sync"
)

// SpecMutator lets modules tweak the parsed swagger spec before it is served
type SpecMutator func(spec map[string]any)

var (
	mu       sync.Mutex
	mutators = map[string]SpecMutator{}
)

// Register adds a named spec mutator, registering a name again replaces it
// modules call this while they are built so a rebuilt module does not stack copies
func Register(name string, m SpecMutator) {
	mu.Lock()
	defer mu.Unlock()
	if m == nil {
		delete(mutators, name)
		return
	}
	mutators[name] = m
}

// apply runs every mutator in name order
func apply(spec map[string]any) {
	mu.Lock()
	names := make([]string, 0, len(mutators))
	for n := range mutators {
		names = append(names, n)
	}
	ms := make([]SpecMutator, 0, len(names))
	slices.Sort(names)
	for _, n := range names {
		ms = append(ms, mutators[n])
	}
	mu.Unlock()

	for _, m := range ms {
		m(spec)
	}
}

// Schemas returns components.schemas, creating the path when missing
func Schemas(spec map[string]any) map[string]any {
	comps, ok := spec["components"].(map[string]any)
	if !ok {
		comps = map[string]any{}
		spec["components"] = comps
	}
	schemas, ok := comps["schemas"].(map[string]any)
	if !ok {
		schemas = map[string]any{}
		comps["schemas"] = schemas
	}
	return schemas
}
